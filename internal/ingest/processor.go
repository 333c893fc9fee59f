package ingest

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"geo_ingest/internal/geojson"
)

// ErrStoreUnavailable is the fatal storage failure class: the store
// cannot be reached at all, so no feature can be durably recorded and
// the whole call fails. The gateway wraps its connectivity errors
// with this sentinel. Row-level rejections are plain errors and stay
// per-entry.
var ErrStoreUnavailable = errors.New("spatial store unavailable")

// FeatureStore is the persistence contract the processor needs.
// *store.Gateway satisfies it in production; tests use a mock.
type FeatureStore interface {
	Insert(ctx context.Context, f *CanonicalFeature) (uint, error)
}

// Processor walks one GeoJSON document, validating, normalizing and
// persisting each entry in input order. One bad entry never aborts
// the rest of the batch.
type Processor struct {
	store     FeatureStore
	validator *geojson.Validator
}

// NewProcessor builds a processor with a strict-range validator.
func NewProcessor(store FeatureStore) *Processor {
	return &Processor{store: store, validator: geojson.NewValidator()}
}

// Process ingests one document and returns its report. A nil report
// with an error means the call failed entirely: either a
// *geojson.DocumentError or an error wrapping ErrStoreUnavailable.
// Each successful insert is its own committed transaction, so a
// collection can persist partially.
func (p *Processor) Process(ctx context.Context, document []byte) (*Report, error) {
	entries, err := geojson.DecodeDocument(document)
	if err != nil {
		return nil, err
	}

	processed := 0
	var entryErrors []EntryError

	for _, entry := range entries {
		reason, err := p.processEntry(ctx, entry)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			entryErrors = append(entryErrors, EntryError{Index: entry.Index, Reason: reason})
			logrus.WithFields(logrus.Fields{"index": entry.Index, "reason": reason}).Warn("feature rejected")
			continue
		}
		processed++
	}

	return newReport(len(entries), processed, entryErrors), nil
}

// processEntry returns a non-empty reason for per-entry failures and
// a non-nil error only for fatal ones.
func (p *Processor) processEntry(ctx context.Context, entry geojson.Entry) (string, error) {
	valid, err := p.validator.Validate(entry.Geometry)
	if err != nil {
		return err.Error(), nil
	}

	feature := Normalize(valid, entry.Geometry, entry.Properties, "", entry.Index)

	id, err := p.store.Insert(ctx, feature)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return "", err
		}
		return err.Error(), nil
	}

	logrus.WithFields(logrus.Fields{
		"feature_id":    id,
		"index":         entry.Index,
		"geometry_type": feature.GeometryType,
	}).Debug("feature stored")
	return "", nil
}
