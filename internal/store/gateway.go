package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"geo_ingest/internal/ingest"
	"geo_ingest/internal/models"
)

// RejectedError is a row-level insert failure (a store-side
// constraint violation). It is recorded against the offending entry
// and never fails the whole call.
type RejectedError struct {
	Code   string
	Reason string
}

func (e *RejectedError) Error() string {
	return "insert rejected by store: " + e.Reason
}

// Health is the result of a store probe.
type Health struct {
	Reachable    bool
	FeatureCount int64
}

// StoredFeature is the read-back shape for feature queries; geometry
// comes back as GeoJSON rendered by the store.
type StoredFeature struct {
	ID           uint           `json:"id"`
	Name         string         `json:"name"`
	GeometryType string         `json:"geometry_type"`
	Geometry     datatypes.JSON `json:"geometry" gorm:"column:geometry"`
	Properties   datatypes.JSON `json:"properties"`
}

// Gateway owns the persistence contract against the spatial store.
// Every operation is bounded by the configured timeout; each insert
// is its own transaction, so concurrent writers never serialize
// behind one another and a batch can persist partially.
type Gateway struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGateway wraps an initialized gorm handle. timeout bounds each
// store operation; zero means no bound beyond the caller's context.
func NewGateway(db *gorm.DB, timeout time.Duration) *Gateway {
	return &Gateway{db: db, timeout: timeout}
}

func (g *Gateway) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

// Insert writes one canonical feature as a single transaction and
// returns the generated row id. Connectivity failures wrap
// ingest.ErrStoreUnavailable; constraint violations come back as a
// *RejectedError.
func (g *Gateway) Insert(ctx context.Context, f *ingest.CanonicalFeature) (uint, error) {
	ctx, cancel := g.opContext(ctx)
	defer cancel()

	geomHex, err := encodeSpatial(f.RawGeometry)
	if err != nil {
		return 0, &RejectedError{Reason: "geometry not convertible to a spatial value: " + err.Error()}
	}
	props, err := json.Marshal(f.Properties)
	if err != nil {
		return 0, &RejectedError{Reason: "properties not serializable: " + err.Error()}
	}

	row := models.GeoFeature{
		Name:         f.Name,
		GeometryType: f.GeometryType,
		Geom:         geomHex,
		Properties:   datatypes.JSON(props),
		RawGeometry:  datatypes.JSON(f.RawGeometry),
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, classifyStoreError(err)
	}
	return row.ID, nil
}

// HealthCheck probes connectivity and counts stored rows. It only
// reads, takes no locks, and runs under the same operation timeout
// as inserts so it cannot be starved by ingestion load.
func (g *Gateway) HealthCheck(ctx context.Context) (Health, error) {
	ctx, cancel := g.opContext(ctx)
	defer cancel()

	var count int64
	if err := g.db.WithContext(ctx).Model(&models.GeoFeature{}).Count(&count).Error; err != nil {
		return Health{}, fmt.Errorf("%w: %v", ingest.ErrStoreUnavailable, err)
	}
	return Health{Reachable: true, FeatureCount: count}, nil
}

// FeaturesByType returns stored features of one geometry type,
// newest first, with the stored geometry rendered back as GeoJSON.
func (g *Gateway) FeaturesByType(ctx context.Context, geometryType string, limit int) ([]StoredFeature, error) {
	ctx, cancel := g.opContext(ctx)
	defer cancel()

	var features []StoredFeature
	err := g.db.WithContext(ctx).Raw(
		`SELECT id, name, geometry_type, ST_AsGeoJSON(geom) AS geometry, properties
		 FROM geo_features
		 WHERE geometry_type = ? AND deleted_at IS NULL
		 ORDER BY created_at DESC
		 LIMIT ?`,
		geometryType, limit,
	).Scan(&features).Error
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return features, nil
}

// classifyStoreError splits storage failures into the two classes the
// pipeline distinguishes: Postgres reported the row as bad (rejected,
// per-entry) versus the store being unreachable (fatal to the call).
// Class 08 is "connection exception"; any other PgError means the
// statement reached the server and the row itself was refused.
func classifyStoreError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") {
			return fmt.Errorf("%w: %v", ingest.ErrStoreUnavailable, pgErr.Message)
		}
		return &RejectedError{Code: pgErr.Code, Reason: pgErr.Message}
	}
	return fmt.Errorf("%w: %v", ingest.ErrStoreUnavailable, err)
}
