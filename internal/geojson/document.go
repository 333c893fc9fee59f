package geojson

import (
	"encoding/json"
	"fmt"
)

// DocumentError means the submitted document itself is unusable:
// not valid JSON, or not one of the three accepted top-level shapes.
// It is fatal to the whole ingestion call, unlike a ValidationError
// which only sinks a single entry.
type DocumentError struct {
	Reason string
}

func (e *DocumentError) Error() string {
	return e.Reason
}

// Feature mirrors a GeoJSON Feature as submitted. Geometry is kept as
// raw bytes so the original payload survives verbatim into storage.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection mirrors a GeoJSON FeatureCollection envelope.
type FeatureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// Entry is one flattened unit of work for the batch processor:
// the raw geometry plus its properties, tagged with its position in
// the input document.
type Entry struct {
	Index      int
	Geometry   json.RawMessage
	Properties map[string]interface{}
}

// DecodeDocument accepts a bare geometry, a Feature, or a
// FeatureCollection and flattens it into an ordered entry list.
// Anything else is a DocumentError.
func DecodeDocument(data []byte) ([]Entry, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &DocumentError{Reason: "invalid JSON: " + err.Error()}
	}

	switch envelope.Type {
	case "":
		return nil, &DocumentError{Reason: "document must have a 'type' field"}

	case "Feature":
		var f Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, &DocumentError{Reason: "invalid Feature: " + err.Error()}
		}
		return []Entry{{Index: 0, Geometry: f.Geometry, Properties: f.Properties}}, nil

	case "FeatureCollection":
		var fc FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, &DocumentError{Reason: "invalid FeatureCollection: " + err.Error()}
		}
		if fc.Features == nil {
			return nil, &DocumentError{Reason: "FeatureCollection must have a 'features' array"}
		}
		entries := make([]Entry, 0, len(fc.Features))
		for i, raw := range fc.Features {
			var f Feature
			if err := json.Unmarshal(raw, &f); err != nil {
				return nil, &DocumentError{Reason: fmt.Sprintf("member %d of FeatureCollection is not an object", i)}
			}
			if f.Type != "Feature" {
				return nil, &DocumentError{Reason: fmt.Sprintf("member %d of FeatureCollection is not a Feature", i)}
			}
			entries = append(entries, Entry{Index: i, Geometry: f.Geometry, Properties: f.Properties})
		}
		return entries, nil
	}

	if IsGeometryType(envelope.Type) {
		// Bare geometry: the whole document is the entry's geometry.
		return []Entry{{Index: 0, Geometry: json.RawMessage(data)}}, nil
	}

	return nil, &DocumentError{Reason: fmt.Sprintf("unsupported GeoJSON type %q", envelope.Type)}
}
