package ingest

import (
	"encoding/json"
	"fmt"

	"geo_ingest/internal/geojson"
)

// CanonicalFeature is the storage-ready unit produced by
// normalization. RawGeometry keeps the geometry bytes exactly as
// submitted; Geometry is the validated form the gateway converts into
// the spatial column.
type CanonicalFeature struct {
	Name         string
	GeometryType string
	Geometry     *geojson.Geometry
	Properties   map[string]interface{}
	RawGeometry  json.RawMessage
}

// Normalize builds the canonical record for one validated geometry.
// The geometry_type tag always comes from the validated geometry
// itself, never from caller-supplied metadata. Name resolution:
// explicitName, then a string properties["name"], then a
// deterministic "Feature {index}" fallback. Normalize never fails;
// anything that can go wrong belongs to the validation stage.
func Normalize(valid *geojson.Geometry, raw json.RawMessage, properties map[string]interface{}, explicitName string, index int) *CanonicalFeature {
	if properties == nil {
		properties = map[string]interface{}{}
	}

	name := explicitName
	if name == "" {
		if s, ok := properties["name"].(string); ok && s != "" {
			name = s
		} else {
			name = fmt.Sprintf("Feature %d", index)
		}
	}

	return &CanonicalFeature{
		Name:         name,
		GeometryType: valid.Type,
		Geometry:     valid,
		Properties:   properties,
		RawGeometry:  raw,
	}
}
