package geojson

import (
	"encoding/json"
	"fmt"
	"math"
)

// The seven geometry types of RFC 7946.
const (
	TypePoint              = "Point"
	TypeMultiPoint         = "MultiPoint"
	TypeLineString         = "LineString"
	TypeMultiLineString    = "MultiLineString"
	TypePolygon            = "Polygon"
	TypeMultiPolygon       = "MultiPolygon"
	TypeGeometryCollection = "GeometryCollection"
)

var geometryTypes = map[string]bool{
	TypePoint:              true,
	TypeMultiPoint:         true,
	TypeLineString:         true,
	TypeMultiLineString:    true,
	TypePolygon:            true,
	TypeMultiPolygon:       true,
	TypeGeometryCollection: true,
}

// IsGeometryType reports whether t is one of the seven geometry tags.
func IsGeometryType(t string) bool {
	return geometryTypes[t]
}

// ValidationError marks a single geometry as unusable. It is recorded
// against the entry's index and never aborts the rest of the batch.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Geometry is a decoded GeoJSON geometry. Coordinates stays raw until
// the per-type checks parse it into the shape the type demands;
// Geometries is populated for GeometryCollection only.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []Geometry      `json:"geometries,omitempty"`
}

// Validator checks decoded geometries against GeoJSON structural
// rules and geometric sanity rules. StrictRange additionally bounds
// longitude to [-180,180] and latitude to [-90,90]; the service runs
// in strict mode since every stored geometry is WGS84.
type Validator struct {
	StrictRange bool
}

// NewValidator returns a strict-range validator.
func NewValidator() *Validator {
	return &Validator{StrictRange: true}
}

// Validate decodes raw as a GeoJSON geometry and checks it. It is a
// pure function of its input and the range mode.
func (v *Validator) Validate(raw json.RawMessage) (*Geometry, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, invalid("geometry is missing or null")
	}
	var g Geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, invalid("geometry is not a JSON object: %v", err)
	}
	if err := v.validateGeometry(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (v *Validator) validateGeometry(g *Geometry) error {
	if g.Type == "" {
		return invalid("geometry must have a 'type' field")
	}
	if !IsGeometryType(g.Type) {
		return invalid("unsupported geometry type %q", g.Type)
	}

	if g.Type == TypeGeometryCollection {
		if len(g.Geometries) == 0 {
			return invalid("GeometryCollection must contain at least one geometry")
		}
		for i := range g.Geometries {
			if err := v.validateGeometry(&g.Geometries[i]); err != nil {
				return invalid("geometry %d in collection: %v", i, err)
			}
		}
		return nil
	}

	if len(g.Coordinates) == 0 || string(g.Coordinates) == "null" {
		return invalid("%s must have a 'coordinates' field", g.Type)
	}

	switch g.Type {
	case TypePoint:
		var pos []float64
		if err := json.Unmarshal(g.Coordinates, &pos); err != nil {
			return invalid("Point coordinates must be a single position")
		}
		return v.checkPosition(pos)

	case TypeMultiPoint:
		var pts [][]float64
		if err := json.Unmarshal(g.Coordinates, &pts); err != nil {
			return invalid("MultiPoint coordinates must be an array of positions")
		}
		if len(pts) == 0 {
			return invalid("MultiPoint must contain at least one position")
		}
		return v.checkPositions(pts)

	case TypeLineString:
		var line [][]float64
		if err := json.Unmarshal(g.Coordinates, &line); err != nil {
			return invalid("LineString coordinates must be an array of positions")
		}
		return v.checkLineString(line)

	case TypeMultiLineString:
		var lines [][][]float64
		if err := json.Unmarshal(g.Coordinates, &lines); err != nil {
			return invalid("MultiLineString coordinates must be an array of line strings")
		}
		if len(lines) == 0 {
			return invalid("MultiLineString must contain at least one line string")
		}
		for i, line := range lines {
			if err := v.checkLineString(line); err != nil {
				return invalid("line string %d: %v", i, err)
			}
		}
		return nil

	case TypePolygon:
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return invalid("Polygon coordinates must be an array of rings")
		}
		return v.checkRings(rings)

	case TypeMultiPolygon:
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return invalid("MultiPolygon coordinates must be an array of polygons")
		}
		if len(polys) == 0 {
			return invalid("MultiPolygon must contain at least one polygon")
		}
		for i, rings := range polys {
			if err := v.checkRings(rings); err != nil {
				return invalid("polygon %d: %v", i, err)
			}
		}
		return nil
	}

	return nil
}

func (v *Validator) checkPosition(pos []float64) error {
	if len(pos) < 2 {
		return invalid("position must have at least 2 components, got %d", len(pos))
	}
	// Altitude (third component) is accepted and ignored for checks.
	for _, c := range pos {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return invalid("position contains a non-finite component")
		}
	}
	if v.StrictRange {
		lon, lat := pos[0], pos[1]
		if lon < -180 || lon > 180 {
			return invalid("longitude %g out of range [-180, 180]", lon)
		}
		if lat < -90 || lat > 90 {
			return invalid("latitude %g out of range [-90, 90]", lat)
		}
	}
	return nil
}

func (v *Validator) checkPositions(pts [][]float64) error {
	for i, pos := range pts {
		if err := v.checkPosition(pos); err != nil {
			return invalid("position %d: %v", i, err)
		}
	}
	return nil
}

func (v *Validator) checkLineString(line [][]float64) error {
	if len(line) < 2 {
		return invalid("line string must have at least 2 positions, got %d", len(line))
	}
	return v.checkPositions(line)
}

func (v *Validator) checkRings(rings [][][]float64) error {
	if len(rings) == 0 {
		return invalid("polygon must contain at least one ring")
	}
	for i, ring := range rings {
		if len(ring) == 0 {
			return invalid("ring %d is empty", i)
		}
		if !samePosition(ring[0], ring[len(ring)-1]) {
			return invalid("ring %d: unclosed ring (first and last positions differ)", i)
		}
		if len(ring) < 4 {
			return invalid("ring %d must have at least 4 positions, got %d", i, len(ring))
		}
		if err := v.checkPositions(ring); err != nil {
			return invalid("ring %d: %v", i, err)
		}
	}
	return nil
}

func samePosition(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
