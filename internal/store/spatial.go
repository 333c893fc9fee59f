package store

import (
	"encoding/binary"
	"encoding/json"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkbhex"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

const srid = 4326 // WGS84, the single fixed target for every stored geometry

// encodeSpatial converts a GeoJSON geometry into hex-encoded EWKB
// carrying SRID 4326, the form Postgres accepts directly into a
// geometry column. The input has already passed validation, so a
// failure here is a row-level rejection, not a bug in the caller.
func encodeSpatial(rawGeometry json.RawMessage) (string, error) {
	var g geom.T
	if err := gjson.Unmarshal(rawGeometry, &g); err != nil {
		return "", err
	}
	g, err := geom.SetSRID(g, srid)
	if err != nil {
		return "", err
	}
	return ewkbhex.Encode(g, binary.LittleEndian)
}
