package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeoFeature is one stored row of the geo_features table.
//
// Geom holds the typed spatial value (hex-encoded EWKB on the wire,
// geometry(Geometry,4326) in Postgres) so spatial predicates work
// against it; Properties and RawGeometry stay schemaless JSONB.
// The GIST index on geom and the GIN index on properties are created
// by config.InitDB since gorm tags cannot express them.
type GeoFeature struct {
	gorm.Model
	Name         string         `json:"name"`
	GeometryType string         `json:"geometry_type" gorm:"index"`
	Geom         string         `json:"-" gorm:"type:geometry(Geometry,4326)"`
	Properties   datatypes.JSON `json:"properties"`
	RawGeometry  datatypes.JSON `json:"raw_geometry"`
}

// TableName keeps the table name the deployment's SQL tooling expects.
func (GeoFeature) TableName() string {
	return "geo_features"
}
