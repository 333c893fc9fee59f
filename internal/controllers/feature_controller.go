package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"geo_ingest/internal/geojson"
	"geo_ingest/internal/store"
)

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// FeatureQuerier is the read-back surface of the spatial store
// gateway.
type FeatureQuerier interface {
	FeaturesByType(ctx context.Context, geometryType string, limit int) ([]store.StoredFeature, error)
}

// FeatureController handles GET /features, a diagnostic read of
// stored features filtered by geometry type.
type FeatureController struct {
	store FeatureQuerier
}

func NewFeatureController(store FeatureQuerier) *FeatureController {
	return &FeatureController{store: store}
}

// ListByType returns up to `limit` stored features of the requested
// geometry_type, newest first, geometry rendered back as GeoJSON.
func (fc *FeatureController) ListByType(c *gin.Context) {
	geometryType := c.Query("geometry_type")
	if !geojson.IsGeometryType(geometryType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "geometry_type must be one of the seven GeoJSON geometry types"})
		return
	}

	limit := defaultQueryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	features, err := fc.store.FeaturesByType(c.Request.Context(), geometryType, limit)
	if err != nil {
		logrus.WithError(err).Error("ListByType: query failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "spatial store unavailable"})
		return
	}
	if features == nil {
		features = []store.StoredFeature{}
	}

	c.JSON(http.StatusOK, gin.H{
		"features":      features,
		"total_count":   len(features),
		"geometry_type": geometryType,
		"limit":         limit,
	})
}
