package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"geo_ingest/internal/store"
)

const serviceName = "geojson-ingestion"

// StoreProbe is the health surface of the spatial store gateway.
type StoreProbe interface {
	HealthCheck(ctx context.Context) (store.Health, error)
}

// HealthController handles GET /healthz.
type HealthController struct {
	store StoreProbe
}

func NewHealthController(store StoreProbe) *HealthController {
	return &HealthController{store: store}
}

// Healthz reports service liveness plus store connectivity and the
// stored feature count. Unreachable store means 503 "unhealthy".
func (hc *HealthController) Healthz(c *gin.Context) {
	health, err := hc.store.HealthCheck(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Warn("Healthz: store probe failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":             "unhealthy",
			"service":            serviceName,
			"timestamp":          time.Now().UTC(),
			"database_connected": false,
			"feature_count":      0,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"service":            serviceName,
		"timestamp":          time.Now().UTC(),
		"database_connected": health.Reachable,
		"feature_count":      health.FeatureCount,
	})
}
