package routes

import (
	"os"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"geo_ingest/internal/controllers"
	"geo_ingest/internal/middleware"
	"geo_ingest/internal/store"
)

// SetupRouter registers the service's routes against the spatial
// store gateway and returns the engine ready to serve.
func SetupRouter(gateway *store.Gateway) *gin.Engine {
	r := gin.New()

	// Access log to stdout; application log goes to the rotating
	// file configured in internal/logger.
	accessLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
	r.Use(
		gin.Recovery(),
		ginlog.SetLogger(ginlog.WithLogger(func(_ *gin.Context, _ zerolog.Logger) zerolog.Logger {
			return accessLog
		})),
		middleware.RequestID(),
	)

	ingestController := controllers.NewIngestController(gateway)
	healthController := controllers.NewHealthController(gateway)
	featureController := controllers.NewFeatureController(gateway)

	r.POST("/ingest", ingestController.Ingest)
	r.GET("/healthz", healthController.Healthz)
	r.GET("/features", featureController.ListByType)

	return r
}
