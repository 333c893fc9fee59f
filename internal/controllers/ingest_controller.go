package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"geo_ingest/internal/geojson"
	"geo_ingest/internal/ingest"
)

// maxUploadSize bounds an ingestion body, file upload or raw JSON.
const maxUploadSize = 10 << 20 // 10 MB

// IngestController handles POST /ingest. It accepts either a
// multipart upload with a "file" field or a raw JSON body, runs the
// document through the ingestion pipeline, and returns the report.
type IngestController struct {
	processor *ingest.Processor
}

// NewIngestController wires the pipeline onto a feature store.
func NewIngestController(store ingest.FeatureStore) *IngestController {
	return &IngestController{processor: ingest.NewProcessor(store)}
}

// Ingest responds 200 with the report whenever the document itself
// parsed, even if individual features failed; a document-level parse
// failure is 400 and an unreachable store is 503.
func (ic *IngestController) Ingest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	document, err := readDocument(c)
	if err != nil {
		if err.Error() == "http: request body too large" {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "document must not exceed 10 MB"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	report, err := ic.processor.Process(c.Request.Context(), document)
	if err != nil {
		var docErr *geojson.DocumentError
		switch {
		case errors.As(err, &docErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"success":   false,
				"message":   docErr.Reason,
				"timestamp": time.Now().UTC(),
			})
		case errors.Is(err, ingest.ErrStoreUnavailable):
			logrus.WithError(err).Error("Ingest: spatial store unavailable")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success":   false,
				"message":   "spatial store unavailable",
				"timestamp": time.Now().UTC(),
			})
		default:
			logrus.WithError(err).Error("Ingest: processing failed")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
		}
		return
	}

	logrus.WithFields(logrus.Fields{
		"total":     report.TotalFeatures,
		"processed": report.ProcessedFeatures,
		"errors":    len(report.Errors),
	}).Info("ingestion completed")
	c.JSON(http.StatusOK, report)
}

// readDocument pulls the GeoJSON bytes from a multipart "file" field
// when the request is a form upload, otherwise from the raw body.
func readDocument(c *gin.Context) ([]byte, error) {
	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			return nil, errors.New("missing or invalid 'file' field")
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	document, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	if len(document) == 0 {
		return nil, errors.New("either a file upload or a JSON body must be provided")
	}
	return document, nil
}
