package ingest

import (
	"fmt"
	"time"
)

// EntryError records a single failed entry: its position in the input
// document plus a human-readable reason.
type EntryError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report is the outcome of one ingestion call. Success is true iff no
// entry failed; a partially persisted batch reports success=false with
// the per-entry error list.
type Report struct {
	Success           bool         `json:"success"`
	Message           string       `json:"message"`
	TotalFeatures     int          `json:"total_features"`
	ProcessedFeatures int          `json:"processed_features"`
	Errors            []EntryError `json:"errors"`
	Timestamp         time.Time    `json:"timestamp"`
}

func newReport(total, processed int, errs []EntryError) *Report {
	if errs == nil {
		errs = []EntryError{}
	}
	return &Report{
		Success:           len(errs) == 0,
		Message:           fmt.Sprintf("Successfully processed %d features", processed),
		TotalFeatures:     total,
		ProcessedFeatures: processed,
		Errors:            errs,
		Timestamp:         time.Now().UTC(),
	}
}
