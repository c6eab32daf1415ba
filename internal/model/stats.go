package model

import "time"

// GeocodeStat counts provider calls for one calendar date.
type GeocodeStat struct {
	ID    int64     `json:"id"`
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// ImportStatus is the lifecycle state of one importer pass.
type ImportStatus string

const (
	ImportStatusRunning  ImportStatus = "running"
	ImportStatusComplete ImportStatus = "complete"
	ImportStatusFailed   ImportStatus = "failed"
)

// ImportRun records one importer pass with its counters.
type ImportRun struct {
	ID          int64        `json:"id"`
	RunID       string       `json:"run_id"`
	Dataset     string       `json:"dataset"`
	Status      ImportStatus `json:"status"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Total       int          `json:"total"`
	Created     int          `json:"created"`
	Updated     int          `json:"updated"`
	Skipped     int          `json:"skipped"`
	Errors      int          `json:"errors"`
	Error       *string      `json:"error,omitempty"`
}

// ImportCounts are the per-pass counters written to an import run.
type ImportCounts struct {
	Total   int
	Created int
	Updated int
	Skipped int
	Errors  int
}
