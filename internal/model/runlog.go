package model

import "time"

// Run statuses written to the run log.
const (
	RunSuccess = "success"
	RunPartial = "partial"
	RunFailed  = "failed"
)

// RunLog is one row of the scan run log.
type RunLog struct {
	RunID            string
	Date             string // YYYY-MM-DD of the run end
	StartTime        time.Time
	EndTime          time.Time
	Status           string
	TickersProcessed int
	TickersSkipped   int
	TickersError     int
	Notes            string
}

// RunID formats the identifier of a run started at t.
func RunID(t time.Time) string {
	return t.Format("20060102T150405")
}
