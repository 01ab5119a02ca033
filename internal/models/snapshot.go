package models

import (
	"time"
)

// StatusCounts holds the per-payment-status registration counts of one
// snapshot. Statuses missing from the source log read as zero.
type StatusCounts struct {
	New           int `json:"new" db:"status_new"`
	Approved      int `json:"approved" db:"status_approved"`
	PartiallyPaid int `json:"partially_paid" db:"status_partially_paid"`
	Paid          int `json:"paid" db:"status_paid"`
	CheckedIn     int `json:"checked_in" db:"status_checked_in"`
}

// Sum returns the total across all payment statuses.
func (s StatusCounts) Sum() int {
	return s.New + s.Approved + s.PartiallyPaid + s.Paid + s.CheckedIn
}

// SponsorCounts holds the per-sponsor-tier registration counts of one snapshot.
type SponsorCounts struct {
	Normal       int `json:"normal" db:"sponsor_normal"`
	Sponsor      int `json:"sponsor" db:"sponsor_sponsor"`
	SuperSponsor int `json:"supersponsor" db:"sponsor_supersponsor"`
}

// Sum returns the total across all sponsor tiers.
func (s SponsorCounts) Sum() int {
	return s.Normal + s.Sponsor + s.SuperSponsor
}

// Snapshot represents one logged observation of cumulative registration
// counts at a point in time.
type Snapshot struct {
	ID         string        `json:"id" db:"id"`
	Season     string        `json:"season" db:"season"`
	Timestamp  time.Time     `json:"timestamp" db:"timestamp"`
	TotalCount int           `json:"total_count" db:"total_count"`
	Status     StatusCounts  `json:"status"`
	Sponsor    SponsorCounts `json:"sponsor"`
}

// DayAggregate is the last snapshot observed for one calendar date (UTC),
// indexed by day offset from the season's registration opening.
type DayAggregate struct {
	Season     string        `json:"season" db:"season"`
	Date       time.Time     `json:"date" db:"date"`
	DayIndex   int           `json:"day_index" db:"day_index"`
	TotalCount int           `json:"total_count" db:"total_count"`
	Status     StatusCounts  `json:"status"`
	Sponsor    SponsorCounts `json:"sponsor"`
}

// SnapshotFilter for querying snapshots
type SnapshotFilter struct {
	Season   *string    `json:"season,omitempty"`
	FromTime *time.Time `json:"from_time,omitempty"`
	ToTime   *time.Time `json:"to_time,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// IngestRun records one pass over a snapshot log file.
type IngestRun struct {
	ID              string     `json:"id" db:"id"`
	Season          string     `json:"season" db:"season"`
	Source          string     `json:"source" db:"source"`
	Lines           int        `json:"lines" db:"lines"`
	Snapshots       int        `json:"snapshots" db:"snapshots"`
	TotalMismatches int        `json:"total_mismatches" db:"total_mismatches"`
	Status          string     `json:"status" db:"status"`
	Error           *string    `json:"error,omitempty" db:"error"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// IngestRun status values
const (
	IngestRunStatusRunning   = "running"
	IngestRunStatusCompleted = "completed"
	IngestRunStatusFailed    = "failed"
)
