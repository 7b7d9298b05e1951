package models

import "time"

// RunTrigger tells how a pipeline run was started.
type RunTrigger string

const (
	TriggerScheduled RunTrigger = "scheduled"
	TriggerManual    RunTrigger = "manual"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunCompleted RunStatus = "completed"
	// RunDegraded marks a completed run that rendered stale report images.
	RunDegraded RunStatus = "degraded"
	RunFailed   RunStatus = "failed"
)

// ParseRunStatus returns false for values outside the known set.
func ParseRunStatus(value string) (RunStatus, bool) {
	switch s := RunStatus(value); s {
	case RunStarted, RunCompleted, RunDegraded, RunFailed:
		return s, true
	default:
		return "", false
	}
}

// RunRecord is the audit entry stored for every pipeline run.
type RunRecord struct {
	ID        string     `bson:"_id" json:"id"`
	Trigger   RunTrigger `bson:"trigger" json:"trigger"`
	Status    RunStatus  `bson:"status" json:"status"`
	StartTime time.Time  `bson:"start_time" json:"startTime"`
	EndTime   *time.Time `bson:"end_time,omitempty" json:"endTime,omitempty"`
	Error     string     `bson:"error,omitempty" json:"error,omitempty"`
	Details   RunDetails `bson:"details" json:"details"`
}

// RunDetails carries the per-stage progress of a run.
type RunDetails struct {
	Stages          []string       `bson:"stages" json:"stages"`
	Records         map[string]int `bson:"records" json:"records"`
	MergedRows      int            `bson:"merged_rows" json:"mergedRows"`
	UnmatchedFuel   int            `bson:"unmatched_fuel" json:"unmatchedFuel"`
	DuplicateKeys   int            `bson:"duplicate_keys" json:"duplicateKeys"`
	RefreshMessage  string         `bson:"refresh_message,omitempty" json:"refreshMessage,omitempty"`
	Warnings        []string       `bson:"warnings,omitempty" json:"warnings,omitempty"`
	PublishedSheets []string       `bson:"published_sheets,omitempty" json:"publishedSheets,omitempty"`
}

// RunFilter narrows a run history query.
type RunFilter struct {
	Limit  int
	Status RunStatus
	From   *time.Time
	To     *time.Time
}
