package model

import (
	"strconv"
	"time"
)

// ScoreJob asks a worker to rescore one lead and persist the prediction.
type ScoreJob struct {
	JobID   string
	OwnerID string
	LeadID  string
	// UpdatedAt is the lead's updated_at when the job was created. Two jobs
	// for the same unchanged lead share a dedupe key.
	UpdatedAt  time.Time
	EnqueuedAt time.Time
}

// DedupeKey identifies the lead revision this job scores.
func (j ScoreJob) DedupeKey() string {
	return j.LeadID + "@" + strconv.FormatInt(j.UpdatedAt.UnixNano(), 10)
}
