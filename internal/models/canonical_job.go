package models

import (
	"strings"
	"time"
)

// JobStatus is the lower-cased lifecycle status of a deployment job
type JobStatus string

// JobStatus constants
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
	JobStatusPartial    JobStatus = "partial" // Some machines applied, some failed
)

// IsKnown reports whether the status is one of the recognised values.
// Unknown statuses are still carried; the display layer picks a default badge.
func (s JobStatus) IsKnown() bool {
	switch s {
	case JobStatusPending, JobStatusScheduled, JobStatusInProgress, JobStatusCompleted,
		JobStatusFailed, JobStatusCancelled, JobStatusPartial:
		return true
	}
	return false
}

// MapJobStatus lower-cases a backend status and maps "running" to in_progress.
// Everything else passes through.
func MapJobStatus(raw string) JobStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "running" {
		return JobStatusInProgress
	}
	return JobStatus(s)
}

// DeployedMachines holds the per-machine progress counters of a job.
// Pending is derived, never read from upstream.
type DeployedMachines struct {
	Total      int `json:"total"`
	Applied    int `json:"applied"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
	Failed     int `json:"failed"`
}

// NewDeployedMachines builds the counters and derives Pending as
// max(0, total - (applied + failed + inProgress))
func NewDeployedMachines(total, applied, inProgress, failed int) DeployedMachines {
	pending := total - (applied + failed + inProgress)
	if pending < 0 {
		pending = 0
	}
	return DeployedMachines{
		Total:      total,
		Applied:    applied,
		InProgress: inProgress,
		Pending:    pending,
		Failed:     failed,
	}
}

// CompletionRatio returns finished machines (applied + failed) over total, 0 when total is 0
func (d DeployedMachines) CompletionRatio() float64 {
	if d.Total <= 0 {
		return 0
	}
	ratio := float64(d.Applied+d.Failed) / float64(d.Total)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// ScheduleRecord is the schedule of a canonical job as reported by the backend,
// with discriminants lower-cased. Use Spec to obtain a ScheduleSpec.
type ScheduleRecord struct {
	Type        string `json:"type"`
	Frequency   string `json:"frequency,omitempty"`
	Time        string `json:"time,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	DayOfWeek   *int   `json:"dayOfWeek,omitempty"`
	DayOfMonth  *int   `json:"dayOfMonth,omitempty"`
	ScheduledAt string `json:"scheduledAt,omitempty"`
}

// Spec converts the record into a ScheduleSpec.
//
// "now" and "immediate" are RunNow. "once" is RunOnce. "recurring" is
// Recurring. The console's "later" is RunOnce when the frequency is empty or
// "once" and Recurring otherwise. Returns nil for anything else.
func (r ScheduleRecord) Spec() ScheduleSpec {
	recurring := Recurring{
		Frequency:  Frequency(r.Frequency),
		Time:       r.Time,
		Timezone:   r.Timezone,
		DayOfWeek:  r.DayOfWeek,
		DayOfMonth: r.DayOfMonth,
	}

	switch r.Type {
	case "now", "immediate":
		return RunNow{}
	case "once":
		return RunOnce{ScheduledAt: r.ScheduledAt, Timezone: r.Timezone}
	case "recurring":
		return recurring
	case "later":
		if r.Frequency == "" || r.Frequency == "once" {
			return RunOnce{ScheduledAt: r.ScheduledAt, Timezone: r.Timezone}
		}
		return recurring
	}
	return nil
}

// CanonicalJob is the normalized, alias-free representation of a backend job row
type CanonicalJob struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	Status              JobStatus        `json:"status"`
	CreatedAt           time.Time        `json:"createdAt"`
	Targets             TargetSet        `json:"targets"`
	Schedule            ScheduleRecord   `json:"schedule"`
	SelectedPolicyIDs   []int            `json:"selectedPolicyIds"`
	CredentialProfileID *int             `json:"credentialProfileId"`
	SelectedProbeIDs    []int            `json:"selectedProbeIds"`
	DeployedMachines    DeployedMachines `json:"deployedMachines"`
	Errors              []string         `json:"errors"`
}
