package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapJobStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want JobStatus
	}{
		{"Running", JobStatusInProgress},
		{"RUNNING", JobStatusInProgress},
		{"Completed", JobStatusCompleted},
		{" Scheduled ", JobStatusScheduled},
		{"in_progress", JobStatusInProgress},
		{"Queued", JobStatus("queued")},
		{"", JobStatus("")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, MapJobStatus(tt.raw))
		})
	}

	assert.True(t, JobStatusPartial.IsKnown())
	assert.False(t, JobStatus("queued").IsKnown())
}

func TestNewDeployedMachines(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		applied     int
		inProgress  int
		failed      int
		wantPending int
		wantRatio   float64
	}{
		{"Partially done", 10, 5, 2, 1, 2, 0.6},
		{"Overcounted", 5, 4, 2, 3, 0, 1},
		{"Empty", 0, 0, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeployedMachines(tt.total, tt.applied, tt.inProgress, tt.failed)
			assert.Equal(t, tt.wantPending, d.Pending)
			assert.Equal(t, tt.total, d.Total)
			assert.InDelta(t, tt.wantRatio, d.CompletionRatio(), 0.0001)
		})
	}
}

func TestScheduleRecord_Spec(t *testing.T) {
	tests := []struct {
		name   string
		record ScheduleRecord
		want   ScheduleSpec
	}{
		{"Now", ScheduleRecord{Type: "now"}, RunNow{}},
		{"Immediate", ScheduleRecord{Type: "immediate"}, RunNow{}},
		{"Once", ScheduleRecord{Type: "once", ScheduledAt: "2024-06-01T10:00", Timezone: "UTC"}, RunOnce{ScheduledAt: "2024-06-01T10:00", Timezone: "UTC"}},
		{"Later without frequency", ScheduleRecord{Type: "later", ScheduledAt: "2024-06-01T10:00"}, RunOnce{ScheduledAt: "2024-06-01T10:00"}},
		{"Later once", ScheduleRecord{Type: "later", Frequency: "once", ScheduledAt: "2024-06-01T10:00"}, RunOnce{ScheduledAt: "2024-06-01T10:00"}},
		{
			"Later weekly",
			ScheduleRecord{Type: "later", Frequency: "weekly", Time: "08:00", Timezone: "UTC", DayOfWeek: IntPtr(2)},
			Recurring{Frequency: FrequencyWeekly, Time: "08:00", Timezone: "UTC", DayOfWeek: IntPtr(2)},
		},
		{
			"Recurring",
			ScheduleRecord{Type: "recurring", Frequency: "daily", Time: "08:00", Timezone: "UTC"},
			Recurring{Frequency: FrequencyDaily, Time: "08:00", Timezone: "UTC"},
		},
		{"Unknown", ScheduleRecord{Type: "whenever"}, nil},
		{"Empty", ScheduleRecord{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Spec())
		})
	}
}
