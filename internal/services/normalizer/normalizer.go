// Package normalizer reconciles heterogeneous backend job rows into models.CanonicalJob.
//
// Backend rows arrive with mixed casings (snake_case, PascalCase, camelCase),
// with nested objects either decoded or JSON-encoded as strings, and with id
// lists as arrays, JSON strings or comma-separated strings. Normalization never
// fails: every missing or malformed field degrades to a documented default so
// one bad row never blocks a list view.
package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/fleetjobs/internal/common"
	"github.com/ternarybob/fleetjobs/internal/models"
)

// DefaultJobName is used when a row carries no usable name
const DefaultJobName = "Untitled Deployment"

// RawJobRecord is an untyped backend job row as decoded by encoding/json
type RawJobRecord = map[string]interface{}

// Degradation records a field that fell back to its default
type Degradation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"` // "missing" or "malformed"
}

// Report lists the degradations of a single normalization
type Report struct {
	JobID    string        `json:"jobId"`
	Degraded []Degradation `json:"degraded,omitempty"`
}

// IsDegraded reports whether any field was malformed upstream.
// Missing optional fields do not count.
func (r Report) IsDegraded() bool {
	for _, d := range r.Degraded {
		if d.Reason == malformed.String() {
			return true
		}
	}
	return false
}

// Service normalizes backend job rows. It holds no per-call state and is safe
// for concurrent use.
type Service struct {
	logger      arbor.ILogger
	now         func() time.Time
	defaultName string
	logDegraded bool
}

// NewService creates a normalizer. config may be nil for defaults.
func NewService(config *common.NormalizerConfig, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = arbor.NewNoOpLogger()
	}
	s := &Service{
		logger:      logger,
		now:         time.Now,
		defaultName: DefaultJobName,
	}
	if config != nil {
		if strings.TrimSpace(config.DefaultJobName) != "" {
			s.defaultName = config.DefaultJobName
		}
		s.logDegraded = config.LogDegraded
	}
	return s
}

// WithClock replaces the clock used for missing createdAt values
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

var defaultService = NewService(nil, nil)

// Normalize maps a raw row onto a CanonicalJob with default settings
func Normalize(raw RawJobRecord) models.CanonicalJob {
	return defaultService.Normalize(raw)
}

// Normalize maps a raw row onto a CanonicalJob
func (s *Service) Normalize(raw RawJobRecord) models.CanonicalJob {
	job, _ := s.NormalizeWithReport(raw)
	return job
}

// NormalizeAll normalizes rows in order
func (s *Service) NormalizeAll(rows []RawJobRecord) []models.CanonicalJob {
	jobs := make([]models.CanonicalJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, s.Normalize(row))
	}
	return jobs
}

// NormalizeWithReport maps a raw row onto a CanonicalJob and reports every
// field that fell back to its default. The canonical job is identical to the
// one returned by Normalize.
func (s *Service) NormalizeWithReport(raw RawJobRecord) (models.CanonicalJob, Report) {
	r := &recordResolver{raw: raw}

	job := models.CanonicalJob{
		ID:          r.text(raw, FieldID),
		Description: r.text(raw, FieldDescription),
		Status:      models.MapJobStatus(r.text(raw, FieldStatus)),
	}

	job.Name = r.text(raw, FieldName)
	if job.Name == "" {
		job.Name = s.defaultName
	}

	job.CreatedAt = r.createdAt(raw)
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now().UTC()
	}

	job.Targets = r.targets(raw)
	job.Schedule = r.schedule(raw)
	job.SelectedPolicyIDs = r.idList(raw, FieldPolicyIDs)
	job.CredentialProfileID = r.credentialProfile(raw)
	job.SelectedProbeIDs = r.probes(raw)
	job.DeployedMachines = r.progress(raw)
	job.Errors = r.errors(raw)

	report := Report{JobID: job.ID, Degraded: r.degraded}
	s.logReport(report)
	return job, report
}

func (s *Service) logReport(report Report) {
	if len(report.Degraded) == 0 {
		return
	}

	fields := make([]string, 0, len(report.Degraded))
	for _, d := range report.Degraded {
		fields = append(fields, d.Field+"="+d.Reason)
	}

	if report.IsDegraded() {
		s.logger.Warn().
			Str("job_id", report.JobID).
			Strs("fields", fields).
			Msg("Job record has malformed fields, defaults applied")
		return
	}
	if s.logDegraded {
		s.logger.Debug().
			Str("job_id", report.JobID).
			Strs("fields", fields).
			Msg("Job record missing fields, defaults applied")
	}
}

// DecodeRecords decodes a backend response into rows. It accepts a JSON array
// of objects or an object wrapping one under "jobs", "data" or "items"; a
// single object is treated as one row. Non-object elements are skipped.
func DecodeRecords(data []byte) ([]RawJobRecord, error) {
	var decoded interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode job records: %w", err)
	}

	var elements []interface{}
	switch t := decoded.(type) {
	case []interface{}:
		elements = t
	case map[string]interface{}:
		elements = []interface{}{t}
		for _, key := range []string{"jobs", "data", "items"} {
			if inner, ok := t[key].([]interface{}); ok {
				elements = inner
				break
			}
		}
	default:
		return nil, fmt.Errorf("job records must be a JSON array or object, got %T", decoded)
	}

	rows := make([]RawJobRecord, 0, len(elements))
	for _, e := range elements {
		if m, ok := e.(map[string]interface{}); ok {
			rows = append(rows, m)
		}
	}
	return rows, nil
}

// recordResolver resolves the fields of one row and collects degradations
type recordResolver struct {
	raw      RawJobRecord
	degraded []Degradation
}

func (r *recordResolver) note(field string, o outcome) {
	if o == resolved {
		return
	}
	r.degraded = append(r.degraded, Degradation{Field: field, Reason: o.String()})
}

func (r *recordResolver) text(obj map[string]interface{}, field string) string {
	v, o := lookup(obj, field, isScalarShape)
	r.note(field, o)
	return asText(v)
}

// optionalText is text without recording missing values
func (r *recordResolver) optionalText(obj map[string]interface{}, field string) string {
	v, o := lookup(obj, field, isScalarShape)
	if o == malformed {
		r.note(field, o)
	}
	return asText(v)
}

func (r *recordResolver) object(obj map[string]interface{}, field string) (map[string]interface{}, outcome) {
	v, o := lookup(obj, field, isObjectShape)
	if o != resolved {
		return nil, o
	}
	return asObject(v)
}

func (r *recordResolver) createdAt(raw RawJobRecord) time.Time {
	v, o := lookup(raw, FieldCreatedAt, isScalarShape)
	if o != resolved {
		r.note(FieldCreatedAt, o)
		return time.Time{}
	}
	ts, o := asTimestamp(v)
	r.note(FieldCreatedAt, o)
	return ts
}

func (r *recordResolver) targets(raw RawJobRecord) models.TargetSet {
	obj, o := r.object(raw, FieldTargets)
	r.note(FieldTargets, o)

	return models.TargetSet{
		IPRanges:   r.stringList(obj, FieldIPRanges),
		Hostnames:  r.stringList(obj, FieldHostnames),
		OUPaths:    r.stringList(obj, FieldOUPaths),
		IPSegments: r.stringList(obj, FieldIPSegments),
	}
}

func (r *recordResolver) stringList(obj map[string]interface{}, field string) []string {
	v, o := lookup(obj, field, isListShape)
	if o == malformed {
		r.note(field, o)
	}
	list, lo := asStringList(v)
	if lo == malformed {
		r.note(field, lo)
	}
	return list
}

func (r *recordResolver) schedule(raw RawJobRecord) models.ScheduleRecord {
	obj, o := r.object(raw, FieldSchedule)
	r.note(FieldSchedule, o)

	return models.ScheduleRecord{
		Type:        strings.ToLower(r.optionalText(obj, FieldScheduleType)),
		Frequency:   strings.ToLower(r.optionalText(obj, FieldScheduleFrequency)),
		Time:        r.optionalText(obj, FieldScheduleTime),
		Timezone:    r.optionalText(obj, FieldScheduleTimezone),
		DayOfWeek:   r.optionalInt(obj, FieldScheduleDayOfWeek),
		DayOfMonth:  r.optionalInt(obj, FieldScheduleDayOfMonth),
		ScheduledAt: r.optionalText(obj, FieldScheduleScheduledAt),
	}
}

func (r *recordResolver) optionalInt(obj map[string]interface{}, field string) *int {
	v, o := lookup(obj, field, isScalarShape)
	if o == malformed {
		r.note(field, o)
		return nil
	}
	n := asOptionalInt(v)
	if v != nil && n == nil {
		r.note(field, malformed)
	}
	return n
}

func (r *recordResolver) idList(raw RawJobRecord, field string) []int {
	v, o := lookup(raw, field, isIDListShape)
	if o != resolved {
		r.note(field, o)
		return []int{}
	}
	ids, lo := asIDList(v)
	r.note(field, lo)
	return ids
}

// probes prefers an id list and promotes a scalar probe id to a one-element list
func (r *recordResolver) probes(raw RawJobRecord) []int {
	if v, o := lookup(raw, FieldProbeIDs, isIDListShape); o == resolved {
		ids, lo := asIDList(v)
		r.note(FieldProbeIDs, lo)
		return ids
	}

	v, o := lookup(raw, FieldProbeID, isScalarShape)
	if o != resolved {
		r.note(FieldProbeIDs, o)
		return []int{}
	}
	if id, ok := asID(v); ok {
		return []int{id}
	}
	r.note(FieldProbeID, malformed)
	return []int{}
}

func (r *recordResolver) credentialProfile(raw RawJobRecord) *int {
	v, o := lookup(raw, FieldCredentialProfileID, isScalarShape)
	if o != resolved {
		if o == malformed {
			r.note(FieldCredentialProfileID, o)
		}
		return nil
	}
	id, ok := asID(v)
	if !ok || id <= 0 {
		r.note(FieldCredentialProfileID, malformed)
		return nil
	}
	return &id
}

// progress prefers the progress substructure and falls back to results.
// Pending is always derived; an upstream pending value is ignored.
func (r *recordResolver) progress(raw RawJobRecord) models.DeployedMachines {
	if obj, o := r.object(raw, FieldProgress); o == resolved && hasAnyKey(obj, FieldProgressTotal, FieldProgressApplied, FieldProgressInProgress, FieldProgressFailed) {
		return models.NewDeployedMachines(
			r.count(obj, FieldProgressTotal),
			r.count(obj, FieldProgressApplied),
			r.count(obj, FieldProgressInProgress),
			r.count(obj, FieldProgressFailed),
		)
	} else if o == malformed {
		r.note(FieldProgress, o)
	}

	obj, o := r.object(raw, FieldResults)
	if o != resolved {
		r.note(FieldResults, o)
		return models.NewDeployedMachines(0, 0, 0, 0)
	}
	return models.NewDeployedMachines(
		r.count(obj, FieldResultsTotal),
		r.count(obj, FieldResultsApplied),
		r.count(obj, FieldResultsInProgress),
		r.count(obj, FieldResultsFailed),
	)
}

func (r *recordResolver) count(obj map[string]interface{}, field string) int {
	v, o := lookup(obj, field, isScalarShape)
	if o == malformed {
		r.note(field, o)
		return 0
	}
	n, co := asCount(v)
	if co == malformed {
		r.note(field, co)
	}
	return n
}

// errors accepts an array of messages, a JSON-encoded array, or a single message
func (r *recordResolver) errors(raw RawJobRecord) []string {
	v, o := lookup(raw, FieldErrors, isListShape)
	if o != resolved {
		if o == malformed {
			r.note(FieldErrors, o)
		}
		return []string{}
	}

	if s, ok := v.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return []string{}
		}
		var decoded []interface{}
		if strings.HasPrefix(trimmed, "[") && json.Unmarshal([]byte(trimmed), &decoded) == nil {
			list, _ := asStringList(decoded)
			return list
		}
		return []string{trimmed}
	}

	list, _ := asStringList(v)
	return list
}

func hasAnyKey(obj map[string]interface{}, fields ...string) bool {
	for _, field := range fields {
		for _, key := range aliasTable[field] {
			if v, ok := obj[key]; ok && v != nil {
				return true
			}
		}
	}
	return false
}
