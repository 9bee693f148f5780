package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone rules must not depend on the host zoneinfo database

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// ScheduleMode is the discriminant of a ScheduleSpec
type ScheduleMode string

// ScheduleMode constants
const (
	ScheduleModeNow       ScheduleMode = "now"
	ScheduleModeOnce      ScheduleMode = "once"
	ScheduleModeRecurring ScheduleMode = "recurring"
)

// Frequency of a recurring schedule
type Frequency string

// Frequency constants
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ScheduleSpec describes when a job runs. It is a closed sum type:
// the only implementations are RunNow, RunOnce and Recurring.
type ScheduleSpec interface {
	Mode() ScheduleMode
	isScheduleSpec()
}

// RunNow runs the job immediately on submission
type RunNow struct{}

// RunOnce runs the job a single time at ScheduledAt.
// Timezone is optional and only applies to timestamps without an offset.
type RunOnce struct {
	ScheduledAt string
	Timezone    string
}

// Recurring runs the job on a daily, weekly or monthly cadence.
// DayOfWeek (0=Sunday) is required for weekly, DayOfMonth for monthly.
type Recurring struct {
	Frequency  Frequency
	Time       string // HH:mm
	Timezone   string // IANA name, e.g. "UTC", "Europe/London"
	DayOfWeek  *int
	DayOfMonth *int
}

func (RunNow) Mode() ScheduleMode    { return ScheduleModeNow }
func (RunOnce) Mode() ScheduleMode   { return ScheduleModeOnce }
func (Recurring) Mode() ScheduleMode { return ScheduleModeRecurring }

func (RunNow) isScheduleSpec()    {}
func (RunOnce) isScheduleSpec()   {}
func (Recurring) isScheduleSpec() {}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// ScheduleWire is the flat, serializable shape of a ScheduleSpec used in
// submission payloads and draft files
type ScheduleWire struct {
	Mode        ScheduleMode `json:"mode" toml:"mode" yaml:"mode"`
	ScheduledAt string       `json:"scheduledAt,omitempty" toml:"scheduled_at" yaml:"scheduled_at"`
	Frequency   Frequency    `json:"frequency,omitempty" toml:"frequency" yaml:"frequency"`
	Time        string       `json:"time,omitempty" toml:"time" yaml:"time"`
	Timezone    string       `json:"timezone,omitempty" toml:"timezone" yaml:"timezone"`
	DayOfWeek   *int         `json:"dayOfWeek,omitempty" toml:"day_of_week" yaml:"day_of_week"`
	DayOfMonth  *int         `json:"dayOfMonth,omitempty" toml:"day_of_month" yaml:"day_of_month"`
}

// EncodeSchedule flattens a ScheduleSpec into its wire shape. Only the fields
// owned by the concrete mode are emitted.
func EncodeSchedule(spec ScheduleSpec) ScheduleWire {
	switch s := spec.(type) {
	case RunNow:
		return ScheduleWire{Mode: ScheduleModeNow}
	case RunOnce:
		return ScheduleWire{Mode: ScheduleModeOnce, ScheduledAt: s.ScheduledAt, Timezone: s.Timezone}
	case Recurring:
		w := ScheduleWire{
			Mode:      ScheduleModeRecurring,
			Frequency: s.Frequency,
			Time:      s.Time,
			Timezone:  s.Timezone,
		}
		switch s.Frequency {
		case FrequencyWeekly:
			w.DayOfWeek = s.DayOfWeek
		case FrequencyMonthly:
			w.DayOfMonth = s.DayOfMonth
		}
		return w
	}
	return ScheduleWire{}
}

// Spec converts the wire shape into a ScheduleSpec.
// Returns nil when the mode is missing or unknown.
func (w ScheduleWire) Spec() ScheduleSpec {
	switch ScheduleMode(strings.ToLower(strings.TrimSpace(string(w.Mode)))) {
	case ScheduleModeNow:
		return RunNow{}
	case ScheduleModeOnce:
		return RunOnce{ScheduledAt: w.ScheduledAt, Timezone: w.Timezone}
	case ScheduleModeRecurring:
		return Recurring{
			Frequency:  Frequency(strings.ToLower(strings.TrimSpace(string(w.Frequency)))),
			Time:       w.Time,
			Timezone:   w.Timezone,
			DayOfWeek:  w.DayOfWeek,
			DayOfMonth: w.DayOfMonth,
		}
	}
	return nil
}

var validate = validator.New()

// ValidateSchedule checks the fields required by the schedule's mode and,
// for recurring schedules, by its frequency. It never returns an error value;
// a non-empty result means the wizard cannot proceed.
func ValidateSchedule(spec ScheduleSpec) ValidationResult {
	var result ValidationResult

	switch s := spec.(type) {
	case RunNow:
		return result
	case RunOnce:
		if strings.TrimSpace(s.ScheduledAt) == "" {
			return result.Add("scheduledAt", "required", "scheduled date and time is required")
		}
		if s.Timezone != "" {
			if result = CheckVar(result, "timezone", s.Timezone, "timezone"); !result.OK() {
				return result
			}
		}
		if _, err := ParseScheduledAt(s.ScheduledAt, s.Timezone); err != nil {
			result = result.Add("scheduledAt", "datetime", fmt.Sprintf("scheduled date %q is not a valid date", s.ScheduledAt))
		}
		return result
	case Recurring:
		result = checkClock(result, s.Time)
		result = CheckVar(result, "timezone", s.Timezone, "required,timezone")

		switch s.Frequency {
		case FrequencyDaily:
		case FrequencyWeekly:
			if s.DayOfWeek == nil {
				result = result.Add("dayOfWeek", "required", "day of week is required for weekly schedules")
			} else {
				result = CheckVar(result, "dayOfWeek", *s.DayOfWeek, "min=0,max=6")
			}
		case FrequencyMonthly:
			if s.DayOfMonth == nil {
				result = result.Add("dayOfMonth", "required", "day of month is required for monthly schedules")
			} else {
				result = CheckVar(result, "dayOfMonth", *s.DayOfMonth, "min=1,max=31")
			}
		case "":
			result = result.Add("frequency", "required", "frequency is required for recurring schedules")
		default:
			result = result.Add("frequency", "oneof", fmt.Sprintf("invalid frequency %q (must be one of: daily, weekly, monthly)", s.Frequency))
		}
		return result
	}

	return result.Add("mode", "oneof", "schedule mode must be one of: now, once, recurring")
}

// checkClock requires a zero-padded HH:mm time. The 15:04 layout alone also
// accepts a single-digit hour.
func checkClock(result ValidationResult, value string) ValidationResult {
	if value != "" && len(value) != len("15:04") {
		return result.Add("time", "datetime", fieldMessage("time", "datetime", "", value))
	}
	return CheckVar(result, "time", value, "required,datetime=15:04")
}

// CheckVar runs a single validator tag against value and records the first failing rule.
// field is the wire name used in the result.
func CheckVar(result ValidationResult, field string, value interface{}, tag string) ValidationResult {
	err := validate.Var(value, tag)
	if err == nil {
		return result
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return result.Add(field, fe.Tag(), fieldMessage(field, fe.Tag(), fe.Param(), value))
	}
	return result.Add(field, "invalid", fmt.Sprintf("%s is invalid: %v", field, err))
}

func fieldMessage(field, tag, param string, value interface{}) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "datetime":
		return fmt.Sprintf("%s %v must use the HH:mm format", field, value)
	case "timezone":
		return fmt.Sprintf("%s %v is not a known timezone", field, value)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if _, ok := value.(string); ok {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	}
	return fmt.Sprintf("%s failed rule %s", field, tag)
}

// scheduledAtLayouts are tried in order; only RFC3339 carries an offset
var scheduledAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseScheduledAt resolves a one-off schedule timestamp. Timestamps without
// an offset are interpreted in timezone (UTC when empty).
func ParseScheduledAt(value, timezone string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("load timezone %s: %w", timezone, err)
		}
		loc = l
	}

	for _, layout := range scheduledAtLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// DescribeSchedule renders a human-readable execution description for review screens
func DescribeSchedule(spec ScheduleSpec) string {
	switch s := spec.(type) {
	case RunNow:
		return "immediately on submission"
	case RunOnce:
		t, err := ParseScheduledAt(s.ScheduledAt, s.Timezone)
		if err != nil {
			return fmt.Sprintf("once at %s", s.ScheduledAt)
		}
		return fmt.Sprintf("once at %s %s", t.Format("2006-01-02 15:04"), zoneLabel(t, s.Timezone))
	case Recurring:
		tz := s.Timezone
		if tz == "" {
			tz = "UTC"
		}
		switch s.Frequency {
		case FrequencyDaily:
			return fmt.Sprintf("daily at %s %s", s.Time, tz)
		case FrequencyWeekly:
			day := "?"
			if s.DayOfWeek != nil && *s.DayOfWeek >= 0 && *s.DayOfWeek <= 6 {
				day = time.Weekday(*s.DayOfWeek).String()
			}
			return fmt.Sprintf("weekly on %s at %s %s", day, s.Time, tz)
		case FrequencyMonthly:
			day := "?"
			if s.DayOfMonth != nil {
				day = strconv.Itoa(*s.DayOfMonth)
			}
			return fmt.Sprintf("monthly on day %s at %s %s", day, s.Time, tz)
		}
		return fmt.Sprintf("recurring (%s) at %s %s", s.Frequency, s.Time, tz)
	}
	return "unscheduled"
}

func zoneLabel(t time.Time, timezone string) string {
	if timezone != "" {
		return timezone
	}
	name, _ := t.Zone()
	return name
}

// CronExpression renders the recurring schedule as a standard five-field cron
// expression prefixed with its CRON_TZ. The schedule must be valid.
func (r Recurring) CronExpression() (string, error) {
	clock, err := time.Parse("15:04", r.Time)
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", r.Time, err)
	}
	tz := r.Timezone
	if tz == "" {
		tz = "UTC"
	}

	dom, dow := "*", "*"
	switch r.Frequency {
	case FrequencyDaily:
	case FrequencyWeekly:
		if r.DayOfWeek == nil {
			return "", errors.New("weekly schedule has no day of week")
		}
		dow = strconv.Itoa(*r.DayOfWeek)
	case FrequencyMonthly:
		if r.DayOfMonth == nil {
			return "", errors.New("monthly schedule has no day of month")
		}
		dom = strconv.Itoa(*r.DayOfMonth)
	default:
		return "", fmt.Errorf("unsupported frequency %q", r.Frequency)
	}

	return fmt.Sprintf("CRON_TZ=%s %d %d %s * %s", tz, clock.Minute(), clock.Hour(), dom, dow), nil
}

// NextRun returns the first activation of spec strictly after the given time.
// RunNow activates at after itself. Months without the configured day of
// month are skipped, following cron semantics.
func NextRun(spec ScheduleSpec, after time.Time) (time.Time, error) {
	switch s := spec.(type) {
	case RunNow:
		return after, nil
	case RunOnce:
		t, err := ParseScheduledAt(s.ScheduledAt, s.Timezone)
		if err != nil {
			return time.Time{}, err
		}
		if !t.After(after) {
			return time.Time{}, fmt.Errorf("scheduled time %s has already passed", t.Format(time.RFC3339))
		}
		return t, nil
	case Recurring:
		expr, err := s.CronExpression()
		if err != nil {
			return time.Time{}, err
		}
		sched, err := cron.ParseStandard(expr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
		}
		return sched.Next(after), nil
	}
	return time.Time{}, errors.New("no schedule")
}
