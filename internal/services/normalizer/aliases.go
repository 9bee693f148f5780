package normalizer

import "sort"

// Logical fields of a backend job row. Each field resolves through an ordered
// alias list; the first alias holding a non-null value of the expected shape wins.
const (
	FieldID                  = "id"
	FieldName                = "name"
	FieldDescription         = "description"
	FieldStatus              = "status"
	FieldCreatedAt           = "createdAt"
	FieldTargets             = "targets"
	FieldSchedule            = "schedule"
	FieldPolicyIDs           = "policyIds"
	FieldCredentialProfileID = "credentialProfileId"
	FieldProbeIDs            = "probeIds"
	FieldProbeID             = "probeId"
	FieldProgress            = "progress"
	FieldResults             = "results"
	FieldErrors              = "errors"

	// targets.*
	FieldIPRanges   = "targets.ipRanges"
	FieldHostnames  = "targets.hostnames"
	FieldOUPaths    = "targets.ouPaths"
	FieldIPSegments = "targets.ipSegments"

	// schedule.*
	FieldScheduleType        = "schedule.type"
	FieldScheduleFrequency   = "schedule.frequency"
	FieldScheduleTime        = "schedule.time"
	FieldScheduleTimezone    = "schedule.timezone"
	FieldScheduleDayOfWeek   = "schedule.dayOfWeek"
	FieldScheduleDayOfMonth  = "schedule.dayOfMonth"
	FieldScheduleScheduledAt = "schedule.scheduledAt"

	// progress.*
	FieldProgressTotal      = "progress.total"
	FieldProgressApplied    = "progress.applied"
	FieldProgressInProgress = "progress.inProgress"
	FieldProgressFailed     = "progress.failed"

	// results.*
	FieldResultsTotal      = "results.total"
	FieldResultsApplied    = "results.applied"
	FieldResultsInProgress = "results.inProgress"
	FieldResultsFailed     = "results.failed"
)

// aliasTable lists every accepted spelling per logical field, in priority order.
// Each list includes the canonical output key, so a canonical job fed back in
// resolves to itself.
var aliasTable = map[string][]string{
	FieldID:                  {"id", "Id", "ID", "jobId", "job_id", "JobId", "JobID"},
	FieldName:                {"name", "Name", "jobName", "job_name", "JobName"},
	FieldDescription:         {"description", "Description", "desc"},
	FieldStatus:              {"status", "Status", "state", "State"},
	FieldCreatedAt:           {"createdAt", "created_at", "CreatedAt", "createdOn", "created_on", "CreatedOn"},
	FieldTargets:             {"targets", "Targets", "target", "Target"},
	FieldSchedule:            {"schedule", "Schedule"},
	FieldPolicyIDs:           {"selectedPolicyIds", "policyIds", "policy_ids", "PolicyIds", "PolicyIDs"},
	FieldCredentialProfileID: {"credentialProfileId", "credential_profile_id", "CredentialProfileId", "CredentialProfileID", "credentialId"},
	FieldProbeIDs:            {"selectedProbeIds", "probeIds", "probe_ids", "ProbeIds", "ProbeIDs"},
	FieldProbeID:             {"probeId", "probe_id", "ProbeId", "ProbeID"},
	FieldProgress:            {"progress", "Progress", "deployedMachines", "deployed_machines"},
	FieldResults:             {"results", "Results"},
	FieldErrors:              {"errors", "Errors", "errorMessages", "error_messages"},

	FieldIPRanges:   {"ipRanges", "IpRanges", "IPRanges", "ip_ranges"},
	FieldHostnames:  {"hostnames", "Hostnames", "hostNames", "HostNames", "host_names"},
	FieldOUPaths:    {"ouPaths", "OuPaths", "OUPaths", "ou_paths"},
	FieldIPSegments: {"ipSegments", "IpSegments", "IPSegments", "ip_segments", "cidrs"},

	FieldScheduleType:        {"type", "Type", "mode", "Mode"},
	FieldScheduleFrequency:   {"frequency", "Frequency"},
	FieldScheduleTime:        {"time", "Time"},
	FieldScheduleTimezone:    {"timezone", "Timezone", "timeZone", "TimeZone", "time_zone"},
	FieldScheduleDayOfWeek:   {"dayOfWeek", "DayOfWeek", "day_of_week"},
	FieldScheduleDayOfMonth:  {"dayOfMonth", "DayOfMonth", "day_of_month"},
	FieldScheduleScheduledAt: {"scheduledAt", "ScheduledAt", "scheduled_at", "dateTime", "DateTime"},

	FieldProgressTotal:      {"total", "Total", "totalMachines", "TotalMachines"},
	FieldProgressApplied:    {"applied", "Applied"},
	FieldProgressInProgress: {"inProgress", "InProgress", "in_progress"},
	FieldProgressFailed:     {"failed", "Failed"},

	FieldResultsTotal:      {"totalMachines", "TotalMachines", "total_machines", "total", "Total"},
	FieldResultsApplied:    {"successfulDeployments", "SuccessfulDeployments", "successful_deployments"},
	FieldResultsInProgress: {"inProgressDeployments", "InProgressDeployments", "in_progress_deployments"},
	FieldResultsFailed:     {"failedDeployments", "FailedDeployments", "failed_deployments"},
}

// Aliases returns the accepted keys for a logical field in priority order.
// Nested fields are addressed as "parent.child" and list only the child keys.
func Aliases(field string) []string {
	keys := aliasTable[field]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Fields returns every logical field with an alias list
func Fields() []string {
	fields := make([]string, 0, len(aliasTable))
	for f := range aliasTable {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
