package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/fleetjobs/internal/common"
	"github.com/ternarybob/fleetjobs/internal/models"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestService(config *common.NormalizerConfig) *Service {
	return NewService(config, arbor.NewNoOpLogger()).WithClock(func() time.Time { return fixedNow })
}

// decode mirrors how rows arrive from the backend
func decode(t *testing.T, raw string) RawJobRecord {
	t.Helper()
	var row RawJobRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &row))
	return row
}

func TestNormalize_PascalCaseRunningRow(t *testing.T) {
	row := decode(t, `{
		"Id": 42,
		"Name": "Patch Tuesday",
		"Status": "Running",
		"CreatedAt": "2024-04-10T08:00:00+02:00",
		"Targets": "{\"ipRanges\":[\"10.0.0.1-10.0.0.50\"],\"hostnames\":[\" web01 \",\"\"]}",
		"PolicyIds": "[3, 7]",
		"results": {"totalMachines": 10, "successfulDeployments": 5, "failedDeployments": 2, "inProgressDeployments": 0}
	}`)

	job := newTestService(nil).Normalize(row)

	assert.Equal(t, "42", job.ID)
	assert.Equal(t, "Patch Tuesday", job.Name)
	assert.Equal(t, models.JobStatusInProgress, job.Status)
	assert.Equal(t, time.Date(2024, 4, 10, 6, 0, 0, 0, time.UTC), job.CreatedAt)
	assert.Equal(t, []string{"10.0.0.1-10.0.0.50"}, job.Targets.IPRanges)
	assert.Equal(t, []string{"web01"}, job.Targets.Hostnames)
	assert.Equal(t, []string{}, job.Targets.OUPaths)
	assert.Equal(t, []int{3, 7}, job.SelectedPolicyIDs)
	assert.Equal(t, models.DeployedMachines{Total: 10, Applied: 5, InProgress: 0, Pending: 3, Failed: 2}, job.DeployedMachines)
}

func TestNormalize_LaterScheduleWithAliases(t *testing.T) {
	row := decode(t, `{
		"id": "job-7",
		"name": "Nightly",
		"status": "SCHEDULED",
		"targets": {"IpRanges": ["192.168.1.0/24"], "ou_paths": "OU=Servers,DC=corp"},
		"schedule": {"Type": "Later", "Frequency": "Weekly", "Time": "02:00", "Timezone": "UTC", "DayOfWeek": "1"},
		"policy_ids": "1, 2, x",
		"probe_id": 9,
		"credential_profile_id": "4"
	}`)

	job := newTestService(nil).Normalize(row)

	assert.Equal(t, models.JobStatusScheduled, job.Status)
	assert.Equal(t, []string{"192.168.1.0/24"}, job.Targets.IPRanges)
	assert.Equal(t, []string{"OU=Servers", "DC=corp"}, job.Targets.OUPaths)
	assert.Equal(t, "later", job.Schedule.Type)
	assert.Equal(t, "weekly", job.Schedule.Frequency)
	assert.Equal(t, "02:00", job.Schedule.Time)
	require.NotNil(t, job.Schedule.DayOfWeek)
	assert.Equal(t, 1, *job.Schedule.DayOfWeek)
	assert.Equal(t, []int{1, 2}, job.SelectedPolicyIDs)
	assert.Equal(t, []int{9}, job.SelectedProbeIDs)
	require.NotNil(t, job.CredentialProfileID)
	assert.Equal(t, 4, *job.CredentialProfileID)

	spec := job.Schedule.Spec()
	require.IsType(t, models.Recurring{}, spec)
	assert.Equal(t, models.FrequencyWeekly, spec.(models.Recurring).Frequency)
}

func TestNormalize_Defaults(t *testing.T) {
	job, report := newTestService(nil).NormalizeWithReport(RawJobRecord{})

	assert.Equal(t, "", job.ID)
	assert.Equal(t, DefaultJobName, job.Name)
	assert.Equal(t, fixedNow, job.CreatedAt)
	assert.Equal(t, []int{}, job.SelectedPolicyIDs)
	assert.Equal(t, []int{}, job.SelectedProbeIDs)
	assert.Equal(t, []string{}, job.Errors)
	assert.Nil(t, job.CredentialProfileID)
	assert.Equal(t, models.DeployedMachines{}, job.DeployedMachines)
	assert.Nil(t, job.Schedule.Spec())

	assert.False(t, report.IsDegraded(), "missing fields are not malformed")
	assert.NotEmpty(t, report.Degraded)
}

func TestNormalize_ConfiguredDefaultName(t *testing.T) {
	svc := newTestService(&common.NormalizerConfig{DefaultJobName: "Unnamed Job"})
	assert.Equal(t, "Unnamed Job", svc.Normalize(RawJobRecord{"name": "   "}).Name)

	blank := newTestService(&common.NormalizerConfig{DefaultJobName: " "})
	assert.Equal(t, DefaultJobName, blank.Normalize(RawJobRecord{}).Name)
}

func TestNormalize_PendingNeverNegative(t *testing.T) {
	row := decode(t, `{"progress": {"total": 5, "applied": 4, "failed": 3, "inProgress": 2, "pending": 99}}`)

	job := newTestService(nil).Normalize(row)

	assert.Equal(t, 5, job.DeployedMachines.Total)
	assert.Equal(t, 0, job.DeployedMachines.Pending)
}

func TestNormalize_ProgressPreferredOverResults(t *testing.T) {
	row := decode(t, `{
		"progress": {"total": 4, "applied": 1},
		"results": {"totalMachines": 100, "successfulDeployments": 50}
	}`)

	job := newTestService(nil).Normalize(row)

	assert.Equal(t, models.DeployedMachines{Total: 4, Applied: 1, Pending: 3}, job.DeployedMachines)
}

func TestNormalize_EmptyProgressFallsBackToResults(t *testing.T) {
	row := decode(t, `{
		"progress": {},
		"results": "{\"total_machines\": 6, \"successful_deployments\": 2, \"failed_deployments\": 1}"
	}`)

	job := newTestService(nil).Normalize(row)

	assert.Equal(t, models.DeployedMachines{Total: 6, Applied: 2, Failed: 1, Pending: 3}, job.DeployedMachines)
}

func TestNormalize_IDListShapes(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected []int
	}{
		{"array", []interface{}{float64(1), "2", nil, "x"}, []int{1, 2}},
		{"json array string", "[4,5]", []int{4, 5}},
		{"json scalar string", "6", []int{6}},
		{"comma string", " 7 , 8 ,", []int{7, 8}},
		{"bracketed non-json", "[9, 10,]", []int{9, 10}},
		{"bare number", float64(11), []int{11}},
		{"empty string", "", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newTestService(nil).Normalize(RawJobRecord{"policyIds": tt.value})
			assert.Equal(t, tt.expected, job.SelectedPolicyIDs)
		})
	}
}

func TestNormalize_ProbeListPreferredOverScalar(t *testing.T) {
	job := newTestService(nil).Normalize(RawJobRecord{
		"probeIds": []interface{}{float64(1), float64(2)},
		"probeId":  float64(3),
	})
	assert.Equal(t, []int{1, 2}, job.SelectedProbeIDs)
}

func TestNormalize_CredentialProfile(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected *int
	}{
		{"number", float64(3), models.IntPtr(3)},
		{"string", "12", models.IntPtr(12)},
		{"zero", float64(0), nil},
		{"negative", float64(-1), nil},
		{"garbage", "abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newTestService(nil).Normalize(RawJobRecord{"credentialProfileId": tt.value})
			assert.Equal(t, tt.expected, job.CredentialProfileID)
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected []string
	}{
		{"array", []interface{}{"host down", " ", "timeout"}, []string{"host down", "timeout"}},
		{"json string", `["a","b"]`, []string{"a", "b"}},
		{"single message keeps commas", "failed to reach 10.0.0.1, retrying", []string{"failed to reach 10.0.0.1, retrying"}},
		{"blank", "  ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newTestService(nil).Normalize(RawJobRecord{"errors": tt.value})
			assert.Equal(t, tt.expected, job.Errors)
		})
	}
}

func TestNormalize_CreatedAtFormats(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected time.Time
	}{
		{"rfc3339", "2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"sql", "2024-01-02 03:04:05", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"date only", "2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"epoch seconds", float64(1704164645), time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"epoch millis", float64(1704164645000), time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"garbage", "yesterday", fixedNow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newTestService(nil).Normalize(RawJobRecord{"created_at": tt.value})
			assert.True(t, tt.expected.Equal(job.CreatedAt), "got %s", job.CreatedAt)
		})
	}
}

func TestNormalizeWithReport_MalformedFields(t *testing.T) {
	row := RawJobRecord{
		"id":        "j1",
		"targets":   "not json",
		"policyIds": true,
		"progress":  map[string]interface{}{"total": "many"},
	}

	_, report := newTestService(nil).NormalizeWithReport(row)

	assert.True(t, report.IsDegraded())
	assert.Equal(t, "j1", report.JobID)

	malformedFields := map[string]bool{}
	for _, d := range report.Degraded {
		if d.Reason == "malformed" {
			malformedFields[d.Field] = true
		}
	}
	assert.True(t, malformedFields[FieldTargets])
	assert.True(t, malformedFields[FieldPolicyIDs])
	assert.True(t, malformedFields[FieldProgressTotal])
}

func TestNormalize_Idempotent(t *testing.T) {
	rows := []string{
		`{"Id": 42, "Name": "A", "Status": "Running", "Targets": "{\"ipRanges\":[\"10.0.0.1\"]}", "PolicyIds": "[3,7]",
		  "results": {"totalMachines": 10, "successfulDeployments": 5, "failedDeployments": 2}}`,
		`{"id": "x", "schedule": {"Type": "Later", "Frequency": "Monthly", "Time": "01:00", "Timezone": "UTC", "DayOfMonth": 15},
		  "probe_id": "2", "credentialProfileId": 5, "errors": "boom", "createdAt": 1704164645}`,
		`{}`,
	}

	svc := newTestService(nil)
	for _, raw := range rows {
		first := svc.Normalize(decode(t, raw))

		data, err := json.Marshal(first)
		require.NoError(t, err)

		second := svc.Normalize(decode(t, string(data)))
		assert.Equal(t, first, second, "normalizing a canonical job must be a no-op")
	}
}

func TestNormalizeAll(t *testing.T) {
	jobs := newTestService(nil).NormalizeAll([]RawJobRecord{{"id": "a"}, {"id": "b"}})
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].ID)
	assert.Equal(t, "b", jobs[1].ID)
}

func TestPackageNormalize(t *testing.T) {
	job := Normalize(RawJobRecord{"name": "Direct"})
	assert.Equal(t, "Direct", job.Name)
	assert.False(t, job.CreatedAt.IsZero())
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		ids     []string
		wantErr bool
	}{
		{"array", `[{"id":"1"},{"id":"2"},3]`, []string{"1", "2"}, false},
		{"single object", `{"id":"1"}`, []string{"1"}, false},
		{"jobs envelope", `{"jobs":[{"id":"a"}],"total":1}`, []string{"a"}, false},
		{"data envelope", `{"data":[{"id":"b"}]}`, []string{"b"}, false},
		{"items envelope", `{"items":[]}`, []string{}, false},
		{"scalar", `"nope"`, nil, true},
		{"invalid json", `[{`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := DecodeRecords([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			ids := []string{}
			for _, row := range rows {
				ids = append(ids, Normalize(row).ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestAliases(t *testing.T) {
	aliases := Aliases(FieldPolicyIDs)
	assert.Equal(t, "selectedPolicyIds", aliases[0], "canonical key resolves first")
	aliases[0] = "mutated"
	assert.Equal(t, "selectedPolicyIds", Aliases(FieldPolicyIDs)[0])

	assert.Empty(t, Aliases("unknown"))
	assert.Contains(t, Fields(), FieldIPRanges)
}
