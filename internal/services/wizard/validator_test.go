package wizard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/fleetjobs/internal/common"
	"github.com/ternarybob/fleetjobs/internal/models"
)

func newTestValidator(config *common.WizardConfig) *Validator {
	return NewValidator(config, arbor.NewNoOpLogger())
}

func validAgentDraft() models.JobDraft {
	return models.JobDraft{
		Kind:      models.JobKindAgent,
		Name:      "Weekly patching",
		PolicyIDs: []int{3},
		Targets:   models.TargetSet{Hostnames: []string{"web01"}},
		Schedule:  models.RunNow{},
	}
}

func validAgentlessDraft() models.JobDraft {
	d := validAgentDraft()
	d.Kind = models.JobKindAgentless
	d.PolicyIDs = nil
	d.ProbeIDs = []int{2}
	d.CredentialProfileID = models.IntPtr(5)
	return d
}

func TestSteps(t *testing.T) {
	assert.Equal(t, []StepName{StepDetails, StepPolicies, StepTargets, StepSchedule}, Steps(models.JobKindAgent))
	assert.Contains(t, Steps(models.JobKindAgentless), StepProbe)
	assert.Contains(t, Steps(models.JobKindRemoteInstall), StepCredentials)
	assert.NotContains(t, Steps(models.JobKindRemoteInstall), StepPolicies)
	assert.Nil(t, Steps("unknown"))

	steps := Steps(models.JobKindAgent)
	steps[0] = StepSchedule
	assert.Equal(t, StepDetails, Steps(models.JobKindAgent)[0], "callers get a copy")
}

func TestDetails(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *models.JobDraft)
		fields []string
	}{
		{"valid", func(d *models.JobDraft) {}, nil},
		{"missing name", func(d *models.JobDraft) { d.Name = "" }, []string{"name"}},
		{"blank name", func(d *models.JobDraft) { d.Name = "   " }, []string{"name"}},
		{"name too long", func(d *models.JobDraft) { d.Name = strings.Repeat("a", 129) }, []string{"name"}},
		{"name at limit", func(d *models.JobDraft) { d.Name = strings.Repeat("é", 128) }, nil},
		{"description too long", func(d *models.JobDraft) { d.Description = strings.Repeat("d", 1025) }, []string{"description"}},
		{"missing kind", func(d *models.JobDraft) { d.Kind = "" }, []string{"kind"}},
		{"unknown kind", func(d *models.JobDraft) { d.Kind = "ssh" }, []string{"kind"}},
	}

	v := newTestValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validAgentDraft()
			tt.mutate(&d)
			result := v.Details(d)
			if tt.fields == nil {
				assert.True(t, result.OK(), result.String())
				return
			}
			assert.Equal(t, tt.fields, result.Fields())
		})
	}
}

func TestDetails_ConfiguredLimits(t *testing.T) {
	v := newTestValidator(&common.WizardConfig{MaxNameLength: 5, MaxDescriptionLength: 3})

	d := validAgentDraft()
	d.Name = "sixsix"
	d.Description = "four"

	result := v.Details(d)
	assert.Equal(t, []string{"name", "description"}, result.Fields())
	assert.Equal(t, "max", result.Errors[0].Rule)
	assert.Equal(t, "name must be at most 5 characters", result.Errors[0].Message)
}

func TestPolicies(t *testing.T) {
	v := newTestValidator(nil)

	d := validAgentDraft()
	assert.True(t, v.Policies(d).OK())

	d.PolicyIDs = nil
	assert.True(t, v.Policies(d).Has("policyIds"))

	d.PolicyIDs = []int{1, 0, -2}
	assert.Equal(t, []string{"policyIds[1]", "policyIds[2]"}, v.Policies(d).Fields())

	agentless := validAgentlessDraft()
	assert.True(t, v.Policies(agentless).OK(), "agentless jobs may have no policies")
}

func TestProbe(t *testing.T) {
	v := newTestValidator(nil)

	assert.True(t, v.Probe(validAgentDraft()).OK(), "agent jobs need no probe")

	d := validAgentlessDraft()
	assert.True(t, v.Probe(d).OK())

	d.ProbeIDs = []int{}
	assert.True(t, v.Probe(d).Has("probeIds"))
}

func TestCredentials(t *testing.T) {
	tests := []struct {
		name    string
		kind    models.JobKind
		id      *int
		require bool
		ok      bool
	}{
		{"agent without credentials", models.JobKindAgent, nil, false, true},
		{"agent when required", models.JobKindAgent, nil, true, false},
		{"agentless missing", models.JobKindAgentless, nil, false, false},
		{"agentless set", models.JobKindAgentless, models.IntPtr(1), false, true},
		{"remote install zero", models.JobKindRemoteInstall, models.IntPtr(0), false, false},
		{"remote install set", models.JobKindRemoteInstall, models.IntPtr(9), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := common.NewDefaultConfig().Wizard
			cfg.RequireCredentialsForAgent = tt.require
			v := newTestValidator(&cfg)

			d := validAgentDraft()
			d.Kind = tt.kind
			d.CredentialProfileID = tt.id
			assert.Equal(t, tt.ok, v.Credentials(d).OK())
		})
	}
}

func TestTargets(t *testing.T) {
	v := newTestValidator(nil)

	d := validAgentDraft()
	assert.True(t, v.Targets(d).OK())

	d.Targets = models.TargetSet{IPRanges: []string{"  "}, Hostnames: []string{""}}
	result := v.Targets(d)
	require.False(t, result.OK())
	assert.Equal(t, "targets", result.Errors[0].Field)
}

func TestSchedule(t *testing.T) {
	v := newTestValidator(nil)

	d := validAgentDraft()
	assert.True(t, v.Schedule(d).OK())

	d.Schedule = nil
	assert.True(t, v.Schedule(d).Has("mode"))

	d.Schedule = models.Recurring{Frequency: models.FrequencyWeekly, Time: "02:00", Timezone: "UTC"}
	assert.True(t, v.Schedule(d).Has("dayOfWeek"))
}

func TestCanProceed(t *testing.T) {
	v := newTestValidator(nil)
	d := validAgentDraft()

	for _, step := range Steps(d.Kind) {
		assert.True(t, v.CanProceed(step, d), "step %s", step)
	}

	d.Targets = models.TargetSet{}
	assert.False(t, v.CanProceed(StepTargets, d))
	assert.True(t, v.CanProceed(StepDetails, d))
	assert.False(t, v.CanProceed("review", d))
}

func TestValidateDraft(t *testing.T) {
	v := newTestValidator(nil)

	assert.True(t, v.ValidateDraft(validAgentDraft()).OK())
	assert.True(t, v.ValidateDraft(validAgentlessDraft()).OK())

	remote := models.JobDraft{
		Kind:     models.JobKindRemoteInstall,
		Name:     "Install agents",
		Schedule: models.RunOnce{ScheduledAt: "2030-01-01T10:00", Timezone: "UTC"},
	}
	result := v.ValidateDraft(remote)
	assert.Equal(t, []string{"targets", "credentialProfileId"}, result.Fields())

	unknown := validAgentDraft()
	unknown.Kind = "ssh"
	assert.Equal(t, []string{"kind"}, v.ValidateDraft(unknown).Fields())
}

func TestValidatePolicy(t *testing.T) {
	v := newTestValidator(nil)

	flow := models.NewExecutionFlow().AppendStep().AppendStep()
	steps := flow.Steps()
	flow = flow.UpdateStep(steps[0].ID, models.StepPatch{Name: strPtr("Stop service"), ScriptID: models.IntPtr(10)})
	cond := models.RunConditionOnSuccess
	flow = flow.UpdateStep(steps[1].ID, models.StepPatch{
		Name:           strPtr("Patch"),
		ScriptID:       models.IntPtr(11),
		Condition:      &cond,
		PreviousStepID: &steps[0].ID,
	})

	policy := models.PolicyDraft{Name: "Patch policy", Flow: flow}
	assert.True(t, v.ValidatePolicy(policy).OK())

	// Removing the referenced step leaves a dangling reference that blocks submission
	dangling := policy
	dangling.Flow = flow.RemoveStep(steps[0].ID)
	result := v.ValidatePolicy(dangling)
	require.False(t, result.OK())
	assert.Equal(t, "exists", result.Errors[0].Rule)

	empty := models.PolicyDraft{}
	assert.Equal(t, []string{"name", "steps"}, v.ValidatePolicy(empty).Fields())
}

func strPtr(s string) *string {
	return &s
}
