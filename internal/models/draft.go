package models

// JobKind is the deployment pathway a wizard creates a job for
type JobKind string

// JobKind constants
const (
	JobKindAgent         JobKind = "agent"          // Deploy policies through installed agents
	JobKindAgentless     JobKind = "agentless"      // Discovery/deployment executed through a probe
	JobKindRemoteInstall JobKind = "remote_install" // Push the agent to machines remotely
)

// IsValid checks if the JobKind is a known pathway
func (k JobKind) IsValid() bool {
	switch k {
	case JobKindAgent, JobKindAgentless, JobKindRemoteInstall:
		return true
	}
	return false
}

// AllJobKinds returns every JobKind
func AllJobKinds() []JobKind {
	return []JobKind{JobKindAgent, JobKindAgentless, JobKindRemoteInstall}
}

// JobDraft is the wizard-local snapshot of a job under construction.
// It is owned by a single wizard and passed by value between steps.
type JobDraft struct {
	Kind                JobKind      `json:"kind" validate:"required,oneof=agent agentless remote_install"`
	Name                string       `json:"name" validate:"required"`
	Description         string       `json:"description"`
	PolicyIDs           []int        `json:"policyIds"`
	Targets             TargetSet    `json:"targets"`
	CredentialProfileID *int         `json:"credentialProfileId"`
	ProbeIDs            []int        `json:"probeIds"`
	Schedule            ScheduleSpec `json:"-"`
}

// SubmissionPayload is the body handed to the backend when a job is submitted
type SubmissionPayload struct {
	Kind                JobKind      `json:"kind"`
	Name                string       `json:"name"`
	Description         string       `json:"description"`
	PolicyIDs           []int        `json:"policyIds"`
	Targets             TargetSet    `json:"targets"`
	CredentialProfileID *int         `json:"credentialProfileId"`
	ProbeIDs            []int        `json:"probeIds"`
	Schedule            ScheduleWire `json:"schedule"`
}

// BuildSubmissionPayload snapshots a draft into its submission shape.
// Targets are cleaned; id lists are copied and never null.
func BuildSubmissionPayload(d JobDraft) SubmissionPayload {
	return SubmissionPayload{
		Kind:                d.Kind,
		Name:                d.Name,
		Description:         d.Description,
		PolicyIDs:           copyInts(d.PolicyIDs),
		Targets:             d.Targets.Clean(),
		CredentialProfileID: d.CredentialProfileID,
		ProbeIDs:            copyInts(d.ProbeIDs),
		Schedule:            EncodeSchedule(d.Schedule),
	}
}

// PolicyDraft is the wizard-local snapshot of a policy under construction
type PolicyDraft struct {
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description"`
	Flow        ExecutionFlow `json:"-"`
}

// PolicyPayload is the body handed to the backend when a policy is saved
type PolicyPayload struct {
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	ExecutionFlow    ExecutionFlow `json:"executionFlow"`
	AvailableScripts []int         `json:"availableScripts"`
}

// BuildPolicyPayload snapshots a policy draft into its payload shape.
// The companion availableScripts list is de-duplicated.
func BuildPolicyPayload(p PolicyDraft) PolicyPayload {
	return PolicyPayload{
		Name:             p.Name,
		Description:      p.Description,
		ExecutionFlow:    p.Flow,
		AvailableScripts: p.Flow.UniqueScriptIDs(),
	}
}

func copyInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}
