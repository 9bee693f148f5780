// Package wizard provides the per-step predicates that gate progression
// through the job and policy creation wizards.
package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/fleetjobs/internal/common"
	"github.com/ternarybob/fleetjobs/internal/models"
)

// StepName identifies a wizard step
type StepName string

// StepName constants
const (
	StepDetails     StepName = "details"
	StepPolicies    StepName = "policies"
	StepProbe       StepName = "probe"
	StepCredentials StepName = "credentials"
	StepTargets     StepName = "targets"
	StepSchedule    StepName = "schedule"
)

// stepsByKind lists the ordered steps of each job wizard
var stepsByKind = map[models.JobKind][]StepName{
	models.JobKindAgent:         {StepDetails, StepPolicies, StepTargets, StepSchedule},
	models.JobKindAgentless:     {StepDetails, StepProbe, StepCredentials, StepPolicies, StepTargets, StepSchedule},
	models.JobKindRemoteInstall: {StepDetails, StepTargets, StepCredentials, StepSchedule},
}

// Steps returns the ordered steps of the wizard for kind, nil for an unknown kind
func Steps(kind models.JobKind) []StepName {
	steps := stepsByKind[kind]
	if steps == nil {
		return nil
	}
	out := make([]StepName, len(steps))
	copy(out, steps)
	return out
}

// Validator evaluates wizard steps against a draft. It holds no per-draft
// state and is safe for concurrent use.
type Validator struct {
	logger   arbor.ILogger
	config   common.WizardConfig
	validate *validator.Validate
}

// NewValidator creates a wizard validator. config may be nil for defaults.
func NewValidator(config *common.WizardConfig, logger arbor.ILogger) *Validator {
	if logger == nil {
		logger = arbor.NewNoOpLogger()
	}
	cfg := common.NewDefaultConfig().Wizard
	if config != nil {
		cfg = *config
	}

	v := validator.New()
	// Report fields by their wire names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{logger: logger, config: cfg, validate: v}
}

// Check evaluates a single step. An unknown step fails.
func (v *Validator) Check(step StepName, d models.JobDraft) models.ValidationResult {
	switch step {
	case StepDetails:
		return v.Details(d)
	case StepPolicies:
		return v.Policies(d)
	case StepProbe:
		return v.Probe(d)
	case StepCredentials:
		return v.Credentials(d)
	case StepTargets:
		return v.Targets(d)
	case StepSchedule:
		return v.Schedule(d)
	}
	var result models.ValidationResult
	return result.Add("step", "oneof", fmt.Sprintf("unknown wizard step %q", step))
}

// CanProceed reports whether the wizard may leave step
func (v *Validator) CanProceed(step StepName, d models.JobDraft) bool {
	return v.Check(step, d).OK()
}

// Details checks the kind, name and description
func (v *Validator) Details(d models.JobDraft) models.ValidationResult {
	result := v.structErrors(d)
	return v.checkText(result, d.Name, d.Description)
}

// Policies requires at least one positive policy id. Agentless jobs may run
// discovery without policies.
func (v *Validator) Policies(d models.JobDraft) models.ValidationResult {
	var result models.ValidationResult
	if len(d.PolicyIDs) == 0 && d.Kind != models.JobKindAgentless {
		return result.Add("policyIds", "required", "select at least one policy")
	}
	return checkIDs(result, "policyIds", d.PolicyIDs)
}

// Probe requires a probe for agentless jobs
func (v *Validator) Probe(d models.JobDraft) models.ValidationResult {
	var result models.ValidationResult
	if d.Kind != models.JobKindAgentless {
		return result
	}
	if len(d.ProbeIDs) == 0 {
		return result.Add("probeIds", "required", "select a probe")
	}
	return checkIDs(result, "probeIds", d.ProbeIDs)
}

// Credentials requires a credential profile when the pathway has no agent to
// authenticate with
func (v *Validator) Credentials(d models.JobDraft) models.ValidationResult {
	var result models.ValidationResult
	if !v.requiresCredentials(d.Kind) {
		return result
	}
	if d.CredentialProfileID == nil {
		return result.Add("credentialProfileId", "required", "select a credential profile")
	}
	if *d.CredentialProfileID <= 0 {
		return result.Add("credentialProfileId", "min", "credential profile id must be positive")
	}
	return result
}

func (v *Validator) requiresCredentials(kind models.JobKind) bool {
	switch kind {
	case models.JobKindAgentless, models.JobKindRemoteInstall:
		return true
	case models.JobKindAgent:
		return v.config.RequireCredentialsForAgent
	}
	return false
}

// Targets requires at least one non-blank target entry
func (v *Validator) Targets(d models.JobDraft) models.ValidationResult {
	var result models.ValidationResult
	if !d.Targets.HasAnyTarget() {
		return result.Add("targets", "required", "add at least one target")
	}
	return result
}

// Schedule checks the schedule against its mode's required fields
func (v *Validator) Schedule(d models.JobDraft) models.ValidationResult {
	if d.Schedule == nil {
		var result models.ValidationResult
		return result.Add("mode", "required", "choose when the job runs")
	}
	return models.ValidateSchedule(d.Schedule)
}

// ValidateDraft runs every step of the draft's wizard and merges the results.
// A draft with an unknown kind is only checked for its details.
func (v *Validator) ValidateDraft(d models.JobDraft) models.ValidationResult {
	steps := Steps(d.Kind)
	if steps == nil {
		steps = []StepName{StepDetails}
	}

	var result models.ValidationResult
	for _, step := range steps {
		result = result.Merge(v.Check(step, d))
	}

	if !result.OK() {
		v.logger.Debug().
			Str("kind", string(d.Kind)).
			Strs("fields", result.Fields()).
			Msg("Job draft failed validation")
	}
	return result
}

// ValidatePolicy checks a policy draft's details and its execution flow
func (v *Validator) ValidatePolicy(p models.PolicyDraft) models.ValidationResult {
	result := v.structErrors(p)
	result = v.checkText(result, p.Name, p.Description)
	result = result.Merge(p.Flow.Validate())

	if !result.OK() {
		v.logger.Debug().
			Int("steps", p.Flow.Len()).
			Strs("fields", result.Fields()).
			Msg("Policy draft failed validation")
	}
	return result
}

// structErrors applies the draft's struct tags
func (v *Validator) structErrors(draft interface{}) models.ValidationResult {
	var result models.ValidationResult

	err := v.validate.Struct(draft)
	if err == nil {
		return result
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Warn().Err(err).Msg("Draft could not be validated")
		return result.Add("draft", "invalid", err.Error())
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			result = result.Add(fe.Field(), fe.Tag(), fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			result = result.Add(fe.Field(), fe.Tag(), fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			result = result.Add(fe.Field(), fe.Tag(), fmt.Sprintf("%s failed rule %s", fe.Field(), fe.Tag()))
		}
	}
	return result
}

// checkText applies the configured length limits. A blank name counts as missing.
func (v *Validator) checkText(result models.ValidationResult, name, description string) models.ValidationResult {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		if !result.Has("name") {
			result = result.Add("name", "required", "name is required")
		}
	} else {
		result = models.CheckVar(result, "name", trimmed, fmt.Sprintf("max=%d", v.config.MaxNameLength))
	}
	return models.CheckVar(result, "description", description, fmt.Sprintf("max=%d", v.config.MaxDescriptionLength))
}

func checkIDs(result models.ValidationResult, field string, ids []int) models.ValidationResult {
	for i, id := range ids {
		if id <= 0 {
			result = result.Add(fmt.Sprintf("%s[%d]", field, i), "min", fmt.Sprintf("%s[%d] must be a positive id", field, i))
		}
	}
	return result
}
