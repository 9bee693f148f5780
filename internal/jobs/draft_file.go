package jobs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/fleetjobs/internal/models"
)

// Format of a draft definition file
type Format string

// Format constants
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// IsValid checks if the Format is supported
func (f Format) IsValid() bool {
	switch f {
	case FormatTOML, FormatYAML, FormatJSON:
		return true
	}
	return false
}

// DetectFormat selects the format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported draft file extension %q (expected .toml, .yaml, .yml or .json)", filepath.Ext(path))
}

// JobDraftFile represents the on-disk structure of a job draft
type JobDraftFile struct {
	Kind                string              `toml:"kind" yaml:"kind" json:"kind"`
	Name                string              `toml:"name" yaml:"name" json:"name"`
	Description         string              `toml:"description" yaml:"description" json:"description"`
	PolicyIDs           []int               `toml:"policy_ids" yaml:"policy_ids" json:"policyIds"`
	Targets             models.TargetSet    `toml:"targets" yaml:"targets" json:"targets"`
	CredentialProfileID *int                `toml:"credential_profile_id" yaml:"credential_profile_id" json:"credentialProfileId"`
	ProbeIDs            []int               `toml:"probe_ids" yaml:"probe_ids" json:"probeIds"`
	Schedule            models.ScheduleWire `toml:"schedule" yaml:"schedule" json:"schedule"`
}

// ToJobDraft converts the file structure to the wizard draft
func (f *JobDraftFile) ToJobDraft() models.JobDraft {
	return models.JobDraft{
		Kind:                models.JobKind(strings.ToLower(strings.TrimSpace(f.Kind))),
		Name:                strings.TrimSpace(f.Name),
		Description:         strings.TrimSpace(f.Description),
		PolicyIDs:           f.PolicyIDs,
		Targets:             f.Targets,
		CredentialProfileID: f.CredentialProfileID,
		ProbeIDs:            f.ProbeIDs,
		Schedule:            f.Schedule.Spec(),
	}
}

// PolicyStepEntry is one step of a policy draft file. After names an earlier
// step of the same file.
type PolicyStepEntry struct {
	Name      string `toml:"name" yaml:"name" json:"name"`
	ScriptID  int    `toml:"script_id" yaml:"script_id" json:"scriptId"`
	Condition string `toml:"condition" yaml:"condition" json:"condition"`
	After     string `toml:"after" yaml:"after" json:"after"`
}

// PolicyDraftFile represents the on-disk structure of a policy draft.
// Steps are authored as [[steps]] tables; ExecutionFlow accepts the stored
// flow format instead, for drafts exported from the backend.
type PolicyDraftFile struct {
	Name          string            `toml:"name" yaml:"name" json:"name"`
	Description   string            `toml:"description" yaml:"description" json:"description"`
	Steps         []PolicyStepEntry `toml:"steps" yaml:"steps" json:"steps"`
	ExecutionFlow []interface{}     `toml:"execution_flow" yaml:"execution_flow" json:"executionFlow"`
}

// ToPolicyDraft converts the file structure to the wizard draft.
// Authored steps take precedence over a stored execution flow.
func (f *PolicyDraftFile) ToPolicyDraft() (models.PolicyDraft, error) {
	draft := models.PolicyDraft{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
	}

	if len(f.Steps) == 0 {
		draft.Flow = models.FlowFromRecords(f.ExecutionFlow)
		return draft, nil
	}

	flow, err := buildFlow(f.Steps)
	if err != nil {
		return models.PolicyDraft{}, err
	}
	draft.Flow = flow
	return draft, nil
}

// buildFlow replays the authored steps through the flow operations so the
// result carries fresh ids and the same guarantees as a wizard-built flow
func buildFlow(entries []PolicyStepEntry) (models.ExecutionFlow, error) {
	flow := models.NewExecutionFlow()
	idsByName := make(map[string]string, len(entries))

	for i, entry := range entries {
		flow = flow.AppendStep()
		step, _ := flow.LastStep()

		name := strings.TrimSpace(entry.Name)
		if name != "" {
			if _, exists := idsByName[name]; exists {
				return models.ExecutionFlow{}, fmt.Errorf("step %d: duplicate step name '%s'", i+1, name)
			}
			idsByName[name] = step.ID
		}

		scriptID := entry.ScriptID
		patch := models.StepPatch{Name: &name, ScriptID: &scriptID}

		if c := strings.TrimSpace(entry.Condition); c != "" {
			condition := models.RunCondition(strings.ToLower(c))
			if !condition.IsValid() {
				return models.ExecutionFlow{}, fmt.Errorf("step %d: invalid condition '%s' - must be one of: always, on_success, on_failure", i+1, entry.Condition)
			}
			patch.Condition = &condition
		}

		if after := strings.TrimSpace(entry.After); after != "" {
			previousID, ok := idsByName[after]
			if !ok || previousID == step.ID {
				return models.ExecutionFlow{}, fmt.Errorf("step %d: 'after' must name an earlier step, got '%s'", i+1, after)
			}
			patch.PreviousStepID = &previousID
		}

		flow = flow.UpdateStep(step.ID, patch)
	}

	return flow, nil
}

// decode unmarshals content in the given format into v.
// JSON decoding rejects unknown fields so typos surface as errors.
func decode(format Format, content []byte, v interface{}) error {
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(content, v); err != nil {
			return fmt.Errorf("invalid TOML syntax: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, v); err != nil {
			return fmt.Errorf("invalid YAML syntax: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported draft format %q", format)
	}
	return nil
}

// encode marshals v in the given format
func encode(format Format, v interface{}) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(v)
	case FormatYAML:
		return yaml.Marshal(v)
	case FormatJSON:
		return json.MarshalIndent(v, "", "  ")
	}
	return nil, fmt.Errorf("unsupported draft format %q", format)
}
