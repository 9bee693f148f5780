package jobs

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/fleetjobs/internal/models"
	"github.com/ternarybob/fleetjobs/internal/services/wizard"
)

// ValidationError is returned when a draft does not pass the wizard checks.
// Result carries the per-field failures.
type ValidationError struct {
	Result models.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("draft failed validation: %s", e.Result.String())
}

// Service handles draft files: parsing, conversion and payload building.
// Payloads are only built from drafts that pass the wizard validator.
type Service struct {
	validator *wizard.Validator
	logger    arbor.ILogger
}

// NewService creates a new draft service
func NewService(validator *wizard.Validator, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = arbor.NewNoOpLogger()
	}
	if validator == nil {
		validator = wizard.NewValidator(nil, logger)
	}
	return &Service{
		validator: validator,
		logger:    logger,
	}
}

// ParseJobDraft parses job draft content in the given format
func (s *Service) ParseJobDraft(format Format, content []byte) (models.JobDraft, error) {
	var file JobDraftFile
	if err := decode(format, content, &file); err != nil {
		return models.JobDraft{}, fmt.Errorf("failed to parse job draft: %w", err)
	}
	return file.ToJobDraft(), nil
}

// LoadJobDraft reads a job draft file, selecting the format from its extension
func (s *Service) LoadJobDraft(path string) (models.JobDraft, error) {
	format, content, err := readDraftFile(path)
	if err != nil {
		return models.JobDraft{}, err
	}

	draft, err := s.ParseJobDraft(format, content)
	if err != nil {
		return models.JobDraft{}, fmt.Errorf("%s: %w", path, err)
	}

	s.logger.Debug().
		Str("path", path).
		Str("kind", string(draft.Kind)).
		Int("targets", draft.Targets.Count()).
		Msg("Loaded job draft")
	return draft, nil
}

// ParsePolicyDraft parses policy draft content in the given format
func (s *Service) ParsePolicyDraft(format Format, content []byte) (models.PolicyDraft, error) {
	var file PolicyDraftFile
	if err := decode(format, content, &file); err != nil {
		return models.PolicyDraft{}, fmt.Errorf("failed to parse policy draft: %w", err)
	}

	draft, err := file.ToPolicyDraft()
	if err != nil {
		return models.PolicyDraft{}, fmt.Errorf("failed to build execution flow: %w", err)
	}
	return draft, nil
}

// LoadPolicyDraft reads a policy draft file, selecting the format from its extension
func (s *Service) LoadPolicyDraft(path string) (models.PolicyDraft, error) {
	format, content, err := readDraftFile(path)
	if err != nil {
		return models.PolicyDraft{}, err
	}

	draft, err := s.ParsePolicyDraft(format, content)
	if err != nil {
		return models.PolicyDraft{}, fmt.Errorf("%s: %w", path, err)
	}

	s.logger.Debug().
		Str("path", path).
		Int("steps", draft.Flow.Len()).
		Msg("Loaded policy draft")
	return draft, nil
}

// BuildSubmission validates the draft and returns its submission payload.
// A failing draft yields a *ValidationError.
func (s *Service) BuildSubmission(draft models.JobDraft) (models.SubmissionPayload, error) {
	if result := s.validator.ValidateDraft(draft); !result.OK() {
		return models.SubmissionPayload{}, &ValidationError{Result: result}
	}

	payload := models.BuildSubmissionPayload(draft)
	s.logger.Info().
		Str("kind", string(payload.Kind)).
		Str("name", payload.Name).
		Str("schedule", string(payload.Schedule.Mode)).
		Msg("Built job submission payload")
	return payload, nil
}

// BuildPolicy validates the policy and returns its save payload.
// A failing policy yields a *ValidationError.
func (s *Service) BuildPolicy(policy models.PolicyDraft) (models.PolicyPayload, error) {
	if result := s.validator.ValidatePolicy(policy); !result.OK() {
		return models.PolicyPayload{}, &ValidationError{Result: result}
	}

	payload := models.BuildPolicyPayload(policy)
	s.logger.Info().
		Str("name", payload.Name).
		Int("steps", policy.Flow.Len()).
		Int("scripts", len(payload.AvailableScripts)).
		Msg("Built policy payload")
	return payload, nil
}

// ExportJobDraft renders a draft in the given file format
func (s *Service) ExportJobDraft(format Format, draft models.JobDraft) ([]byte, error) {
	data, err := encode(format, FromJobDraft(draft))
	if err != nil {
		return nil, fmt.Errorf("failed to export job draft as %s: %w", format, err)
	}
	return data, nil
}

// FromJobDraft converts a wizard draft back to its file structure
func FromJobDraft(d models.JobDraft) JobDraftFile {
	return JobDraftFile{
		Kind:                string(d.Kind),
		Name:                d.Name,
		Description:         d.Description,
		PolicyIDs:           d.PolicyIDs,
		Targets:             d.Targets,
		CredentialProfileID: d.CredentialProfileID,
		ProbeIDs:            d.ProbeIDs,
		Schedule:            models.EncodeSchedule(d.Schedule),
	}
}

func readDraftFile(path string) (Format, []byte, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return "", nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read draft file %s: %w", path, err)
	}
	return format, content, nil
}
