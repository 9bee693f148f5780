package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// RunCondition gates a step on the outcome of an earlier step
type RunCondition string

// RunCondition constants
const (
	RunConditionAlways    RunCondition = "always"     // Run regardless of earlier outcomes
	RunConditionOnSuccess RunCondition = "on_success" // Run only if the previous step succeeded
	RunConditionOnFailure RunCondition = "on_failure" // Run only if the previous step failed
)

// IsValid checks if the RunCondition is a known condition
func (c RunCondition) IsValid() bool {
	switch c {
	case RunConditionAlways, RunConditionOnSuccess, RunConditionOnFailure:
		return true
	}
	return false
}

// ParseRunCondition lower-cases s and returns the matching condition,
// defaulting to RunConditionAlways for anything unknown
func ParseRunCondition(s string) RunCondition {
	c := RunCondition(strings.ToLower(strings.TrimSpace(s)))
	if c.IsValid() {
		return c
	}
	return RunConditionAlways
}

// MoveDirection for MoveStep
type MoveDirection string

// MoveDirection constants
const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// ExecutionStep is a single script execution inside a policy's flow
type ExecutionStep struct {
	ID             string       `json:"id"`             // Stable across reordering, never reused
	Name           string       `json:"stepName"`       // Display name
	ScriptID       int          `json:"scriptId"`       // 0 means no script selected yet
	Order          int          `json:"order"`          // Dense, 1-based position
	Condition      RunCondition `json:"runCondition"`   // Activation condition
	PreviousStepID string       `json:"previousStepId"` // Earlier step the condition refers to; empty when unset
}

// StepPatch holds the fields to merge into a step. Nil fields are left untouched.
type StepPatch struct {
	Name           *string
	ScriptID       *int
	Condition      *RunCondition
	PreviousStepID *string
}

// ExecutionFlow is an ordered, conditionally-gated sequence of script steps.
//
// The flow is a value: mutating operations return a new flow and keep the
// receiver intact, which gives callers cheap undo snapshots. Every mutation
// keeps orders dense (1..N) and never produces a previousStepId that points at
// the step itself or at a later step.
type ExecutionFlow struct {
	steps []ExecutionStep
}

// NewExecutionFlow returns an empty flow
func NewExecutionFlow() ExecutionFlow {
	return ExecutionFlow{}
}

func newStepID() string {
	return "step_" + uuid.New().String()
}

// Len returns the number of steps
func (f ExecutionFlow) Len() int {
	return len(f.steps)
}

// Steps returns a copy of the steps in order
func (f ExecutionFlow) Steps() []ExecutionStep {
	out := make([]ExecutionStep, len(f.steps))
	copy(out, f.steps)
	return out
}

// Step returns the step with the given id
func (f ExecutionFlow) Step(id string) (ExecutionStep, bool) {
	if i := f.indexOf(id); i >= 0 {
		return f.steps[i], true
	}
	return ExecutionStep{}, false
}

// LastStep returns the final step of the flow
func (f ExecutionFlow) LastStep() (ExecutionStep, bool) {
	if len(f.steps) == 0 {
		return ExecutionStep{}, false
	}
	return f.steps[len(f.steps)-1], true
}

// AppendStep adds an unnamed, unconditional step with a fresh id at the end
func (f ExecutionFlow) AppendStep() ExecutionFlow {
	steps := make([]ExecutionStep, len(f.steps), len(f.steps)+1)
	copy(steps, f.steps)
	steps = append(steps, ExecutionStep{
		ID:        newStepID(),
		Order:     len(f.steps) + 1,
		Condition: RunConditionAlways,
	})
	return ExecutionFlow{steps: steps}
}

// UpdateStep merges patch into the step matching id.
//
// A previousStepId is only kept when it names an existing step with a smaller
// order; otherwise it is left unset and the step stays incomplete until a
// valid one is chosen. Switching a step to RunConditionAlways clears it.
// Patches that touch neither the condition nor the reference keep whatever
// reference the step already holds, dangling or not.
func (f ExecutionFlow) UpdateStep(id string, patch StepPatch) ExecutionFlow {
	i := f.indexOf(id)
	if i < 0 {
		return f
	}

	steps := f.Steps()
	step := steps[i]

	if patch.Name != nil {
		step.Name = *patch.Name
	}
	if patch.ScriptID != nil {
		step.ScriptID = *patch.ScriptID
		if step.ScriptID < 0 {
			step.ScriptID = 0
		}
	}
	if patch.Condition != nil {
		step.Condition = ParseRunCondition(string(*patch.Condition))
	}
	if patch.PreviousStepID != nil {
		step.PreviousStepID = strings.TrimSpace(*patch.PreviousStepID)
	}

	if patch.Condition != nil || patch.PreviousStepID != nil {
		switch {
		case step.Condition == RunConditionAlways:
			step.PreviousStepID = ""
		case step.PreviousStepID != "" && !f.precedes(step.PreviousStepID, step.Order):
			step.PreviousStepID = ""
		}
	}

	steps[i] = step
	return ExecutionFlow{steps: steps}
}

// RemoveStep deletes the step and renumbers the rest densely.
// References held by later steps to the removed step are left as they are;
// see DanglingReferences.
func (f ExecutionFlow) RemoveStep(id string) ExecutionFlow {
	i := f.indexOf(id)
	if i < 0 {
		return f
	}

	steps := make([]ExecutionStep, 0, len(f.steps)-1)
	steps = append(steps, f.steps[:i]...)
	steps = append(steps, f.steps[i+1:]...)
	return ExecutionFlow{steps: renumber(steps)}
}

// MoveStep swaps the step with its neighbour in the given direction.
// Moving past either end is a no-op. If the swap would leave a reference
// pointing forward, that reference is cleared.
func (f ExecutionFlow) MoveStep(id string, direction MoveDirection) ExecutionFlow {
	i := f.indexOf(id)
	if i < 0 {
		return f
	}

	j := i
	switch direction {
	case MoveUp:
		j = i - 1
	case MoveDown:
		j = i + 1
	}
	if j == i || j < 0 || j >= len(f.steps) {
		return f
	}

	steps := f.Steps()
	steps[i], steps[j] = steps[j], steps[i]
	return ExecutionFlow{steps: dropForwardReferences(renumber(steps))}
}

// DanglingReferences returns the ids of steps whose previousStepId names a
// step that no longer exists
func (f ExecutionFlow) DanglingReferences() []string {
	var ids []string
	for _, s := range f.steps {
		if s.PreviousStepID != "" && f.indexOf(s.PreviousStepID) < 0 {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// IncompleteSteps returns the ids of conditional steps without a usable previous step
func (f ExecutionFlow) IncompleteSteps() []string {
	var ids []string
	for _, s := range f.steps {
		if s.Condition == RunConditionAlways {
			continue
		}
		if s.PreviousStepID == "" || !f.precedes(s.PreviousStepID, s.Order) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// AvailableScriptIDs returns the referenced script ids in step order,
// duplicates preserved and unset (0) ids excluded. This is the list emitted
// in payloads.
func (f ExecutionFlow) AvailableScriptIDs() []int {
	ids := make([]int, 0, len(f.steps))
	for _, s := range f.steps {
		if s.ScriptID != 0 {
			ids = append(ids, s.ScriptID)
		}
	}
	return ids
}

// UniqueScriptIDs returns AvailableScriptIDs de-duplicated in first-occurrence order
func (f ExecutionFlow) UniqueScriptIDs() []int {
	seen := make(map[int]bool, len(f.steps))
	ids := make([]int, 0, len(f.steps))
	for _, id := range f.AvailableScriptIDs() {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Validate checks the flow is ready for submission
func (f ExecutionFlow) Validate() ValidationResult {
	var result ValidationResult
	if len(f.steps) == 0 {
		return result.Add("steps", "required", "at least one execution step is required")
	}

	for i, s := range f.steps {
		prefix := fmt.Sprintf("steps[%d]", i)
		if strings.TrimSpace(s.Name) == "" {
			result = result.Add(prefix+".stepName", "required", fmt.Sprintf("step %d needs a name", s.Order))
		}
		if s.ScriptID == 0 {
			result = result.Add(prefix+".scriptId", "required", fmt.Sprintf("step %d needs a script", s.Order))
		}
		if s.Condition == RunConditionAlways {
			continue
		}
		switch {
		case s.PreviousStepID == "":
			result = result.Add(prefix+".previousStepId", "required", fmt.Sprintf("step %d runs %s and needs a previous step", s.Order, s.Condition))
		case f.indexOf(s.PreviousStepID) < 0:
			result = result.Add(prefix+".previousStepId", "exists", fmt.Sprintf("step %d refers to a removed step", s.Order))
		case !f.precedes(s.PreviousStepID, s.Order):
			result = result.Add(prefix+".previousStepId", "forward_reference", fmt.Sprintf("step %d must refer to an earlier step", s.Order))
		}
	}
	return result
}

// stepRecord is the storage shape expected by the backend consumer
type stepRecord struct {
	ID             string       `json:"id"`
	StepName       string       `json:"stepName"`
	ScriptID       int          `json:"scriptId"`
	RunCondition   RunCondition `json:"runCondition"`
	PreviousStepID *string      `json:"previousStepId"`
	Order          int          `json:"order"`
}

// records returns the flow in its storage shape
func (f ExecutionFlow) records() []stepRecord {
	records := make([]stepRecord, 0, len(f.steps))
	for _, s := range f.steps {
		rec := stepRecord{
			ID:           s.ID,
			StepName:     s.Name,
			ScriptID:     s.ScriptID,
			RunCondition: s.Condition,
			Order:        s.Order,
		}
		if s.PreviousStepID != "" {
			prev := s.PreviousStepID
			rec.PreviousStepID = &prev
		}
		records = append(records, rec)
	}
	return records
}

// MarshalJSON serializes the flow as its storage array
func (f ExecutionFlow) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.records())
}

// UnmarshalJSON is the lenient inverse of MarshalJSON; see DeserializeFlow
func (f *ExecutionFlow) UnmarshalJSON(data []byte) error {
	flow, err := DeserializeFlow(data)
	if err != nil {
		return err
	}
	*f = flow
	return nil
}

// Serialize encodes the flow as a JSON array of
// {id, stepName, scriptId, runCondition, previousStepId, order}
func (f ExecutionFlow) Serialize() ([]byte, error) {
	data, err := json.Marshal(f.records())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execution flow: %w", err)
	}
	return data, nil
}

// DeserializeFlow decodes a stored execution flow.
//
// Decoding is lenient per step: a missing or duplicate id gets a fresh one, a
// scriptId that is not a base-10 integer becomes 0 and an unknown
// runCondition becomes "always".
// Steps are ordered by their order field (array position when absent) and
// renumbered densely. Only a payload that is not a JSON array is an error.
func DeserializeFlow(data []byte) (ExecutionFlow, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return ExecutionFlow{}, nil
	}

	var raw []interface{}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return ExecutionFlow{}, fmt.Errorf("failed to unmarshal execution flow: %w", err)
	}
	return FlowFromRecords(raw), nil
}

// FlowFromRecords builds a flow from already-decoded step objects, applying
// the same coercions as DeserializeFlow. Non-object elements are skipped.
func FlowFromRecords(raw []interface{}) ExecutionFlow {
	type keyed struct {
		step ExecutionStep
		key  int
	}

	seen := make(map[string]bool, len(raw))
	items := make([]keyed, 0, len(raw))

	for pos, element := range raw {
		m, ok := element.(map[string]interface{})
		if !ok {
			continue
		}

		id := strings.TrimSpace(cast.ToString(m["id"]))
		if id == "" || seen[id] {
			id = newStepID()
		}
		seen[id] = true

		name := cast.ToString(m["stepName"])
		if name == "" {
			name = cast.ToString(m["name"])
		}

		scriptID, ok := ToID(m["scriptId"])
		if !ok || scriptID < 0 {
			scriptID = 0
		}

		var prev string
		if v, ok := m["previousStepId"]; ok && v != nil {
			prev = strings.TrimSpace(cast.ToString(v))
		}

		key := pos + 1
		if order, ok := ToID(m["order"]); ok && order > 0 {
			key = order
		}

		step := ExecutionStep{
			ID:             id,
			Name:           name,
			ScriptID:       scriptID,
			Condition:      ParseRunCondition(cast.ToString(m["runCondition"])),
			PreviousStepID: prev,
		}
		if step.Condition == RunConditionAlways {
			step.PreviousStepID = ""
		}
		items = append(items, keyed{step: step, key: key})
	}

	sort.SliceStable(items, func(a, b int) bool { return items[a].key < items[b].key })

	steps := make([]ExecutionStep, 0, len(items))
	for _, it := range items {
		steps = append(steps, it.step)
	}
	return ExecutionFlow{steps: dropForwardReferences(renumber(steps))}
}

func (f ExecutionFlow) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range f.steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// precedes reports whether id names an existing step ordered before order
func (f ExecutionFlow) precedes(id string, order int) bool {
	i := f.indexOf(id)
	return i >= 0 && f.steps[i].Order < order
}

// renumber rewrites orders to match slice position, in place
func renumber(steps []ExecutionStep) []ExecutionStep {
	for i := range steps {
		steps[i].Order = i + 1
	}
	return steps
}

// dropForwardReferences clears references to existing steps that are not
// strictly earlier. References to missing steps are kept.
func dropForwardReferences(steps []ExecutionStep) []ExecutionStep {
	orders := make(map[string]int, len(steps))
	for _, s := range steps {
		orders[s.ID] = s.Order
	}
	for i := range steps {
		prev := steps[i].PreviousStepID
		if prev == "" {
			continue
		}
		if order, exists := orders[prev]; exists && order >= steps[i].Order {
			steps[i].PreviousStepID = ""
		}
	}
	return steps
}
