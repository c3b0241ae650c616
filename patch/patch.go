//
// Copyright (c) 2026 Snowplow Analytics Ltd. All rights reserved.
//
// This program is licensed to you under the Apache License Version 2.0,
// and you may not use this file except in compliance with the Apache License Version 2.0.
// You may obtain a copy of the Apache License Version 2.0 at http://www.apache.org/licenses/LICENSE-2.0.
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the Apache License Version 2.0 is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the Apache License Version 2.0 for the specific language governing permissions and limitations there under.
//

// Package patch applies ordered batches of structural edits to a script model.
//
// A batch is all-or-nothing: the operations run against a private copy of the model
// and the copy is only handed back once every operation and the final checks passed.
package patch

import (
	"fmt"

	"github.com/snowplow/bwn-patcher/script"
)

// Op is one structural edit
type Op interface {
	// Kind returns the operation name used in patch documents
	Kind() string
	apply(s *script.Script) *script.ValidityError
}

// Error reports the operation of a batch that failed. Index is -1 when the batch as a
// whole left the model broken.
type Error struct {
	Index int
	Op    string
	Err   error
}

func (e *Error) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("patch batch: %v", e.Err)
	}
	return fmt.Sprintf("patch operation %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Apply runs ops in order against a copy of s. On success the patched copy is returned;
// on failure s itself is returned unchanged together with an *Error.
func Apply(s *script.Script, ops []Op) (*script.Script, error) {
	work := s.Clone()
	for i, op := range ops {
		if verr := op.apply(work); verr != nil {
			return s, &Error{Index: i, Op: op.Kind(), Err: verr}
		}
	}
	// nesting can only be judged once the whole batch is in
	if problems := script.Check(work); len(problems) > 0 {
		return s, &Error{Index: -1, Err: problems[0]}
	}
	return work, nil
}

// --- Operations

// InsertStep adds Step after the step with id AfterID. An AfterID of zero inserts at
// the start of the script.
type InsertStep struct {
	AfterID int
	Step    script.Step
}

func (op InsertStep) Kind() string { return "insert_step" }

func (op InsertStep) apply(s *script.Script) *script.ValidityError {
	at := 0
	if op.AfterID != 0 {
		i := s.StepIndex(op.AfterID)
		if i < 0 {
			return &script.ValidityError{Kind: script.UnknownAnchor, StepID: op.AfterID}
		}
		at = i + 1
	}
	if op.Step.ID <= 0 {
		return &script.ValidityError{Kind: script.InvalidStepID, StepID: op.Step.ID}
	}
	if s.StepIndex(op.Step.ID) >= 0 {
		return &script.ValidityError{Kind: script.DuplicateStepID, StepID: op.Step.ID}
	}
	if problems := script.CheckStep(script.DeclaredVariables(s), op.Step); len(problems) > 0 {
		return problems[0]
	}

	steps := make([]script.Step, 0, len(s.Steps)+1)
	steps = append(steps, s.Steps[:at]...)
	steps = append(steps, op.Step.Clone())
	s.Steps = append(steps, s.Steps[at:]...)
	return nil
}

// DeleteStep removes the step with id ID
type DeleteStep struct {
	ID int
}

func (op DeleteStep) Kind() string { return "delete_step" }

func (op DeleteStep) apply(s *script.Script) *script.ValidityError {
	i := s.StepIndex(op.ID)
	if i < 0 {
		return &script.ValidityError{Kind: script.UnknownStepID, StepID: op.ID}
	}
	s.Steps = append(s.Steps[:i:i], s.Steps[i+1:]...)
	return nil
}

// ReplaceStepOptions swaps the whole option set of the step with id ID
type ReplaceStepOptions struct {
	ID      int
	Options script.Options
}

func (op ReplaceStepOptions) Kind() string { return "replace_step_options" }

func (op ReplaceStepOptions) apply(s *script.Script) *script.ValidityError {
	st, ok := s.Step(op.ID)
	if !ok {
		return &script.ValidityError{Kind: script.UnknownStepID, StepID: op.ID}
	}
	trial := st.Clone()
	trial.Options = append(script.Options(nil), op.Options...)
	if problems := script.CheckStep(script.DeclaredVariables(s), trial); len(problems) > 0 {
		return problems[0]
	}
	st.Options = trial.Options
	return nil
}

// ReorderSteps rearranges the steps into Order, which must hold every current step id
// exactly once
type ReorderSteps struct {
	Order []int
}

func (op ReorderSteps) Kind() string { return "reorder_steps" }

func (op ReorderSteps) apply(s *script.Script) *script.ValidityError {
	if len(op.Order) != len(s.Steps) {
		return &script.ValidityError{
			Kind: script.InvalidPermutation,
			Name: fmt.Sprintf("%d ids for %d steps", len(op.Order), len(s.Steps)),
		}
	}
	seen := make(map[int]bool, len(op.Order))
	steps := make([]script.Step, 0, len(op.Order))
	for _, id := range op.Order {
		i := s.StepIndex(id)
		if i < 0 || seen[id] {
			return &script.ValidityError{Kind: script.InvalidPermutation, StepID: id}
		}
		seen[id] = true
		steps = append(steps, s.Steps[i])
	}
	s.Steps = steps
	return nil
}

// SetVariableDefault changes the default value of a declared variable
type SetVariableDefault struct {
	Name  string
	Value string
}

func (op SetVariableDefault) Kind() string { return "set_variable_default" }

func (op SetVariableDefault) apply(s *script.Script) *script.ValidityError {
	v, ok := s.Variable(op.Name)
	if !ok {
		return &script.ValidityError{Kind: script.UnknownVariable, Name: op.Name}
	}
	if problems := script.CheckReferences(script.DeclaredVariables(s), 0, op.Value); len(problems) > 0 {
		return problems[0]
	}
	v.Default = op.Value
	return nil
}

// SetProjectName renames the project
type SetProjectName struct {
	Name string
}

func (op SetProjectName) Kind() string { return "set_project_name" }

func (op SetProjectName) apply(s *script.Script) *script.ValidityError {
	s.Project.Name = op.Name
	return nil
}

// SetTabTitle renames the first tab titled Old, or the first tab when Old is empty
type SetTabTitle struct {
	Old   string
	Title string
}

func (op SetTabTitle) Kind() string { return "set_tab_title" }

func (op SetTabTitle) apply(s *script.Script) *script.ValidityError {
	if op.Old == "" || s.TabTitle == op.Old {
		s.TabTitle = op.Title
		return nil
	}
	for i := range s.OtherTabs {
		if s.OtherTabs[i].Title == op.Old {
			s.OtherTabs[i].Title = op.Title
			return nil
		}
	}
	return &script.ValidityError{Kind: script.UnknownTab, Name: op.Old}
}

// ReplaceString swaps every text value of the script equal to Old for New. Project
// name and description, tab titles, variable defaults, step comments and option values
// of every tab are covered; keys and variable names are not. Nothing matching is not
// an error.
type ReplaceString struct {
	Old string
	New string
}

func (op ReplaceString) Kind() string { return "replace_string" }

func (op ReplaceString) apply(s *script.Script) *script.ValidityError {
	if op.Old == "" {
		return nil
	}
	replace := func(v *string) {
		if *v == op.Old {
			*v = op.New
		}
	}
	replaceSteps := func(steps []script.Step) {
		for i := range steps {
			replace(&steps[i].Comment)
			for j := range steps[i].Options {
				replace(&steps[i].Options[j].Value)
			}
		}
	}

	replace(&s.Project.Name)
	replace(&s.Project.Description)
	replace(&s.TabTitle)
	for i := range s.Variables {
		replace(&s.Variables[i].Default)
	}
	replaceSteps(s.Steps)
	for i := range s.OtherTabs {
		replace(&s.OtherTabs[i].Title)
		replaceSteps(s.OtherTabs[i].Steps)
	}
	return nil
}
