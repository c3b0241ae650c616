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

package script

import (
	"regexp"
)

var variableToken = regexp.MustCompile(`\$\{([^}]*)\}`)

// VariableReferences returns the names of the ${NAME} tokens in s
func VariableReferences(s string) []string {
	var names []string
	for _, m := range variableToken.FindAllStringSubmatch(s, -1) {
		names = append(names, m[1])
	}
	return names
}

// Validate returns the first invariant the script breaks, or nil
func Validate(s *Script) error {
	if problems := Check(s); len(problems) > 0 {
		return problems[0]
	}
	return nil
}

// Check returns every invariant the script breaks, in step order
func Check(s *Script) []*ValidityError {
	var problems []*ValidityError

	declared := make(map[string]bool, len(s.Variables))
	for _, v := range s.Variables {
		if declared[v.Name] {
			problems = append(problems, &ValidityError{Kind: DuplicateVariable, Name: v.Name})
		}
		declared[v.Name] = true
		if !v.Type.Valid() {
			problems = append(problems, &ValidityError{Kind: UnknownVariableType, Name: v.Name + " " + string(v.Type)})
		}
	}
	for _, v := range s.Variables {
		problems = append(problems, CheckReferences(declared, 0, v.Default)...)
	}

	problems = append(problems, checkSteps(declared, s.Steps)...)
	for _, t := range s.OtherTabs {
		problems = append(problems, checkSteps(declared, t.Steps)...)
	}
	return problems
}

// checkSteps checks the steps of one tab
func checkSteps(declared map[string]bool, steps []Step) []*ValidityError {
	var problems []*ValidityError
	ids := make(map[int]bool, len(steps))
	for _, st := range steps {
		if st.ID <= 0 {
			problems = append(problems, &ValidityError{Kind: InvalidStepID, StepID: st.ID})
		} else if ids[st.ID] {
			problems = append(problems, &ValidityError{Kind: DuplicateStepID, StepID: st.ID})
		}
		ids[st.ID] = true
		problems = append(problems, CheckStep(declared, st)...)
	}
	if err := CheckNesting(steps); err != nil {
		problems = append(problems, err)
	}
	return problems
}

// CheckStep checks a single step against the vocabulary and the declared variables
func CheckStep(declared map[string]bool, st Step) []*ValidityError {
	cmd, ok := LookupCommand(st.Command)
	if !ok {
		return []*ValidityError{{Kind: UnknownCommand, StepID: st.ID, Name: st.Command}}
	}
	var problems []*ValidityError
	seen := make(map[string]bool, len(st.Options))
	for _, opt := range st.Options {
		if !cmd.AllowsOption(opt.Key) {
			problems = append(problems, &ValidityError{Kind: UnknownOptionKey, StepID: st.ID, Name: st.Command + "." + opt.Key})
		}
		if seen[opt.Key] {
			problems = append(problems, &ValidityError{Kind: DuplicateOptionKey, StepID: st.ID, Name: st.Command + "." + opt.Key})
		}
		seen[opt.Key] = true
		problems = append(problems, CheckReferences(declared, st.ID, opt.Value)...)
	}
	return problems
}

// CheckReferences reports every ${NAME} token in value naming an undeclared variable
func CheckReferences(declared map[string]bool, stepID int, value string) []*ValidityError {
	var problems []*ValidityError
	for _, name := range VariableReferences(value) {
		if !declared[name] {
			problems = append(problems, &ValidityError{Kind: UnknownVariableReference, StepID: stepID, Name: name})
		}
	}
	return problems
}

// DeclaredVariables returns the set of variable names of s
func DeclaredVariables(s *Script) map[string]bool {
	declared := make(map[string]bool, len(s.Variables))
	for _, v := range s.Variables {
		declared[v.Name] = true
	}
	return declared
}

type openBlock struct {
	command string
	stepID  int
	// set once an else or catch has been seen in the block
	closedBranch bool
}

// CheckNesting verifies that every opener has exactly one matching closer, that
// intermediates only appear directly inside their opener's block, and that break only
// appears inside a loop
func CheckNesting(steps []Step) *ValidityError {
	var stack []openBlock
	for _, st := range steps {
		cmd, ok := LookupCommand(st.Command)
		if !ok {
			continue
		}
		dangling := &ValidityError{Kind: DanglingControlFlow, StepID: st.ID, Name: st.Command}

		switch cmd.Role {
		case Opener:
			stack = append(stack, openBlock{command: cmd.Name, stepID: st.ID})
		case Intermediate:
			if len(stack) == 0 {
				return dangling
			}
			top := &stack[len(stack)-1]
			if top.command != cmd.Pair || top.closedBranch {
				return dangling
			}
			if cmd.Name == "else" || cmd.Name == "catch" {
				top.closedBranch = true
			}
		case Closer:
			if len(stack) == 0 || stack[len(stack)-1].command != cmd.Pair {
				return dangling
			}
			stack = stack[:len(stack)-1]
		default:
			if cmd.Name == "break" && !insideLoop(stack) {
				return dangling
			}
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return &ValidityError{Kind: DanglingControlFlow, StepID: top.stepID, Name: top.command}
	}
	return nil
}

func insideLoop(stack []openBlock) bool {
	for _, b := range stack {
		if b.command == "while" || b.command == "loop" {
			return true
		}
	}
	return false
}
