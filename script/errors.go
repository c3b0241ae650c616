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
	"fmt"
	"strconv"
)

// ValidityKind classifies a ValidityError
type ValidityKind int

const (
	DanglingControlFlow ValidityKind = iota + 1
	UnknownVariableReference
	DuplicateStepID
	UnknownAnchor
	UnknownStepID
	InvalidPermutation
	UnknownVariable
	DuplicateVariable
	UnknownVariableType
	UnknownCommand
	UnknownOptionKey
	InvalidStepID
	DuplicateOptionKey
	UnknownTab
)

var validityNames = map[ValidityKind]string{
	DanglingControlFlow:      "dangling control flow",
	UnknownVariableReference: "unknown variable reference",
	DuplicateStepID:          "duplicate step id",
	UnknownAnchor:            "unknown anchor",
	UnknownStepID:            "unknown step id",
	InvalidPermutation:       "invalid permutation",
	UnknownVariable:          "unknown variable",
	DuplicateVariable:        "duplicate variable",
	UnknownVariableType:      "unknown variable type",
	UnknownCommand:           "unknown command",
	UnknownOptionKey:         "unknown option key",
	InvalidStepID:            "invalid step id",
	DuplicateOptionKey:       "duplicate option key",
	UnknownTab:               "unknown tab",
}

func (k ValidityKind) String() string {
	if s, ok := validityNames[k]; ok {
		return s
	}
	return "validity error " + strconv.Itoa(int(k))
}

// ValidityError reports a model that breaks a script invariant. StepID is zero when
// the problem is not tied to a step; Name carries the variable, command or option
// involved.
type ValidityError struct {
	Kind   ValidityKind
	StepID int
	Name   string
}

func (e *ValidityError) Error() string {
	msg := e.Kind.String()
	if e.StepID != 0 {
		msg += fmt.Sprintf(" at step %d", e.StepID)
	}
	if e.Name != "" {
		msg += ": " + e.Name
	}
	return msg
}

// Is matches any ValidityError of the same kind
func (e *ValidityError) Is(target error) bool {
	t, ok := target.(*ValidityError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrDanglingControlFlow      = &ValidityError{Kind: DanglingControlFlow}
	ErrUnknownVariableReference = &ValidityError{Kind: UnknownVariableReference}
	ErrDuplicateStepID          = &ValidityError{Kind: DuplicateStepID}
	ErrUnknownAnchor            = &ValidityError{Kind: UnknownAnchor}
	ErrUnknownStepID            = &ValidityError{Kind: UnknownStepID}
	ErrInvalidPermutation       = &ValidityError{Kind: InvalidPermutation}
	ErrUnknownVariable          = &ValidityError{Kind: UnknownVariable}
	ErrDuplicateVariable        = &ValidityError{Kind: DuplicateVariable}
	ErrUnknownVariableType      = &ValidityError{Kind: UnknownVariableType}
	ErrUnknownCommand           = &ValidityError{Kind: UnknownCommand}
	ErrUnknownOptionKey         = &ValidityError{Kind: UnknownOptionKey}
	ErrInvalidStepID            = &ValidityError{Kind: InvalidStepID}
	ErrDuplicateOptionKey       = &ValidityError{Kind: DuplicateOptionKey}
	ErrUnknownTab               = &ValidityError{Kind: UnknownTab}
)

// MappingError reports an object graph that does not have the layout of a script.
// Path locates the offending node, e.g. "scriptData[0].commandData[3].metadata.id".
type MappingError struct {
	Path   string
	Reason string
}

func (e *MappingError) Error() string {
	return "unexpected script layout at " + e.Path + ": " + e.Reason
}

func mappingErrorf(path, format string, args ...interface{}) *MappingError {
	return &MappingError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
