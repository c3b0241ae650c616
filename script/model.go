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

// Package script holds the automation script model and maps it to and from the object
// graph stored in a .bwn stream.
package script

import (
	"github.com/snowplow/bwn-patcher/graph"
)

// VariableType tags the kind of value a variable holds
type VariableType string

const (
	TypeString  VariableType = "STRING"
	TypeInteger VariableType = "INTEGER"
	TypeBoolean VariableType = "BOOLEAN"
	TypeList    VariableType = "LIST"
	TypeFile    VariableType = "FILE"
)

// Valid reports whether t is one of the known variable types
func (t VariableType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeBoolean, TypeList, TypeFile:
		return true
	}
	return false
}

// Project names and describes a script
type Project struct {
	Name        string
	Description string
}

// Variable is a declared script variable, referenced from option values as ${Name}
type Variable struct {
	Name    string
	Type    VariableType
	Default string
	Extra   Extras
}

// Option is one key/value setting of a step
type Option struct {
	Key   string
	Value string
}

// Options keeps step settings in their declared order
type Options []Option

// Get returns the value of key
func (o Options) Get(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Value, true
		}
	}
	return "", false
}

// Set returns o with key set to value, keeping the position of an existing key
func (o Options) Set(key, value string) Options {
	for i, opt := range o {
		if opt.Key == key {
			o[i].Value = value
			return o
		}
	}
	return append(o, Option{Key: key, Value: value})
}

// Keys returns the option keys in order
func (o Options) Keys() []string {
	keys := make([]string, len(o))
	for i, opt := range o {
		keys[i] = opt.Key
	}
	return keys
}

// Step is one command of the script. ExtraFields holds record fields with a
// non-default value, keyed "<ClassSimpleName>.<field>"; ExtraMeta holds metadata entries
// the model does not interpret.
type Step struct {
	ID          int
	Command     string
	Comment     string
	Options     Options
	ExtraFields Extras
	ExtraMeta   Extras
}

// Script is an automation script. TabTitle, Steps and TabExtra describe the first tab,
// which step-level patch operations address; the tabs after it are in OtherTabs.
type Script struct {
	Project   Project
	TabTitle  string
	Variables []Variable
	Steps     []Step
	Extra     Extras
	TabExtra  Extras
	OtherTabs []Tab
}

// Tab is a tab after the first. Step ids only need to be unique within a tab.
type Tab struct {
	Title string
	Steps []Step
	Extra Extras
}

// Extra is a graph value the model carries without interpreting it
type Extra struct {
	Key   string
	Value graph.Node
}

// Extras is an ordered bag of uninterpreted values
type Extras []Extra

// Get returns the value stored under key
func (e Extras) Get(key string) (graph.Node, bool) {
	for _, x := range e {
		if x.Key == key {
			return x.Value, true
		}
	}
	return nil, false
}

// DefaultTabTitle is the title given to the tab of a script built without one
const DefaultTabTitle = "実行タブ"

// StepIndex returns the position of the step with the given id, or -1
func (s *Script) StepIndex(id int) int {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// Step returns the step with the given id
func (s *Script) Step(id int) (*Step, bool) {
	i := s.StepIndex(id)
	if i < 0 {
		return nil, false
	}
	return &s.Steps[i], true
}

// Variable returns the variable with the given name
func (s *Script) Variable(name string) (*Variable, bool) {
	for i := range s.Variables {
		if s.Variables[i].Name == name {
			return &s.Variables[i], true
		}
	}
	return nil, false
}

// StepIDs returns the step ids in order
func (s *Script) StepIDs() []int {
	ids := make([]int, len(s.Steps))
	for i, st := range s.Steps {
		ids[i] = st.ID
	}
	return ids
}

// Clone returns a deep copy of the model. Graph values held in extras are shared since
// they are never modified.
func (s *Script) Clone() *Script {
	c := &Script{
		Project:  s.Project,
		TabTitle: s.TabTitle,
		Extra:    cloneExtras(s.Extra),
		TabExtra: cloneExtras(s.TabExtra),
	}
	if s.Variables != nil {
		c.Variables = make([]Variable, len(s.Variables))
		for i, v := range s.Variables {
			v.Extra = cloneExtras(v.Extra)
			c.Variables[i] = v
		}
	}
	c.Steps = cloneSteps(s.Steps)
	if s.OtherTabs != nil {
		c.OtherTabs = make([]Tab, len(s.OtherTabs))
		for i, t := range s.OtherTabs {
			c.OtherTabs[i] = Tab{Title: t.Title, Steps: cloneSteps(t.Steps), Extra: cloneExtras(t.Extra)}
		}
	}
	return c
}

func cloneSteps(steps []Step) []Step {
	if steps == nil {
		return nil
	}
	c := make([]Step, len(steps))
	for i, st := range steps {
		c[i] = st.Clone()
	}
	return c
}

// Clone returns a deep copy of the step
func (st Step) Clone() Step {
	st.Options = append(Options(nil), st.Options...)
	st.ExtraFields = cloneExtras(st.ExtraFields)
	st.ExtraMeta = cloneExtras(st.ExtraMeta)
	return st
}

func cloneExtras(e Extras) Extras {
	if e == nil {
		return nil
	}
	return append(Extras(nil), e...)
}

// TabTitles returns the title of every tab, the first tab included
func (s *Script) TabTitles() []string {
	titles := []string{s.TabTitle}
	for _, t := range s.OtherTabs {
		titles = append(titles, t.Title)
	}
	return titles
}

// AllSteps returns the steps of every tab in tab order
func (s *Script) AllSteps() []Step {
	all := append([]Step(nil), s.Steps...)
	for _, t := range s.OtherTabs {
		all = append(all, t.Steps...)
	}
	return all
}

// ImageReferences returns the asset names referenced by image-matching steps of every
// tab, in order and without repeats
func (s *Script) ImageReferences() []string {
	var refs []string
	seen := make(map[string]bool)
	for _, st := range s.AllSteps() {
		cmd, ok := LookupCommand(st.Command)
		if !ok || cmd.ImageOption == "" {
			continue
		}
		if ref, ok := st.Options.Get(cmd.ImageOption); ok && ref != "" && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs
}

// RenameImage points every image-matching step of every tab that refers to old at name
// instead. It returns how many steps changed.
func (s *Script) RenameImage(old, name string) int {
	n := renameImage(s.Steps, old, name)
	for _, t := range s.OtherTabs {
		n += renameImage(t.Steps, old, name)
	}
	return n
}

func renameImage(steps []Step, old, name string) int {
	n := 0
	for i, st := range steps {
		cmd, ok := LookupCommand(st.Command)
		if !ok || cmd.ImageOption == "" {
			continue
		}
		if ref, ok := st.Options.Get(cmd.ImageOption); ok && ref == old {
			steps[i].Options = st.Options.Set(cmd.ImageOption, name)
			n++
		}
	}
	return n
}
