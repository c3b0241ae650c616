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

package main

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/snowplow/bwn-patcher/script"
)

// The YAML form of a script, as written by generators and by the decode command. It
// only covers the interpreted model; values a stream carries beyond it are lost.

type scriptFile struct {
	Project   projectFile    `yaml:"project"`
	Variables []variableFile `yaml:"variables,omitempty"`
	Steps     []stepFile     `yaml:"steps"`
	Tabs      []tabFile      `yaml:"tabs,omitempty"`
}

// tabFile is a tab after the first
type tabFile struct {
	Title string     `yaml:"title"`
	Steps []stepFile `yaml:"steps"`
}

type projectFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	TabTitle    string `yaml:"tab_title,omitempty"`
}

type variableFile struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type,omitempty"`
	Default string `yaml:"default,omitempty"`
}

type stepFile struct {
	ID      int         `yaml:"id,omitempty"`
	Command string      `yaml:"command"`
	Comment string      `yaml:"comment,omitempty"`
	Options optionsFile `yaml:"options,omitempty"`
}

// optionsFile keeps the order options are written in
type optionsFile script.Options

func (o *optionsFile) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: options must be a mapping", value.Line)
	}
	opts := make(optionsFile, 0, len(value.Content)/2)
	seen := make(map[string]bool, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: option values must be scalars", k.Line)
		}
		if seen[k.Value] {
			return fmt.Errorf("line %d: option %s is set twice", k.Line, k.Value)
		}
		seen[k.Value] = true
		opts = append(opts, script.Option{Key: k.Value, Value: v.Value})
	}
	*o = opts
	return nil
}

func (o optionsFile) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, opt := range o {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: opt.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: opt.Value},
		)
	}
	return node, nil
}

// ParseScriptFile reads a YAML script. Steps without an id are numbered by position
// and the tab title and variable types fall back to the player's defaults.
func ParseScriptFile(data []byte) (*script.Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f scriptFile
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	if f.Project.Name == "" {
		return nil, errors.New("project.name needs to be specified")
	}

	s := &script.Script{
		Project:  script.Project{Name: f.Project.Name, Description: f.Project.Description},
		TabTitle: f.Project.TabTitle,
	}
	if s.TabTitle == "" {
		s.TabTitle = script.DefaultTabTitle
	}
	for _, v := range f.Variables {
		t := script.VariableType(v.Type)
		if t == "" {
			t = script.TypeString
		}
		s.Variables = append(s.Variables, script.Variable{Name: v.Name, Type: t, Default: v.Default})
	}
	s.Steps = stepsFromFile(f.Steps)
	for i, t := range f.Tabs {
		if t.Title == "" {
			return nil, fmt.Errorf("tabs[%d].title needs to be specified", i)
		}
		s.OtherTabs = append(s.OtherTabs, script.Tab{Title: t.Title, Steps: stepsFromFile(t.Steps)})
	}
	return s, nil
}

func stepsFromFile(files []stepFile) []script.Step {
	var steps []script.Step
	for i, st := range files {
		id := st.ID
		if id == 0 {
			id = i + 1
		}
		steps = append(steps, script.Step{
			ID:      id,
			Command: st.Command,
			Comment: st.Comment,
			Options: script.Options(st.Options),
		})
	}
	return steps
}

func stepsToFile(steps []script.Step) []stepFile {
	var files []stepFile
	for _, st := range steps {
		files = append(files, stepFile{
			ID:      st.ID,
			Command: st.Command,
			Comment: st.Comment,
			Options: optionsFile(st.Options),
		})
	}
	return files
}

// MarshalScriptFile writes the interpreted part of s as YAML
func MarshalScriptFile(s *script.Script) ([]byte, error) {
	f := scriptFile{
		Project: projectFile{
			Name:        s.Project.Name,
			Description: s.Project.Description,
			TabTitle:    s.TabTitle,
		},
	}
	for _, v := range s.Variables {
		f.Variables = append(f.Variables, variableFile{Name: v.Name, Type: string(v.Type), Default: v.Default})
	}
	f.Steps = stepsToFile(s.Steps)
	for _, t := range s.OtherTabs {
		f.Tabs = append(f.Tabs, tabFile{Title: t.Title, Steps: stepsToFile(t.Steps)})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// hasExtras reports whether s carries values the YAML form cannot hold
func hasExtras(s *script.Script) bool {
	if len(s.Extra) > 0 || len(s.TabExtra) > 0 {
		return true
	}
	for _, t := range s.OtherTabs {
		if len(t.Extra) > 0 {
			return true
		}
	}
	for _, v := range s.Variables {
		if len(v.Extra) > 0 {
			return true
		}
	}
	for _, st := range s.AllSteps() {
		if len(st.ExtraFields) > 0 || len(st.ExtraMeta) > 0 {
			return true
		}
	}
	return false
}
