//
// Copyright (c) 2016-2017 Snowplow Analytics Ltd. All rights reserved.
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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snowplow/bwn-patcher/graph"
	"github.com/snowplow/bwn-patcher/script"
)

func TestParseScriptFile(t *testing.T) {
	assert := assert.New(t)

	s, err := ParseScriptFile([]byte(LoginScriptYAML))
	assert.Nil(err)
	assert.NotNil(s)

	assert.Equal("ログイン", s.Project.Name)
	assert.Equal("login flow", s.Project.Description)
	assert.Equal(script.DefaultTabTitle, s.TabTitle)

	assert.Equal(1, len(s.Variables))
	assert.Equal(script.TypeString, s.Variables[0].Type)
	assert.Equal("user@example.com", s.Variables[0].Default)

	assert.Equal([]int{1, 2}, s.StepIDs())
	assert.Equal("open the portal", s.Steps[0].Comment)
	assert.Equal([]string{"text", "selector", "selector_type"}, s.Steps[1].Options.Keys())
	selector, _ := s.Steps[1].Options.Get("selector")
	assert.Equal("#email", selector)

	assert.Nil(script.Validate(s))
}

func TestParseScriptFile_Fail(t *testing.T) {
	assert := assert.New(t)

	s, err := ParseScriptFile([]byte("steps: []\n"))
	assert.Nil(s)
	assert.NotNil(err)
	assert.Equal("project.name needs to be specified", err.Error())

	s, err = ParseScriptFile([]byte("project:\n  name: a\n  owner: b\nsteps: []\n"))
	assert.Nil(s)
	assert.NotNil(err)

	s, err = ParseScriptFile([]byte("project:\n  name: a\nsteps:\n  - command: click\n    options: [a, b]\n"))
	assert.Nil(s)
	assert.NotNil(err)
	assert.Contains(err.Error(), "options must be a mapping")

	s, err = ParseScriptFile([]byte("project:\n  name: a\nsteps:\n  - command: click\n    options:\n      selector:\n        css: a\n"))
	assert.Nil(s)
	assert.NotNil(err)
	assert.Contains(err.Error(), "option values must be scalars")

	s, err = ParseScriptFile([]byte("project:\n  name: a\nsteps:\n  - command: click\n    options:\n      selector: \"#a\"\n      selector: \"#b\"\n"))
	assert.Nil(s)
	assert.NotNil(err)
	assert.Contains(err.Error(), "option selector is set twice")
}

func TestParseScriptFile_ExplicitIDs(t *testing.T) {
	assert := assert.New(t)

	s, err := ParseScriptFile([]byte(`project:
  name: ids
  tab_title: main
variables:
  - name: FLAG
    type: BOOLEAN
steps:
  - id: 10
    command: if
    options:
      condition: ${FLAG}
  - command: end_if
`))
	assert.Nil(err)
	assert.Equal("main", s.TabTitle)
	assert.Equal(script.TypeBoolean, s.Variables[0].Type)
	assert.Equal([]int{10, 2}, s.StepIDs())
	assert.Nil(script.Validate(s))
}

func TestParseScriptFile_Tabs(t *testing.T) {
	assert := assert.New(t)

	s, err := ParseScriptFile([]byte(`project:
  name: tabs
steps:
  - command: open
    options:
      url: https://example.com
tabs:
  - title: retry
    steps:
      - command: click
        options:
          selector: "#go"
`))
	assert.Nil(err)
	assert.Equal([]string{script.DefaultTabTitle, "retry"}, s.TabTitles())
	assert.Equal(1, len(s.OtherTabs[0].Steps))
	assert.Equal(1, s.OtherTabs[0].Steps[0].ID)
	assert.Nil(script.Validate(s))

	out, err := MarshalScriptFile(s)
	assert.Nil(err)
	assert.Contains(string(out), "title: retry")

	again, err := ParseScriptFile(out)
	assert.Nil(err)
	assert.Equal(s, again)

	assert.False(hasExtras(s))
	s.OtherTabs[0].Extra = script.Extras{{Key: "zoom", Value: graph.NewString("80")}}
	assert.True(hasExtras(s))

	_, err = ParseScriptFile([]byte("project:\n  name: a\nsteps: []\ntabs:\n  - steps: []\n"))
	assert.NotNil(err)
	assert.Equal("tabs[0].title needs to be specified", err.Error())
}

func TestMarshalScriptFile(t *testing.T) {
	assert := assert.New(t)

	s, err := ParseScriptFile([]byte(LoginScriptYAML))
	assert.Nil(err)
	s.Steps[0].Options = s.Steps[0].Options.Set("headless", "true")

	out, err := MarshalScriptFile(s)
	assert.Nil(err)
	assert.Contains(string(out), "selector_type: CSS")
	assert.Contains(string(out), `headless: "true"`)

	again, err := ParseScriptFile(out)
	assert.Nil(err)
	assert.Equal(s, again)
}

func TestHasExtras(t *testing.T) {
	assert := assert.New(t)

	s, err := ParseScriptFile([]byte(LoginScriptYAML))
	assert.Nil(err)
	assert.False(hasExtras(s))

	s.Steps[1].ExtraMeta = script.Extras{{Key: "zoom", Value: graph.NewString("1.5")}}
	assert.True(hasExtras(s))
}
