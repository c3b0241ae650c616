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

package patch

import (
	"github.com/snowplow/bwn-patcher/script"
)

// loginScript opens a browser and types the USERNAME variable into a field
func loginScript() *script.Script {
	return &script.Script{
		Project:  script.Project{Name: "login"},
		TabTitle: script.DefaultTabTitle,
		Variables: []script.Variable{
			{Name: "USERNAME", Type: script.TypeString, Default: "user@example.com"},
		},
		Steps: []script.Step{
			{ID: 1, Command: "open_chrome", Options: script.Options{
				{Key: "url", Value: "https://example.com/login"},
			}},
			{ID: 2, Command: "input_text", Options: script.Options{
				{Key: "selector", Value: "#email"},
				{Key: "selector_type", Value: "CSS"},
				{Key: "text", Value: "${USERNAME}"},
			}},
		},
	}
}

// branchScript clicks a button only when FLAG holds
func branchScript() *script.Script {
	return &script.Script{
		Project:  script.Project{Name: "branch"},
		TabTitle: "main",
		Variables: []script.Variable{
			{Name: "FLAG", Type: script.TypeBoolean, Default: "true"},
		},
		Steps: []script.Step{
			{ID: 1, Command: "open_chrome"},
			{ID: 2, Command: "if", Options: script.Options{{Key: "condition", Value: "${FLAG}"}}},
			{ID: 3, Command: "click", Options: script.Options{{Key: "selector", Value: "#go"}}},
			{ID: 4, Command: "end_if"},
		},
	}
}

// tabbedScript is branchScript with two further tabs
func tabbedScript() *script.Script {
	s := branchScript()
	s.OtherTabs = []script.Tab{
		{Title: "retry", Steps: []script.Step{
			{ID: 1, Command: "click", Options: script.Options{{Key: "selector", Value: "#go"}}},
		}},
		{Title: "cleanup", Steps: []script.Step{
			{ID: 1, Command: "comment", Comment: "#go"},
		}},
	}
	return s
}
