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
	"github.com/snowplow/bwn-patcher/graph"
)

// loginScript opens a browser and types the USERNAME variable into a field
func loginScript() *Script {
	return &Script{
		Project:  Project{Name: "ログイン", Description: "login flow"},
		TabTitle: DefaultTabTitle,
		Variables: []Variable{
			{Name: "USERNAME", Type: TypeString, Default: "user@example.com"},
		},
		Steps: []Step{
			{ID: 1, Command: "open_chrome", Comment: "open the portal", Options: Options{
				{Key: "url", Value: "https://example.com/login"},
			}},
			{ID: 2, Command: "input_text", Comment: "type the user", Options: Options{
				{Key: "selector", Value: "#email"},
				{Key: "selector_type", Value: "CSS"},
				{Key: "text", Value: "${USERNAME}"},
			}},
		},
	}
}

// flowScript exercises every control-flow construct
func flowScript() *Script {
	steps := []struct {
		command string
		options Options
	}{
		{"open_chrome", nil},
		{"if", Options{{Key: "condition", Value: "${FLAG}"}, {Key: "operator", Value: "EQUALS"}}},
		{"click", Options{{Key: "selector", Value: "#a"}, {Key: "selector_type", Value: "CSS"}}},
		{"else_if", Options{{Key: "condition", Value: "x"}}},
		{"else", nil},
		{"end_if", nil},
		{"loop", Options{{Key: "count", Value: "3"}}},
		{"try", nil},
		{"find", Options{{Key: "image", Value: "bwn-1.png"}, {Key: "similarity", Value: "0.9"}}},
		{"catch", Options{{Key: "error_variable", Value: "ERR"}}},
		{"break", nil},
		{"end_try", nil},
		{"end_loop", nil},
		{"find", Options{{Key: "image", Value: "bwn-2.png"}}},
		{"find", Options{{Key: "image", Value: "bwn-1.png"}}},
	}
	s := &Script{
		Project:  Project{Name: "flow"},
		TabTitle: "main",
		Variables: []Variable{
			{Name: "FLAG", Type: TypeBoolean, Default: "true"},
			{Name: "ERR", Type: TypeString},
		},
	}
	for i, st := range steps {
		s.Steps = append(s.Steps, Step{ID: (i + 1) * 10, Command: st.command, Options: st.options})
	}
	return s
}

// commandRecords digs the command records out of a script graph
func commandRecords(root graph.Node) []graph.Node {
	data, _ := root.(*graph.Map).Get("scriptData")
	tab := data.(*graph.List).Elements[0].(*graph.Record)
	m, _ := tab.Get("m")
	cd, _ := m.(*graph.Map).Get("commandData")
	list, _ := cd.(*graph.Record).Get("list")
	return list.(*graph.List).Elements
}

func metadataOf(rec graph.Node) *graph.Map {
	meta, _ := rec.(*graph.Record).Level(BrownieCommandClass).Get("metadata")
	return meta.(*graph.Map)
}
