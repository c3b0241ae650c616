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
	"github.com/snowplow/bwn-patcher/stream"
)

const (
	ArgumentClass       = commandPkg + "Argument"
	BrownieCommandClass = commandPkg + "BrownieCommand"
	FlowCommandClass    = commandPkg + "FlowCommand"
)

// Every command record is a leaf class with no fields of its own, extending
// FlowCommand -> BrownieCommand -> Argument.
var (
	argumentDesc = &graph.ClassDesc{
		Name: ArgumentClass, SerialUID: -8244499117953890091, Flags: stream.SCSerializable,
		Fields: []graph.FieldDesc{
			{Type: graph.TypeObject, Name: "object", ClassName: "Ljava/lang/Object;"},
			{Type: graph.TypeObject, Name: "sourceCode", ClassName: "Ljava/lang/String;"},
		},
	}
	brownieCommandDesc = &graph.ClassDesc{
		Name: BrownieCommandClass, SerialUID: -416088768, Flags: stream.SCSerializable,
		Fields: []graph.FieldDesc{
			{Type: graph.TypeBoolean, Name: "enabled"},
			{Type: graph.TypeBoolean, Name: "isAddTableCommandIconSelected"},
			{Type: graph.TypeBoolean, Name: "isChangeWaitTime"},
			{Type: graph.TypeDouble, Name: "privateWaitTimeSecond"},
			{Type: graph.TypeObject, Name: "arguments", ClassName: "Lcom/asirrera/brownie/ide/command/Arguments;"},
			{Type: graph.TypeObject, Name: "findModelOfOption", ClassName: "Lcom/asirrera/brownie/ide/command/option/model/FindOptionModel;"},
			{Type: graph.TypeObject, Name: "metadata", ClassName: "Ljava/util/HashMap;"},
			{Type: graph.TypeObject, Name: "object", ClassName: "Ljava/lang/Object;"},
			{Type: graph.TypeObject, Name: "retryIf", ClassName: "Lcom/asirrera/brownie/ide/command/RetryIf;"},
		},
		Super: argumentDesc,
	}
	flowCommandDesc = &graph.ClassDesc{
		Name: FlowCommandClass, SerialUID: 1, Flags: stream.SCSerializable,
		Fields: []graph.FieldDesc{
			{Type: graph.TypeBoolean, Name: "isRetriable"},
			{Type: graph.TypeObject, Name: "comment", ClassName: "Ljava/lang/String;"},
		},
		Super: brownieCommandDesc,
	}
)

var commandDescs = buildCommandDescs()

func buildCommandDescs() map[string]*graph.ClassDesc {
	descs := make(map[string]*graph.ClassDesc, len(commands))
	for _, c := range commands {
		descs[c.Name] = &graph.ClassDesc{
			Name:      c.Class,
			SerialUID: 1,
			Flags:     stream.SCSerializable,
			Super:     flowCommandDesc,
		}
	}
	return descs
}

var registry = newRegistry()

func newRegistry() *graph.Registry {
	descs := make([]*graph.ClassDesc, 0, len(commands))
	for _, c := range commands {
		descs = append(descs, commandDesc(c.Name))
	}
	return graph.NewRegistry(descs...)
}

// commandDesc returns the record shape of a command
func commandDesc(name string) *graph.ClassDesc {
	if d, ok := commandDescs[name]; ok {
		return d
	}
	return nil
}

// Registry returns the closed set of class shapes a script stream may contain
func Registry() *graph.Registry {
	return registry
}

// newCommandRecord builds a record of the command's class holding the player's
// defaults
func newCommandRecord(name string) *graph.Record {
	rec := graph.NewRecord(commandDesc(name))
	rec.Level(BrownieCommandClass).Set("enabled", graph.Bool(true))
	return rec
}

// isDefault reports whether a field value matches what newCommandRecord puts there
func isDefault(class, field string, v graph.Node) bool {
	if class == BrownieCommandClass && field == "enabled" {
		return v == graph.Bool(true)
	}
	switch x := v.(type) {
	case graph.Bool:
		return !bool(x)
	case graph.Double:
		return x == 0
	}
	return graph.IsNull(v)
}
