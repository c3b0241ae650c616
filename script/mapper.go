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
	"strings"

	"github.com/snowplow/bwn-patcher/graph"
)

// Keys of the maps making up a script graph
const (
	keyProjectName   = "projectName"
	keyDescription   = "description"
	keyVariables     = "variables"
	keyScriptData    = "scriptData"
	keyMergeInfoData = "MergeInfoData"
	keyTabTitle      = "tabTitle"
	keyCommandData   = "commandData"
	keyType          = "type"
	keyDefault       = "default"
	keyID            = "id"
	keyOptions       = "options"
)

// --- Model to graph

// graphBuilder interns strings so that equal values share one handle in the stream
type graphBuilder struct {
	strings map[string]*graph.String
}

func (b *graphBuilder) str(s string) *graph.String {
	if n, ok := b.strings[s]; ok {
		return n
	}
	n := graph.NewString(s)
	b.strings[s] = n
	return n
}

func (b *graphBuilder) putExtras(m *graph.Map, extras Extras) {
	for _, x := range extras {
		m.Entries = append(m.Entries, graph.Entry{Key: b.str(x.Key), Value: x.Value})
	}
}

// ToGraph builds the object graph of s
func ToGraph(s *Script) (graph.Node, error) {
	b := &graphBuilder{strings: make(map[string]*graph.String)}

	root := graph.NewMap()
	root.Put(b.str(keyProjectName), b.str(s.Project.Name))
	if s.Project.Description != "" {
		root.Put(b.str(keyDescription), b.str(s.Project.Description))
	}
	if len(s.Variables) > 0 {
		vars := graph.NewMap()
		for _, v := range s.Variables {
			entry := graph.NewMap()
			entry.Put(b.str(keyType), b.str(string(v.Type)))
			entry.Put(b.str(keyDefault), b.str(v.Default))
			b.putExtras(entry, v.Extra)
			vars.Put(b.str(v.Name), entry)
		}
		root.Put(b.str(keyVariables), vars)
	}

	tab, err := b.tab(s.TabTitle, s.Steps, s.TabExtra)
	if err != nil {
		return nil, err
	}
	tabs := graph.NewList(graph.CopyOnWriteArrayList, tab)
	for _, t := range s.OtherTabs {
		tab, err := b.tab(t.Title, t.Steps, t.Extra)
		if err != nil {
			return nil, err
		}
		tabs.Elements = append(tabs.Elements, tab)
	}
	root.Put(b.str(keyScriptData), tabs)
	b.putExtras(root, s.Extra)
	return root, nil
}

func (b *graphBuilder) tab(title string, steps []Step, extras Extras) (*graph.Record, error) {
	tab := graph.NewRecord(graph.SynchronizedMapDesc)

	inner := graph.NewMap()
	if v, ok := extras.Get(keyMergeInfoData); ok {
		inner.Put(b.str(keyMergeInfoData), v)
	} else {
		inner.Put(b.str(keyMergeInfoData), graph.NewList(graph.ArrayList))
	}
	inner.Put(b.str(keyTabTitle), b.str(title))

	commands := graph.NewList(graph.ArrayList)
	for _, st := range steps {
		rec, err := b.command(st)
		if err != nil {
			return nil, err
		}
		commands.Elements = append(commands.Elements, rec)
	}
	list := graph.NewRecord(graph.SynchronizedListDesc)
	list.Set("list", commands)
	coll := list.Level(graph.SynchronizedCollectionClass)
	coll.Set("c", commands)
	coll.Set("mutex", tab)
	inner.Put(b.str(keyCommandData), list)

	for _, x := range extras {
		if x.Key != keyMergeInfoData {
			inner.Entries = append(inner.Entries, graph.Entry{Key: b.str(x.Key), Value: x.Value})
		}
	}

	tab.Set("m", inner)
	tab.Set("mutex", tab)
	return tab, nil
}

func (b *graphBuilder) command(st Step) (*graph.Record, error) {
	if commandDesc(st.Command) == nil {
		return nil, &ValidityError{Kind: UnknownCommand, StepID: st.ID, Name: st.Command}
	}
	rec := newCommandRecord(st.Command)

	meta := graph.NewMap()
	meta.Put(b.str(keyID), b.str(strconv.Itoa(st.ID)))
	opts := graph.NewMap()
	for _, o := range st.Options {
		if _, dup := opts.Get(o.Key); dup {
			return nil, &ValidityError{Kind: DuplicateOptionKey, StepID: st.ID, Name: st.Command + "." + o.Key}
		}
		opts.Put(b.str(o.Key), b.str(o.Value))
	}
	meta.Put(b.str(keyOptions), opts)
	b.putExtras(meta, st.ExtraMeta)

	rec.Level(BrownieCommandClass).Set("metadata", meta)
	rec.Level(FlowCommandClass).Set("comment", b.str(st.Comment))

	for _, x := range st.ExtraFields {
		class, field, ok := splitFieldKey(x.Key)
		if !ok {
			return nil, mappingErrorf(fmt.Sprintf("step %d", st.ID), "bad extra field key %q", x.Key)
		}
		level := levelBySimpleName(rec, class)
		if level == nil || !level.Set(field, x.Value) {
			return nil, mappingErrorf(fmt.Sprintf("step %d", st.ID), "%s has no field %s", class, field)
		}
	}
	return rec, nil
}

func splitFieldKey(key string) (string, string, bool) {
	i := strings.LastIndex(key, ".")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

func levelBySimpleName(rec *graph.Record, simple string) *graph.Record {
	for l := rec; l != nil; l = l.Super {
		if l.Class.SimpleName() == simple {
			return l
		}
	}
	return nil
}

// --- Graph to model

// FromGraph interprets a decoded graph as a script. Broken script invariants do not
// fail the mapping; they are returned as warnings so a damaged script can still be
// inspected and patched.
func FromGraph(root graph.Node) (*Script, []*ValidityError, error) {
	m, ok := root.(*graph.Map)
	if !ok {
		return nil, nil, mappingErrorf("$", "root is %s, expected a map", nodeKind(root))
	}

	s := &Script{}
	var sawName, sawData bool
	for _, e := range m.Entries {
		key, ok := graph.StringValue(e.Key)
		if !ok {
			return nil, nil, mappingErrorf("$", "key of type %s", nodeKind(e.Key))
		}
		var err error
		switch key {
		case keyProjectName:
			sawName = true
			s.Project.Name, err = stringValue(key, e.Value)
		case keyDescription:
			s.Project.Description, err = stringValue(key, e.Value)
		case keyVariables:
			s.Variables, err = variablesFromGraph(e.Value)
		case keyScriptData:
			sawData = true
			err = tabsFromGraph(s, e.Value)
		default:
			s.Extra = append(s.Extra, Extra{Key: key, Value: e.Value})
		}
		if err != nil {
			return nil, nil, err
		}
	}
	if !sawName {
		return nil, nil, mappingErrorf("$", "missing %s", keyProjectName)
	}
	if !sawData {
		return nil, nil, mappingErrorf("$", "missing %s", keyScriptData)
	}
	return s, Check(s), nil
}

func variablesFromGraph(n graph.Node) ([]Variable, error) {
	if graph.IsNull(n) {
		return nil, nil
	}
	m, ok := n.(*graph.Map)
	if !ok {
		return nil, mappingErrorf(keyVariables, "%s, expected a map", nodeKind(n))
	}
	var vars []Variable
	for _, e := range m.Entries {
		name, ok := graph.StringValue(e.Key)
		if !ok {
			return nil, mappingErrorf(keyVariables, "key of type %s", nodeKind(e.Key))
		}
		path := keyVariables + "." + name
		entry, ok := e.Value.(*graph.Map)
		if !ok {
			return nil, mappingErrorf(path, "%s, expected a map", nodeKind(e.Value))
		}
		v := Variable{Name: name}
		for _, f := range entry.Entries {
			key, ok := graph.StringValue(f.Key)
			if !ok {
				return nil, mappingErrorf(path, "key of type %s", nodeKind(f.Key))
			}
			switch key {
			case keyType:
				t, err := stringValue(path+"."+key, f.Value)
				if err != nil {
					return nil, err
				}
				v.Type = VariableType(t)
			case keyDefault:
				d, err := stringValue(path+"."+key, f.Value)
				if err != nil {
					return nil, err
				}
				v.Default = d
			default:
				v.Extra = append(v.Extra, Extra{Key: key, Value: f.Value})
			}
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func tabsFromGraph(s *Script, n graph.Node) error {
	tabs, ok := n.(*graph.List)
	if !ok {
		return mappingErrorf(keyScriptData, "%s, expected a list", nodeKind(n))
	}
	for i, e := range tabs.Elements {
		t, err := tabFromGraph(fmt.Sprintf("%s[%d]", keyScriptData, i), e)
		if err != nil {
			return err
		}
		if i == 0 {
			s.TabTitle, s.Steps, s.TabExtra = t.Title, t.Steps, t.Extra
			continue
		}
		s.OtherTabs = append(s.OtherTabs, t)
	}
	return nil
}

func tabFromGraph(path string, n graph.Node) (Tab, error) {
	var t Tab
	tab, ok := n.(*graph.Record)
	if !ok || tab.Class.Name != graph.SynchronizedMapClass {
		return t, mappingErrorf(path, "%s, expected a synchronized map", nodeKind(n))
	}
	mv, _ := tab.Get("m")
	inner, ok := mv.(*graph.Map)
	if !ok {
		return t, mappingErrorf(path+".m", "%s, expected a map", nodeKind(mv))
	}

	for _, e := range inner.Entries {
		key, ok := graph.StringValue(e.Key)
		if !ok {
			return t, mappingErrorf(path, "key of type %s", nodeKind(e.Key))
		}
		switch key {
		case keyTabTitle:
			title, err := stringValue(path+"."+key, e.Value)
			if err != nil {
				return t, err
			}
			t.Title = title
		case keyCommandData:
			steps, err := stepsFromGraph(path+"."+key, e.Value)
			if err != nil {
				return t, err
			}
			t.Steps = steps
		case keyMergeInfoData:
			if l, ok := e.Value.(*graph.List); ok && l.Kind == graph.ArrayList && len(l.Elements) == 0 {
				continue
			}
			t.Extra = append(t.Extra, Extra{Key: key, Value: e.Value})
		default:
			t.Extra = append(t.Extra, Extra{Key: key, Value: e.Value})
		}
	}
	return t, nil
}

func stepsFromGraph(path string, n graph.Node) ([]Step, error) {
	if graph.IsNull(n) {
		return nil, nil
	}
	var list *graph.List
	switch v := n.(type) {
	case *graph.List:
		list = v
	case *graph.Record:
		coll := v.Level(graph.SynchronizedCollectionClass)
		if coll == nil {
			return nil, mappingErrorf(path, "record of %s, expected a synchronized list", v.Class.Name)
		}
		c, _ := coll.Get("c")
		if list, _ = c.(*graph.List); list == nil {
			return nil, mappingErrorf(path+".c", "%s, expected a list", nodeKind(c))
		}
	default:
		return nil, mappingErrorf(path, "%s, expected a list", nodeKind(n))
	}

	var steps []Step
	for i, e := range list.Elements {
		st, err := stepFromGraph(fmt.Sprintf("%s[%d]", path, i), e)
		if err != nil {
			return nil, err
		}
		if st.ID == 0 {
			st.ID = i + 1
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func stepFromGraph(path string, n graph.Node) (Step, error) {
	var st Step
	rec, ok := n.(*graph.Record)
	if !ok {
		return st, mappingErrorf(path, "%s, expected a command record", nodeKind(n))
	}
	cmd, ok := CommandForClass(rec.Class.Name)
	if !ok {
		return st, mappingErrorf(path, "class %s is not a known command", rec.Class.Name)
	}
	st.Command = cmd.Name

	for _, level := range rec.Levels() {
		for _, f := range level.Fields {
			var err error
			switch {
			case level.Class.Name == FlowCommandClass && f.Name == "comment":
				if !graph.IsNull(f.Value) {
					st.Comment, err = stringValue(path+".comment", f.Value)
				}
			case level.Class.Name == BrownieCommandClass && f.Name == "metadata":
				err = metadataFromGraph(path+".metadata", f.Value, &st)
			case !isDefault(level.Class.Name, f.Name, f.Value):
				st.ExtraFields = append(st.ExtraFields, Extra{Key: level.Class.SimpleName() + "." + f.Name, Value: f.Value})
			}
			if err != nil {
				return st, err
			}
		}
	}
	return st, nil
}

func metadataFromGraph(path string, n graph.Node, st *Step) error {
	if graph.IsNull(n) {
		return nil
	}
	meta, ok := n.(*graph.Map)
	if !ok {
		return mappingErrorf(path, "%s, expected a map", nodeKind(n))
	}
	for _, e := range meta.Entries {
		key, ok := graph.StringValue(e.Key)
		if !ok {
			return mappingErrorf(path, "key of type %s", nodeKind(e.Key))
		}
		switch key {
		case keyID:
			raw, err := stringValue(path+".id", e.Value)
			if err != nil {
				return err
			}
			id, err := strconv.Atoi(raw)
			if err != nil {
				return mappingErrorf(path+".id", "%q is not a step id", raw)
			}
			st.ID = id
		case keyOptions:
			opts, ok := e.Value.(*graph.Map)
			if !ok {
				return mappingErrorf(path+".options", "%s, expected a map", nodeKind(e.Value))
			}
			for _, o := range opts.Entries {
				k, ok := graph.StringValue(o.Key)
				if !ok {
					return mappingErrorf(path+".options", "key of type %s", nodeKind(o.Key))
				}
				v, err := stringValue(path+".options."+k, o.Value)
				if err != nil {
					return err
				}
				st.Options = append(st.Options, Option{Key: k, Value: v})
			}
		default:
			st.ExtraMeta = append(st.ExtraMeta, Extra{Key: key, Value: e.Value})
		}
	}
	return nil
}

func stringValue(path string, n graph.Node) (string, error) {
	if graph.IsNull(n) {
		return "", nil
	}
	s, ok := graph.StringValue(n)
	if !ok {
		return "", mappingErrorf(path, "%s, expected a string", nodeKind(n))
	}
	return s, nil
}

func nodeKind(n graph.Node) string {
	switch v := n.(type) {
	case nil, graph.Null:
		return "null"
	case *graph.String:
		return "string"
	case *graph.List:
		return v.Kind.String()
	case *graph.Map:
		return "map"
	case *graph.Record:
		return "record of " + v.Class.Name
	}
	return fmt.Sprintf("%T", n)
}
