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

// Package graph decodes and encodes the object graphs carried by a serialized stream.
//
// Back references are resolved while decoding: a node reached twice in the stream is
// the same Go pointer twice in the graph. Encoding reverses this, writing a reference
// whenever a pointer has already been written in the same call.
package graph

// Node is one element of an object graph
type Node interface {
	isNode()
}

// Null is the null reference
type Null struct{}

// String is a string object. Two *String values share a handle only when they are the
// same pointer.
type String struct {
	Value string
}

// NewString wraps s in a String node
func NewString(s string) *String {
	return &String{Value: s}
}

// ListKind selects the wire shape of a List
type ListKind int

const (
	ArrayList ListKind = iota
	CopyOnWriteArrayList
	ObjectArray
	StringArray
)

func (k ListKind) String() string {
	switch k {
	case ArrayList:
		return "ArrayList"
	case CopyOnWriteArrayList:
		return "CopyOnWriteArrayList"
	case ObjectArray:
		return "Object[]"
	case StringArray:
		return "String[]"
	}
	return "unknown list"
}

// List is an ordered collection
type List struct {
	Kind     ListKind
	Elements []Node
}

// NewList creates an empty list of the given kind
func NewList(kind ListKind, elements ...Node) *List {
	return &List{Kind: kind, Elements: elements}
}

// DefaultLoadFactor is the load factor of freshly built maps
const DefaultLoadFactor float32 = 0.75

// Map is a keyed collection keeping its entries in stream order. Capacity and
// Threshold are carried over from a decoded stream; zero values are recomputed from
// the entry count on encode.
type Map struct {
	LoadFactor float32
	Threshold  int32
	Capacity   int32
	Entries    []Entry
}

// Entry is one key/value pair of a Map
type Entry struct {
	Key   Node
	Value Node
}

// NewMap creates an empty map with the default load factor
func NewMap() *Map {
	return &Map{LoadFactor: DefaultLoadFactor}
}

// Len returns the number of entries
func (m *Map) Len() int { return len(m.Entries) }

// Get returns the value stored under the string key
func (m *Map) Get(key string) (Node, bool) {
	for _, e := range m.Entries {
		if k, ok := e.Key.(*String); ok && k.Value == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Put stores value under key, replacing the value of an existing string key with the
// same contents or appending a new entry
func (m *Map) Put(key *String, value Node) {
	for i, e := range m.Entries {
		if k, ok := e.Key.(*String); ok && k.Value == key.Value {
			m.Entries[i].Value = value
			return
		}
	}
	m.Entries = append(m.Entries, Entry{Key: key, Value: value})
}

// Record is an object of a class with declared fields. Fields holds the values declared
// by Class itself; the values declared by its super classes live in Super, which always
// describes Class.Super.
type Record struct {
	Class  *ClassDesc
	Fields []Field
	Super  *Record
}

// Field is one named field value of a Record
type Field struct {
	Name  string
	Value Node
}

// NewRecord builds a record of class with every field, in every class of the
// hierarchy, set to its zero value
func NewRecord(class *ClassDesc) *Record {
	if class == nil {
		return nil
	}
	r := &Record{Class: class, Fields: make([]Field, len(class.Fields))}
	for i, f := range class.Fields {
		r.Fields[i] = Field{Name: f.Name, Value: ZeroValue(f.Type)}
	}
	r.Super = NewRecord(class.Super)
	return r
}

// Level returns the part of r declared by the class with the given name
func (r *Record) Level(className string) *Record {
	for l := r; l != nil; l = l.Super {
		if l.Class != nil && l.Class.Name == className {
			return l
		}
	}
	return nil
}

// Get returns the value of a field declared by this level of the record
func (r *Record) Get(name string) (Node, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set overwrites a field declared by this level of the record. It returns false if no
// such field exists.
func (r *Record) Set(name string, value Node) bool {
	for i, f := range r.Fields {
		if f.Name == name {
			r.Fields[i].Value = value
			return true
		}
	}
	return false
}

// Levels returns the record's class levels from the super-most class down, which is
// the order their field values appear in the stream
func (r *Record) Levels() []*Record {
	var levels []*Record
	for l := r; l != nil; l = l.Super {
		levels = append([]*Record{l}, levels...)
	}
	return levels
}

// Primitive field values

type Bool bool
type Byte int8
type Char uint16
type Short int16
type Int int32
type Long int64
type Float float32
type Double float64

func (Null) isNode()    {}
func (*String) isNode() {}
func (*List) isNode()   {}
func (*Map) isNode()    {}
func (*Record) isNode() {}
func (Bool) isNode()    {}
func (Byte) isNode()    {}
func (Char) isNode()    {}
func (Short) isNode()   {}
func (Int) isNode()     {}
func (Long) isNode()    {}
func (Float) isNode()   {}
func (Double) isNode()  {}

// IsNull reports whether n is a null reference
func IsNull(n Node) bool {
	if n == nil {
		return true
	}
	_, ok := n.(Null)
	return ok
}

// StringValue returns the contents of a String node
func StringValue(n Node) (string, bool) {
	s, ok := n.(*String)
	if !ok || s == nil {
		return "", false
	}
	return s.Value, true
}
