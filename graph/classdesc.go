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

package graph

import (
	"fmt"

	"github.com/snowplow/bwn-patcher/stream"
)

// Field type codes
const (
	TypeByte    byte = 'B'
	TypeChar    byte = 'C'
	TypeDouble  byte = 'D'
	TypeFloat   byte = 'F'
	TypeInt     byte = 'I'
	TypeLong    byte = 'J'
	TypeShort   byte = 'S'
	TypeBoolean byte = 'Z'
	TypeObject  byte = 'L'
	TypeArray   byte = '['
)

// ClassDesc describes the serializable shape of a class
type ClassDesc struct {
	Name      string
	SerialUID int64
	Flags     byte
	Fields    []FieldDesc
	Super     *ClassDesc
}

// FieldDesc is one declared field. ClassName holds the JVM type signature of object
// and array fields and is empty for primitives.
type FieldDesc struct {
	Type      byte
	Name      string
	ClassName string
}

// IsObject reports whether the field holds a reference rather than a primitive
func (f FieldDesc) IsObject() bool {
	return f.Type == TypeObject || f.Type == TypeArray
}

// SimpleName returns the class name without its package
func (d *ClassDesc) SimpleName() string {
	for i := len(d.Name) - 1; i >= 0; i-- {
		if d.Name[i] == '.' {
			return d.Name[i+1:]
		}
	}
	return d.Name
}

// ZeroValue returns the default value of a field of the given type code
func ZeroValue(code byte) Node {
	switch code {
	case TypeByte:
		return Byte(0)
	case TypeChar:
		return Char(0)
	case TypeDouble:
		return Double(0)
	case TypeFloat:
		return Float(0)
	case TypeInt:
		return Int(0)
	case TypeLong:
		return Long(0)
	case TypeShort:
		return Short(0)
	case TypeBoolean:
		return Bool(false)
	}
	return Null{}
}

func validTypeCode(code byte) bool {
	switch code {
	case TypeByte, TypeChar, TypeDouble, TypeFloat, TypeInt, TypeLong, TypeShort, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

// Class names of the container shapes
const (
	HashMapClass                = "java.util.HashMap"
	AbstractMapClass            = "java.util.AbstractMap"
	ArrayListClass              = "java.util.ArrayList"
	AbstractListClass           = "java.util.AbstractList"
	AbstractCollectionClass     = "java.util.AbstractCollection"
	CopyOnWriteArrayListClass   = "java.util.concurrent.CopyOnWriteArrayList"
	SynchronizedMapClass        = "java.util.Collections$SynchronizedMap"
	SynchronizedListClass       = "java.util.Collections$SynchronizedList"
	SynchronizedCollectionClass = "java.util.Collections$SynchronizedCollection"
	ObjectArrayClass            = "[Ljava.lang.Object;"
	StringArrayClass            = "[Ljava.lang.String;"
)

const writeAndSerial = stream.SCSerializable | stream.SCWriteMethod

// Container shapes. These are shared, read-only values.
var (
	AbstractMapDesc = &ClassDesc{
		Name: AbstractMapClass, SerialUID: 4828766684233562441, Flags: stream.SCSerializable,
	}
	HashMapDesc = &ClassDesc{
		Name: HashMapClass, SerialUID: 362498820763181265, Flags: writeAndSerial,
		Fields: []FieldDesc{
			{Type: TypeFloat, Name: "loadFactor"},
			{Type: TypeInt, Name: "threshold"},
		},
		Super: AbstractMapDesc,
	}
	AbstractCollectionDesc = &ClassDesc{
		Name: AbstractCollectionClass, SerialUID: 8925815256423158682, Flags: stream.SCSerializable,
	}
	AbstractListDesc = &ClassDesc{
		Name: AbstractListClass, SerialUID: 4083306618545678451, Flags: stream.SCSerializable,
		Super: AbstractCollectionDesc,
	}
	ArrayListDesc = &ClassDesc{
		Name: ArrayListClass, SerialUID: 8683452581122892189, Flags: writeAndSerial,
		Fields: []FieldDesc{{Type: TypeInt, Name: "size"}},
		Super:  AbstractListDesc,
	}
	CopyOnWriteArrayListDesc = &ClassDesc{
		Name: CopyOnWriteArrayListClass, SerialUID: 8673264195747942595, Flags: writeAndSerial,
	}
	SynchronizedMapDesc = &ClassDesc{
		Name: SynchronizedMapClass, SerialUID: 1978198479659022715, Flags: stream.SCSerializable,
		Fields: []FieldDesc{
			{Type: TypeObject, Name: "m", ClassName: "Ljava/util/Map;"},
			{Type: TypeObject, Name: "mutex", ClassName: "Ljava/lang/Object;"},
		},
	}
	SynchronizedCollectionDesc = &ClassDesc{
		Name: SynchronizedCollectionClass, SerialUID: 3053995032091335093, Flags: stream.SCSerializable,
		Fields: []FieldDesc{
			{Type: TypeObject, Name: "c", ClassName: "Ljava/util/Collection;"},
			{Type: TypeObject, Name: "mutex", ClassName: "Ljava/lang/Object;"},
		},
	}
	SynchronizedListDesc = &ClassDesc{
		Name: SynchronizedListClass, SerialUID: -1472766899164520507, Flags: stream.SCSerializable,
		Fields: []FieldDesc{{Type: TypeObject, Name: "list", ClassName: "Ljava/util/List;"}},
		Super:  SynchronizedCollectionDesc,
	}
	ObjectArrayDesc = &ClassDesc{
		Name: ObjectArrayClass, SerialUID: -8012369246846506644, Flags: stream.SCSerializable,
	}
	StringArrayDesc = &ClassDesc{
		Name: StringArrayClass, SerialUID: -5921575005990323385, Flags: stream.SCSerializable,
	}
)

// ContainerShapes lists the container descriptors every registry knows
func ContainerShapes() []*ClassDesc {
	return []*ClassDesc{
		HashMapDesc, ArrayListDesc, CopyOnWriteArrayListDesc, SynchronizedMapDesc,
		SynchronizedListDesc, ObjectArrayDesc, StringArrayDesc,
	}
}

// Registry is the closed set of class shapes a decoder accepts. It is never modified
// after construction.
type Registry struct {
	classes map[string]*ClassDesc
}

// NewRegistry builds a registry holding the container shapes plus descs and all of
// their super classes
func NewRegistry(descs ...*ClassDesc) *Registry {
	r := &Registry{classes: make(map[string]*ClassDesc)}
	for _, d := range ContainerShapes() {
		r.add(d)
	}
	for _, d := range descs {
		r.add(d)
	}
	return r
}

func (r *Registry) add(d *ClassDesc) {
	for ; d != nil; d = d.Super {
		r.classes[d.Name] = d
	}
}

// Lookup returns the registered shape for a class name
func (r *Registry) Lookup(name string) (*ClassDesc, bool) {
	d, ok := r.classes[name]
	return d, ok
}

// Len returns the number of registered classes
func (r *Registry) Len() int { return len(r.classes) }

// Resolve checks a descriptor read from a stream against the registered shape of the
// same name and returns the registered descriptor
func (r *Registry) Resolve(d *ClassDesc) (*ClassDesc, error) {
	known, ok := r.classes[d.Name]
	if !ok {
		return nil, stream.Errorf(stream.UnsupportedClassShape, -1, "class %s is not supported", d.Name)
	}
	if reason := shapeDiff(known, d); reason != "" {
		return nil, stream.Errorf(stream.UnsupportedClassShape, -1, "class %s: %s", d.Name, reason)
	}
	return known, nil
}

func shapeDiff(want, got *ClassDesc) string {
	if want.SerialUID != got.SerialUID {
		return fmt.Sprintf("serialVersionUID %d, expected %d", got.SerialUID, want.SerialUID)
	}
	if want.Flags != got.Flags {
		return fmt.Sprintf("flags 0x%02X, expected 0x%02X", got.Flags, want.Flags)
	}
	if len(want.Fields) != len(got.Fields) {
		return fmt.Sprintf("%d fields, expected %d", len(got.Fields), len(want.Fields))
	}
	for i, f := range want.Fields {
		if got.Fields[i] != f {
			return fmt.Sprintf("field %d is %c %s, expected %c %s", i, got.Fields[i].Type, got.Fields[i].Name, f.Type, f.Name)
		}
	}
	switch {
	case want.Super == nil && got.Super == nil:
		return ""
	case want.Super == nil:
		return "unexpected super class " + got.Super.Name
	case got.Super == nil:
		return "missing super class " + want.Super.Name
	case want.Super.Name != got.Super.Name:
		return "super class " + got.Super.Name + ", expected " + want.Super.Name
	}
	return ""
}
