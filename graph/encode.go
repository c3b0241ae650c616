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

// Encode writes root as a complete stream, header included. Encoding the same graph
// twice gives the same bytes.
func Encode(root Node) ([]byte, error) {
	op := &encodeOp{
		w:           stream.NewWriter(),
		handles:     stream.NewHandleTable(),
		objects:     make(map[Node]uint32),
		classes:     make(map[string]uint32),
		typeStrings: make(map[string]uint32),
	}
	op.w.WriteHeader()
	if err := op.writeContent(root); err != nil {
		return nil, err
	}
	return op.w.Bytes(), nil
}

// encodeOp holds the state of one Encode call. Compound nodes and strings are shared
// by pointer, class descriptors by name and field signatures by value.
type encodeOp struct {
	w           *stream.Writer
	handles     *stream.HandleTable
	objects     map[Node]uint32
	classes     map[string]uint32
	typeStrings map[string]uint32
}

func (op *encodeOp) writeReference(h uint32) {
	op.w.WriteTag(stream.TCReference)
	op.w.WriteU32(h)
}

// shared writes a back reference if n was already written
func (op *encodeOp) shared(n Node) bool {
	if h, ok := op.objects[n]; ok {
		op.writeReference(h)
		return true
	}
	return false
}

func (op *encodeOp) register(n Node) {
	op.objects[n] = op.handles.Register(n)
}

func (op *encodeOp) writeContent(n Node) error {
	switch v := n.(type) {
	case nil, Null:
		op.w.WriteTag(stream.TCNull)
		return nil
	case *String:
		if v == nil {
			op.w.WriteTag(stream.TCNull)
			return nil
		}
		if op.shared(v) {
			return nil
		}
		op.w.WriteTag(stream.TCString)
		op.register(v)
		return op.w.WriteUTF(v.Value)
	case *List:
		if v == nil {
			op.w.WriteTag(stream.TCNull)
			return nil
		}
		if op.shared(v) {
			return nil
		}
		return op.writeList(v)
	case *Map:
		if v == nil {
			op.w.WriteTag(stream.TCNull)
			return nil
		}
		if op.shared(v) {
			return nil
		}
		return op.writeMap(v)
	case *Record:
		if v == nil {
			op.w.WriteTag(stream.TCNull)
			return nil
		}
		if op.shared(v) {
			return nil
		}
		return op.writeRecord(v)
	}
	return stream.Errorf(stream.FieldTypeMismatch, op.w.Len(), "%T cannot be written as an object", n)
}

func (op *encodeOp) writeClassDesc(d *ClassDesc) error {
	if d == nil {
		op.w.WriteTag(stream.TCNull)
		return nil
	}
	if h, ok := op.classes[d.Name]; ok {
		op.writeReference(h)
		return nil
	}
	op.w.WriteTag(stream.TCClassDesc)
	if err := op.w.WriteUTF(d.Name); err != nil {
		return err
	}
	op.w.WriteI64(d.SerialUID)
	op.classes[d.Name] = op.handles.Register(d)
	op.w.WriteU8(d.Flags)
	op.w.WriteU16(uint16(len(d.Fields)))
	for _, f := range d.Fields {
		op.w.WriteU8(f.Type)
		if err := op.w.WriteUTF(f.Name); err != nil {
			return err
		}
		if f.IsObject() {
			if err := op.writeTypeString(f.ClassName); err != nil {
				return err
			}
		}
	}
	op.w.WriteTag(stream.TCEndBlockData)
	return op.writeClassDesc(d.Super)
}

func (op *encodeOp) writeTypeString(s string) error {
	if h, ok := op.typeStrings[s]; ok {
		op.writeReference(h)
		return nil
	}
	op.w.WriteTag(stream.TCString)
	op.typeStrings[s] = op.handles.Register(NewString(s))
	return op.w.WriteUTF(s)
}

func (op *encodeOp) writeBlock(b []byte) {
	op.w.WriteTag(stream.TCBlockData)
	op.w.WriteU8(byte(len(b)))
	op.w.WriteBytes(b)
}

func (op *encodeOp) writeList(l *List) error {
	size := int32(len(l.Elements))
	switch l.Kind {
	case ArrayList:
		op.w.WriteTag(stream.TCObject)
		if err := op.writeClassDesc(ArrayListDesc); err != nil {
			return err
		}
		op.register(l)
		op.w.WriteI32(size)
		op.writeBlock(int32Bytes(size))
	case CopyOnWriteArrayList:
		op.w.WriteTag(stream.TCObject)
		if err := op.writeClassDesc(CopyOnWriteArrayListDesc); err != nil {
			return err
		}
		op.register(l)
		op.writeBlock(int32Bytes(size))
	case ObjectArray, StringArray:
		desc := ObjectArrayDesc
		if l.Kind == StringArray {
			desc = StringArrayDesc
		}
		op.w.WriteTag(stream.TCArray)
		if err := op.writeClassDesc(desc); err != nil {
			return err
		}
		op.register(l)
		op.w.WriteI32(size)
		for _, e := range l.Elements {
			if _, ok := e.(*String); l.Kind == StringArray && !ok && !IsNull(e) {
				return stream.Errorf(stream.FieldTypeMismatch, op.w.Len(), "String[] element of type %T", e)
			}
			if err := op.writeContent(e); err != nil {
				return err
			}
		}
		return nil
	default:
		return stream.Errorf(stream.UnsupportedClassShape, op.w.Len(), "list kind %d", int(l.Kind))
	}

	for _, e := range l.Elements {
		if err := op.writeContent(e); err != nil {
			return err
		}
	}
	op.w.WriteTag(stream.TCEndBlockData)
	return nil
}

// sizing returns the load factor, capacity and threshold written for m. Decoded values
// are kept as long as the capacity still holds every entry.
func (m *Map) sizing() (float32, int32, int32) {
	lf := m.LoadFactor
	if lf <= 0 {
		lf = DefaultLoadFactor
	}
	size := float32(len(m.Entries))
	if m.Capacity > 0 && float32(m.Capacity)*lf >= size {
		return lf, m.Capacity, m.Threshold
	}
	capacity := int32(16)
	for float32(capacity)*lf < size {
		capacity *= 2
	}
	return lf, capacity, int32(float32(capacity) * lf)
}

func (op *encodeOp) writeMap(m *Map) error {
	op.w.WriteTag(stream.TCObject)
	if err := op.writeClassDesc(HashMapDesc); err != nil {
		return err
	}
	op.register(m)

	lf, capacity, threshold := m.sizing()
	op.w.WriteF32(lf)
	op.w.WriteI32(threshold)
	block := append(int32Bytes(capacity), int32Bytes(int32(len(m.Entries)))...)
	op.writeBlock(block)

	seen := make(map[interface{}]bool, len(m.Entries))
	for _, e := range m.Entries {
		id := keyIdentity(e.Key)
		if seen[id] {
			return stream.Errorf(stream.DuplicateKey, op.w.Len(), "%v", id)
		}
		seen[id] = true
		if err := op.writeContent(e.Key); err != nil {
			return err
		}
		if err := op.writeContent(e.Value); err != nil {
			return err
		}
	}
	op.w.WriteTag(stream.TCEndBlockData)
	return nil
}

func (op *encodeOp) writeRecord(r *Record) error {
	if r.Class == nil {
		return stream.Errorf(stream.UnsupportedClassShape, op.w.Len(), "record without a class")
	}
	levels := r.Levels()
	d := r.Class
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i].Class != d {
			return stream.Errorf(stream.UnsupportedClassShape, op.w.Len(), "record of %s: super record does not follow the class hierarchy", r.Class.Name)
		}
		d = d.Super
	}
	if d != nil {
		return stream.Errorf(stream.UnsupportedClassShape, op.w.Len(), "record of %s: missing super record for %s", r.Class.Name, d.Name)
	}

	op.w.WriteTag(stream.TCObject)
	if err := op.writeClassDesc(r.Class); err != nil {
		return err
	}
	op.register(r)
	for _, level := range levels {
		if level.Class.Flags&stream.SCWriteMethod != 0 {
			return stream.Errorf(stream.UnsupportedClassShape, op.w.Len(), "class %s writes custom data", level.Class.Name)
		}
		if len(level.Fields) != len(level.Class.Fields) {
			return stream.Errorf(stream.FieldTypeMismatch, op.w.Len(), "class %s declares %d fields, record has %d", level.Class.Name, len(level.Class.Fields), len(level.Fields))
		}
		for i, f := range level.Class.Fields {
			field := level.Fields[i]
			if field.Name != f.Name {
				return stream.Errorf(stream.FieldTypeMismatch, op.w.Len(), "class %s field %d is %s, record has %s", level.Class.Name, i, f.Name, field.Name)
			}
			if err := op.writeFieldValue(level.Class, f, field.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (op *encodeOp) writeFieldValue(class *ClassDesc, f FieldDesc, n Node) error {
	ok := true
	switch f.Type {
	case TypeByte:
		var v Byte
		if v, ok = n.(Byte); ok {
			op.w.WriteU8(byte(v))
		}
	case TypeChar:
		var v Char
		if v, ok = n.(Char); ok {
			op.w.WriteU16(uint16(v))
		}
	case TypeDouble:
		var v Double
		if v, ok = n.(Double); ok {
			op.w.WriteF64(float64(v))
		}
	case TypeFloat:
		var v Float
		if v, ok = n.(Float); ok {
			op.w.WriteF32(float32(v))
		}
	case TypeInt:
		var v Int
		if v, ok = n.(Int); ok {
			op.w.WriteI32(int32(v))
		}
	case TypeLong:
		var v Long
		if v, ok = n.(Long); ok {
			op.w.WriteI64(int64(v))
		}
	case TypeShort:
		var v Short
		if v, ok = n.(Short); ok {
			op.w.WriteI16(int16(v))
		}
	case TypeBoolean:
		var v Bool
		if v, ok = n.(Bool); ok {
			if v {
				op.w.WriteU8(1)
			} else {
				op.w.WriteU8(0)
			}
		}
	default:
		switch n.(type) {
		case nil, Null, *String, *List, *Map, *Record:
			return op.writeContent(n)
		}
		ok = false
	}
	if !ok {
		return stream.Errorf(stream.FieldTypeMismatch, op.w.Len(), "%s.%s is %c, got %s", class.SimpleName(), f.Name, f.Type, describe(n))
	}
	return nil
}

func describe(n Node) string {
	if n == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", n)
}

func int32Bytes(v int32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
