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
	"encoding/binary"

	"github.com/snowplow/bwn-patcher/stream"
)

// Decoder turns a byte stream into an object graph
type Decoder struct {
	registry *Registry
}

// DecoderOption configures a Decoder
type DecoderOption func(*Decoder)

// WithRegistry sets the closed set of class shapes the decoder accepts
func WithRegistry(r *Registry) DecoderOption {
	return func(d *Decoder) { d.registry = r }
}

// NewDecoder creates a Decoder accepting the container shapes unless configured otherwise
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = NewRegistry()
	}
	return d
}

// Decode reads the stream header and the single top-level object of data
func Decode(data []byte, opts ...DecoderOption) (Node, error) {
	return NewDecoder(opts...).Decode(data)
}

// Decode reads the stream header and the single top-level object of data
func (d *Decoder) Decode(data []byte) (Node, error) {
	op := &decodeOp{
		r:        stream.NewReader(data),
		handles:  stream.NewHandleTable(),
		registry: d.registry,
	}
	if err := op.r.ReadHeader(); err != nil {
		return nil, err
	}
	root, err := op.readContent()
	if err != nil {
		return nil, err
	}
	if n := op.r.Remaining(); n > 0 {
		return nil, stream.Errorf(stream.TrailingData, op.r.Offset(), "%d bytes after the root object", n)
	}
	return root, nil
}

// decodeOp holds the state of one Decode call
type decodeOp struct {
	r        *stream.Reader
	handles  *stream.HandleTable
	registry *Registry
}

func (op *decodeOp) readContent() (Node, error) {
	off := op.r.Offset()
	tag, err := op.r.ReadTag()
	if err != nil {
		return nil, err
	}
	switch tag {
	case stream.TCNull:
		return Null{}, nil
	case stream.TCReference:
		obj, err := op.readReference(off)
		if err != nil {
			return nil, err
		}
		n, ok := obj.(Node)
		if !ok {
			return nil, stream.Errorf(stream.UnexpectedTag, off, "reference to a class descriptor where an object was expected")
		}
		return n, nil
	case stream.TCString:
		return op.readString()
	case stream.TCObject:
		return op.readObject(off)
	case stream.TCArray:
		return op.readArray(off)
	}
	return nil, stream.Errorf(stream.UnexpectedTag, off, "%s (0x%02X)", tag, byte(tag))
}

func (op *decodeOp) readReference(off int) (interface{}, error) {
	h, err := op.r.ReadU32()
	if err != nil {
		return nil, err
	}
	obj, ok := op.handles.Lookup(h)
	if !ok {
		return nil, stream.Errorf(stream.UnresolvedHandle, off, "handle 0x%06X not assigned", h)
	}
	return obj, nil
}

func (op *decodeOp) readString() (*String, error) {
	s, err := op.r.ReadUTF()
	if err != nil {
		return nil, err
	}
	n := &String{Value: s}
	op.handles.Register(n)
	return n, nil
}

// readTypeString reads the signature of an object field
func (op *decodeOp) readTypeString() (string, error) {
	off := op.r.Offset()
	tag, err := op.r.ReadTag()
	if err != nil {
		return "", err
	}
	switch tag {
	case stream.TCString:
		s, err := op.readString()
		if err != nil {
			return "", err
		}
		return s.Value, nil
	case stream.TCReference:
		obj, err := op.readReference(off)
		if err != nil {
			return "", err
		}
		if s, ok := obj.(*String); ok {
			return s.Value, nil
		}
	}
	return "", stream.Errorf(stream.UnexpectedTag, off, "%s where a field signature was expected", tag)
}

func (op *decodeOp) readClassDesc() (*ClassDesc, error) {
	off := op.r.Offset()
	tag, err := op.r.ReadTag()
	if err != nil {
		return nil, err
	}
	switch tag {
	case stream.TCNull:
		return nil, nil
	case stream.TCClassDesc:
		return op.readNewClassDesc(off)
	case stream.TCReference:
		obj, err := op.readReference(off)
		if err != nil {
			return nil, err
		}
		if d, ok := obj.(*ClassDesc); ok {
			return d, nil
		}
		return nil, stream.Errorf(stream.UnexpectedTag, off, "reference to an object where a class descriptor was expected")
	}
	return nil, stream.Errorf(stream.UnexpectedTag, off, "%s where a class descriptor was expected", tag)
}

func (op *decodeOp) readNewClassDesc(off int) (*ClassDesc, error) {
	name, err := op.r.ReadUTF()
	if err != nil {
		return nil, err
	}
	uid, err := op.r.ReadI64()
	if err != nil {
		return nil, err
	}
	d := &ClassDesc{Name: name, SerialUID: uid}
	h := op.handles.Register(d)

	if d.Flags, err = op.r.ReadU8(); err != nil {
		return nil, err
	}
	count, err := op.r.ReadU16()
	if err != nil {
		return nil, err
	}
	d.Fields = make([]FieldDesc, count)
	for i := range d.Fields {
		fieldOff := op.r.Offset()
		code, err := op.r.ReadU8()
		if err != nil {
			return nil, err
		}
		if !validTypeCode(code) {
			return nil, stream.Errorf(stream.UnsupportedClassShape, fieldOff, "class %s: field type code 0x%02X", name, code)
		}
		fieldName, err := op.r.ReadUTF()
		if err != nil {
			return nil, err
		}
		f := FieldDesc{Type: code, Name: fieldName}
		if f.IsObject() {
			if f.ClassName, err = op.readTypeString(); err != nil {
				return nil, err
			}
		}
		d.Fields[i] = f
	}

	// class annotations are not part of the supported shapes
	if err := op.expectEndBlock(); err != nil {
		return nil, err
	}
	if d.Super, err = op.readClassDesc(); err != nil {
		return nil, err
	}

	known, err := op.registry.Resolve(d)
	if err != nil {
		err.(*stream.FormatError).Offset = off
		return nil, err
	}
	op.handles.Fill(h, known)
	return known, nil
}

func (op *decodeOp) expectEndBlock() error {
	off := op.r.Offset()
	tag, err := op.r.ReadTag()
	if err != nil {
		return err
	}
	if tag != stream.TCEndBlockData {
		return stream.Errorf(stream.UnexpectedTag, off, "%s where TC_ENDBLOCKDATA was expected", tag)
	}
	return nil
}

// readBlock reads one short block data segment of exactly n bytes
func (op *decodeOp) readBlock(n int) ([]byte, error) {
	off := op.r.Offset()
	tag, err := op.r.ReadTag()
	if err != nil {
		return nil, err
	}
	if tag != stream.TCBlockData {
		return nil, stream.Errorf(stream.UnexpectedTag, off, "%s where TC_BLOCKDATA was expected", tag)
	}
	size, err := op.r.ReadU8()
	if err != nil {
		return nil, err
	}
	if int(size) != n {
		return nil, stream.Errorf(stream.UnsupportedClassShape, off, "block data of %d bytes, expected %d", size, n)
	}
	return op.r.ReadBytes(n)
}

func (op *decodeOp) readCount() (int, error) {
	off := op.r.Offset()
	n, err := op.r.ReadI32()
	if err != nil {
		return 0, err
	}
	if n < 0 || int(n) > op.r.Remaining() {
		return 0, stream.Errorf(stream.TruncatedStream, off, "element count %d", n)
	}
	return int(n), nil
}

func (op *decodeOp) readObject(off int) (Node, error) {
	desc, err := op.readClassDesc()
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, stream.Errorf(stream.UnexpectedTag, off, "object without a class descriptor")
	}
	switch desc.Name {
	case HashMapClass:
		return op.readHashMap()
	case ArrayListClass:
		return op.readArrayList()
	case CopyOnWriteArrayListClass:
		return op.readCopyOnWriteList()
	}

	rec := NewRecord(desc)
	op.handles.Register(rec)
	for _, level := range rec.Levels() {
		if level.Class.Flags&stream.SCWriteMethod != 0 {
			return nil, stream.Errorf(stream.UnsupportedClassShape, op.r.Offset(), "class %s writes custom data", level.Class.Name)
		}
		for i, f := range level.Class.Fields {
			v, err := op.readFieldValue(f.Type)
			if err != nil {
				return nil, err
			}
			level.Fields[i].Value = v
		}
	}
	return rec, nil
}

func (op *decodeOp) readHashMap() (Node, error) {
	m := &Map{}
	op.handles.Register(m)

	var err error
	if m.LoadFactor, err = op.r.ReadF32(); err != nil {
		return nil, err
	}
	if m.Threshold, err = op.r.ReadI32(); err != nil {
		return nil, err
	}
	block, err := op.readBlock(8)
	if err != nil {
		return nil, err
	}
	m.Capacity = int32(binary.BigEndian.Uint32(block[0:4]))
	size := int32(binary.BigEndian.Uint32(block[4:8]))
	// every entry takes at least a key tag and a value tag
	if size < 0 || int64(size)*2 > int64(op.r.Remaining()) {
		return nil, stream.Errorf(stream.TruncatedStream, op.r.Offset(), "map size %d", size)
	}

	seen := make(map[interface{}]bool, size)
	for i := int32(0); i < size; i++ {
		keyOff := op.r.Offset()
		k, err := op.readContent()
		if err != nil {
			return nil, err
		}
		id := keyIdentity(k)
		if seen[id] {
			return nil, stream.Errorf(stream.DuplicateKey, keyOff, "%v", id)
		}
		seen[id] = true
		v, err := op.readContent()
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, Entry{Key: k, Value: v})
	}
	return m, op.expectEndBlock()
}

func (op *decodeOp) readArrayList() (Node, error) {
	l := &List{Kind: ArrayList}
	op.handles.Register(l)

	size, err := op.readCount()
	if err != nil {
		return nil, err
	}
	// the block carries the capacity, which is always written as the size
	if _, err := op.readBlock(4); err != nil {
		return nil, err
	}
	if l.Elements, err = op.readElements(size); err != nil {
		return nil, err
	}
	return l, op.expectEndBlock()
}

func (op *decodeOp) readCopyOnWriteList() (Node, error) {
	l := &List{Kind: CopyOnWriteArrayList}
	op.handles.Register(l)

	block, err := op.readBlock(4)
	if err != nil {
		return nil, err
	}
	size := int32(binary.BigEndian.Uint32(block))
	if size < 0 || int(size) > op.r.Remaining() {
		return nil, stream.Errorf(stream.TruncatedStream, op.r.Offset(), "list size %d", size)
	}
	if l.Elements, err = op.readElements(int(size)); err != nil {
		return nil, err
	}
	return l, op.expectEndBlock()
}

func (op *decodeOp) readArray(off int) (Node, error) {
	desc, err := op.readClassDesc()
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, stream.Errorf(stream.UnexpectedTag, off, "array without a class descriptor")
	}
	l := &List{}
	switch desc.Name {
	case ObjectArrayClass:
		l.Kind = ObjectArray
	case StringArrayClass:
		l.Kind = StringArray
	default:
		return nil, stream.Errorf(stream.UnsupportedClassShape, off, "array class %s", desc.Name)
	}
	op.handles.Register(l)

	size, err := op.readCount()
	if err != nil {
		return nil, err
	}
	if l.Elements, err = op.readElements(size); err != nil {
		return nil, err
	}
	if l.Kind == StringArray {
		for _, e := range l.Elements {
			if _, ok := e.(*String); !ok && !IsNull(e) {
				return nil, stream.Errorf(stream.FieldTypeMismatch, off, "String[] holds a non-string element")
			}
		}
	}
	return l, nil
}

func (op *decodeOp) readElements(n int) ([]Node, error) {
	elements := make([]Node, 0, n)
	for i := 0; i < n; i++ {
		e, err := op.readContent()
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	return elements, nil
}

func (op *decodeOp) readFieldValue(code byte) (Node, error) {
	switch code {
	case TypeByte:
		v, err := op.r.ReadU8()
		return Byte(int8(v)), err
	case TypeChar:
		v, err := op.r.ReadU16()
		return Char(v), err
	case TypeDouble:
		v, err := op.r.ReadF64()
		return Double(v), err
	case TypeFloat:
		v, err := op.r.ReadF32()
		return Float(v), err
	case TypeInt:
		v, err := op.r.ReadI32()
		return Int(v), err
	case TypeLong:
		v, err := op.r.ReadI64()
		return Long(v), err
	case TypeShort:
		v, err := op.r.ReadI16()
		return Short(v), err
	case TypeBoolean:
		v, err := op.r.ReadU8()
		return Bool(v != 0), err
	}
	return op.readContent()
}

// keyIdentity is what makes two map keys the same key: equal contents for strings,
// the node itself otherwise
func keyIdentity(n Node) interface{} {
	if s, ok := n.(*String); ok {
		return s.Value
	}
	if n == nil {
		return Null{}
	}
	return n
}
