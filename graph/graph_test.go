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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snowplow/bwn-patcher/stream"
)

var pointDesc = &ClassDesc{
	Name:      "com.example.Point",
	SerialUID: 1,
	Flags:     stream.SCSerializable,
	Fields: []FieldDesc{
		{Type: TypeInt, Name: "x"},
		{Type: TypeBoolean, Name: "visible"},
		{Type: TypeObject, Name: "label", ClassName: "Ljava/lang/String;"},
	},
}

// syncTab builds a SynchronizedMap whose mutex points back at itself
func syncTab(title string) *Record {
	inner := NewMap()
	inner.Put(NewString("tabTitle"), NewString(title))
	inner.Put(NewString("MergeInfoData"), NewList(ArrayList))
	tab := NewRecord(SynchronizedMapDesc)
	tab.Set("m", inner)
	tab.Set("mutex", tab)
	return tab
}

func TestEncode_EmptyArrayListLayout(t *testing.T) {
	assert := assert.New(t)

	b, err := Encode(NewList(ArrayList))
	assert.Nil(err)
	assert.True(bytes.HasPrefix(b, []byte{0xAC, 0xED, 0x00, 0x05, 0x73, 0x72, 0x00, 0x13}))
	assert.True(bytes.Contains(b, []byte("java.util.ArrayList")))
	assert.True(bytes.Contains(b, []byte("java.util.AbstractCollection")))
	// super chain ends with null, then size field, capacity block and end marker
	assert.True(bytes.HasSuffix(b, []byte{0x78, 0x70, 0x00, 0x00, 0x00, 0x00, 0x77, 0x04, 0x00, 0x00, 0x00, 0x00, 0x78}))
}

func TestEncode_FreshMapSizing(t *testing.T) {
	assert := assert.New(t)

	m := NewMap()
	for i := 0; i < 13; i++ {
		m.Put(NewString(string(rune('a'+i))), Null{})
	}
	lf, capacity, threshold := m.sizing()
	assert.Equal(float32(0.75), lf)
	assert.Equal(int32(32), capacity)
	assert.Equal(int32(24), threshold)

	lf, capacity, threshold = (&Map{}).sizing()
	assert.Equal(DefaultLoadFactor, lf)
	assert.Equal(int32(16), capacity)
	assert.Equal(int32(12), threshold)

	kept := &Map{LoadFactor: 0.75, Capacity: 64, Threshold: 48}
	_, capacity, threshold = kept.sizing()
	assert.Equal(int32(64), capacity)
	assert.Equal(int32(48), threshold)
}

func TestRoundTrip_Containers(t *testing.T) {
	assert := assert.New(t)

	root := NewMap()
	root.Put(NewString("projectName"), NewString("ログイン"))
	root.Put(NewString("scriptData"), NewList(CopyOnWriteArrayList, syncTab("main"), syncTab("sub")))
	root.Put(NewString("tags"), NewList(StringArray, NewString("a"), Null{}))
	root.Put(NewString("misc"), NewList(ObjectArray, NewMap(), NewList(ArrayList, NewString("x"))))

	b, err := Encode(root)
	assert.Nil(err)

	decoded, err := Decode(b)
	assert.Nil(err)

	m, ok := decoded.(*Map)
	assert.True(ok)
	assert.Equal(4, m.Len())
	name, _ := m.Get("projectName")
	v, _ := StringValue(name)
	assert.Equal("ログイン", v)

	data, _ := m.Get("scriptData")
	tabs := data.(*List)
	assert.Equal(CopyOnWriteArrayList, tabs.Kind)
	assert.Len(tabs.Elements, 2)

	tab := tabs.Elements[0].(*Record)
	assert.Same(SynchronizedMapDesc, tab.Class)
	mutex, _ := tab.Get("mutex")
	assert.Same(tab, mutex)

	// the decoded graph encodes back to the same bytes
	again, err := Encode(decoded)
	assert.Nil(err)
	assert.Equal(b, again)
}

func TestEncode_Deterministic(t *testing.T) {
	assert := assert.New(t)

	root := NewMap()
	root.Put(NewString("scriptData"), NewList(CopyOnWriteArrayList, syncTab("main")))

	first, err := Encode(root)
	assert.Nil(err)
	second, err := Encode(root)
	assert.Nil(err)
	assert.Equal(first, second)
}

func TestHandleReuse(t *testing.T) {
	assert := assert.New(t)

	shared := NewString("${USERNAME}")
	list := NewList(ArrayList, shared, shared, NewString("${USERNAME}"))

	b, err := Encode(list)
	assert.Nil(err)
	assert.Equal(2, bytes.Count(b, []byte("${USERNAME}")))

	decoded, err := Decode(b)
	assert.Nil(err)
	elements := decoded.(*List).Elements
	assert.Same(elements[0], elements[1])
	assert.NotSame(elements[0], elements[2])

	again, err := Encode(decoded)
	assert.Nil(err)
	assert.Equal(b, again)
}

func TestRecord_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	p := NewRecord(pointDesc)
	p.Set("x", Int(-7))
	p.Set("visible", Bool(true))
	p.Set("label", NewString("origin"))

	b, err := Encode(NewList(ArrayList, p, p))
	assert.Nil(err)

	decoded, err := Decode(b, WithRegistry(NewRegistry(pointDesc)))
	assert.Nil(err)
	elements := decoded.(*List).Elements
	rec := elements[0].(*Record)
	assert.Same(rec, elements[1])
	x, _ := rec.Get("x")
	assert.Equal(Int(-7), x)
	visible, _ := rec.Get("visible")
	assert.Equal(Bool(true), visible)
	label, _ := rec.Get("label")
	assert.Equal("origin", label.(*String).Value)
}

func TestDecode_UnsupportedClassShape(t *testing.T) {
	assert := assert.New(t)

	b, err := Encode(NewRecord(pointDesc))
	assert.Nil(err)

	_, err = Decode(b)
	assert.True(errors.Is(err, stream.ErrUnsupportedClassShape))
	assert.True(strings.Contains(err.Error(), "com.example.Point"))

	changed := *pointDesc
	changed.SerialUID = 2
	_, err = Decode(b, WithRegistry(NewRegistry(&changed)))
	assert.True(errors.Is(err, stream.ErrUnsupportedClassShape))
	assert.True(strings.Contains(err.Error(), "serialVersionUID 1, expected 2"))
}

func TestDecode_Errors(t *testing.T) {
	assert := assert.New(t)

	header := []byte{0xAC, 0xED, 0x00, 0x05}

	_, err := Decode(append(header, 0x71, 0x00, 0x7E, 0x00, 0x05))
	assert.True(errors.Is(err, stream.ErrUnresolvedHandle))
	assert.Equal(4, err.(*stream.FormatError).Offset)

	_, err = Decode(append(header, byte(stream.TCEnum)))
	assert.True(errors.Is(err, stream.ErrUnexpectedTag))

	_, err = Decode(append(header, byte(stream.TCNull), byte(stream.TCNull)))
	assert.True(errors.Is(err, stream.ErrTrailingData))

	b, _ := Encode(NewList(ArrayList, NewString("abc")))
	_, err = Decode(b[:len(b)-3])
	assert.True(errors.Is(err, stream.ErrTruncatedStream))

	_, err = Decode([]byte{0x00, 0x00, 0x00, 0x05, 0x70})
	assert.True(errors.Is(err, stream.ErrBadMagic))
}

func TestDecode_ForgedSizes(t *testing.T) {
	assert := assert.New(t)

	forge := func(root Node) []byte {
		b, err := Encode(root)
		assert.Nil(err)
		assert.Equal(byte(stream.TCEndBlockData), b[len(b)-1])
		copy(b[len(b)-5:], []byte{0x7F, 0xFF, 0xFF, 0xFF})
		return b
	}

	_, err := Decode(forge(NewMap()))
	assert.True(errors.Is(err, stream.ErrTruncatedStream))

	_, err = Decode(forge(NewList(CopyOnWriteArrayList)))
	assert.True(errors.Is(err, stream.ErrTruncatedStream))
}

// hashMapStream is {"a": "b"} the way the script generator writes it, with HashMap
// declaring AbstractMap as its super class
func hashMapStream(super []byte) []byte {
	b := []byte{0xAC, 0xED, 0x00, 0x05, 0x73, 0x72, 0x00, 0x11}
	b = append(b, "java.util.HashMap"...)
	b = append(b, 0x05, 0x07, 0xDA, 0xC1, 0xC3, 0x16, 0x60, 0xD1, 0x03, 0x00, 0x02)
	b = append(b, 0x46, 0x00, 0x0A)
	b = append(b, "loadFactor"...)
	b = append(b, 0x49, 0x00, 0x09)
	b = append(b, "threshold"...)
	b = append(b, 0x78)
	b = append(b, super...)
	b = append(b,
		0x3F, 0x40, 0x00, 0x00, // loadFactor 0.75
		0x00, 0x00, 0x00, 0x0C, // threshold
		0x77, 0x08, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x01,
		0x74, 0x00, 0x01, 'a',
		0x74, 0x00, 0x01, 'b',
		0x78)
	return b
}

func TestDecode_HashMapLayout(t *testing.T) {
	assert := assert.New(t)

	abstractMap := []byte{0x72, 0x00, 0x15}
	abstractMap = append(abstractMap, "java.util.AbstractMap"...)
	abstractMap = append(abstractMap, 0x43, 0x03, 0x39, 0xB7, 0x24, 0xFB, 0x79, 0x49, 0x01, 0x00, 0x00, 0x78, 0x70)
	golden := hashMapStream(abstractMap)

	root, err := Decode(golden)
	assert.Nil(err)
	m, ok := root.(*Map)
	assert.True(ok)
	assert.Equal(float32(0.75), m.LoadFactor)
	assert.Equal(int32(12), m.Threshold)
	assert.Equal(int32(16), m.Capacity)
	v, ok := m.Get("a")
	assert.True(ok)
	assert.Equal(NewString("b"), v)

	again, err := Encode(m)
	assert.Nil(err)
	assert.Equal(golden, again)

	fresh := NewMap()
	fresh.Put(NewString("a"), NewString("b"))
	b, err := Encode(fresh)
	assert.Nil(err)
	assert.Equal(golden, b)

	// a HashMap without the AbstractMap super class is not a supported shape
	_, err = Decode(hashMapStream([]byte{0x70}))
	assert.True(errors.Is(err, stream.ErrUnsupportedClassShape))
	assert.True(strings.Contains(err.Error(), "missing super class java.util.AbstractMap"))
}

func TestDuplicateKey(t *testing.T) {
	assert := assert.New(t)

	m := &Map{Entries: []Entry{
		{Key: NewString("a"), Value: Null{}},
		{Key: NewString("a"), Value: Null{}},
	}}
	_, err := Encode(m)
	assert.True(errors.Is(err, stream.ErrDuplicateKey))

	// forge a stream with a repeated key by renaming the second one
	m.Entries[1].Key = NewString("b")
	b, err := Encode(m)
	assert.Nil(err)
	i := bytes.LastIndex(b, []byte{0x00, 0x01, 'b'})
	b[i+2] = 'a'
	_, err = Decode(b)
	assert.True(errors.Is(err, stream.ErrDuplicateKey))
}

func TestEncode_FieldTypeMismatch(t *testing.T) {
	assert := assert.New(t)

	p := NewRecord(pointDesc)
	p.Set("x", NewString("seven"))
	_, err := Encode(p)
	assert.True(errors.Is(err, stream.ErrFieldTypeMismatch))
	assert.True(strings.Contains(err.Error(), "Point.x"))

	_, err = Encode(NewList(ArrayList, Int(3)))
	assert.True(errors.Is(err, stream.ErrFieldTypeMismatch))

	_, err = Encode(NewList(StringArray, NewMap()))
	assert.True(errors.Is(err, stream.ErrFieldTypeMismatch))
}

func TestEncode_StringTooLong(t *testing.T) {
	assert := assert.New(t)

	_, err := Encode(NewString(strings.Repeat("x", stream.MaxUTFLength+1)))
	assert.True(errors.Is(err, stream.ErrStringTooLong))
}

func TestRecordHelpers(t *testing.T) {
	assert := assert.New(t)

	list := NewRecord(SynchronizedListDesc)
	assert.Len(list.Levels(), 2)
	assert.Same(SynchronizedCollectionDesc, list.Levels()[0].Class)
	assert.NotNil(list.Level(SynchronizedCollectionClass))
	assert.Nil(list.Level(HashMapClass))
	assert.False(list.Set("missing", Null{}))
	assert.Equal("Collections$SynchronizedList", SynchronizedListDesc.SimpleName())

	reg := NewRegistry(pointDesc)
	_, ok := reg.Lookup(AbstractCollectionClass)
	assert.True(ok)
	_, ok = reg.Lookup(pointDesc.Name)
	assert.True(ok)
}

func TestCountObjects(t *testing.T) {
	assert := assert.New(t)

	shared := NewString("x")
	root := NewList(ObjectArray, shared, shared, syncTab("a"))
	want := Stats{Strings: 4, Lists: 2, Maps: 1, Records: 1}
	assert.Equal(want, CountObjects(root))

	b, err := Encode(root)
	assert.Nil(err)
	decoded, err := Decode(b)
	assert.Nil(err)
	assert.Equal(want, CountObjects(decoded))

	var visited int
	Walk(root, func(n Node) bool {
		visited++
		_, isList := n.(*List)
		return isList
	})
	// the list, the shared string and the tab, whose children are skipped
	assert.Equal(3, visited)
}
