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

package stream

// HandleTable hands out wire handles in encounter order. A table belongs to a single
// decode or encode call.
type HandleTable struct {
	objs []interface{}
}

// NewHandleTable creates an empty table
func NewHandleTable() *HandleTable {
	return &HandleTable{}
}

// Next returns the handle the next Register call will assign
func (t *HandleTable) Next() uint32 {
	return BaseWireHandle + uint32(len(t.objs))
}

// Len returns the number of assigned handles
func (t *HandleTable) Len() int { return len(t.objs) }

// Register assigns the next handle to obj. Decoders register an object before reading
// its body so that references from inside the body resolve.
func (t *HandleTable) Register(obj interface{}) uint32 {
	h := t.Next()
	t.objs = append(t.objs, obj)
	return h
}

// Fill replaces the object behind an already assigned handle
func (t *HandleTable) Fill(h uint32, obj interface{}) {
	if i, ok := t.index(h); ok {
		t.objs[i] = obj
	}
}

// Lookup returns the object behind h, if h has been assigned
func (t *HandleTable) Lookup(h uint32) (interface{}, bool) {
	i, ok := t.index(h)
	if !ok {
		return nil, false
	}
	return t.objs[i], true
}

// Resolve is Lookup returning an UnresolvedHandle error for absent or future handles
func (t *HandleTable) Resolve(h uint32) (interface{}, error) {
	obj, ok := t.Lookup(h)
	if !ok {
		return nil, Errorf(UnresolvedHandle, -1, "handle 0x%06X not assigned (%d known)", h, len(t.objs))
	}
	return obj, nil
}

func (t *HandleTable) index(h uint32) (int, bool) {
	if h < BaseWireHandle {
		return 0, false
	}
	i := int(h - BaseWireHandle)
	if i >= len(t.objs) {
		return 0, false
	}
	return i, true
}
