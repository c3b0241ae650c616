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

import (
	"encoding/binary"
	"math"
)

// Reader is a big-endian cursor over an in-memory stream
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a Reader positioned at the start of b
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset returns the current read position
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, Errorf(TruncatedStream, r.off, "need %d bytes, have %d", n, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadHeader consumes and checks the stream magic and version
func (r *Reader) ReadHeader() error {
	off := r.off
	magic, err := r.ReadU16()
	if err != nil {
		return err
	}
	if magic != StreamMagic {
		return Errorf(BadMagic, off, "got 0x%04X", magic)
	}
	off = r.off
	version, err := r.ReadU16()
	if err != nil {
		return err
	}
	if version != StreamVersion {
		return Errorf(BadVersion, off, "got 0x%04X", version)
	}
	return nil
}

func (r *Reader) ReadU8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadTag reads one type code byte
func (r *Reader) ReadTag() (Tag, error) {
	b, err := r.ReadU8()
	return Tag(b), err
}

// PeekTag returns the next type code without consuming it
func (r *Reader) PeekTag() (Tag, error) {
	if r.off >= len(r.buf) {
		return 0, Errorf(TruncatedStream, r.off, "expected a tag")
	}
	return Tag(r.buf[r.off]), nil
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadI64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadI64()
	return math.Float64frombits(uint64(v)), err
}

// ReadBytes returns a copy of the next n bytes
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadUTF reads a string prefixed by its 2-byte encoded length
func (r *Reader) ReadUTF() (string, error) {
	n, err := r.ReadU16()
	if err != nil {
		return "", err
	}
	return r.ReadUTF8(int(n))
}

// ReadUTF8 decodes n bytes of modified UTF-8
func (r *Reader) ReadUTF8(n int) (string, error) {
	off := r.off
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	s, err := DecodeModifiedUTF8(b)
	if err != nil {
		return "", Errorf(MalformedString, off, "%d byte string", n)
	}
	return s, nil
}
