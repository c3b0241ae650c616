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

// Writer appends big-endian primitives to an in-memory buffer
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 1024)}
}

// Bytes returns the bytes written so far
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far
func (w *Writer) Len() int { return len(w.buf) }

// WriteHeader writes the stream magic and version
func (w *Writer) WriteHeader() {
	w.WriteU16(StreamMagic)
	w.WriteU16(StreamVersion)
}

func (w *Writer) WriteU8(v byte) { w.buf = append(w.buf, v) }

func (w *Writer) WriteTag(t Tag) { w.buf = append(w.buf, byte(t)) }

func (w *Writer) WriteU16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }

func (w *Writer) WriteU32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }

func (w *Writer) WriteI16(v int16) { w.WriteU16(uint16(v)) }

func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

func (w *Writer) WriteI64(v int64) { w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v)) }

func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }

func (w *Writer) WriteF64(v float64) { w.WriteI64(int64(math.Float64bits(v))) }

func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteUTF writes s as modified UTF-8 behind a 2-byte length. Strings whose encoding
// does not fit in 65535 bytes are refused rather than truncated.
func (w *Writer) WriteUTF(s string) error {
	b, err := EncodeModifiedUTF8(s)
	if err != nil {
		return Errorf(MalformedString, len(w.buf), "string is not valid UTF-8")
	}
	if len(b) > MaxUTFLength {
		return Errorf(StringTooLong, len(w.buf), "%d bytes encoded", len(b))
	}
	w.WriteU16(uint16(len(b)))
	w.WriteBytes(b)
	return nil
}
