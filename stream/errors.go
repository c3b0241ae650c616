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

import "fmt"

// ErrorKind classifies a FormatError
type ErrorKind int

const (
	TruncatedStream ErrorKind = iota + 1
	StringTooLong
	MalformedString
	BadMagic
	BadVersion
	UnexpectedTag
	UnresolvedHandle
	UnsupportedClassShape
	DuplicateKey
	FieldTypeMismatch
	TrailingData
)

var kindNames = map[ErrorKind]string{
	TruncatedStream:       "truncated stream",
	StringTooLong:         "string too long",
	MalformedString:       "malformed string",
	BadMagic:              "bad magic",
	BadVersion:            "bad version",
	UnexpectedTag:         "unexpected tag",
	UnresolvedHandle:      "unresolved handle",
	UnsupportedClassShape: "unsupported class shape",
	DuplicateKey:          "duplicate key",
	FieldTypeMismatch:     "field type mismatch",
	TrailingData:          "trailing data",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// FormatError reports a byte stream that cannot be read or written. Offset is the
// position in the stream where the problem was detected, or -1 when unknown.
type FormatError struct {
	Kind   ErrorKind
	Offset int
	Detail string
}

func (e *FormatError) Error() string {
	msg := e.Kind.String()
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches any FormatError of the same kind, so the Err* sentinels work with errors.Is
func (e *FormatError) Is(target error) bool {
	t, ok := target.(*FormatError)
	return ok && t.Kind == e.Kind
}

// Errorf builds a FormatError with a formatted detail message
func Errorf(kind ErrorKind, offset int, format string, args ...interface{}) *FormatError {
	return &FormatError{Kind: kind, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

var (
	ErrTruncatedStream       = &FormatError{Kind: TruncatedStream, Offset: -1}
	ErrStringTooLong         = &FormatError{Kind: StringTooLong, Offset: -1}
	ErrMalformedString       = &FormatError{Kind: MalformedString, Offset: -1}
	ErrBadMagic              = &FormatError{Kind: BadMagic, Offset: -1}
	ErrBadVersion            = &FormatError{Kind: BadVersion, Offset: -1}
	ErrUnexpectedTag         = &FormatError{Kind: UnexpectedTag, Offset: -1}
	ErrUnresolvedHandle      = &FormatError{Kind: UnresolvedHandle, Offset: -1}
	ErrUnsupportedClassShape = &FormatError{Kind: UnsupportedClassShape, Offset: -1}
	ErrDuplicateKey          = &FormatError{Kind: DuplicateKey, Offset: -1}
	ErrFieldTypeMismatch     = &FormatError{Kind: FieldTypeMismatch, Offset: -1}
	ErrTrailingData          = &FormatError{Kind: TrailingData, Offset: -1}
)
