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
	"errors"
	"unicode/utf16"
	"unicode/utf8"
)

var errMalformed = errors.New("malformed modified UTF-8")

// EncodeModifiedUTF8 encodes s the way the JVM writes string bytes: NUL takes two
// bytes and code points outside the BMP are written as two 3-byte surrogates. s must be
// valid UTF-8.
func EncodeModifiedUTF8(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, errMalformed
	}
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units))
	for _, u := range units {
		switch {
		case u != 0 && u < 0x80:
			out = append(out, byte(u))
		case u < 0x800:
			out = append(out, byte(0xC0|u>>6), byte(0x80|u&0x3F))
		default:
			out = append(out, byte(0xE0|u>>12), byte(0x80|(u>>6)&0x3F), byte(0x80|u&0x3F))
		}
	}
	return out, nil
}

// DecodeModifiedUTF8 is the inverse of EncodeModifiedUTF8. Unpaired surrogates have no
// UTF-8 form and are refused.
func DecodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c>>5 == 0x06:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", errMalformed
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c>>4 == 0x0E:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", errMalformed
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", errMalformed
		}
	}
	for i := 0; i < len(units); i++ {
		switch u := units[i]; {
		case u >= 0xD800 && u < 0xDC00:
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] >= 0xE000 {
				return "", errMalformed
			}
			i++
		case u >= 0xDC00 && u < 0xE000:
			return "", errMalformed
		}
	}
	return string(utf16.Decode(units)), nil
}
