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

// Package stream reads and writes the primitives of the JVM object serialization
// protocol: the stream header, tag bytes, big-endian numbers, modified UTF-8 strings
// and the back-reference handle table.
package stream

const (
	StreamMagic   uint16 = 0xACED
	StreamVersion uint16 = 0x0005

	// BaseWireHandle is the first handle assigned in a stream
	BaseWireHandle uint32 = 0x7E0000

	// MaxUTFLength is the largest byte length a length-prefixed string can carry
	MaxUTFLength = 0xFFFF
)

// Tag is a type code byte introducing an element of the stream
type Tag byte

const (
	TCNull           Tag = 0x70
	TCReference      Tag = 0x71
	TCClassDesc      Tag = 0x72
	TCObject         Tag = 0x73
	TCString         Tag = 0x74
	TCArray          Tag = 0x75
	TCClass          Tag = 0x76
	TCBlockData      Tag = 0x77
	TCEndBlockData   Tag = 0x78
	TCReset          Tag = 0x79
	TCBlockDataLong  Tag = 0x7A
	TCException      Tag = 0x7B
	TCLongString     Tag = 0x7C
	TCProxyClassDesc Tag = 0x7D
	TCEnum           Tag = 0x7E
)

var tagNames = map[Tag]string{
	TCNull:           "TC_NULL",
	TCReference:      "TC_REFERENCE",
	TCClassDesc:      "TC_CLASSDESC",
	TCObject:         "TC_OBJECT",
	TCString:         "TC_STRING",
	TCArray:          "TC_ARRAY",
	TCClass:          "TC_CLASS",
	TCBlockData:      "TC_BLOCKDATA",
	TCEndBlockData:   "TC_ENDBLOCKDATA",
	TCReset:          "TC_RESET",
	TCBlockDataLong:  "TC_BLOCKDATALONG",
	TCException:      "TC_EXCEPTION",
	TCLongString:     "TC_LONGSTRING",
	TCProxyClassDesc: "TC_PROXYCLASSDESC",
	TCEnum:           "TC_ENUM",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return "unknown tag"
}

// Class descriptor flag bits
const (
	SCWriteMethod  byte = 0x01
	SCSerializable byte = 0x02
)
