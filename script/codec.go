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

package script

import (
	"github.com/snowplow/bwn-patcher/graph"
)

// Decode reads a .bwn stream into a script, returning broken invariants as warnings
func Decode(data []byte) (*Script, []*ValidityError, error) {
	root, err := graph.Decode(data, graph.WithRegistry(Registry()))
	if err != nil {
		return nil, nil, err
	}
	return FromGraph(root)
}

// Encode writes s as a .bwn stream
func Encode(s *Script) ([]byte, error) {
	root, err := ToGraph(s)
	if err != nil {
		return nil, err
	}
	return graph.Encode(root)
}
