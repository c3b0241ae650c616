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

// Walk calls fn for every node reachable from root, depth first in stream order.
// Shared nodes are visited once. fn returning false skips the children of a node.
func Walk(root Node, fn func(Node) bool) {
	seen := make(map[Node]bool)
	var walk func(n Node)
	walk = func(n Node) {
		if n == nil {
			return
		}
		switch n.(type) {
		case *String, *List, *Map, *Record:
			if seen[n] {
				return
			}
			seen[n] = true
		}
		if !fn(n) {
			return
		}
		switch v := n.(type) {
		case *List:
			for _, e := range v.Elements {
				walk(e)
			}
		case *Map:
			for _, e := range v.Entries {
				walk(e.Key)
				walk(e.Value)
			}
		case *Record:
			for _, l := range v.Levels() {
				for _, f := range l.Fields {
					walk(f.Value)
				}
			}
		}
	}
	walk(root)
}

// Stats counts the distinct objects of a graph
type Stats struct {
	Strings int `json:"strings"`
	Lists   int `json:"lists"`
	Maps    int `json:"maps"`
	Records int `json:"records"`
}

// CountObjects returns the number of distinct objects of each kind reachable from root
func CountObjects(root Node) Stats {
	var s Stats
	Walk(root, func(n Node) bool {
		switch n.(type) {
		case *String:
			s.Strings++
		case *List:
			s.Lists++
		case *Map:
			s.Maps++
		case *Record:
			s.Records++
		}
		return true
	})
	return s
}
