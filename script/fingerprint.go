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
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/snowplow/bwn-patcher/graph"
)

var fingerprintEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("script: failed to create CBOR enc mode: %v", err))
	}
	fingerprintEncMode = em
}

// The fingerprint views mirror the model with extras replaced by their stream bytes

type extraView struct {
	Key   string `cbor:"k"`
	Value []byte `cbor:"v"`
}

type variableView struct {
	Name    string      `cbor:"name"`
	Type    string      `cbor:"type"`
	Default string      `cbor:"default"`
	Extra   []extraView `cbor:"extra"`
}

type stepView struct {
	ID          int         `cbor:"id"`
	Command     string      `cbor:"command"`
	Comment     string      `cbor:"comment"`
	Options     [][2]string `cbor:"options"`
	ExtraFields []extraView `cbor:"fields"`
	ExtraMeta   []extraView `cbor:"meta"`
}

type scriptView struct {
	Name        string         `cbor:"name"`
	Description string         `cbor:"description"`
	TabTitle    string         `cbor:"tab"`
	Variables   []variableView `cbor:"variables"`
	Steps       []stepView     `cbor:"steps"`
	Extra       []extraView    `cbor:"extra"`
	TabExtra    []extraView    `cbor:"tabExtra"`
	OtherTabs   []tabView      `cbor:"tabs"`
}

type tabView struct {
	Title string      `cbor:"title"`
	Steps []stepView  `cbor:"steps"`
	Extra []extraView `cbor:"extra"`
}

// Fingerprint returns a hex sha256 digest of the content of s. Structurally equal
// models share a fingerprint.
func Fingerprint(s *Script) (string, error) {
	view, err := newScriptView(s)
	if err != nil {
		return "", err
	}
	b, err := fingerprintEncMode.Marshal(view)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func newScriptView(s *Script) (*scriptView, error) {
	v := &scriptView{
		Name:        s.Project.Name,
		Description: s.Project.Description,
		TabTitle:    s.TabTitle,
	}
	var err error
	if v.Extra, err = extrasView(s.Extra); err != nil {
		return nil, err
	}
	if v.TabExtra, err = extrasView(s.TabExtra); err != nil {
		return nil, err
	}
	for _, t := range s.OtherTabs {
		tv := tabView{Title: t.Title}
		if tv.Steps, err = stepsView(t.Steps); err != nil {
			return nil, err
		}
		if tv.Extra, err = extrasView(t.Extra); err != nil {
			return nil, err
		}
		v.OtherTabs = append(v.OtherTabs, tv)
	}
	for _, variable := range s.Variables {
		vv := variableView{Name: variable.Name, Type: string(variable.Type), Default: variable.Default}
		if vv.Extra, err = extrasView(variable.Extra); err != nil {
			return nil, err
		}
		v.Variables = append(v.Variables, vv)
	}
	if v.Steps, err = stepsView(s.Steps); err != nil {
		return nil, err
	}
	return v, nil
}

func stepsView(steps []Step) ([]stepView, error) {
	var views []stepView
	for _, st := range steps {
		sv := stepView{ID: st.ID, Command: st.Command, Comment: st.Comment}
		for _, o := range st.Options {
			sv.Options = append(sv.Options, [2]string{o.Key, o.Value})
		}
		var err error
		if sv.ExtraFields, err = extrasView(st.ExtraFields); err != nil {
			return nil, err
		}
		if sv.ExtraMeta, err = extrasView(st.ExtraMeta); err != nil {
			return nil, err
		}
		views = append(views, sv)
	}
	return views, nil
}

func extrasView(extras Extras) ([]extraView, error) {
	var views []extraView
	for _, x := range extras {
		b, err := encodeExtra(x.Value)
		if err != nil {
			return nil, fmt.Errorf("extra %s: %w", x.Key, err)
		}
		views = append(views, extraView{Key: x.Key, Value: b})
	}
	return views, nil
}

// encodeExtra gives primitive field values, which cannot stand alone in a stream, a
// tagged textual form
func encodeExtra(n graph.Node) ([]byte, error) {
	switch v := n.(type) {
	case graph.Bool, graph.Byte, graph.Char, graph.Short, graph.Int, graph.Long, graph.Float, graph.Double:
		return []byte(fmt.Sprintf("%T:%v", v, v)), nil
	}
	return graph.Encode(n)
}
