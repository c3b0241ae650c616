//
// Copyright (c) 2016-2026 Snowplow Analytics Ltd. All rights reserved.
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

package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/elodina/go-avro"

	"github.com/snowplow/bwn-patcher/patch"
	"github.com/snowplow/bwn-patcher/script"
)

// PatchSchemaKey is the schema a patch document must declare
const PatchSchemaKey = "iglu:com.snowplowanalytics.bwnpatcher/PatchConfig/avro/1-0-0"

//go:embed avro/patch.avsc
var patchSchemaRaw string

var (
	templFuncs = template.FuncMap{
		"nowWithFormat": func(format string) string {
			return time.Now().Format(format)
		},
		"systemEnv": func(env string) string {
			return os.Getenv(env)
		},
	}
)

type SelfDescribingRecord struct {
	Schema string
	Data   interface{}
}

func (sdr SelfDescribingRecord) GetDataByteArray() []byte {
	return []byte(InterfaceToJSONString(sdr.Data, false))
}

// PatchConfig is the data of a patch document. Base, when set, is the fingerprint of
// the script the operations were written against.
type PatchConfig struct {
	Base       string
	Operations []*OperationRecord
}

// OperationRecord is one operation of a patch document. Which fields matter depends
// on Op.
type OperationRecord struct {
	Op      string
	Id      int64
	AfterId int64
	Step    *StepRecord
	Options []*OptionRecord
	Order   []int64
	Name    string
	Value   string

	Replacements []*ReplacementRecord
}

type StepRecord struct {
	Id      int64
	Command string
	Comment string
	Options []*OptionRecord
}

type OptionRecord struct {
	Key   string
	Value string
}

type ReplacementRecord struct {
	Old string
	New string
}

type PatchResolver struct {
	PatchSchema avro.Schema
}

// InitPatchResolver creates a new PatchResolver instance
func InitPatchResolver() (*PatchResolver, error) {
	patchSchema, err := avro.ParseSchema(patchSchemaRaw)
	if err != nil {
		return nil, err
	}
	return &PatchResolver{PatchSchema: patchSchema}, nil
}

// --- Class

// ParsePatchRecordFromFile reads a patch document through storage and parses it
func (pr PatchResolver) ParsePatchRecordFromFile(st *Storage, path string, variables map[string]interface{}) (*PatchConfig, error) {
	jsonBytes, err := st.Read(path)
	if err != nil {
		return nil, err
	}

	return pr.ParsePatchRecord(jsonBytes, variables)
}

// ParsePatchRecord templates a patch document, then checks its data against the
// patch schema
func (pr PatchResolver) ParsePatchRecord(jsonBytes []byte, variables map[string]interface{}) (*PatchConfig, error) {
	sdr, err := toSelfDescribingRecord(jsonBytes, variables)
	if err != nil {
		return nil, err
	}
	if sdr.Schema != PatchSchemaKey {
		return nil, fmt.Errorf("Unsupported patch schema %q, expected %q", sdr.Schema, PatchSchemaKey)
	}

	// Unmarshall data component to generated type
	dataBytes := sdr.GetDataByteArray()

	recordJson := new(PatchConfig)
	err1 := parseRecordAsJson(dataBytes, recordJson)
	if err1 != nil {
		return nil, err1
	}
	recordJson.fillDefaults()

	// Write and decode record as Avro
	decodedRecord := new(PatchConfig)
	err2 := parseRecordAsAvro(pr.PatchSchema, recordJson, decodedRecord)
	if err2 != nil {
		return nil, err2
	}

	return decodedRecord, nil
}

// fillDefaults gives every nested record a value so the Avro writer has something to
// write for operations that leave them out
func (pc *PatchConfig) fillDefaults() {
	for i, op := range pc.Operations {
		if op == nil {
			op = &OperationRecord{}
			pc.Operations[i] = op
		}
		if op.Step == nil {
			op.Step = &StepRecord{}
		}
	}
}

// Ops converts the operations of the document into patch operations
func (pc PatchConfig) Ops() ([]patch.Op, error) {
	ops := make([]patch.Op, 0, len(pc.Operations))
	for i, o := range pc.Operations {
		var op patch.Op
		switch o.Op {
		case "insert_step":
			if o.Step == nil {
				return nil, fmt.Errorf("operation %d (%s) needs a step", i, o.Op)
			}
			op = patch.InsertStep{AfterID: int(o.AfterId), Step: script.Step{
				ID:      int(o.Step.Id),
				Command: o.Step.Command,
				Comment: o.Step.Comment,
				Options: toOptions(o.Step.Options),
			}}
		case "delete_step":
			op = patch.DeleteStep{ID: int(o.Id)}
		case "replace_step_options":
			op = patch.ReplaceStepOptions{ID: int(o.Id), Options: toOptions(o.Options)}
		case "reorder_steps":
			order := make([]int, len(o.Order))
			for j, id := range o.Order {
				order[j] = int(id)
			}
			op = patch.ReorderSteps{Order: order}
		case "set_variable_default":
			op = patch.SetVariableDefault{Name: o.Name, Value: o.Value}
		case "set_project_name":
			if o.Name == "" {
				return nil, fmt.Errorf("operation %d (%s) needs a name", i, o.Op)
			}
			op = patch.SetProjectName{Name: o.Name}
		case "set_tab_title":
			op = patch.SetTabTitle{Old: o.Name, Title: o.Value}
		case "replace_strings":
			if len(o.Replacements) == 0 {
				return nil, fmt.Errorf("operation %d (%s) needs replacements", i, o.Op)
			}
			for _, r := range o.Replacements {
				ops = append(ops, patch.ReplaceString{Old: r.Old, New: r.New})
			}
			continue
		default:
			return nil, fmt.Errorf("operation %d: unknown patch operation %q", i, o.Op)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func toOptions(records []*OptionRecord) script.Options {
	if len(records) == 0 {
		return nil
	}
	opts := make(script.Options, 0, len(records))
	for _, r := range records {
		opts = append(opts, script.Option{Key: r.Key, Value: r.Value})
	}
	return opts
}

// --- Static

// parseRecordAsJson unmarshalles a byte array to an interface
func parseRecordAsJson(recordBytes []byte, recordJson interface{}) error {
	return json.Unmarshal(recordBytes, &recordJson)
}

// parseRecordAsAvro writes an unmarshalled version of our record to an Avro writer
// and then decodes it to ensure it is valid.
func parseRecordAsAvro(schema avro.Schema, recordJson interface{}, decodedRecord interface{}) error {
	// Write Unmarshalled record using Avro writer
	writer := avro.NewSpecificDatumWriter()
	writer.SetSchema(schema)

	buffer := new(bytes.Buffer)
	encoder := avro.NewBinaryEncoder(buffer)

	if err := writer.Write(recordJson, encoder); err != nil {
		return err
	}

	// Read and decode record using Avro reader
	reader := avro.NewSpecificDatumReader()
	reader.SetSchema(schema)

	decoder := avro.NewBinaryDecoder(buffer.Bytes())

	return reader.Read(decodedRecord, decoder)
}

// toSelfDescribingRecord takes a byte array and returns a SelfDescribingRecord
func toSelfDescribingRecord(jsonBytes []byte, variables map[string]interface{}) (*SelfDescribingRecord, error) {
	templateBytes, err := templateRawBytes(jsonBytes, variables)
	if err != nil {
		return nil, err
	}

	recordJson := new(SelfDescribingRecord)
	err1 := json.Unmarshal(templateBytes, &recordJson)
	if err1 != nil {
		return nil, err1
	}
	if recordJson.Data == nil {
		return nil, errors.New("Patch document has no data")
	}

	return recordJson, nil
}

// templateRawBytes runs the raw document through the golang templater
func templateRawBytes(rawBytes []byte, variables map[string]interface{}) ([]byte, error) {
	t, err := template.New("patch").Funcs(templFuncs).Parse(string(rawBytes))
	if err != nil {
		return nil, err
	}

	var filled bytes.Buffer
	if err := t.Execute(&filled, variables); err != nil {
		return nil, err
	}

	return filled.Bytes(), nil
}
