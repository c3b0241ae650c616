//
// Copyright (c) 2016-2017 Snowplow Analytics Ltd. All rights reserved.
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
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/errwrap"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow/bwn-patcher/container"
	"github.com/snowplow/bwn-patcher/script"
	"github.com/snowplow/bwn-patcher/stream"
)

var imageScriptYAML = `project:
  name: 画像 検索
steps:
  - command: find
    options:
      image: bwn-1.png
      similarity: "0.9"
  - command: click
    options:
      selector: "#ok"
`

var stalePatchRecord = `{
  "schema": "iglu:com.snowplowanalytics.bwnpatcher/PatchConfig/avro/1-0-0",
  "data": {
    "base": "0000",
    "operations": [{"op": "set_tab_title", "value": "main"}]
  }
}`

func testEnv(t *testing.T) (*env, string) {
	dir, err := ioutil.TempDir("", "bwn-patcher")
	if err != nil {
		t.Fatal(err)
	}
	return &env{conf: defaultConfig(), storage: &Storage{}, runID: "test-run"}, dir
}

func writeTestFile(t *testing.T, path string, data string) {
	if err := ioutil.WriteFile(path, []byte(data), 0664); err != nil {
		t.Fatal(err)
	}
}

func TestVarsToMap(t *testing.T) {
	assert := assert.New(t)

	vars, err := varsToMap("")
	assert.Nil(err)
	assert.Equal(map[string]interface{}{}, vars)

	vars, err = varsToMap("selector,#login,user,alice")
	assert.Nil(err)
	assert.Equal(map[string]interface{}{"selector": "#login", "user": "alice"}, vars)

	vars, err = varsToMap("selector")
	assert.Nil(vars)
	assert.NotNil(err)
	assert.Equal("--vars must have an even number of keys and values", err.Error())
}

func TestSplitList(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(splitList(""))
	assert.Equal([]string{"a/bwn-1.png", "bwn-2.png"}, splitList("a/bwn-1.png, bwn-2.png,"))
}

func TestCheckLockFlags(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(checkLockFlags("", ""))
	assert.Nil(checkLockFlags("locks/login", ""))
	assert.Nil(checkLockFlags("locks/login", "localhost:8500"))

	err := checkLockFlags("", "localhost:8500")
	assert.NotNil(err)
	assert.Equal("--lock is needed to make use of --consul", err.Error())
}

func TestExitCode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(lockFileExistsExitCode, exitCode(LockHeldError("Lock currently held at x")))
	assert.Equal(lockFileExistsExitCode, exitCode(lockError("no consul")))
	assert.Equal(formatExitCode, exitCode(&stream.FormatError{Kind: stream.BadMagic, Offset: 0}))
	assert.Equal(formatExitCode, exitCode(&script.MappingError{Path: "$", Reason: "root is ArrayList, expected a map"}))
	assert.Equal(validityExitCode, exitCode(&script.ValidityError{Kind: script.UnknownStepID, StepID: 9}))
	assert.Equal(validityExitCode, exitCode(staleBaseError("stale")))
	assert.Equal(archiveExitCode, exitCode(&container.AssetError{Kind: container.MissingAsset, Name: "bwn-1.png"}))
	assert.Equal(archiveExitCode, exitCode(&container.LayoutError{Reason: "no .bwn entry"}))
	assert.Equal(otherExitCode, exitCode(errors.New("boom")))

	wrapped := errwrap.Wrapf("Couldn't read patch document p.json: {{err}}", &script.ValidityError{Kind: script.UnknownVariable, Name: "X"})
	assert.Equal(validityExitCode, exitCode(wrapped))
}

func TestContentDetection(t *testing.T) {
	assert := assert.New(t)

	assert.True(isArchive([]byte("PK\x03\x04rest")))
	assert.False(isArchive([]byte("project:")))
	assert.True(isStream([]byte{0xAC, 0xED, 0x00, 0x05}))
	assert.False(isStream([]byte{0xAC}))
	assert.False(isStream([]byte("PK\x03\x04")))
}

func TestEncodeAndPatch(t *testing.T) {
	assert := assert.New(t)

	e, dir := testEnv(t)
	defer os.RemoveAll(dir)
	os.Setenv("BWN_TEST_USER", "bob@example.com")
	defer os.Unsetenv("BWN_TEST_USER")

	yml := filepath.Join(dir, "login.yml")
	bwn := filepath.Join(dir, "login.bwn")
	writeTestFile(t, yml, LoginScriptYAML)
	assert.Nil(encode(e, yml, bwn))

	summary, err := inspect(e, bwn)
	assert.Nil(err)
	assert.Equal("ログイン", summary.Project)
	assert.Equal(script.DefaultTabTitle, summary.TabTitle)
	assert.Equal([]string{script.DefaultTabTitle}, summary.Tabs)
	assert.Equal(2, summary.Steps)
	assert.Equal(1, summary.Variables)
	assert.True(summary.Objects.Records >= 2)
	assert.Equal(64, len(summary.Fingerprint))
	assert.Empty(summary.Warnings)

	patchPath := filepath.Join(dir, "patch.json")
	writeTestFile(t, patchPath, PatchRecord1)
	out := filepath.Join(dir, "out", "login.bwn")
	assert.Nil(patchScript(e, bwn, patchPath, out, "selector,#login"))

	patched, _, err := loadScript(e.storage, out)
	assert.Nil(err)
	assert.Equal([]int{1, 2, 3}, patched.StepIDs())
	assert.True(strings.HasPrefix(patched.Project.Name, "login-"))
	assert.Equal("bob@example.com", patched.Variables[0].Default)
	selector, _ := patched.Steps[1].Options.Get("selector")
	assert.Equal("#login", selector)

	stalePath := filepath.Join(dir, "stale.json")
	writeTestFile(t, stalePath, stalePatchRecord)
	err = patchScript(e, bwn, stalePath, out, "")
	assert.NotNil(err)
	assert.Equal(validityExitCode, exitCode(err))

	err = patchScript(e, bwn, "", out, "")
	assert.NotNil(err)
	assert.Equal("--patch needs to be specified", err.Error())
}

func TestPackAndUnpack(t *testing.T) {
	assert := assert.New(t)

	e, dir := testEnv(t)
	defer os.RemoveAll(dir)

	yml := filepath.Join(dir, "images.yml")
	writeTestFile(t, yml, imageScriptYAML)
	asset := filepath.Join(dir, "shots", "bwn-1.png")
	assert.Nil(os.MkdirAll(filepath.Dir(asset), 0775))
	writeTestFile(t, asset, "\x89PNG")

	archive := filepath.Join(dir, "images.bwnp")
	err := pack(e, yml, "", archive)
	assert.NotNil(err)
	assert.Equal(archiveExitCode, exitCode(err))

	assert.Nil(pack(e, yml, asset, archive))

	summary, err := inspect(e, archive)
	assert.Nil(err)
	assert.Equal([]string{"bwn-1.png"}, summary.Images)
	assert.Empty(summary.MissingImages)

	s, a, err := loadScript(e.storage, archive)
	assert.Nil(err)
	assert.NotNil(a)
	assert.Equal("画像 検索", s.Project.Name)

	outDir := filepath.Join(dir, "unpacked")
	assert.Nil(unpack(e, archive, outDir))

	data, err := ioutil.ReadFile(filepath.Join(outDir, "画像 検索", "bwn-1.png"))
	assert.Nil(err)
	assert.Equal("\x89PNG", string(data))

	data, err = ioutil.ReadFile(filepath.Join(outDir, "画像 検索.bwn"))
	assert.Nil(err)
	assert.Equal(a.Stream, data)

	// screenshots that are not slot named take the slot of their position
	named := filepath.Join(dir, "named.yml")
	writeTestFile(t, named, strings.Replace(imageScriptYAML, "bwn-1.png", "login.png", -1))
	shot := filepath.Join(dir, "shots", "login.png")
	writeTestFile(t, shot, "\x89PNG")
	assert.Nil(pack(e, named, shot, archive))

	summary, err = inspect(e, archive)
	assert.Nil(err)
	assert.Equal([]string{"bwn-1.png"}, summary.Images)
	assert.Empty(summary.MissingImages)
}

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	e, dir := testEnv(t)
	defer os.RemoveAll(dir)

	yml := filepath.Join(dir, "login.yml")
	bwn := filepath.Join(dir, "login.bwn")
	writeTestFile(t, yml, LoginScriptYAML)
	assert.Nil(encode(e, yml, bwn))

	out := filepath.Join(dir, "decoded.yml")
	assert.Nil(decode(e, bwn, out))

	original, _, err := loadScript(e.storage, yml)
	assert.Nil(err)
	decoded, _, err := loadScript(e.storage, out)
	assert.Nil(err)
	assert.Equal(original, decoded)

	bad := filepath.Join(dir, "bad.bwn")
	writeTestFile(t, bad, "\xAC\xED\x00\x04")
	err = decode(e, bad, out)
	assert.NotNil(err)
	assert.Equal(formatExitCode, exitCode(err))
}
