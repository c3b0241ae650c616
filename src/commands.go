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
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/errwrap"
	log "github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/snowplow/bwn-patcher/container"
	"github.com/snowplow/bwn-patcher/graph"
	"github.com/snowplow/bwn-patcher/patch"
	"github.com/snowplow/bwn-patcher/script"
	"github.com/snowplow/bwn-patcher/stream"
)

type lockError string

func (l lockError) Error() string { return string(l) }

// staleBaseError reports a patch document written against another version of the script
type staleBaseError string

func (s staleBaseError) Error() string { return string(s) }

const (
	appName                = "bwn-patcher"
	appUsage               = "Decode, patch and package automation scripts for the brownie RPA player"
	appCopyright           = "(c) 2016-2026 Snowplow Analytics Ltd"
	cliVersion             = "0.1.0"
	varDelim               = ","
	fInput                 = "input"
	fOutput                = "output"
	fPatch                 = "patch"
	fAssets                = "assets"
	fVars                  = "vars"
	fLogLevel              = "log-level"
	fConfig                = "config"
	fLock                  = "lock"
	fConsul                = "consul"
	fSentryDSN             = "sentry-dsn"
	lockFileExistsExitCode = 17
	formatExitCode         = 3
	validityExitCode       = 4
	archiveExitCode        = 5
	otherExitCode          = 1
)

// env is what every command needs once the global flags are resolved
type env struct {
	conf     *Config
	storage  *Storage
	reporter *Reporter
	runID    string
}

// --- Commands

// decode writes the script held by input as YAML
func decode(e *env, input, output string) error {
	if input == "" {
		return flagToError(fInput)
	}
	s, _, err := loadScript(e.storage, input)
	if err != nil {
		return err
	}
	if hasExtras(s) {
		log.Warn("The script holds values the YAML form cannot carry; they are left out")
	}
	out, err := MarshalScriptFile(s)
	if err != nil {
		return err
	}
	return writeOutput(e.storage, output, out)
}

// encode turns a YAML script into a stream
func encode(e *env, input, output string) error {
	if input == "" {
		return flagToError(fInput)
	}
	if output == "" {
		return flagToError(fOutput)
	}
	s, _, err := loadScript(e.storage, input)
	if err != nil {
		return err
	}
	b, err := script.Encode(s)
	if err != nil {
		return err
	}
	return e.storage.Write(output, b)
}

// patchScript applies a patch document. Archives come out as archives, with their
// screenshots carried over.
func patchScript(e *env, input, patchPath, output, vars string) error {
	if input == "" {
		return flagToError(fInput)
	}
	if patchPath == "" {
		return flagToError(fPatch)
	}
	if output == "" {
		return flagToError(fOutput)
	}

	varMap, err := varsToMap(vars)
	if err != nil {
		return err
	}

	s, archive, err := loadScript(e.storage, input)
	if err != nil {
		return err
	}

	pr, err := InitPatchResolver()
	if err != nil {
		return err
	}
	patchRecord, err := pr.ParsePatchRecordFromFile(e.storage, patchPath, varMap)
	if err != nil {
		return errwrap.Wrapf("Couldn't read patch document "+patchPath+": {{err}}", err)
	}
	ops, err := patchRecord.Ops()
	if err != nil {
		return err
	}

	if patchRecord.Base != "" {
		fingerprint, err := script.Fingerprint(s)
		if err != nil {
			return err
		}
		if fingerprint != patchRecord.Base {
			return staleBaseError("Patch document was written for script " + patchRecord.Base +
				", input is " + fingerprint)
		}
	}

	patched, err := patch.Apply(s, ops)
	if err != nil {
		return err
	}
	log.Infof("Applied %d patch operations", len(ops))

	b, err := script.Encode(patched)
	if err != nil {
		return err
	}
	if archive != nil {
		if err := container.CheckAssets(patched, archive.Assets); err != nil {
			return err
		}
		b, err = container.Write(&container.Archive{
			Name:     patched.Project.Name,
			Stream:   b,
			Assets:   archive.Assets,
			Modified: time.Now(),
		})
		if err != nil {
			return err
		}
	}
	return e.storage.Write(output, b)
}

// pack bundles a script with the screenshots it refers to
func pack(e *env, input, assets, output string) error {
	if input == "" {
		return flagToError(fInput)
	}
	if output == "" {
		return flagToError(fOutput)
	}
	s, _, err := loadScript(e.storage, input)
	if err != nil {
		return err
	}

	var bundled []container.Asset
	for _, p := range splitList(assets) {
		data, err := e.storage.Read(p)
		if err != nil {
			return errwrap.Wrapf("Couldn't read asset "+p+": {{err}}", err)
		}
		bundled = append(bundled, container.Asset{Name: path.Base(p), Data: data})
	}

	b, err := container.Pack(s, bundled)
	if err != nil {
		return err
	}
	return e.storage.Write(output, b)
}

// unpack writes the stream of an archive as <name>.bwn and its screenshots under <name>/
func unpack(e *env, input, output string) error {
	if input == "" {
		return flagToError(fInput)
	}
	if output == "" {
		return flagToError(fOutput)
	}
	data, err := e.storage.Read(input)
	if err != nil {
		return err
	}
	a, err := container.Unpack(data)
	if err != nil {
		return err
	}

	if s, _, err := script.Decode(a.Stream); err != nil {
		log.Warnf("Archive stream does not decode: %s", err)
	} else if err := container.CheckAssets(s, a.Assets); err != nil {
		log.Warnf("Archive is incomplete: %s", err)
	}

	if err := e.storage.Write(JoinPath(output, a.Name+container.StreamExt), a.Stream); err != nil {
		return err
	}
	for _, as := range a.Assets {
		if err := e.storage.Write(JoinPath(output, a.Name+"/"+as.Name), as.Data); err != nil {
			return err
		}
	}
	log.Infof("Extracted %s%s and %d screenshots", a.Name, container.StreamExt, len(a.Assets))
	return nil
}

// Summary is what inspect reports about a script
type Summary struct {
	Project       string      `json:"project"`
	TabTitle      string      `json:"tabTitle"`
	Tabs          []string    `json:"tabs"`
	Steps         int         `json:"steps"`
	Variables     int         `json:"variables"`
	Objects       graph.Stats `json:"objects"`
	StreamBytes   int         `json:"streamBytes"`
	Images        []string    `json:"images"`
	MissingImages []string    `json:"missingImages,omitempty"`
	Fingerprint   string      `json:"fingerprint"`
	Warnings      []string    `json:"warnings,omitempty"`
}

// inspect summarises a stream or an archive without changing it
func inspect(e *env, input string) (*Summary, error) {
	if input == "" {
		return nil, flagToError(fInput)
	}
	data, err := e.storage.Read(input)
	if err != nil {
		return nil, err
	}
	return summarize(data)
}

func summarize(data []byte) (*Summary, error) {
	var archive *container.Archive
	if isArchive(data) {
		a, err := container.Unpack(data)
		if err != nil {
			return nil, err
		}
		archive, data = a, a.Stream
	}

	root, err := graph.Decode(data, graph.WithRegistry(script.Registry()))
	if err != nil {
		return nil, err
	}
	s, warnings, err := script.FromGraph(root)
	if err != nil {
		return nil, err
	}
	fingerprint, err := script.Fingerprint(s)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Project:     s.Project.Name,
		TabTitle:    s.TabTitle,
		Tabs:        s.TabTitles(),
		Steps:       len(s.Steps),
		Variables:   len(s.Variables),
		Objects:     graph.CountObjects(root),
		StreamBytes: len(data),
		Images:      s.ImageReferences(),
		Fingerprint: fingerprint,
	}
	for _, w := range warnings {
		summary.Warnings = append(summary.Warnings, w.Error())
	}
	if archive != nil {
		for _, name := range summary.Images {
			if _, ok := archive.Asset(name); !ok {
				summary.MissingImages = append(summary.MissingImages, name)
			}
		}
	}
	return summary, nil
}

// --- Helpers

// flagToError returns a generic error for a missing flag
func flagToError(flag string) error {
	return errors.New("--" + flag + " needs to be specified")
}

// checkLockFlags checks the validity of the lock-related flags
func checkLockFlags(lock, consul string) error {
	if consul != "" && lock == "" {
		return errors.New("--" + fLock + " is needed to make use of --" + fConsul)
	}
	return nil
}

// varsToMap converts the variables argument to a map of
// keys and values
func varsToMap(vars string) (map[string]interface{}, error) {
	if vars == "" {
		return map[string]interface{}{}, nil
	}

	varsArr := strings.Split(vars, varDelim)
	if len(varsArr)%2 != 0 {
		return nil, errors.New("--" + fVars + " must have an even number of keys and values")
	}

	varsMap := make(map[string]interface{})
	for i := 0; i < len(varsArr); i += 2 {
		varsMap[varsArr[i]] = varsArr[i+1]
	}

	return varsMap, nil
}

// splitList splits a comma separated flag value, dropping empty items
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, varDelim) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// exitCodeError turns an error into an exit code aware error
func exitCodeError(err error) error {
	code := exitCode(err)
	if code == lockFileExistsExitCode {
		log.Warn(err.Error())
	} else {
		log.Error(err.Error())
	}
	return cli.NewExitError(err.Error(), code)
}

// exitCode picks the exit code matching the kind of err
func exitCode(err error) int {
	var (
		held     LockHeldError
		locked   lockError
		format   *stream.FormatError
		mapping  *script.MappingError
		validity *script.ValidityError
		stale    staleBaseError
		asset    *container.AssetError
		layout   *container.LayoutError
	)
	switch {
	case findError(err, &held), findError(err, &locked):
		return lockFileExistsExitCode
	case findError(err, &format), findError(err, &mapping):
		return formatExitCode
	case findError(err, &validity), findError(err, &stale):
		return validityExitCode
	case findError(err, &asset), findError(err, &layout):
		return archiveExitCode
	}
	return otherExitCode
}

// findError looks for an error of the target's type both through errwrap wrapping and
// through Unwrap chains
func findError(err error, target interface{}) bool {
	found := false
	errwrap.Walk(err, func(e error) {
		if !found && errors.As(e, target) {
			found = true
		}
	})
	return found
}

// getLogLevelKeys builds an array of the available log levels
func getLogLevelKeys(logLevels map[string]log.Level) []string {
	keys := make([]string, 0, len(logLevels))
	for k := range logLevels {
		keys = append(keys, k)
	}
	return keys
}

// fail reports err and turns it into an exit code aware error
func (e *env) fail(command string, err error) error {
	e.reporter.Report(command, err)
	return exitCodeError(err)
}

// withLock runs f while holding the lock named by the --lock flag, if any
func (e *env) withLock(c *cli.Context, f func() error) error {
	lockPath := c.String(fLock)
	consul := c.String(fConsul)
	if consul == "" {
		consul = e.conf.Consul
	}
	if err := checkLockFlags(lockPath, c.String(fConsul)); err != nil {
		return err
	}

	lock, err := initLock(lockPath, consul, e.runID)
	if err != nil {
		if _, held := err.(LockHeldError); held {
			return err
		}
		return lockError(err.Error())
	}
	if lock != nil {
		defer func() {
			if err := lock.Unlock(); err != nil {
				log.Warnf("Couldn't release the lock at %s: %s", lockPath, err)
			}
		}()
	}
	return f()
}

// initLock tries to init a lock
func initLock(lockPath, consul, runID string) (Lock, error) {
	var lock Lock
	var err error
	if lockPath != "" {
		lock, err = GetLock(lockPath, consul, runID)
		if err != nil {
			return nil, err
		}
		err = lock.TryLock()
		if err != nil {
			return nil, err
		}
	}
	return lock, nil
}

// loadScript reads a script from a .bwnp archive, a .bwn stream or a YAML file, telling
// them apart by content. The archive is returned when the input was one.
func loadScript(st *Storage, input string) (*script.Script, *container.Archive, error) {
	data, err := st.Read(input)
	if err != nil {
		return nil, nil, err
	}

	var archive *container.Archive
	if isArchive(data) {
		archive, err = container.Unpack(data)
		if err != nil {
			return nil, nil, err
		}
		data = archive.Stream
	}

	if isStream(data) {
		s, warnings, err := script.Decode(data)
		if err != nil {
			return nil, nil, err
		}
		for _, w := range warnings {
			log.Warnf("%s: %s", input, w)
		}
		return s, archive, nil
	}

	s, err := ParseScriptFile(data)
	if err != nil {
		return nil, nil, errwrap.Wrapf("Couldn't parse script "+input+": {{err}}", err)
	}
	if err := script.Validate(s); err != nil {
		return nil, nil, err
	}
	return s, nil, nil
}

func isArchive(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func isStream(data []byte) bool {
	return len(data) >= 2 && uint16(data[0])<<8|uint16(data[1]) == stream.StreamMagic
}

// writeOutput writes to output, or to stdout when no output is given
func writeOutput(st *Storage, output string, data []byte) error {
	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return st.Write(output, data)
}
