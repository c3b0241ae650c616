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

import "sort"

// FlowRole is the part a command plays in control-flow nesting
type FlowRole int

const (
	Plain FlowRole = iota
	Opener
	Intermediate
	Closer
)

// Command describes one entry of the command vocabulary
type Command struct {
	Name    string
	Class   string
	Options []string
	Role    FlowRole
	// Pair is the closing command of an opener, or the opener an intermediate or
	// closer belongs to
	Pair string
	// ImageOption names the option holding an asset reference
	ImageOption string
}

// AllowsOption reports whether key is a valid option of the command
func (c Command) AllowsOption(key string) bool {
	for _, k := range c.Options {
		if k == key {
			return true
		}
	}
	return false
}

const (
	commandPkg = "com.asirrera.brownie.ide.command."
	webPkg     = "com.asirrera.brownie.ide.web.command."
)

var selector = []string{"selector", "selector_type"}

func with(base []string, keys ...string) []string {
	return append(append([]string(nil), base...), keys...)
}

var commands = []Command{
	// browser
	{Name: "open_chrome", Class: webPkg + "openChrome.OpenChrome", Options: []string{"url", "profile", "headless"}},
	{Name: "click", Class: webPkg + "click.Click", Options: with(selector, "click_type", "wait_timeout")},
	{Name: "input_text", Class: webPkg + "inputText.InputText", Options: with(selector, "text", "clear_first")},
	{Name: "input_password", Class: webPkg + "inputPassword.InputPassword", Options: with(selector, "password")},
	{Name: "input_calendar", Class: webPkg + "inputCalendar.InputCalendar", Options: with(selector, "date", "format")},
	{Name: "select", Class: webPkg + "select.Select", Options: with(selector, "value", "by")},
	{Name: "get_text", Class: webPkg + "getText.GetText", Options: with(selector, "variable")},
	{Name: "get_attribute", Class: webPkg + "getAttribute.GetAttribute", Options: with(selector, "attribute", "variable")},
	{Name: "execute_script", Class: webPkg + "executeScript.ExecuteScript", Options: []string{"script", "variable"}},
	{Name: "navigate_back", Class: webPkg + "navigateBack.NavigateBack"},
	{Name: "close_tab", Class: webPkg + "closeTab.CloseTab", Options: []string{"type"}},
	{Name: "check", Class: webPkg + "check.Check", Options: with(selector, "checked")},

	// control flow
	{Name: "if", Class: commandPkg + "evaluate.EvaluateBranchStart", Options: []string{"condition", "operator"}, Role: Opener, Pair: "end_if"},
	{Name: "else_if", Class: commandPkg + "evaluate.EvaluateElseIf", Options: []string{"condition", "operator"}, Role: Intermediate, Pair: "if"},
	{Name: "else", Class: commandPkg + "evaluate.EvaluateElse", Role: Intermediate, Pair: "if"},
	{Name: "end_if", Class: commandPkg + "evaluate.EvaluateBranchEnd", Role: Closer, Pair: "if"},
	{Name: "while", Class: commandPkg + "evaluate.EvaluateWhileStart", Options: []string{"condition", "operator", "max_iterations"}, Role: Opener, Pair: "end_while"},
	{Name: "end_while", Class: commandPkg + "evaluate.EvaluateWhileEnd", Role: Closer, Pair: "while"},
	{Name: "loop", Class: commandPkg + "OpenLoop", Options: []string{"count", "variable"}, Role: Opener, Pair: "end_loop"},
	{Name: "end_loop", Class: commandPkg + "CloseFlow", Role: Closer, Pair: "loop"},
	{Name: "break", Class: commandPkg + "Break"},
	{Name: "try", Class: commandPkg + "Try", Role: Opener, Pair: "end_try"},
	{Name: "catch", Class: commandPkg + "Catch", Options: []string{"error_variable"}, Role: Intermediate, Pair: "try"},
	{Name: "end_try", Class: commandPkg + "EndTry", Role: Closer, Pair: "try"},

	// windows and input
	{Name: "switch_window", Class: commandPkg + "SwitchWindow", Options: []string{"title", "match_type"}},
	{Name: "go_to_tab", Class: commandPkg + "GoToTab", Options: []string{"index"}},
	{Name: "send_keys", Class: commandPkg + "SendKeys", Options: []string{"keys"}},
	{Name: "paste", Class: commandPkg + "Paste", Options: []string{"text"}},
	{Name: "type", Class: commandPkg + "Type", Options: []string{"text", "delay"}},

	// other
	{Name: "find", Class: commandPkg + "Find", Options: []string{"image", "similarity", "timeout", "click_type"}, ImageOption: "image"},
	{Name: "wait_for_screen_calms", Class: commandPkg + "WaitForScreenCalms", Options: []string{"timeout"}},
	{Name: "comment", Class: commandPkg + "Comment", Options: []string{"text"}},
	{Name: "script_exit", Class: commandPkg + "ScriptExit", Options: []string{"status", "message"}},
	{Name: "send_mail", Class: commandPkg + "SendMailV2", Options: []string{"to", "subject", "body", "attachments"}},
	{Name: "screen_record_start", Class: commandPkg + "screen.record.ScreenRecordStart", Options: []string{"path"}},
	{Name: "screen_record_end", Class: commandPkg + "screen.record.ScreenRecordEnd"},
}

var commandsByName, commandsByClass = indexCommands()

func indexCommands() (map[string]Command, map[string]Command) {
	byName := make(map[string]Command, len(commands))
	byClass := make(map[string]Command, len(commands))
	for _, c := range commands {
		byName[c.Name] = c
		byClass[c.Class] = c
	}
	return byName, byClass
}

// LookupCommand returns the vocabulary entry of a command name
func LookupCommand(name string) (Command, bool) {
	c, ok := commandsByName[name]
	return c, ok
}

// CommandForClass returns the vocabulary entry whose record class is class
func CommandForClass(class string) (Command, bool) {
	c, ok := commandsByClass[class]
	return c, ok
}

// CommandNames returns every command name, sorted
func CommandNames() []string {
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}
