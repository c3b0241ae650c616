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

var LoginScriptYAML = `project:
  name: ログイン
  description: login flow
variables:
  - name: USERNAME
    default: user@example.com
steps:
  - command: open_chrome
    comment: open the portal
    options:
      url: https://example.com/login
  - command: input_text
    options:
      text: ${USERNAME}
      selector: "#email"
      selector_type: CSS
`

var PatchRecord1 = `{
  "schema": "iglu:com.snowplowanalytics.bwnpatcher/PatchConfig/avro/1-0-0",
  "data": {
    "base": "",
    "operations": [
      {
        "op": "replace_step_options",
        "id": 2,
        "options": [
          {"key": "selector", "value": "{{ .selector }}"},
          {"key": "selector_type", "value": "CSS"},
          {"key": "text", "value": "${USERNAME}"}
        ]
      },
      {
        "op": "insert_step",
        "afterId": 2,
        "step": {
          "id": 3,
          "command": "click",
          "comment": "submit",
          "options": [{"key": "selector", "value": "#submit"}]
        }
      },
      {
        "op": "set_variable_default",
        "name": "USERNAME",
        "value": "{{systemEnv "BWN_TEST_USER"}}"
      },
      {
        "op": "set_project_name",
        "name": "login-{{nowWithFormat "2006"}}"
      }
    ]
  }
}`

var PatchRecord2 = `{
  "schema": "iglu:com.snowplowanalytics.bwnpatcher/PatchConfig/avro/1-0-0",
  "data": {
    "base": "",
    "operations": [
      {"op": "reorder_steps", "order": [2, 1]},
      {"op": "delete_step", "id": 1},
      {"op": "set_tab_title", "value": "main"}
    ]
  }
}`

var PatchRecord3 = `{
  "schema": "iglu:com.snowplowanalytics.bwnpatcher/PatchConfig/avro/1-0-0",
  "data": {
    "base": "",
    "operations": [
      {"op": "set_tab_title", "name": "retry", "value": "再試行"},
      {"op": "replace_strings", "replacements": [
        {"old": "https://staging.example.com", "new": "https://example.com"},
        {"old": "#email", "new": "{{ .selector }}"}
      ]},
      {"op": "delete_step", "id": 1}
    ]
  }
}`
