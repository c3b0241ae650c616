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

package main

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hashicorp/errwrap"
	log "github.com/sirupsen/logrus"
)

const sentryFlushTimeout = 2 * time.Second

// Reporter forwards command failures to Sentry when a DSN is configured
type Reporter struct {
	enabled bool
	runID   string
}

// InitReporter sets up the Sentry client. An empty dsn gives a Reporter that does
// nothing.
func InitReporter(dsn, runID string) (*Reporter, error) {
	if dsn == "" {
		return &Reporter{runID: runID}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:     dsn,
		Release: appName + "@" + cliVersion,
	})
	if err != nil {
		return nil, errwrap.Wrapf("Couldn't initialise Sentry: {{err}}", err)
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("run_id", runID)
	})
	return &Reporter{enabled: true, runID: runID}, nil
}

// Report sends err tagged with the failing command and waits for delivery
func (r *Reporter) Report(command string, err error) {
	if r == nil || !r.enabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("command", command)
		sentry.CaptureException(err)
	})
	if !sentry.Flush(sentryFlushTimeout) {
		log.Warn("Timed out sending the error report to Sentry")
	}
}
