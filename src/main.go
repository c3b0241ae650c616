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

//+build !test

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"
)

func main() {
	app := cli.NewApp()

	logLevels := map[string]log.Level{
		"debug":   log.DebugLevel,
		"info":    log.InfoLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"fatal":   log.FatalLevel,
		"panic":   log.PanicLevel,
	}
	logLevelKeys := getLogLevelKeys(logLevels)

	app.Name = appName
	app.Usage = appUsage
	app.Version = cliVersion
	app.Copyright = appCopyright
	app.Compiled = time.Now()
	app.Authors = []cli.Author{
		{
			Name:  "Joshua Beemster",
			Email: "support@snowplowanalytics.com",
		},
	}
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name: fLogLevel,
			Usage: fmt.Sprintf("logging level, possible values are %s",
				strings.Join(logLevelKeys, ",")),
		},
		cli.StringFlag{
			Name:  fConfig,
			Usage: "Path to a TOML config file, " + defaultConfigPath + " is read when present",
		},
		cli.StringFlag{
			Name:  fSentryDSN,
			Usage: "Sentry DSN failures are reported to",
		},
	}

	e := &env{runID: uuid.New().String()}
	app.Before = func(c *cli.Context) error {
		conf, err := LoadConfig(c.String(fConfig))
		if err != nil {
			return cli.NewExitError(err.Error(), otherExitCode)
		}
		if c.IsSet(fLogLevel) {
			conf.LogLevel = c.String(fLogLevel)
		}
		if c.IsSet(fSentryDSN) {
			conf.SentryDSN = c.String(fSentryDSN)
		}

		if !StringInSlice(conf.LogLevel, logLevelKeys) {
			return cli.NewExitError(fmt.Sprintf("Supported log levels are %s, provided %s",
				strings.Join(logLevelKeys, ","), conf.LogLevel), otherExitCode)
		}
		log.SetLevel(logLevels[conf.LogLevel])

		st, err := InitStorage(conf)
		if err != nil {
			return cli.NewExitError(err.Error(), otherExitCode)
		}
		reporter, err := InitReporter(conf.SentryDSN, e.runID)
		if err != nil {
			log.Warn(err.Error())
		}

		e.conf, e.storage, e.reporter = conf, st, reporter
		log.Debugf("Run %s", e.runID)
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:  "decode",
			Usage: "Decodes a .bwn stream or .bwnp archive into a YAML script",
			Flags: []cli.Flag{
				getInputFlag(),
				getOutputFlag(),
			},
			Action: func(c *cli.Context) error {
				err := decode(e, c.String(fInput), c.String(fOutput))
				if err != nil {
					return e.fail("decode", err)
				}
				return nil
			},
		},
		{
			Name:  "encode",
			Usage: "Encodes a YAML script into a .bwn stream",
			Flags: []cli.Flag{
				getInputFlag(),
				getOutputFlag(),
				getLockFlag(),
				getConsulFlag(),
			},
			Action: func(c *cli.Context) error {
				err := e.withLock(c, func() error {
					return encode(e, c.String(fInput), c.String(fOutput))
				})
				if err != nil {
					return e.fail("encode", err)
				}
				log.Info("Script encoded successfully")
				return nil
			},
		},
		{
			Name:  "patch",
			Usage: "Applies a patch document to a .bwn stream or .bwnp archive",
			Flags: []cli.Flag{
				getInputFlag(),
				getPatchFlag(),
				getOutputFlag(),
				getVarsFlag(),
				getLockFlag(),
				getConsulFlag(),
			},
			Action: func(c *cli.Context) error {
				err := e.withLock(c, func() error {
					return patchScript(e, c.String(fInput), c.String(fPatch), c.String(fOutput), c.String(fVars))
				})
				if err != nil {
					return e.fail("patch", err)
				}
				log.Info("Patch applied successfully")
				return nil
			},
		},
		{
			Name:  "pack",
			Usage: "Bundles a script and its screenshots into a .bwnp archive",
			Flags: []cli.Flag{
				getInputFlag(),
				getAssetsFlag(),
				getOutputFlag(),
				getLockFlag(),
				getConsulFlag(),
			},
			Action: func(c *cli.Context) error {
				err := e.withLock(c, func() error {
					return pack(e, c.String(fInput), c.String(fAssets), c.String(fOutput))
				})
				if err != nil {
					return e.fail("pack", err)
				}
				log.Info("Archive packed successfully")
				return nil
			},
		},
		{
			Name:  "unpack",
			Usage: "Extracts the stream and screenshots of a .bwnp archive into a directory",
			Flags: []cli.Flag{
				getInputFlag(),
				getOutputFlag(),
				getLockFlag(),
				getConsulFlag(),
			},
			Action: func(c *cli.Context) error {
				err := e.withLock(c, func() error {
					return unpack(e, c.String(fInput), c.String(fOutput))
				})
				if err != nil {
					return e.fail("unpack", err)
				}
				log.Info("Archive unpacked successfully")
				return nil
			},
		},
		{
			Name:  "inspect",
			Usage: "Prints a JSON summary of a .bwn stream or .bwnp archive",
			Flags: []cli.Flag{
				getInputFlag(),
			},
			Action: func(c *cli.Context) error {
				summary, err := inspect(e, c.String(fInput))
				if err != nil {
					return e.fail("inspect", err)
				}
				fmt.Println(InterfaceToJSONString(summary, true))
				return nil
			},
		},
	}

	app.Run(os.Args)
}

// --- CLI Flags

func getInputFlag() cli.StringFlag {
	return cli.StringFlag{Name: fInput, Usage: "Input path, local or s3://bucket/key"}
}

func getOutputFlag() cli.StringFlag {
	return cli.StringFlag{Name: fOutput, Usage: "Output path, local or s3://bucket/key"}
}

func getPatchFlag() cli.StringFlag {
	return cli.StringFlag{Name: fPatch, Usage: "Patch document path"}
}

func getAssetsFlag() cli.StringFlag {
	return cli.StringFlag{Name: fAssets, Usage: "Comma separated screenshot paths, named <name>-<n>.png"}
}

func getVarsFlag() cli.StringFlag {
	return cli.StringFlag{Name: fVars, Usage: "Variables that will be used by the templater"}
}

func getLockFlag() cli.StringFlag {
	usage := "Path to the lock held while the output is written. This is materialized" +
		" by a file or a KV entry in Consul depending on the --" + fConsul + " flag."
	return cli.StringFlag{
		Name:  fLock,
		Usage: usage,
	}
}

func getConsulFlag() cli.StringFlag {
	return cli.StringFlag{
		Name:  fConsul,
		Usage: "Address of the Consul server used for distributed locking while the output is written",
	}
}
