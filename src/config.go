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
	"os"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/errwrap"
	"github.com/joho/godotenv"
)

const (
	defaultConfigPath = "bwn-patcher.toml"
	defaultEnvPath    = ".env"
)

// Config holds the settings shared by every command. Values come from the TOML file,
// then the environment (optionally seeded from a .env file), then the command line.
type Config struct {
	LogLevel  string    `toml:"log_level"`
	Consul    string    `toml:"consul"`
	SentryDSN string    `toml:"sentry_dsn"`
	AWS       AWSConfig `toml:"aws"`
	Retry     Retry     `toml:"retry"`
}

// AWSConfig describes how to reach S3. Keys may be "iam" or "env" as well as literal
// credentials.
type AWSConfig struct {
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Region          string `toml:"region"`
}

// Retry tunes the exponential backoff of remote storage calls
type Retry struct {
	Attempts int `toml:"attempts"`
	SleepMs  int `toml:"sleep_ms"`
}

func defaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		AWS: AWSConfig{
			AccessKeyID:     "env",
			SecretAccessKey: "env",
			Region:          "us-east-1",
		},
		Retry: Retry{Attempts: 5, SleepMs: 500},
	}
}

// LoadConfig reads the config file at path. A missing file is only an error when the
// path was given explicitly.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	// a missing .env is fine, the environment may already be set up
	if _, err := os.Stat(defaultEnvPath); err == nil {
		if err := godotenv.Load(defaultEnvPath); err != nil {
			return nil, errwrap.Wrapf("Couldn't load "+defaultEnvPath+": {{err}}", err)
		}
	}

	conf := defaultConfig()
	if _, err := os.Stat(path); err == nil || explicit {
		if _, err := toml.DecodeFile(path, conf); err != nil {
			return nil, errwrap.Wrapf("Couldn't read config "+path+": {{err}}", err)
		}
	}

	conf.LogLevel = getEnvOrDefault("BWN_PATCHER_LOG_LEVEL", conf.LogLevel)
	conf.Consul = getEnvOrDefault("BWN_PATCHER_CONSUL", conf.Consul)
	conf.SentryDSN = getEnvOrDefault("SENTRY_DSN", conf.SentryDSN)
	conf.AWS.Region = getEnvOrDefault("AWS_REGION", conf.AWS.Region)
	return conf, nil
}

// getEnvOrDefault retrieves an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
