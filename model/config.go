// Copyright 2026 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package model

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RunConfig is the resolved configuration of a simulated controller fleet.
type RunConfig struct {
	Count              int64
	ServerURL          string
	Tenant             string
	ControllerIDPrefix string
	TargetToken        string
	GatewayToken       string
	GatewayTokenFile   string
	Attributes         []string
	StartTime          time.Duration
	PollInterval       time.Duration
	DefaultSleep       time.Duration
	DeploymentTime     time.Duration
	DownloadDir        string
	ConfirmMode        string
	MetricsListen      string
	InsecureSkipVerify bool
}

// FileConfig is the YAML form of RunConfig. Durations are seconds, the
// same unit the corresponding flags take.
type FileConfig struct {
	Count              int64    `yaml:"count"`
	ServerURL          string   `yaml:"server-url"`
	Tenant             string   `yaml:"tenant"`
	ControllerIDPrefix string   `yaml:"controller-id-prefix"`
	TargetToken        string   `yaml:"target-token"`
	GatewayToken       string   `yaml:"gateway-token"`
	GatewayTokenFile   string   `yaml:"gateway-token-file"`
	Attributes         []string `yaml:"attribute"`
	StartTime          int64    `yaml:"start-time"`
	PollInterval       int64    `yaml:"poll-interval"`
	DefaultSleep       int64    `yaml:"default-sleep"`
	DeploymentTime     int64    `yaml:"deployment-time"`
	DownloadDir        string   `yaml:"download-dir"`
	ConfirmMode        string   `yaml:"confirm-mode"`
	MetricsListen      string   `yaml:"metrics-listen"`
	InsecureSkipVerify bool     `yaml:"insecure-skip-verify"`
}

// LoadFileConfig reads and parses a YAML configuration file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	fileConfig := &FileConfig{}
	if err := yaml.Unmarshal(data, fileConfig); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	return fileConfig, nil
}

// Apply copies the file values into config. A value only applies when it
// is set in the file and its flag was not given on the command line, so
// precedence is flag, then file, then flag default.
func (f *FileConfig) Apply(config *RunConfig, flagSet func(name string) bool) {
	if f.Count != 0 && !flagSet("count") {
		config.Count = f.Count
	}
	if f.ServerURL != "" && !flagSet("server-url") {
		config.ServerURL = f.ServerURL
	}
	if f.Tenant != "" && !flagSet("tenant") {
		config.Tenant = f.Tenant
	}
	if f.ControllerIDPrefix != "" && !flagSet("controller-id-prefix") {
		config.ControllerIDPrefix = f.ControllerIDPrefix
	}
	if f.TargetToken != "" && !flagSet("target-token") {
		config.TargetToken = f.TargetToken
	}
	if f.GatewayToken != "" && !flagSet("gateway-token") {
		config.GatewayToken = f.GatewayToken
	}
	if f.GatewayTokenFile != "" && !flagSet("gateway-token-file") {
		config.GatewayTokenFile = f.GatewayTokenFile
	}
	if len(f.Attributes) > 0 && !flagSet("attribute") {
		config.Attributes = f.Attributes
	}
	if f.StartTime != 0 && !flagSet("start-time") {
		config.StartTime = time.Duration(f.StartTime) * time.Second
	}
	if f.PollInterval != 0 && !flagSet("poll-interval") {
		config.PollInterval = time.Duration(f.PollInterval) * time.Second
	}
	if f.DefaultSleep != 0 && !flagSet("default-sleep") {
		config.DefaultSleep = time.Duration(f.DefaultSleep) * time.Second
	}
	if f.DeploymentTime != 0 && !flagSet("deployment-time") {
		config.DeploymentTime = time.Duration(f.DeploymentTime) * time.Second
	}
	if f.DownloadDir != "" && !flagSet("download-dir") {
		config.DownloadDir = f.DownloadDir
	}
	if f.ConfirmMode != "" && !flagSet("confirm-mode") {
		config.ConfirmMode = f.ConfirmMode
	}
	if f.MetricsListen != "" && !flagSet("metrics-listen") {
		config.MetricsListen = f.MetricsListen
	}
	if f.InsecureSkipVerify && !flagSet("insecure-skip-verify") {
		config.InsecureSkipVerify = true
	}
}
