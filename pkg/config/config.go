// Copyright 2022-2025 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/livekit/agent-bootstrap/pkg/util"
)

var (
	ErrNoDefaultProject = errors.New("no default project set")
	ErrProjectNotFound  = errors.New("project not found")
)

// CLIConfig is the subset of the LiveKit CLI's config file that is needed to
// borrow its projects. It is only ever read.
type CLIConfig struct {
	DefaultProject string          `yaml:"default_project"`
	Projects       []ProjectConfig `yaml:"projects"`
}

type ProjectConfig struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// LoadCLIConfig reads ~/.livekit/cli-config.yaml. A missing file yields an
// empty config.
func LoadCLIConfig() (*CLIConfig, error) {
	configPath, err := cliConfigLocation()
	if err != nil {
		return nil, err
	}
	return loadCLIConfigFrom(configPath)
}

func loadCLIConfigFrom(configPath string) (*CLIConfig, error) {
	c := &CLIConfig{}
	content, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return c, nil
	} else if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(content, c); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", configPath, err)
	}
	return c, nil
}

func (c *CLIConfig) Default() (*ProjectConfig, error) {
	if c.DefaultProject != "" {
		for _, p := range c.Projects {
			if p.Name == c.DefaultProject {
				return &p, nil
			}
		}
	}
	return nil, ErrNoDefaultProject
}

func (c *CLIConfig) BySubdomain(subdomain string) (*ProjectConfig, error) {
	if subdomain == "" {
		return nil, errors.New("invalid URL")
	}
	for _, p := range c.Projects {
		if util.ExtractSubdomain(p.URL) == subdomain {
			return &p, nil
		}
	}
	return nil, ErrProjectNotFound
}

func cliConfigLocation() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".livekit", "cli-config.yaml"), nil
}
