// Copyright 2025 LiveKit, Inc.
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
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/livekit/protocol/logger"
)

const (
	LiveKitTOMLFile = "livekit.toml"
)

var ErrInvalidConfig = errors.New("invalid configuration file")

type LiveKitTOML struct {
	Project *LiveKitTOMLProjectConfig `toml:"project"`
}

type LiveKitTOMLProjectConfig struct {
	Subdomain string `toml:"subdomain"`
}

// LoadTOMLFile reads the project pointer written by `lk app create` or
// `lk agent create`. It returns nil without error if the file does not exist.
func LoadTOMLFile(dir string, tomlFileName string) (*LiveKitTOML, error) {
	tomlFile := filepath.Join(dir, tomlFileName)
	logger.Debugw("loading project file", "path", tomlFile)

	var c LiveKitTOML
	if _, err := toml.DecodeFile(tomlFile, &c); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, tomlFileName, err)
	}
	if c.Project == nil || c.Project.Subdomain == "" {
		return nil, fmt.Errorf("%w: %s has no [project] subdomain", ErrInvalidConfig, tomlFileName)
	}
	return &c, nil
}
