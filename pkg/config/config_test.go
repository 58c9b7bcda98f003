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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCLIConfig = `default_project: staging
device_name: laptop
projects:
  - name: production
    project_id: p_prod
    url: wss://prod-abc123.livekit.cloud
    api_key: APIprod
    api_secret: prodsecret
  - name: staging
    url: wss://staging-def456.livekit.cloud
    api_key: APIstaging
    api_secret: stagingsecret
`

func TestLoadCLIConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCLIConfig), 0600))

	c, err := loadCLIConfigFrom(path)
	require.NoError(t, err)
	require.Len(t, c.Projects, 2)

	dp, err := c.Default()
	require.NoError(t, err)
	require.Equal(t, "staging", dp.Name)
	require.Equal(t, "APIstaging", dp.APIKey)

	p, err := c.BySubdomain("prod-abc123")
	require.NoError(t, err)
	require.Equal(t, "production", p.Name)

	_, err = c.BySubdomain("nope")
	require.ErrorIs(t, err, ErrProjectNotFound)
	_, err = c.BySubdomain("")
	require.Error(t, err)
}

func TestLoadCLIConfigMissing(t *testing.T) {
	c, err := loadCLIConfigFrom(filepath.Join(t.TempDir(), "cli-config.yaml"))
	require.NoError(t, err)
	require.Empty(t, c.Projects)

	_, err = c.Default()
	require.ErrorIs(t, err, ErrNoDefaultProject)
}

func TestLoadCLIConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projects: {"), 0600))

	_, err := loadCLIConfigFrom(path)
	require.Error(t, err)
}

func TestLoadTOMLFile(t *testing.T) {
	dir := t.TempDir()

	c, err := LoadTOMLFile(dir, LiveKitTOMLFile)
	require.NoError(t, err)
	require.Nil(t, c)

	require.NoError(t, os.WriteFile(filepath.Join(dir, LiveKitTOMLFile), []byte("[project]\nsubdomain = \"prod-abc123\"\n\n[agent]\nid = \"CA_123\"\n"), 0644))
	c, err = LoadTOMLFile(dir, LiveKitTOMLFile)
	require.NoError(t, err)
	require.Equal(t, "prod-abc123", c.Project.Subdomain)

	require.NoError(t, os.WriteFile(filepath.Join(dir, LiveKitTOMLFile), []byte("[agent]\nid = \"CA_123\"\n"), 0644))
	_, err = LoadTOMLFile(dir, LiveKitTOMLFile)
	require.ErrorIs(t, err, ErrInvalidConfig)

	require.NoError(t, os.WriteFile(filepath.Join(dir, LiveKitTOMLFile), []byte("[project"), 0644))
	_, err = LoadTOMLFile(dir, LiveKitTOMLFile)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
