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

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livekit/agent-bootstrap/pkg/bootstrap"
	"github.com/livekit/agent-bootstrap/pkg/config"
)

const pipListAllMet = `[
	{"name": "livekit-agents", "version": "1.2.6"},
	{"name": "livekit-plugins-groq", "version": "1.2.6"},
	{"name": "livekit-plugins-elevenlabs", "version": "1.2.6"},
	{"name": "livekit-plugins-silero", "version": "1.2.6"},
	{"name": "Flask", "version": "3.0.3"},
	{"name": "aiohttp", "version": "3.9.5"},
	{"name": "PyJWT", "version": "2.8.0"},
	{"name": "python-dotenv", "version": "1.0.1"},
	{"name": "requests", "version": "2.32.3"}
]`

const completeCredentials = `LIVEKIT_URL=wss://agents.livekit.cloud
LIVEKIT_API_KEY=APIabcdef123
LIVEKIT_API_SECRET=supersecretvalue
SIP_TRUNK_ID=ST_abc123
GROQ_API_KEY=gsk_0123456789
ELEVEN_API_KEY=el_0123456789
`

func writeProject(t *testing.T, credentials string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, bootstrap.DefaultEnvDir, "bin"), 0755))
	if credentials != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.CredentialsFile), []byte(credentials), 0600))
	}
	return dir
}

func TestCheckReady(t *testing.T) {
	dir := writeProject(t, completeCredentials)
	exe := &fakeExecutor{output: []byte(pipListAllMet)}
	useExecutor(t, exe)

	out, err := runApp(t, "--dir", dir, "check")
	require.NoError(t, err)
	require.Contains(t, out, "LIVEKIT_URL = wss://agents.livekit.cloud")
	require.Contains(t, out, "LIVEKIT_API_SECRET = supe********")
	require.NotContains(t, out, "supersecretvalue")
	require.Contains(t, out, "TWILIO_PHONE_NUMBER optional, not set")
	require.Contains(t, out, "flask>=2.3.0 (3.0.3)")
	require.Contains(t, out, "Everything looks good")
	require.NotContains(t, out, "trunks --select")
	require.Equal(t, 1, exe.count("pip list --format=json"))
}

func TestCheckTemplate(t *testing.T) {
	dir := writeProject(t, config.CredentialsTemplate())
	useExecutor(t, &fakeExecutor{output: []byte(pipListAllMet)})

	out, err := runApp(t, "--dir", dir, "check")
	require.ErrorIs(t, err, errCheckFailed)
	require.Contains(t, out, "LIVEKIT_API_KEY still holds the placeholder")
	require.Contains(t, out, "lk-bootstrap trunks --select")
}

func TestCheckUnmetRequirements(t *testing.T) {
	dir := writeProject(t, completeCredentials)
	useExecutor(t, &fakeExecutor{output: []byte(`[{"name": "livekit-agents", "version": "0.12.3"}]`)})

	out, err := runApp(t, "--dir", dir, "check")
	require.ErrorIs(t, err, errCheckFailed)
	require.Contains(t, out, "livekit-agents>=1.0.0: found 0.12.3")
	require.Contains(t, out, "requests>=2.31.0: not installed")
}

func TestCheckEmptyProject(t *testing.T) {
	exe := &fakeExecutor{}
	useExecutor(t, exe)

	out, err := runApp(t, "--dir", t.TempDir(), "check")
	require.ErrorIs(t, err, errCheckFailed)
	require.Contains(t, out, ".env not found")
	require.Contains(t, out, "virtual environment not found")
	require.Zero(t, exe.count("pip"))
}

func TestCheckInstallerFailure(t *testing.T) {
	dir := writeProject(t, completeCredentials)
	useExecutor(t, &fakeExecutor{fail: map[string]error{
		"pip list": errors.New("exit status 1"),
	}})

	out, err := runApp(t, "--dir", dir, "check")
	require.ErrorContains(t, err, "could not list installed packages")
	require.NotErrorIs(t, err, errCheckFailed)
	require.NotContains(t, out, "Everything looks good")
}

func TestCheckUnreadableCredentialsCancelsPackageList(t *testing.T) {
	dir := writeProject(t, "")
	// a directory in place of the file fails to read
	require.NoError(t, os.Mkdir(filepath.Join(dir, config.CredentialsFile), 0755))

	exe := &fakeExecutor{block: true}
	useExecutor(t, exe)

	_, err := runApp(t, "--dir", dir, "check")
	require.ErrorContains(t, err, "could not read .env")
	require.NotErrorIs(t, err, context.Canceled)
	require.NotContains(t, err.Error(), "never cancelled")
	require.Equal(t, 1, exe.count("pip list"))
}
