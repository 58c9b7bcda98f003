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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livekit/agent-bootstrap/pkg/bootstrap"
)

func TestDevRequiresEnvironment(t *testing.T) {
	exe := &fakeExecutor{}
	useExecutor(t, exe)

	_, err := runApp(t, "--dir", t.TempDir(), "dev")
	require.ErrorIs(t, err, bootstrap.ErrEnvironmentMissing)
	require.Empty(t, exe.calls)
}

func TestDevRunsAgent(t *testing.T) {
	dir := writeProject(t, "")
	exe := &fakeExecutor{}
	useExecutor(t, exe)

	_, err := runApp(t, "--dir", dir, "dev")
	require.NoError(t, err)
	require.Len(t, exe.calls, 1)

	env := bootstrap.NewPythonEnv(dir, bootstrap.DefaultEnvDir)
	require.Equal(t, env.Python()+" "+bootstrap.AgentEntry+" dev", exe.calls[0])
	require.Contains(t, exe.envs[0], "VIRTUAL_ENV="+env.Path())
}

func TestDevPrefersTaskfile(t *testing.T) {
	dir := writeProject(t, "")
	taskfile := "version: '3'\ntasks:\n  dev:\n    cmds:\n      - python agent.py dev\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, bootstrap.TaskFile), []byte(taskfile), 0644))

	exe := &fakeExecutor{}
	useExecutor(t, exe)

	orig := runTask
	t.Cleanup(func() { runTask = orig })
	var ran string
	runTask = func(ctx context.Context, taskDir, name string) error {
		ran = name
		return nil
	}

	// the task inherits the activated environment from the process
	t.Setenv("VIRTUAL_ENV", "")
	t.Setenv("PATH", os.Getenv("PATH"))
	t.Setenv("PYTHONHOME", "/opt/python")

	out, err := runApp(t, "--dir", dir, "dev")
	require.NoError(t, err)
	require.Equal(t, bootstrap.TaskDev, ran)
	require.Contains(t, out, "Running task dev")
	require.Empty(t, exe.calls)

	env := bootstrap.NewPythonEnv(dir, bootstrap.DefaultEnvDir)
	require.Equal(t, env.Path(), os.Getenv("VIRTUAL_ENV"))
	_, set := os.LookupEnv("PYTHONHOME")
	require.False(t, set)
}
