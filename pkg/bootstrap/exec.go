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

package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/livekit/protocol/logger"
)

// Executor runs external tools. env is the complete environment for the
// child process; nil inherits the current one.
type Executor interface {
	Run(ctx context.Context, env []string, name string, args ...string) error
	Output(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
}

type CommandExecutor struct {
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommandExecutor mirrors the task runner's defaults: child stdout is only
// shown when verbose, stderr always is.
func NewCommandExecutor(dir string, verbose bool) *CommandExecutor {
	var o io.Writer = io.Discard
	if verbose {
		o = os.Stdout
	}
	return &CommandExecutor{
		Dir:    dir,
		Stdin:  os.Stdin,
		Stdout: o,
		Stderr: os.Stderr,
	}
}

func (e *CommandExecutor) command(ctx context.Context, env []string, name string, args ...string) *exec.Cmd {
	logger.Debugw("running command", "cmd", name+" "+strings.Join(args, " "), "dir", e.Dir)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	cmd.Env = env
	return cmd
}

func (e *CommandExecutor) Run(ctx context.Context, env []string, name string, args ...string) error {
	cmd := e.command(ctx, env, name, args...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (e *CommandExecutor) Output(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := e.command(ctx, env, name, args...)
	cmd.Stderr = e.Stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
