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
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/agent-bootstrap/pkg/bootstrap"
)

// swapped in tests
var runTask = func(ctx context.Context, dir, name string) error {
	run, err := bootstrap.NewTask(ctx, dir, name, true)
	if err != nil {
		return err
	}
	return run()
}

func devCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "dev",
			Usage:  "Run the agent in development mode inside the virtual environment",
			Action: runDev,
		},
	}
}

func runDev(ctx context.Context, cmd *cli.Command) error {
	env := bootstrap.NewPythonEnv(workingDir, bootstrap.DefaultEnvDir)
	if !env.Exists() {
		return bootstrap.ErrEnvironmentMissing
	}
	activated := env.Activate(os.Environ())

	if bootstrap.HasTask(workingDir, bootstrap.TaskDev) {
		fmt.Fprintln(stdout(cmd), dimStyle.Render("Running task "+bootstrap.TaskDev+" from "+bootstrap.TaskFile))
		// tasks inherit the process environment
		for _, kv := range activated {
			if k, v, ok := strings.Cut(kv, "="); ok {
				if err := os.Setenv(k, v); err != nil {
					return err
				}
			}
		}
		if err := os.Unsetenv("PYTHONHOME"); err != nil {
			return err
		}
		return runTask(ctx, workingDir, bootstrap.TaskDev)
	}

	logger.Debugw("starting agent", "python", env.Python(), "entry", bootstrap.AgentEntry)
	return newExecutor(workingDir, true).Run(ctx, activated, env.Python(), bootstrap.AgentEntry, "dev")
}
