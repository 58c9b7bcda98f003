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

	"github.com/urfave/cli/v3"

	"github.com/livekit/agent-bootstrap/pkg/bootstrap"
	"github.com/livekit/agent-bootstrap/pkg/util"
)

// swapped in tests
var setupOptions = func(cmd *cli.Command) []bootstrap.Option {
	return []bootstrap.Option{
		bootstrap.WithOutput(stdout(cmd)),
		bootstrap.WithInteractive(util.IsTerminal(os.Stdout)),
	}
}

func strictFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "strict",
		Usage: "Stop at the first failed step and verify installed package versions",
	}
}

// Positional arguments are accepted and ignored.
func runSetup(ctx context.Context, cmd *cli.Command) error {
	cfg := bootstrap.Config{
		Dir:     workingDir,
		Strict:  cmd.Bool("strict"),
		Verbose: cmd.Bool("verbose"),
	}
	b := bootstrap.New(cfg, setupOptions(cmd)...)

	w := stdout(cmd)
	fmt.Fprintln(w, headingStyle.Render("Setting up LiveKit telephony agent"))

	report, err := b.Run(ctx)
	if err != nil {
		return err
	}

	if report.Failed() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d step(s) failed, see the messages above:", len(report.Failures))))
		for _, f := range report.Failures {
			fmt.Fprintln(w, warnStyle.Render("  • "+f.Error()))
		}
		fmt.Fprintln(w, dimStyle.Render("Run again with --strict to stop at the first failure."))
	}
	return nil
}
