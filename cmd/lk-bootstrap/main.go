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
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/urfave/cli/v3"

	"github.com/livekit/protocol/logger"
	lksdk "github.com/livekit/server-sdk-go/v2"

	agentbootstrap "github.com/livekit/agent-bootstrap"
)

func newApp() *cli.Command {
	app := &cli.Command{
		Name:                   "lk-bootstrap",
		Usage:                  "Set up a LiveKit telephony agent project",
		Description:            "Creates a Python virtual environment, installs the agent's dependencies and scaffolds a .env file for your credentials. Run it again at any time, existing files are left as they are.",
		Version:                agentbootstrap.Version,
		EnableShellCompletion:  true,
		HideHelpCommand:        true,
		UseShortOptionHandling: true,
		Flags:                  globalFlags(),
		Action:                 runSetup,
		Commands: []*cli.Command{
			{
				Name:   "generate-fish-completion",
				Action: generateFishCompletion,
				Hidden: true,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
					},
				},
			},
		},
		Before: initLogger,
	}

	app.Commands = append(app.Commands, checkCommands()...)
	app.Commands = append(app.Commands, trunkCommands()...)
	app.Commands = append(app.Commands, devCommands()...)
	app.Commands = append(app.Commands, callCommands()...)
	return app
}

func main() {
	// Register cleanup hook for SIGINT, SIGTERM, SIGQUIT
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	app := newApp()
	if err := app.Run(ctx, setupArgs(app, os.Args)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// added by urfave/cli when shell completion is enabled
const (
	completionCommand = "completion"
	completionFlag    = "generate-shell-completion"
)

// setupArgs drops every argument of a root invocation that names neither a
// root flag nor a subcommand, so stray words and options never keep setup
// from running. Arguments after a subcommand are passed on unchanged.
func setupArgs(app *cli.Command, args []string) []string {
	if len(args) == 0 {
		return args
	}

	takesValue := make(map[string]bool)
	flags := append(slices.Clone(app.Flags), cli.HelpFlag, cli.VersionFlag)
	for _, f := range flags {
		_, isBool := f.(*cli.BoolFlag)
		for _, name := range f.Names() {
			takesValue[name] = !isBool
		}
	}
	takesValue[completionFlag] = false

	commands := map[string]bool{completionCommand: true}
	for _, c := range app.Commands {
		for _, name := range c.Names() {
			commands[name] = true
		}
	}

	out := []string{args[0]}
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return out
		case len(arg) > 1 && strings.HasPrefix(arg, "-"):
			name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
			needsValue, known := takesValue[name]
			if !known {
				continue
			}
			out = append(out, arg)
			if needsValue && !hasValue && i+1 < len(args) {
				i++
				out = append(out, args[i])
			}
		case commands[arg]:
			return append(out, args[i:]...)
		}
	}
	return out
}

func initLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logConfig := &logger.Config{
		Level: "info",
	}
	if cmd.Bool("verbose") {
		logConfig.Level = "debug"
	}
	logger.InitFromConfig(logConfig, "lk-bootstrap")

	if cmd.Bool("verbose") {
		lksdk.SetLogger(logger.GetLogger())
	} else {
		lksdk.SetLogger(logger.LogRLogger(logr.Discard()))
	}

	return ctx, nil
}

func generateFishCompletion(ctx context.Context, cmd *cli.Command) error {
	fishScript, err := cmd.Root().ToFishCompletion()
	if err != nil {
		return err
	}

	outPath := cmd.String("out")
	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(fishScript), 0o644); err != nil {
			return err
		}
	} else {
		fmt.Println(fishScript)
	}

	return nil
}
