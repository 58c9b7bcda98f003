// Copyright 2021-2025 LiveKit, Inc.
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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/twitchtv/twirp"
	"github.com/urfave/cli/v3"

	"github.com/livekit/protocol/utils/interceptors"
	"github.com/livekit/server-sdk-go/v2/signalling"

	"github.com/livekit/agent-bootstrap/pkg/bootstrap"
	"github.com/livekit/agent-bootstrap/pkg/config"
)

var (
	printCurl    bool
	workingDir   string = "."
	tomlFilename string = config.LiveKitTOMLFile

	// swapped in tests
	newExecutor = func(dir string, verbose bool) bootstrap.Executor {
		return bootstrap.NewCommandExecutor(dir, verbose)
	}
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:     "verbose",
			Usage:    "Show installer output and debug logs",
			Required: false,
		},
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "Project `DIR` to set up",
			Value:       ".",
			Destination: &workingDir,
			Hidden:      true,
		},
		strictFlag(),
	}
}

func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			Usage:   "`URL` to LiveKit instance",
			Sources: cli.EnvVars("LIVEKIT_URL"),
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Your `KEY`",
			Sources: cli.EnvVars("LIVEKIT_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "api-secret",
			Usage:   "Your `SECRET`",
			Sources: cli.EnvVars("LIVEKIT_API_SECRET"),
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Config `TOML` to use in the working directory",
			Value:       config.LiveKitTOMLFile,
			Destination: &tomlFilename,
		},
		&cli.BoolFlag{
			Name:        "curl",
			Usage:       "Print curl commands for API actions",
			Destination: &printCurl,
		},
	}
}

func credentialsPath() string {
	return filepath.Join(workingDir, config.CredentialsFile)
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func withDefaultClientOpts(c *config.ProjectConfig) []twirp.ClientOption {
	var (
		opts []twirp.ClientOption
		ics  []twirp.Interceptor
	)
	if printCurl {
		ics = append(ics, interceptors.NewCurlPrinter(os.Stdout, signalling.ToHttpURL(c.URL)))
	}
	if len(ics) != 0 {
		opts = append(opts, twirp.WithClientInterceptors(ics...))
	}
	return opts
}

// attempt to load connection config, it'll prioritize
// 1. command line flags (or env var)
// 2. the credentials file written by setup
// 3. config file (by default, livekit.toml)
// 4. default project of the LiveKit CLI
func loadProjectDetails(c *cli.Command) (*config.ProjectConfig, error) {
	logDetails := func(pc *config.ProjectConfig) {
		if c.Bool("verbose") {
			fmt.Fprintf(stdout(c), "URL: %s, api-key: %s, api-secret: %s\n",
				pc.URL,
				pc.APIKey,
				"************",
			)
		}
	}

	pc := &config.ProjectConfig{
		URL:       c.String("url"),
		APIKey:    c.String("api-key"),
		APISecret: c.String("api-secret"),
	}
	if pc.URL != "" && pc.APIKey != "" && pc.APISecret != "" {
		logDetails(pc)
		return pc, nil
	}

	if creds, err := config.LoadCredentials(credentialsPath()); err == nil {
		if cp := creds.Project(); cp != nil {
			fmt.Fprintf(stdout(c), "Using credentials from [%s]\n", config.CredentialsFile)
			logDetails(cp)
			return cp, nil
		}
	}

	lkConfig, err := config.LoadTOMLFile(workingDir, tomlFilename)
	if err != nil {
		return nil, err
	}
	cliConfig, err := config.LoadCLIConfig()
	if err != nil {
		return nil, err
	}
	if lkConfig != nil {
		p, err := cliConfig.BySubdomain(lkConfig.Project.Subdomain)
		if err != nil {
			return nil, fmt.Errorf("project %s from %s: %w", lkConfig.Project.Subdomain, tomlFilename, err)
		}
		fmt.Fprintf(stdout(c), "Using project [%s]\n", p.Name)
		logDetails(p)
		return p, nil
	}

	if dp, err := cliConfig.Default(); err == nil {
		fmt.Fprintf(stdout(c), "Using default project [%s]\n", dp.Name)
		logDetails(dp)
		return dp, nil
	}

	return nil, errors.New("no LiveKit credentials found, fill in LIVEKIT_URL, LIVEKIT_API_KEY and LIVEKIT_API_SECRET in " + config.CredentialsFile + " or pass --url, --api-key and --api-secret")
}
