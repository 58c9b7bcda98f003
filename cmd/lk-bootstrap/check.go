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
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/agent-bootstrap/pkg/bootstrap"
	"github.com/livekit/agent-bootstrap/pkg/config"
	"github.com/livekit/agent-bootstrap/pkg/util"
)

var errCheckFailed = errors.New("project is not ready yet")

func checkCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "check",
			Usage:  "Verify the credentials file and installed dependencies",
			Action: runCheck,
		},
	}
}

const secretVisibleChars = 4

func runCheck(ctx context.Context, cmd *cli.Command) error {
	w := stdout(cmd)
	env := bootstrap.NewPythonEnv(workingDir, bootstrap.DefaultEnvDir)

	// a missing file or environment is reported below, anything else stops
	// both checks
	var (
		creds     config.Credentials
		credsErr  error
		installed map[string]string
		pipErr    error
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		creds, credsErr = config.LoadCredentials(credentialsPath())
		if credsErr != nil && !errors.Is(credsErr, fs.ErrNotExist) {
			return fmt.Errorf("could not read %s: %w", config.CredentialsFile, credsErr)
		}
		return nil
	})
	eg.Go(func() error {
		if !env.Exists() {
			pipErr = bootstrap.ErrEnvironmentMissing
			return nil
		}
		exe := newExecutor(workingDir, false)
		installed, pipErr = env.InstalledPackages(gctx, exe, env.Activate(os.Environ()))
		if pipErr != nil {
			return fmt.Errorf("could not list installed packages: %w", pipErr)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		logger.Debugw("check aborted", "error", err)
		return err
	}

	ok := printCredentialsStatus(w, creds, credsErr)
	ok = printRequirementsStatus(w, installed, pipErr) && ok

	if !ok {
		return errCheckFailed
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, okStyle.Render("✅ Everything looks good, start the agent with `python "+bootstrap.AgentEntry+" dev`"))
	return nil
}

func printCredentialsStatus(w io.Writer, creds config.Credentials, err error) bool {
	fmt.Fprintln(w, headingStyle.Render("Credentials ("+config.CredentialsFile+")"))
	if err != nil {
		fmt.Fprintln(w, errStyle.Render("  ❌ "+config.CredentialsFile+" not found, run lk-bootstrap to create it"))
		return false
	}

	trunkUnset := false
	for _, r := range creds.Check() {
		if r.Name == config.KeySIPTrunkID && r.Status != config.KeySet {
			trunkUnset = true
		}
		switch {
		case r.Status == config.KeySet:
			value := creds[r.Name]
			if r.Name != config.KeyLiveKitURL {
				value = util.MaskSecret(value, secretVisibleChars)
			}
			fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("  ✅ %s = %s", r.Name, value)))
		case r.Optional:
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  ·  %s optional, not set", r.Name)))
		case r.Status == config.KeyPlaceholder:
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  ⚠️  %s still holds the placeholder", r.Name)))
		default:
			fmt.Fprintln(w, errStyle.Render(fmt.Sprintf("  ❌ %s is missing", r.Name)))
		}
	}

	if trunkUnset {
		fmt.Fprintln(w, dimStyle.Render("     run `lk-bootstrap trunks --select` to pick an outbound trunk"))
	}

	if err := creds.Validate(); err != nil {
		logger.Debugw("credentials incomplete", "error", err)
		return false
	}
	return true
}

func printRequirementsStatus(w io.Writer, installed map[string]string, err error) bool {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("Dependencies ("+bootstrap.DefaultEnvDir+")"))
	if err != nil {
		fmt.Fprintln(w, errStyle.Render("  ❌ "+err.Error()))
		return false
	}

	versions := make(map[string]string, len(installed))
	for name, version := range installed {
		versions[bootstrap.NormalizeName(name)] = version
	}
	unmet := make(map[string]bootstrap.UnmetRequirement)
	for _, u := range bootstrap.VerifyInstalled(installed, bootstrap.DefaultRequirements) {
		unmet[u.Name] = u
	}
	for _, req := range bootstrap.DefaultRequirements {
		if u, ok := unmet[req.Name]; ok {
			fmt.Fprintln(w, errStyle.Render("  ❌ "+u.String()))
			continue
		}
		fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("  ✅ %s (%s)", req.Specifier(), versions[bootstrap.NormalizeName(req.Name)])))
	}
	return len(unmet) == 0
}
