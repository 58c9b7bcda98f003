// Copyright 2024 LiveKit, Inc.
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

// This package prepares a working directory for a Python telephony agent: it
// creates and activates a virtual environment, installs the agent's
// dependencies, scaffolds a credentials file and tells the user what to do
// next.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/agent-bootstrap/pkg/config"
	"github.com/livekit/agent-bootstrap/pkg/util"
)

var ErrRequirementsUnmet = errors.New("installed packages do not meet requirements")

type Step string

const (
	StepEnvironment Step = "create environment"
	StepActivate    Step = "activate environment"
	StepUpgrade     Step = "upgrade installer"
	StepInstall     Step = "install dependencies"
	StepVerify      Step = "verify dependencies"
	StepCredentials Step = "write credentials"
)

type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type Report struct {
	EnvironmentCreated bool
	CredentialsCreated bool
	Failures           []*StepError
}

func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}

type Config struct {
	// Dir is the project directory, defaults to the working directory
	Dir             string
	EnvDir          string
	CredentialsFile string
	Requirements    []Requirement
	// Strict stops at the first failed step and verifies installed versions
	Strict  bool
	Verbose bool
}

type Bootstrapper struct {
	cfg         Config
	env         *PythonEnv
	exe         Executor
	out         io.Writer
	baseEnv     []string
	lookPath    func(string) (string, error)
	interactive bool
}

type Option func(*Bootstrapper)

func WithExecutor(exe Executor) Option {
	return func(b *Bootstrapper) { b.exe = exe }
}

func WithOutput(w io.Writer) Option {
	return func(b *Bootstrapper) { b.out = w }
}

func WithLookPath(fn func(string) (string, error)) Option {
	return func(b *Bootstrapper) { b.lookPath = fn }
}

func WithBaseEnv(env []string) Option {
	return func(b *Bootstrapper) { b.baseEnv = env }
}

// WithInteractive shows spinners for long running steps.
func WithInteractive(interactive bool) Option {
	return func(b *Bootstrapper) { b.interactive = interactive }
}

func New(cfg Config, opts ...Option) *Bootstrapper {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.EnvDir == "" {
		cfg.EnvDir = DefaultEnvDir
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = config.CredentialsFile
	}
	if cfg.Requirements == nil {
		cfg.Requirements = DefaultRequirements
	}

	b := &Bootstrapper{
		cfg:      cfg,
		env:      NewPythonEnv(cfg.Dir, cfg.EnvDir),
		out:      os.Stdout,
		baseEnv:  os.Environ(),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.exe == nil {
		b.exe = NewCommandExecutor(cfg.Dir, cfg.Verbose)
	}
	return b
}

func (b *Bootstrapper) Env() *PythonEnv {
	return b.env
}

func (b *Bootstrapper) printf(format string, args ...any) {
	fmt.Fprintf(b.out, format+"\n", args...)
}

// fail records a failed step. In strict mode the returned error aborts the
// run, otherwise the failure is logged and nil is returned.
func (b *Bootstrapper) fail(report *Report, step Step, err error) error {
	stepErr := &StepError{Step: step, Err: err}
	report.Failures = append(report.Failures, stepErr)
	if b.cfg.Strict {
		return stepErr
	}
	logger.Warnw("bootstrap step failed, continuing", err, "step", string(step))
	b.printf("⚠️  %s failed: %v", step, err)
	return nil
}

// Run executes every step in order. Positional arguments play no part in it.
func (b *Bootstrapper) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	steps := []func(context.Context, *Report) error{
		b.ensureEnvironment,
		b.activate,
		b.upgradeInstaller,
		b.installRequirements,
		b.verifyRequirements,
		b.ensureCredentials,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := step(ctx, report); err != nil {
			return report, err
		}
	}

	b.printf("")
	b.printf("✅ Setup complete!")
	b.printf("")
	for _, line := range b.NextSteps() {
		b.printf("%s", line)
	}
	return report, nil
}

func (b *Bootstrapper) ensureEnvironment(ctx context.Context, report *Report) error {
	if b.env.Exists() {
		b.printf("📦 Virtual environment already exists in %s", b.cfg.EnvDir)
		return nil
	}

	b.printf("📦 Creating virtual environment in %s...", b.cfg.EnvDir)
	interpreter, err := FindInterpreter(runtime.GOOS, b.lookPath)
	if err != nil {
		return b.fail(report, StepEnvironment, err)
	}
	if err := b.env.Create(ctx, b.exe, interpreter); err != nil {
		return b.fail(report, StepEnvironment, err)
	}
	report.EnvironmentCreated = true
	return nil
}

func (b *Bootstrapper) activate(ctx context.Context, report *Report) error {
	b.printf("🔌 Activating virtual environment...")
	if !b.env.Exists() {
		return b.fail(report, StepActivate, ErrEnvironmentMissing)
	}
	b.baseEnv = b.env.Activate(b.baseEnv)
	logger.Debugw("activated virtual environment", "path", b.env.Path())
	return nil
}

func (b *Bootstrapper) upgradeInstaller(ctx context.Context, report *Report) error {
	b.printf("⬆️  Upgrading pip...")
	err := b.await("Upgrading pip...", ctx, func(ctx context.Context) error {
		return b.env.UpgradeInstaller(ctx, b.exe, b.baseEnv)
	})
	if err != nil {
		return b.fail(report, StepUpgrade, err)
	}
	return nil
}

func (b *Bootstrapper) installRequirements(ctx context.Context, report *Report) error {
	b.printf("📚 Installing dependencies...")
	for _, req := range b.cfg.Requirements {
		if !b.interactive {
			b.printf("   %s", req.Specifier())
		}
		err := b.await("Installing "+req.Specifier()+"...", ctx, func(ctx context.Context) error {
			return b.env.Install(ctx, b.exe, b.baseEnv, req)
		})
		if err != nil {
			if ferr := b.fail(report, StepInstall, errors.Wrapf(err, "could not install %s", req.Specifier())); ferr != nil {
				return ferr
			}
		}
	}
	return nil
}

// verifyRequirements only runs in strict mode; the default mode reports
// completion without checking what the installer did.
func (b *Bootstrapper) verifyRequirements(ctx context.Context, report *Report) error {
	if !b.cfg.Strict {
		return nil
	}
	installed, err := b.env.InstalledPackages(ctx, b.exe, b.baseEnv)
	if err != nil {
		return b.fail(report, StepVerify, err)
	}
	if unmet := VerifyInstalled(installed, b.cfg.Requirements); len(unmet) > 0 {
		lines := util.MapStrings(unmet, UnmetRequirement.String)
		return b.fail(report, StepVerify, errors.Wrap(ErrRequirementsUnmet, strings.Join(lines, "; ")))
	}
	return nil
}

func (b *Bootstrapper) ensureCredentials(ctx context.Context, report *Report) error {
	path := filepath.Join(b.cfg.Dir, b.cfg.CredentialsFile)
	created, err := config.WriteCredentialsTemplate(path)
	if err != nil {
		return b.fail(report, StepCredentials, err)
	}
	if created {
		report.CredentialsCreated = true
		b.printf("📝 Created %s template, please fill in your credentials", b.cfg.CredentialsFile)
	} else {
		b.printf("📝 %s already exists, leaving it unchanged", b.cfg.CredentialsFile)
	}
	return nil
}

func (b *Bootstrapper) await(title string, ctx context.Context, action func(ctx context.Context) error) error {
	if b.interactive && !b.cfg.Verbose {
		return util.Await(title, ctx, action)
	}
	return action(ctx)
}

// NextSteps is the guidance printed after setup.
func (b *Bootstrapper) NextSteps() []string {
	return []string{
		"Next steps:",
		fmt.Sprintf("  1. Edit %s and replace the placeholder values with your credentials", b.cfg.CredentialsFile),
		fmt.Sprintf("  2. Activate the environment: %s", b.env.ActivateCommand(b.cfg.EnvDir)),
		fmt.Sprintf("  3. Start the agent: python %s dev", AgentEntry),
		fmt.Sprintf("  4. In another terminal, start the web app: python %s", WebAppEntry),
		"",
		"Run `lk-bootstrap check` to verify your configuration.",
	}
}
