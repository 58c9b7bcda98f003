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

package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/livekit/agent-bootstrap/pkg/util"
)

const (
	DefaultEnvDir = ".venv"
	AgentEntry    = "agent.py"
	WebAppEntry   = "app.py"
)

var (
	ErrInterpreterNotFound = errors.New("no python interpreter found in PATH, please install Python 3")
	ErrEnvironmentMissing  = errors.New("virtual environment not found, run lk-bootstrap first")
)

// Interpreters lists the executable names tried, in order, when creating the
// virtual environment.
func Interpreters(goos string) []string {
	if goos == "windows" {
		return []string{"python", "py"}
	}
	return []string{"python3", "python"}
}

// FindInterpreter returns the first interpreter resolvable through lookPath.
func FindInterpreter(goos string, lookPath func(string) (string, error)) (string, error) {
	for _, name := range Interpreters(goos) {
		if p, err := lookPath(name); err == nil {
			return p, nil
		}
	}
	return "", ErrInterpreterNotFound
}

// PythonEnv is a virtual environment rooted at an absolute path.
type PythonEnv struct {
	path string
	goos string
}

func NewPythonEnv(root, dir string) *PythonEnv {
	p := filepath.Join(root, dir)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return &PythonEnv{path: p, goos: runtime.GOOS}
}

func (p *PythonEnv) Path() string {
	return p.path
}

func (p *PythonEnv) Exists() bool {
	return util.DirExists(os.DirFS(filepath.Dir(p.path)), filepath.Base(p.path))
}

func (p *PythonEnv) BinDir() string {
	if p.goos == "windows" {
		return filepath.Join(p.path, "Scripts")
	}
	return filepath.Join(p.path, "bin")
}

func (p *PythonEnv) Python() string {
	if p.goos == "windows" {
		return filepath.Join(p.BinDir(), "python.exe")
	}
	return filepath.Join(p.BinDir(), "python")
}

// ActivateCommand is what a user types to activate the environment in their
// own shell.
func (p *PythonEnv) ActivateCommand(dir string) string {
	if p.goos == "windows" {
		return filepath.Join(dir, "Scripts", "Activate.ps1")
	}
	return "source " + filepath.ToSlash(filepath.Join(dir, "bin", "activate"))
}

// Activate returns base with the environment applied the way the activate
// script does it: VIRTUAL_ENV set, the bin directory first on PATH and
// PYTHONHOME removed.
func (p *PythonEnv) Activate(base []string) []string {
	pathKey := "PATH"
	oldPath := ""
	env := make([]string, 0, len(base)+2)
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case strings.EqualFold(key, "PATH"):
			pathKey = key
			oldPath = value
		case key == "VIRTUAL_ENV", key == "PYTHONHOME":
		default:
			env = append(env, kv)
		}
	}

	newPath := p.BinDir()
	if oldPath != "" {
		newPath += string(os.PathListSeparator) + oldPath
	}
	return append(env, "VIRTUAL_ENV="+p.path, pathKey+"="+newPath)
}

func (p *PythonEnv) Create(ctx context.Context, exe Executor, interpreter string) error {
	return exe.Run(ctx, nil, interpreter, "-m", "venv", p.path)
}

func (p *PythonEnv) UpgradeInstaller(ctx context.Context, exe Executor, env []string) error {
	return exe.Run(ctx, env, p.Python(), "-m", "pip", "install", "--upgrade", "pip")
}

func (p *PythonEnv) Install(ctx context.Context, exe Executor, env []string, req Requirement) error {
	return exe.Run(ctx, env, p.Python(), "-m", "pip", "install", req.Specifier())
}

// InstalledPackages asks pip for everything installed in the environment.
func (p *PythonEnv) InstalledPackages(ctx context.Context, exe Executor, env []string) (map[string]string, error) {
	out, err := exe.Output(ctx, env, p.Python(), "-m", "pip", "list", "--format=json", "--disable-pip-version-check")
	if err != nil {
		return nil, err
	}
	var pkgs []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(out, &pkgs); err != nil {
		return nil, fmt.Errorf("could not parse pip output: %w", err)
	}
	installed := make(map[string]string, len(pkgs))
	for _, pkg := range pkgs {
		installed[pkg.Name] = pkg.Version
	}
	return installed, nil
}
