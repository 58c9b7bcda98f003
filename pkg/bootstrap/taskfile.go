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
	"io"
	"os"
	"path/filepath"

	"github.com/go-task/task/v3"
	"gopkg.in/yaml.v3"

	"github.com/livekit/agent-bootstrap/pkg/util"
)

const (
	TaskFile = "taskfile.yaml"
	TaskDev  = "dev"
)

// HasTask reports whether the taskfile in dir defines taskName. A missing or
// unreadable taskfile counts as not defining it.
func HasTask(dir, taskName string) bool {
	if !util.FileExists(os.DirFS(dir), TaskFile) {
		return false
	}
	data, err := os.ReadFile(filepath.Join(dir, TaskFile))
	if err != nil {
		return false
	}
	var tf struct {
		Tasks map[string]yaml.Node `yaml:"tasks"`
	}
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return false
	}
	_, ok := tf.Tasks[taskName]
	return ok
}

func NewTaskExecutor(dir string, verbose bool) *task.Executor {
	var o io.Writer = io.Discard
	var e io.Writer = os.Stderr
	if verbose {
		o = os.Stdout
	}
	return task.NewExecutor(
		task.WithDir(dir),
		task.WithSilent(!verbose),
		task.WithColor(true),
		task.WithStdin(os.Stdin),
		task.WithStdout(o),
		task.WithStderr(e),
	)
}

func NewTask(ctx context.Context, dir, taskName string, verbose bool) (func() error, error) {
	exe := NewTaskExecutor(dir, verbose)
	if err := exe.Setup(); err != nil {
		return nil, err
	}

	return func() error {
		return exe.Run(ctx, &task.Call{
			Task: taskName,
		})
	}, nil
}
