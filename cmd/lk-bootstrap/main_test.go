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
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/livekit/agent-bootstrap/pkg/bootstrap"
)

type fakeExecutor struct {
	mu     sync.Mutex
	calls  []string
	envs   [][]string
	fail   map[string]error
	output []byte
	// block makes Output wait for its context to be cancelled
	block bool
}

func (f *fakeExecutor) record(env []string, name string, args []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	line := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, line)
	f.envs = append(f.envs, env)
	for match, err := range f.fail {
		if strings.Contains(line, match) {
			return err
		}
	}
	return nil
}

func (f *fakeExecutor) Run(ctx context.Context, env []string, name string, args ...string) error {
	if err := f.record(env, name, args); err != nil {
		return err
	}
	if len(args) == 3 && args[1] == "venv" {
		return os.MkdirAll(args[2], 0755)
	}
	return nil
}

func (f *fakeExecutor) Output(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	if err := f.record(env, name, args); err != nil {
		return nil, err
	}
	if f.block {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, errors.New("context was never cancelled")
		}
	}
	return f.output, nil
}

func (f *fakeExecutor) count(match string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.Contains(c, match) {
			n++
		}
	}
	return n
}

// useExecutor routes every command of the app through exe.
func useExecutor(t *testing.T, exe *fakeExecutor) {
	t.Helper()
	origSetup, origExecutor := setupOptions, newExecutor
	t.Cleanup(func() {
		setupOptions, newExecutor = origSetup, origExecutor
	})

	setupOptions = func(cmd *cli.Command) []bootstrap.Option {
		return []bootstrap.Option{
			bootstrap.WithExecutor(exe),
			bootstrap.WithOutput(stdout(cmd)),
			bootstrap.WithLookPath(func(name string) (string, error) { return "/usr/bin/" + name, nil }),
			bootstrap.WithBaseEnv([]string{"PATH=/usr/bin"}),
			bootstrap.WithInteractive(false),
		}
	}
	newExecutor = func(string, bool) bootstrap.Executor { return exe }
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"LIVEKIT_URL", "LIVEKIT_API_KEY", "LIVEKIT_API_SECRET"} {
		t.Setenv(k, "")
	}
	t.Cleanup(func() {
		workingDir = "."
		printCurl = false
	})

	out := &bytes.Buffer{}
	app := newApp()
	app.Writer = out
	app.ErrWriter = io.Discard
	err := app.Run(context.Background(), setupArgs(app, append([]string{"lk-bootstrap"}, args...)))
	return out.String(), err
}

type twirpHandler func(r *http.Request) proto.Message

// newTwirpServer answers twirp calls by path, in the encoding the client
// asked for.
func newTwirpServer(t *testing.T, routes map[string]twirpHandler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		res := handler(r)

		var (
			body []byte
			err  error
		)
		if isJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			body, err = protojson.Marshal(res)
		} else {
			w.Header().Set("Content-Type", "application/protobuf")
			body, err = proto.Marshal(res)
		}
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// readTwirp decodes the request body of a twirp call into msg.
func readTwirp(r *http.Request, msg proto.Message) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if isJSON(r) {
		return protojson.Unmarshal(body, msg)
	}
	return proto.Unmarshal(body, msg)
}
