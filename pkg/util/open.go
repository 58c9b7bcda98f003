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

package util

import (
	"fmt"
	"slices"

	"github.com/pkg/browser"
	"github.com/urfave/cli/v3"
)

type OpenTarget string

const (
	OpenTargetDocs      OpenTarget = "docs"
	OpenTargetDashboard OpenTarget = "dashboard"
)

var (
	openURLs = map[OpenTarget]string{
		OpenTargetDocs:      "https://docs.livekit.io/sip/trunk-outbound/",
		OpenTargetDashboard: "https://cloud.livekit.io/projects/p_/telephony",
	}
	openOptions = []string{string(OpenTargetDocs), string(OpenTargetDashboard)}
	OpenFlag    = &cli.StringFlag{
		Name:  "open",
		Usage: fmt.Sprintf("Open relevant `PAGE` in browser, supported options: %v", openOptions),
		Validator: func(input string) error {
			if !slices.Contains(openOptions, input) {
				return fmt.Errorf("invalid open target: %s, supported options: %v", input, openOptions)
			}
			return nil
		},
	}

	// swapped in tests
	openBrowser = browser.OpenURL
)

func OpenURLFor(target OpenTarget) (string, error) {
	u, ok := openURLs[target]
	if !ok {
		return "", fmt.Errorf("invalid open target: %s, supported options: %v", target, openOptions)
	}
	return u, nil
}

func Open(target OpenTarget) error {
	u, err := OpenURLFor(target)
	if err != nil {
		return err
	}
	if err := openBrowser(u); err != nil {
		return fmt.Errorf("failed to open %s: %w", u, err)
	}
	return nil
}
