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
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/logger"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/livekit/agent-bootstrap/pkg/config"
	"github.com/livekit/agent-bootstrap/pkg/util"
)

var (
	errNoTrunks = errors.New("no outbound SIP trunks found")

	// swapped in tests
	selectTrunk = promptTrunk
)

const maxNumbersWidth = 40

func trunkCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "trunks",
			Usage:  "List outbound SIP trunks and store one as " + config.KeySIPTrunkID,
			Action: listTrunks,
			Flags: append([]cli.Flag{
				&cli.BoolFlag{
					Name:  "select",
					Usage: "Write the chosen trunk ID to " + config.CredentialsFile,
				},
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Print trunks as JSON instead of a table",
				},
				util.OpenFlag,
			}, connectionFlags()...),
		},
	}
}

func createSIPClient(cmd *cli.Command) (*lksdk.SIPClient, error) {
	pc, err := loadProjectDetails(cmd)
	if err != nil {
		return nil, err
	}
	return lksdk.NewSIPClient(pc.URL, pc.APIKey, pc.APISecret, withDefaultClientOpts(pc)...), nil
}

func listTrunks(ctx context.Context, cmd *cli.Command) error {
	if target := cmd.String("open"); target != "" {
		if err := util.Open(util.OpenTarget(target)); err != nil {
			logger.Warnw("could not open browser", err)
		}
	}

	sip, err := createSIPClient(cmd)
	if err != nil {
		return err
	}
	res, err := sip.ListSIPOutboundTrunk(ctx, &livekit.ListSIPOutboundTrunkRequest{})
	if err != nil {
		return err
	}

	w := stdout(cmd)
	trunks := res.GetItems()
	if len(trunks) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No outbound SIP trunks found. Create one in the dashboard or with `lk sip outbound create` using a request like:"))
		if err := util.PrintJSON(w, suggestedTrunk()); err != nil {
			return err
		}
		if cmd.Bool("select") {
			return errNoTrunks
		}
		return nil
	}

	if cmd.Bool("json") {
		if err := util.PrintJSON(w, res); err != nil {
			return err
		}
	} else {
		table := util.CreateTable().Headers("SipTrunkID", "Name", "Address", "Numbers", "Authentication")
		for _, t := range trunks {
			table.Row(
				t.SipTrunkId, t.Name,
				t.Address,
				util.EllipsizeTo(strings.Join(t.Numbers, ","), maxNumbersWidth),
				userPass(t.AuthUsername, t.AuthPassword != ""),
			)
		}
		fmt.Fprintln(w, table)
	}

	if !cmd.Bool("select") {
		return nil
	}

	id, err := selectTrunk(trunks)
	if err != nil {
		return err
	}
	if err := config.SetCredential(credentialsPath(), config.KeySIPTrunkID, id); err != nil {
		return fmt.Errorf("could not update %s: %w", config.CredentialsFile, err)
	}
	fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("📝 Saved %s=%s to %s", config.KeySIPTrunkID, id, config.CredentialsFile)))
	return nil
}

// promptTrunk picks the only trunk without asking, otherwise asks on the
// terminal.
func promptTrunk(trunks []*livekit.SIPOutboundTrunkInfo) (string, error) {
	if len(trunks) == 1 {
		return trunks[0].SipTrunkId, nil
	}
	if !util.IsTerminal(os.Stdin) {
		return "", errors.New("several trunks found, run in a terminal to choose one")
	}

	var opts []huh.Option[string]
	for _, t := range trunks {
		label := t.SipTrunkId
		if t.Name != "" {
			label += " (" + t.Name + ")"
		}
		opts = append(opts, huh.NewOption(label, t.SipTrunkId))
	}

	var id string
	err := huh.NewSelect[string]().
		Title("Outbound trunk for the agent").
		Description("Its ID is written to " + config.CredentialsFile + " as " + config.KeySIPTrunkID).
		Options(opts...).
		Value(&id).
		WithTheme(themeBranded).
		Run()
	return id, err
}

func suggestedTrunk() *livekit.CreateSIPOutboundTrunkRequest {
	number := "+1XXXXXXXXXX"
	if creds, err := config.LoadCredentials(credentialsPath()); err == nil {
		if v := creds[config.KeyTwilioPhoneNumber]; v != "" {
			number = v
		}
	}
	return &livekit.CreateSIPOutboundTrunkRequest{
		Trunk: &livekit.SIPOutboundTrunkInfo{
			Name:         "Agent outbound trunk",
			Address:      "your-trunk-name.pstn.twilio.com",
			Numbers:      []string{number},
			AuthUsername: "your_sip_username",
			AuthPassword: "your_sip_password",
		},
	}
}

func userPass(user string, hasPass bool) string {
	if user == "" && !hasPass {
		return ""
	}
	passStr := ""
	if hasPass {
		passStr = "****"
	}
	return user + " / " + passStr
}
