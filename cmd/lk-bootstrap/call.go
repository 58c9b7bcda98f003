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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/logger"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/livekit/agent-bootstrap/pkg/config"
	"github.com/livekit/agent-bootstrap/pkg/util"
)

const (
	callRoomPrefix      = "agent-call-"
	callEmptyTimeout    = 5 * time.Minute
	callMaxParticipants = 10
	defaultAgentName    = "telephone_agent"
	sipCallStatusAttr   = "sip.callStatus"
	sipCallIDAttr       = "sip.callID"
)

var (
	errInvalidNumber = errors.New("phone number must be in E.164 format, e.g. +1XXXXXXXXXX")

	// swapped in tests
	now = time.Now
)

func callCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "call",
			Usage:     "Place an outbound call that the agent joins",
			ArgsUsage: "NUMBER",
			Action:    placeCall,
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:  "trunk",
					Usage: "Outbound `SIP_TRUNK_ID` to dial through, defaults to " + config.KeySIPTrunkID + " from " + config.CredentialsFile,
				},
				&cli.StringFlag{
					Name:  "agent-name",
					Usage: "`NAME` of the agent requested in the room metadata",
					Value: defaultAgentName,
				},
				&cli.BoolFlag{
					Name:  "wait",
					Usage: "Wait until the call is answered",
				},
			}, connectionFlags()...),
			Commands: []*cli.Command{
				{
					Name:      "status",
					Usage:     "Show the participants of a call room and their SIP call state",
					ArgsUsage: "ROOM",
					Action:    callStatus,
					Flags: append([]cli.Flag{
						&cli.BoolFlag{
							Name:  "json",
							Usage: "Print participants as JSON instead of a table",
						},
					}, connectionFlags()...),
				},
			},
		},
	}
}

type roomMetadata struct {
	AgentRequired bool   `json:"agent_required"`
	AgentName     string `json:"agent_name"`
	CallType      string `json:"call_type"`
	PhoneNumber   string `json:"phone_number"`
	Timestamp     int64  `json:"timestamp"`
}

type callMetadata struct {
	PhoneNumber string `json:"phone_number"`
	CallType    string `json:"call_type"`
	Timestamp   int64  `json:"timestamp"`
}

// callProject resolves the connection and trunk for a call. When nothing
// usable is configured the error lists every unset key of the credentials
// file.
func callProject(cmd *cli.Command) (*config.ProjectConfig, string, error) {
	creds, err := config.LoadCredentials(credentialsPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("could not read %s: %w", config.CredentialsFile, err)
	}

	pc, err := loadProjectDetails(cmd)
	if err != nil {
		if rerr := creds.Require(config.CallKeys...); rerr != nil {
			return nil, "", rerr
		}
		return nil, "", err
	}

	trunkID := cmd.String("trunk")
	if trunkID == "" {
		if err := creds.Require(config.KeySIPTrunkID); err != nil {
			return nil, "", fmt.Errorf("%w, run `lk-bootstrap trunks --select` or pass --trunk", err)
		}
		trunkID = creds[config.KeySIPTrunkID]
	}
	return pc, trunkID, nil
}

func placeCall(ctx context.Context, cmd *cli.Command) error {
	number := strings.TrimSpace(cmd.Args().First())
	if !strings.HasPrefix(number, "+") || len(number) < 2 {
		return errInvalidNumber
	}

	pc, trunkID, err := callProject(cmd)
	if err != nil {
		return err
	}
	w := stdout(cmd)

	ts := now().Unix()
	roomName := fmt.Sprintf("%s%d", callRoomPrefix, ts)
	roomMeta, err := json.Marshal(roomMetadata{
		AgentRequired: true,
		AgentName:     cmd.String("agent-name"),
		CallType:      "sip_outbound",
		PhoneNumber:   number,
		Timestamp:     ts,
	})
	if err != nil {
		return err
	}

	rooms := lksdk.NewRoomServiceClient(pc.URL, pc.APIKey, pc.APISecret, withDefaultClientOpts(pc)...)
	fmt.Fprintln(w, "🏠 Creating room "+roomName)
	if _, err := rooms.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:            roomName,
		EmptyTimeout:    uint32(callEmptyTimeout.Seconds()),
		MaxParticipants: callMaxParticipants,
		Metadata:        string(roomMeta),
	}); err != nil {
		return fmt.Errorf("could not create room: %w", err)
	}
	logger.Debugw("room created", "room", roomName)

	participantMeta, err := json.Marshal(callMetadata{
		PhoneNumber: number,
		CallType:    "outbound",
		Timestamp:   ts,
	})
	if err != nil {
		return err
	}

	sip := lksdk.NewSIPClient(pc.URL, pc.APIKey, pc.APISecret, withDefaultClientOpts(pc)...)
	fmt.Fprintln(w, "📞 Calling "+number)
	info, err := sip.CreateSIPParticipant(ctx, &livekit.CreateSIPParticipantRequest{
		SipTrunkId:          trunkID,
		SipCallTo:           number,
		RoomName:            roomName,
		ParticipantIdentity: callIdentity(number),
		ParticipantName:     "Phone Call to " + number,
		ParticipantMetadata: string(participantMeta),
		PlayDialtone:        true,
		WaitUntilAnswered:   cmd.Bool("wait"),
	})
	if err != nil {
		return fmt.Errorf("could not create SIP participant: %w", err)
	}

	fmt.Fprintln(w, okStyle.Render("✅ Call initiated successfully!"))
	fmt.Fprintf(w, "Room: %s\n", roomName)
	fmt.Fprintf(w, "Participant ID: %s\n", info.ParticipantId)
	if info.SipCallId != "" {
		fmt.Fprintf(w, "SIP call ID: %s\n", info.SipCallId)
	}
	fmt.Fprintln(w, "🤖 The agent should join the call shortly")
	fmt.Fprintln(w, dimStyle.Render("Follow the call with `lk-bootstrap call status "+roomName+"`"))
	return nil
}

// callIdentity derives the participant identity from the dialed number,
// +1-555-0100 becomes phone-15550100.
func callIdentity(number string) string {
	return "phone-" + strings.NewReplacer("+", "", "-", "", " ", "").Replace(number)
}

func callStatus(ctx context.Context, cmd *cli.Command) error {
	roomName := cmd.Args().First()
	if roomName == "" {
		return errors.New("room name is required")
	}

	pc, err := loadProjectDetails(cmd)
	if err != nil {
		return err
	}
	rooms := lksdk.NewRoomServiceClient(pc.URL, pc.APIKey, pc.APISecret, withDefaultClientOpts(pc)...)
	res, err := rooms.ListParticipants(ctx, &livekit.ListParticipantsRequest{Room: roomName})
	if err != nil {
		return err
	}

	w := stdout(cmd)
	if cmd.Bool("json") {
		return util.PrintJSON(w, res)
	}
	if len(res.Participants) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No participants in "+roomName+", the call has ended or not connected yet"))
		return nil
	}

	table := util.CreateTable().Headers("Identity", "Name", "Kind", "State", "Call Status", "SIP Call ID")
	for _, p := range res.Participants {
		table.Row(
			p.Identity, p.Name,
			p.Kind.String(),
			p.State.String(),
			p.Attributes[sipCallStatusAttr],
			p.Attributes[sipCallIDAttr],
		)
	}
	fmt.Fprintln(w, table)
	return nil
}
