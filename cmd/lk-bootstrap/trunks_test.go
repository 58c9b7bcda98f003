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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/livekit/protocol/livekit"

	"github.com/livekit/agent-bootstrap/pkg/config"
)

func newSIPServer(t *testing.T, trunks ...*livekit.SIPOutboundTrunkInfo) *httptest.Server {
	return newTwirpServer(t, map[string]twirpHandler{
		"/twirp/livekit.SIP/ListSIPOutboundTrunk": func(r *http.Request) proto.Message {
			return &livekit.ListSIPOutboundTrunkResponse{Items: trunks}
		},
	})
}

func connectionArgs(srv *httptest.Server) []string {
	return []string{"--url", srv.URL, "--api-key", "devkey", "--api-secret", "devsecretdevsecretdevsecret"}
}

func TestTrunksList(t *testing.T) {
	srv := newSIPServer(t, &livekit.SIPOutboundTrunkInfo{
		SipTrunkId:   "ST_outbound",
		Name:         "Twilio",
		Address:      "agents.pstn.twilio.com",
		Numbers:      []string{"+15550100"},
		AuthUsername: "agent",
		AuthPassword: "hunter2",
	})

	out, err := runApp(t, append([]string{"--dir", t.TempDir(), "trunks"}, connectionArgs(srv)...)...)
	require.NoError(t, err)
	require.Contains(t, out, "ST_outbound")
	require.Contains(t, out, "agents.pstn.twilio.com")
	require.Contains(t, out, "agent / ****")
	require.NotContains(t, out, "hunter2")
}

func TestTrunksSelect(t *testing.T) {
	dir := t.TempDir()
	credentials := filepath.Join(dir, config.CredentialsFile)
	require.NoError(t, os.WriteFile(credentials, []byte(config.CredentialsTemplate()), 0600))

	srv := newSIPServer(t, &livekit.SIPOutboundTrunkInfo{SipTrunkId: "ST_only", Name: "main"})
	out, err := runApp(t, append([]string{"--dir", dir, "trunks", "--select"}, connectionArgs(srv)...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Saved SIP_TRUNK_ID=ST_only")

	creds, err := config.LoadCredentials(credentials)
	require.NoError(t, err)
	require.Equal(t, "ST_only", creds[config.KeySIPTrunkID])
	require.Equal(t, "your_groq_api_key", creds[config.KeyGroqAPIKey])
}

func TestTrunksSelectPrompts(t *testing.T) {
	dir := t.TempDir()
	credentials := filepath.Join(dir, config.CredentialsFile)
	require.NoError(t, os.WriteFile(credentials, []byte(config.CredentialsTemplate()), 0600))

	orig := selectTrunk
	t.Cleanup(func() { selectTrunk = orig })
	var offered []string
	selectTrunk = func(trunks []*livekit.SIPOutboundTrunkInfo) (string, error) {
		for _, tr := range trunks {
			offered = append(offered, tr.SipTrunkId)
		}
		return trunks[1].SipTrunkId, nil
	}

	srv := newSIPServer(t,
		&livekit.SIPOutboundTrunkInfo{SipTrunkId: "ST_a"},
		&livekit.SIPOutboundTrunkInfo{SipTrunkId: "ST_b"},
	)
	_, err := runApp(t, append([]string{"--dir", dir, "trunks", "--select"}, connectionArgs(srv)...)...)
	require.NoError(t, err)
	require.Equal(t, []string{"ST_a", "ST_b"}, offered)

	creds, err := config.LoadCredentials(credentials)
	require.NoError(t, err)
	require.Equal(t, "ST_b", creds[config.KeySIPTrunkID])
}

func TestTrunksNoneSuggestsRequest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.CredentialsFile),
		[]byte("TWILIO_PHONE_NUMBER=+15550123\n"), 0600))

	srv := newSIPServer(t)
	out, err := runApp(t, append([]string{"--dir", dir, "trunks"}, connectionArgs(srv)...)...)
	require.NoError(t, err)
	require.Contains(t, out, "No outbound SIP trunks found")
	require.Contains(t, out, `"auth_username"`)
	require.Contains(t, out, "+15550123")

	_, err = runApp(t, append([]string{"--dir", dir, "trunks", "--select"}, connectionArgs(srv)...)...)
	require.ErrorIs(t, err, errNoTrunks)
}

func TestTrunksUsesCredentialsFile(t *testing.T) {
	srv := newSIPServer(t, &livekit.SIPOutboundTrunkInfo{SipTrunkId: "ST_from_env"})
	dir := t.TempDir()
	content := "LIVEKIT_URL=" + srv.URL + "\nLIVEKIT_API_KEY=devkey\nLIVEKIT_API_SECRET=devsecretdevsecretdevsecret\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.CredentialsFile), []byte(content), 0600))

	out, err := runApp(t, "--dir", dir, "trunks")
	require.NoError(t, err)
	require.Contains(t, out, "Using credentials from [.env]")
	require.Contains(t, out, "ST_from_env")
}

func TestTrunksWithoutCredentials(t *testing.T) {
	_, err := runApp(t, "--dir", t.TempDir(), "trunks")
	require.ErrorContains(t, err, "no LiveKit credentials found")
}
