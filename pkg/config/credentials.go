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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

const CredentialsFile = ".env"

const (
	KeyLiveKitURL        = "LIVEKIT_URL"
	KeyLiveKitAPIKey     = "LIVEKIT_API_KEY"
	KeyLiveKitAPISecret  = "LIVEKIT_API_SECRET"
	KeySIPTrunkID        = "SIP_TRUNK_ID"
	KeyGroqAPIKey        = "GROQ_API_KEY"
	KeyElevenLabsAPIKey  = "ELEVEN_API_KEY"
	KeyTwilioPhoneNumber = "TWILIO_PHONE_NUMBER"
)

var ErrCredentialsIncomplete = errors.New("credentials file is incomplete")

type CredentialKey struct {
	Name        string
	Placeholder string
	Optional    bool
}

type CredentialGroup struct {
	Title string
	Keys  []CredentialKey
}

var CredentialGroups = []CredentialGroup{
	{
		Title: "LiveKit Configuration",
		Keys: []CredentialKey{
			{Name: KeyLiveKitURL, Placeholder: "wss://your-project.livekit.cloud"},
			{Name: KeyLiveKitAPIKey, Placeholder: "your_api_key"},
			{Name: KeyLiveKitAPISecret, Placeholder: "your_api_secret"},
		},
	},
	{
		Title: "SIP Configuration",
		Keys: []CredentialKey{
			{Name: KeySIPTrunkID, Placeholder: "your_sip_trunk_id"},
		},
	},
	{
		Title: "AI Service API Keys",
		Keys: []CredentialKey{
			{Name: KeyGroqAPIKey, Placeholder: "your_groq_api_key"},
			{Name: KeyElevenLabsAPIKey, Placeholder: "your_elevenlabs_api_key"},
		},
	},
	{
		Title: "Optional: Twilio phone number for outbound caller ID",
		Keys: []CredentialKey{
			{Name: KeyTwilioPhoneNumber, Placeholder: "+1XXXXXXXXXX", Optional: true},
		},
	},
}

// CallKeys are the keys needed to place an outbound call.
var CallKeys = []string{KeyLiveKitURL, KeyLiveKitAPIKey, KeyLiveKitAPISecret, KeySIPTrunkID}

// CredentialKeys flattens CredentialGroups in file order.
func CredentialKeys() []CredentialKey {
	var keys []CredentialKey
	for _, g := range CredentialGroups {
		keys = append(keys, g.Keys...)
	}
	return keys
}

// CredentialsTemplate is the content written when no credentials file exists.
func CredentialsTemplate() string {
	var b strings.Builder
	for i, g := range CredentialGroups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("# " + g.Title + "\n")
		for _, k := range g.Keys {
			b.WriteString(k.Name + "=" + k.Placeholder + "\n")
		}
	}
	return b.String()
}

// WriteCredentialsTemplate creates path with the placeholder template. An
// existing file is never touched; created reports which case happened.
func WriteCredentialsTemplate(path string) (created bool, err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	if _, err = f.WriteString(CredentialsTemplate()); err != nil {
		f.Close()
		return true, err
	}
	return true, f.Close()
}

type KeyStatus string

const (
	KeySet         KeyStatus = "set"
	KeyPlaceholder KeyStatus = "placeholder"
	KeyMissing     KeyStatus = "missing"
)

type KeyReport struct {
	CredentialKey
	Status KeyStatus
}

// Credentials is the parsed content of a credentials file.
type Credentials map[string]string

func LoadCredentials(path string) (Credentials, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}
	return Credentials(env), nil
}

func (c Credentials) Status(key CredentialKey) KeyStatus {
	value, ok := c[key.Name]
	switch {
	case !ok || strings.TrimSpace(value) == "":
		return KeyMissing
	case value == key.Placeholder:
		return KeyPlaceholder
	default:
		return KeySet
	}
}

func (c Credentials) Check() []KeyReport {
	var reports []KeyReport
	for _, k := range CredentialKeys() {
		reports = append(reports, KeyReport{CredentialKey: k, Status: c.Status(k)})
	}
	return reports
}

// Validate returns ErrCredentialsIncomplete naming every required key that
// is missing or still holds its placeholder.
func (c Credentials) Validate() error {
	var required []string
	for _, k := range CredentialKeys() {
		if !k.Optional {
			required = append(required, k.Name)
		}
	}
	return c.Require(required...)
}

// Require is Validate restricted to names, reported in the order given.
func (c Credentials) Require(names ...string) error {
	keys := make(map[string]CredentialKey)
	for _, k := range CredentialKeys() {
		keys[k.Name] = k
	}

	var unset []string
	for _, name := range names {
		k, ok := keys[name]
		if !ok {
			k = CredentialKey{Name: name}
		}
		if c.Status(k) != KeySet {
			unset = append(unset, name)
		}
	}
	if len(unset) > 0 {
		return fmt.Errorf("%w: %s not set", ErrCredentialsIncomplete, strings.Join(unset, ", "))
	}
	return nil
}

// Project returns the LiveKit connection details, or nil if any of them is
// not set.
func (c Credentials) Project() *ProjectConfig {
	for _, k := range CredentialGroups[0].Keys {
		if c.Status(k) != KeySet {
			return nil
		}
	}
	return &ProjectConfig{
		Name:      CredentialsFile,
		URL:       c[KeyLiveKitURL],
		APIKey:    c[KeyLiveKitAPIKey],
		APISecret: c[KeyLiveKitAPISecret],
	}
}

func keyLine(key string) *regexp.Regexp {
	return regexp.MustCompile(`^\s*(?:export\s+)?` + regexp.QuoteMeta(key) + `\s*=`)
}

// SetCredential replaces the line assigning key in path, or appends one.
// Comments and every other line are kept as they are.
func SetCredential(path, key, value string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return err
	}

	re := keyLine(key)
	lines := strings.Split(string(content), "\n")
	replaced := false
	for i, l := range lines {
		if re.MatchString(l) {
			lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		if n := len(lines); n > 0 && lines[n-1] == "" {
			lines = append(lines[:n-1], line, "")
		} else {
			lines = append(lines, line)
		}
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), info.Mode().Perm())
}
