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

package bootstrap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Requirement is a Python package with a minimum version constraint.
type Requirement struct {
	Name       string
	MinVersion string
}

var DefaultRequirements = []Requirement{
	{Name: "livekit-agents", MinVersion: "1.0.0"},
	{Name: "livekit-plugins-groq", MinVersion: "1.0.0"},
	{Name: "livekit-plugins-elevenlabs", MinVersion: "1.0.0"},
	{Name: "livekit-plugins-silero", MinVersion: "1.0.0"},
	{Name: "flask", MinVersion: "2.3.0"},
	{Name: "aiohttp", MinVersion: "3.8.0"},
	{Name: "PyJWT", MinVersion: "2.8.0"},
	{Name: "python-dotenv", MinVersion: "1.0.0"},
	{Name: "requests", MinVersion: "2.31.0"},
}

var (
	nameSeparators     = regexp.MustCompile(`[-_.]+`)
	specifierPrefix    = regexp.MustCompile(`^[=~><!]+`)
	leadingLetter      = regexp.MustCompile(`^[a-zA-Z]`)
	gluedPrerelease    = regexp.MustCompile(`^(\d+(?:\.\d+)*)([a-zA-Z][a-zA-Z0-9]*.*)$`)
	localVersionSuffix = regexp.MustCompile(`\+.*$`)
	postRelease        = regexp.MustCompile(`[._-]?post(\d*)$`)
	// pre-releases that count as their final release; dev releases do not
	candidateRelease   = regexp.MustCompile(`^(?:a|b|c|rc|alpha|beta|pre|preview)\d*$`)
)

// Specifier renders the requirement the way pip expects it on the command line.
func (r Requirement) Specifier() string {
	if r.MinVersion == "" {
		return r.Name
	}
	return r.Name + ">=" + r.MinVersion
}

func (r Requirement) String() string {
	return r.Specifier()
}

// Satisfied reports whether an installed version meets the minimum.
func (r Requirement) Satisfied(installed string) (bool, error) {
	if r.MinVersion == "" {
		return installed != "", nil
	}

	v, err := semver.NewVersion(normalizeVersion(installed))
	if err != nil {
		return false, fmt.Errorf("invalid version format: %s", installed)
	}
	min, err := semver.NewVersion(normalizeVersion(r.MinVersion))
	if err != nil {
		return false, fmt.Errorf("invalid minimum version format: %s", r.MinVersion)
	}

	if !v.LessThan(min) {
		return true, nil
	}

	// 1.3.0rc1 counts as 1.3.0, 1.3.0.dev1 does not
	if candidateRelease.MatchString(v.Prerelease()) {
		base, err := v.SetPrerelease("")
		if err == nil && base.Equal(min) {
			return true, nil
		}
	}
	return false, nil
}

// NormalizeName folds a distribution name the way package indexes compare
// them, so "PyJWT" and "pyjwt" match.
func NormalizeName(name string) string {
	return strings.ToLower(nameSeparators.ReplaceAllString(strings.TrimSpace(name), "-"))
}

// UnmetRequirement describes a requirement that is missing or too old.
type UnmetRequirement struct {
	Requirement
	Installed string
	Err       error
}

func (u UnmetRequirement) String() string {
	switch {
	case u.Err != nil:
		return fmt.Sprintf("%s: %v", u.Specifier(), u.Err)
	case u.Installed == "":
		return fmt.Sprintf("%s: not installed", u.Specifier())
	default:
		return fmt.Sprintf("%s: found %s", u.Specifier(), u.Installed)
	}
}

// VerifyInstalled compares a name→version map against reqs and returns the
// ones that are not met, in the order of reqs.
func VerifyInstalled(installed map[string]string, reqs []Requirement) []UnmetRequirement {
	normalized := make(map[string]string, len(installed))
	for name, version := range installed {
		normalized[NormalizeName(name)] = version
	}

	var unmet []UnmetRequirement
	for _, req := range reqs {
		version, ok := normalized[NormalizeName(req.Name)]
		if !ok {
			unmet = append(unmet, UnmetRequirement{Requirement: req})
			continue
		}
		satisfied, err := req.Satisfied(version)
		if err != nil || !satisfied {
			unmet = append(unmet, UnmetRequirement{Requirement: req, Installed: version, Err: err})
		}
	}
	return unmet
}

func normalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	version = strings.Trim(version, " \"'")
	version = specifierPrefix.ReplaceAllString(version, "")
	version = localVersionSuffix.ReplaceAllString(version, "")

	// post releases sort right after their release, build metadata keeps
	// them equal to it: 2.8.0.post1 -> 2.8.0+post1
	version = postRelease.ReplaceAllString(version, "+post$1")

	// 1.0.0.rc2 -> 1.0.0-rc2
	if dot := strings.LastIndex(version, "."); dot > 0 && dot < len(version)-1 {
		if leadingLetter.MatchString(version[dot+1:]) {
			version = version[:dot] + "-" + version[dot+1:]
		}
	}

	// 1.3.0rc1 -> 1.3.0-rc1, 1.3rc -> 1.3.0-rc
	if m := gluedPrerelease.FindStringSubmatch(version); m != nil {
		parts := strings.Split(m[1], ".")
		for len(parts) < 3 {
			parts = append(parts, "0")
		}
		version = strings.Join(parts, ".") + "-" + m[2]
	}

	return version
}
