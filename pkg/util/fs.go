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

package util

import (
	"io/fs"
)

// FileExists reports whether filename is a regular file in dir.
func FileExists(dir fs.FS, filename string) bool {
	s, err := fs.Stat(dir, filename)
	return err == nil && !s.IsDir()
}

// DirExists reports whether name is a directory in dir.
func DirExists(dir fs.FS, name string) bool {
	s, err := fs.Stat(dir, name)
	return err == nil && s.IsDir()
}
