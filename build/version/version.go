// Copyright 2021 FerretDB Inc.
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

// Package version provides information about bobject version and build configuration.
//
// # Extra files
//
// The following generated text files may be present in this (`build/version`) directory during building:
//   - version.txt (optional) contains information about the version in a format
//     similar to `git describe` output: `v<major>.<minor>.<patch>`.
//   - commit.txt (optional) contains information about the source git commit.
//   - branch.txt (optional) contains information about the source git branch.
//   - package.txt (optional) contains package type (e.g. "deb", "rpm", "docker", etc).
//
// bsonspec.txt is always present and contains the version of the BSON specification
// implemented by the internal/bson package.
//
// # Go build tags
//
// The following Go build tags (also known as build constraints) affect builds:
//
//	bobject_debug - enables debug build (see below; implied by builds with race detector)
//
// # Debug builds
//
// Debug builds behave differently in a few aspects:
//   - they are significantly slower;
//   - leaked resources (rows, transactions, iterators) cause crashes instead of being ignored;
//   - stack traces are collected more liberally;
//   - the default logging level is set to debug.
package version

import (
	"embed"
	"fmt"
	"regexp"
	"runtime"
	runtimedebug "runtime/debug"
	"strconv"
	"strings"

	"github.com/FerretDB/bobject/internal/util/debugbuild"
	"github.com/FerretDB/bobject/internal/util/must"
)

//go:generate go run ./generate.go

//go:embed *.txt
var gen embed.FS

// Info provides details about the current build.
//
//nolint:vet // for readability
type Info struct {
	Version          string
	Commit           string
	Branch           string
	Dirty            bool
	Package          string
	DebugBuild       bool
	BuildEnvironment map[string]string

	// BSONSpecVersion is the version of https://bsonspec.org/spec.html implemented by the internal/bson package.
	BSONSpecVersion string
}

// info singleton instance set by init().
var info *Info

// unknown is a placeholder for unknown version, commit, and branch values.
const unknown = "unknown"

// module path from go.mod.
const module = "github.com/FerretDB/bobject"

// semVerTag is a https://semver.org/#is-there-a-suggested-regular-expression-regex-to-check-a-semver-string,
// but with a leading `v`.
//
//nolint:lll // for readability
var semVerTag = regexp.MustCompile(`^v(?P<major>0|[1-9]\d*)\.(?P<minor>0|[1-9]\d*)\.(?P<patch>0|[1-9]\d*)(?:-(?P<prerelease>(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+(?P<buildmetadata>[0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// Get returns current build's info.
//
// It returns a shared instance without any synchronization.
// If caller needs to modify the instance, it should make sure there is no concurrent accesses.
func Get() *Info {
	return info
}

// initFromFiles initializes info from txt files (that might be absent).
func initFromFiles() {
	info = &Info{
		Version:    unknown,
		Commit:     unknown,
		Branch:     unknown,
		Dirty:      false,
		Package:    unknown,
		DebugBuild: debugbuild.Enabled,
		BuildEnvironment: map[string]string{
			"go.runtime": runtime.Version(),
		},
		BSONSpecVersion: strings.TrimSpace(string(must.NotFail(gen.ReadFile("bsonspec.txt")))),
	}

	for f, sp := range map[string]*string{
		"version.txt": &info.Version,
		"commit.txt":  &info.Commit,
		"branch.txt":  &info.Branch,
		"package.txt": &info.Package,
	} {
		b, _ := gen.ReadFile(f)
		if s := strings.TrimSpace(string(b)); s != "" {
			*sp = s
		}
	}
}

// readBuildInfo returns version and commit from the build info.
// It also updates info.BuildEnvironment and info.Dirty when the main module is this one.
func readBuildInfo() (version, commit string) {
	buildInfo, ok := runtimedebug.ReadBuildInfo()
	if !ok {
		return
	}

	info.BuildEnvironment["go.version"] = buildInfo.GoVersion

	if buildInfo.Main.Path == module {
		version = buildInfo.Main.Version
		if version == "(devel)" {
			version = ""
		}

		for _, s := range buildInfo.Settings {
			if v := s.Value; v != "" {
				info.BuildEnvironment[s.Key] = v
			}

			switch s.Key {
			case "vcs.revision":
				commit = s.Value
			case "vcs.modified":
				info.Dirty = must.NotFail(strconv.ParseBool(s.Value))
			}
		}

		return
	}

	// used as a dependency; vcs settings refer to the other repository
	for _, dep := range buildInfo.Deps {
		if dep.Path != module {
			continue
		}

		version = dep.Version
		if dep.Replace != nil {
			version = dep.Replace.Version
		}

		if version == "(devel)" {
			version = ""
		}

		break
	}

	return
}

func init() {
	initFromFiles()

	version, commit := readBuildInfo()

	if info.Version == unknown && version != "" {
		info.Version = version
	}

	if info.Commit == unknown && commit != "" {
		info.Commit = commit
	}

	if info.Version != unknown {
		if match := semVerTag.FindStringSubmatch(info.Version); match == nil || len(match) != semVerTag.NumSubexp()+1 {
			msg := fmt.Sprintf("info.Version: %q, version: %q\n", info.Version, version)
			msg += "Invalid build/version/version.txt file content. Please run `go generate ./build/version`.\n"
			msg += "Alternatively, create this file manually with a content similar to\n"
			msg += "the output of `git describe`: `v<major>.<minor>.<patch>`."
			panic(msg)
		}
	}
}
