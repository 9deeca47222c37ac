// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
)

var (
	// commitHash contains the current Git revision.
	// Set with -ldflags "-X github.com/penny-vault/portana/common.commitHash=..."
	commitHash string

	// buildDate contains the date of the current build.
	buildDate string

	// vendorInfo contains vendor notes about the current build.
	vendorInfo string
)

// Version represents a SemVer 2.0.0 compatible build version
type Version struct {
	// Increment this for backwards incompatible changes
	Major int

	// Increment this for feature releases
	Minor int

	// Increment this for bug releases
	Patch int

	// Suffix is the pre-release suffix of the version string.
	// It will be blank for release versions.
	Suffix string
}

func (v Version) String() string {
	metadata := ""
	preRelease := ""

	if v.Suffix != "" {
		preRelease = fmt.Sprintf("-%s", v.Suffix)
		if commitHash != "" {
			metadata = fmt.Sprintf("+%s", strings.ToLower(commitHash))
		}
	}

	return fmt.Sprintf("%d.%d.%d%s%s", v.Major, v.Minor, v.Patch, preRelease, metadata)
}

// BuildInfo describes the running binary
type BuildInfo struct {
	Program   string
	Version   string
	OSArch    string
	GoVersion string
	Commit    string
	BuildDate string
	Vendor    string

	// Deps holds module="version" pairs sorted by module path
	Deps []string
}

// ReadBuildInfo collects the build information of the running binary. Values
// set with -ldflags win over the VCS stamp the go tool embeds.
func ReadBuildInfo() *BuildInfo {
	info := &BuildInfo{
		Program:   "portana",
		Version:   "v" + CurrentVersion.String(),
		OSArch:    runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion: runtime.Version(),
		Commit:    commitHash,
		BuildDate: buildDate,
		Vendor:    vendorInfo,
		Deps:      []string{},
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch {
			case setting.Key == "vcs.revision" && info.Commit == "":
				info.Commit = setting.Value
			case setting.Key == "vcs.time" && info.BuildDate == "":
				info.BuildDate = setting.Value
			}
		}

		for _, dep := range bi.Deps {
			if dep.Replace != nil {
				dep = dep.Replace
			}
			info.Deps = append(info.Deps, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
		}
		sort.Strings(info.Deps)
	}

	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}

	return info
}

// String renders the version banner printed by "portana version"
func (info *BuildInfo) String() string {
	res := fmt.Sprintf(`%s %s %s

Build Date: %s
Commit: %s
Built with: %s`,
		info.Program, info.Version, info.OSArch, info.BuildDate, info.Commit, info.GoVersion)

	if info.Vendor != "" {
		res += "\nVendor Info: " + info.Vendor
	}
	return res
}

// DepString lists the modules compiled into the binary
func (info *BuildInfo) DepString() string {
	return "Dependencies:\n\n" + strings.Join(info.Deps, "\n")
}
