// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package build

import (
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

// These constants define the application version and follow the semantic
// versioning 2.0.0 spec (http://semver.org/).
const (
	AppMajor uint = 0
	AppMinor uint = 1
	AppPatch uint = 0
)

// Version returns the application version as a properly formed string with
// the short commit the binary was built from, when known.
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", AppMajor, AppMinor, AppPatch)

	switch commit := versioninfo.Short(); commit {
	case "", "unknown", "devel", "(devel)":
	default:
		version = fmt.Sprintf("%s+%s", version, commit)
	}

	return version
}
