// Package model defines the data structures used throughout the application.
package model

import "fmt"

// VersionInfo is the build metadata stamped in by the release linker flags.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// String renders the version banner printed by --version.
func (v VersionInfo) String() string {
	return fmt.Sprintf("aws-cloud-wellness version %s\ncommit: %s\nbuilt at: %s", v.Version, v.Commit, v.Date)
}
