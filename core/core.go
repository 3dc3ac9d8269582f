package core

import (
	"fmt"
	"runtime"
	"time"
)

// const vars related to the application version
const (
	MajorVersion = "0"
	MinorVersion = "3"

	PrereleaseBlurb = "This version is pre-release and is not intended to be used as a production ready workshop management instance"
	IsRelease       = false
	Copyright       = "Copyright (c) 2019-2024 The Tallerd Developers."
	GitHub          = "GitHub: https://github.com/thrasher-corp/tallerd"
	Issues          = "Issues: https://github.com/thrasher-corp/tallerd/issues"
)

// vars populated at build time via ldflags
var (
	Commit    = ""
	BuildTime = ""
)

// Version returns the version string
func Version(short bool) string {
	versionStr := fmt.Sprintf("Tallerd v%s.%s %s %s",
		MajorVersion, MinorVersion, runtime.GOARCH, runtime.Version())
	if !IsRelease {
		versionStr += " pre-release.\n"
		if !short {
			versionStr += PrereleaseBlurb + "\n"
		}
	} else {
		versionStr += " release.\n"
	}
	if short {
		return versionStr
	}
	versionStr += Copyright + "\n"
	if Commit != "" {
		versionStr += fmt.Sprintf("Commit: %s\n", Commit)
	}
	if BuildTime != "" {
		versionStr += fmt.Sprintf("Build time: %s\n", BuildTime)
	}
	versionStr += GitHub + "\n"
	versionStr += Issues + "\n"
	return versionStr
}

// Banner returns the application banner with startup time
func Banner() string {
	return fmt.Sprintf("Tallerd workshop turn service started %s", time.Now().Format(time.RFC822))
}
