package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/rimareum/gatekeeper/pkg/version.Version=...".
var (
	Version   = "0.4.0"
	Commit    = "dev"
	BuildDate = "unknown"
)

const AppName = "RIMAREUM Gatekeeper"

type Info struct {
	AppName   string `json:"app_name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetInfo() Info {
	return Info{
		AppName:   AppName,
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the startup banner, e.g. "RIMAREUM Gatekeeper 0.4.0 (dev, linux/amd64)".
func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s, %s)", i.AppName, i.Version, i.Commit, i.Platform)
}
