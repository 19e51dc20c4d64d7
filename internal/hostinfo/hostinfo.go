// Package hostinfo collects machine metadata for the report header.
package hostinfo

import (
	"os"
	"os/user"
	"runtime"

	"github.com/mhalverson/macmaint/internal/types"
	"github.com/shirou/gopsutil/v4/host"
)

// Detect gathers host metadata with graceful fallbacks; it never fails.
// A machine where detection is partially broken still gets a report, just
// with thinner header metadata.
func Detect() types.ReportHost {
	rh := types.ReportHost{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if h, err := os.Hostname(); err == nil {
		rh.Hostname = h
	}

	if info, err := host.Info(); err == nil {
		if info.Hostname != "" {
			rh.Hostname = info.Hostname
		}
		if info.PlatformVersion != "" {
			rh.OSVersion = info.PlatformVersion
		} else {
			rh.OSVersion = info.KernelVersion
		}
	}

	if u, err := user.Current(); err == nil && u.Username != "" {
		rh.Username = u.Username
	} else if name := os.Getenv("USER"); name != "" {
		rh.Username = name
	} else {
		rh.Username = "unknown"
	}

	return rh
}
