// Package buildinfo carries build-time metadata injected through ldflags.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// Context holds the version and build date of the running binary.
type Context struct {
	Version   string
	BuildDate string
}

// New returns a Context, falling back to the module version recorded by
// the Go toolchain when version is empty.
func New(version, buildDate string) *Context {
	if version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
	return &Context{Version: version, BuildDate: buildDate}
}

// GetVersion returns the version, or UnknownValue.
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate returns the build date, or UnknownValue.
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// String formats the metadata for `oceanecho version`.
func (c *Context) String() string {
	return fmt.Sprintf("oceanecho %s (built %s, %s %s/%s)",
		c.GetVersion(), c.GetBuildDate(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
