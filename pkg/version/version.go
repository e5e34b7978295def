// Package version holds the build version string.
package version

// Version is the current release. Overridden at build time via
// -ldflags "-X scentline/pkg/version.Version=...".
var Version = "0.3.0-dev"
