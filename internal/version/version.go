// Package version holds the build version of hermes-export.
package version

// Version is overridden at build time with
// -ldflags "-X github.com/hashicorp-forge/hermes-export/internal/version.Version=..."
var Version = "0.1.0-dev"
