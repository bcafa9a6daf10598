// internal/version/version.go

// Package version carries the build version, set with
// -ldflags "-X seqfile/internal/version.Version=v1.2.3".
package version

var Version = "dev"
