// Package buildinfo carries build-time metadata injected via -ldflags:
//
//	-X 'github.com/iulicovete-ux/Documente-CV/core/buildinfo.Version=v1.0.0'
//	-X 'github.com/iulicovete-ux/Documente-CV/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/iulicovete-ux/Documente-CV/core/buildinfo.Date=2026-01-01T00:00:00Z'
package buildinfo

var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)
