// Package version reports the build of the running s3fm binary.
//
// Release builds stamp the variables with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/s3fm/version.Version=1.4.0" ./cmd/s3fm
//
// Unstamped builds fall back to the VCS settings recorded by the Go toolchain.
package version
