// Package version carries the build version, overridden at link time:
//
//	go build -ldflags "-X bamstats/internal/version.Version=v1.2.3" ./cmd/bamstats
package version

var Version = "dev"
