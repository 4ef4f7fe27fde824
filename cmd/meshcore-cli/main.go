package main

import (
	"github.com/iamruinous/meshcore-go/internal/cli"
)

// Build information, injected at compile time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	cli.Execute()
}
