package main

import (
	"fmt"
	"os"

	"github.com/tphakala/tinybeans-go/cmd"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/logging"
)

// version and buildDate are populated at build time via ldflags
var version = "dev"
var buildDate = "unknown"

func main() {
	// Central logging must exist before anything emits a log line
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	settings.Version = version
	settings.BuildDate = buildDate

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		os.Exit(1)
	}
}
