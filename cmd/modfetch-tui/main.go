package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/modfetch/internal/config"
	"github.com/handiism/modfetch/internal/logging"
	"github.com/handiism/modfetch/internal/tui"
)

func main() {
	var (
		configFlag  = flag.String("config", "", "Path to config file (default is $XDG_CONFIG_HOME/modfetch/config.toml)")
		envFileFlag = flag.String("env-file", ".env", "Load environment variables from this file if it exists")
		verboseFlag = flag.Int("v", 0, "Log verbosity written to the log file (0-3)")
	)
	flag.Parse()

	// The alternate screen owns the terminal, so logs only go to the file.
	logging.Setup(*verboseFlag, "", nil)

	if err := config.LoadDotEnv(*envFileFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	path := *configFlag
	if path == "" {
		path = config.DefaultPath()
	}
	settings, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(2)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
