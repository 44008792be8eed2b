// -----------------------------------------------------------------------
// cmd/fastside - serve, validate, and actualize subcommands
// -----------------------------------------------------------------------

package main

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/fastside/fastside/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	config *common.Config
	logger arbor.ILogger
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "actualize":
		runActualize(os.Args[2:])
	case "-v", "--version", "version":
		fmt.Printf("fastside version %s\n", common.GetFullVersion())
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "fastside: unknown subcommand %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `fastside is a privacy mirror redirector.

Usage:
  fastside serve     [-config FILE]... [-services SRC] [-listen HOST:PORT] [-workers N] [-skip-wait] [-ping-data-file PATH] [-save-ping-data] [-load-ping-data]
  fastside validate  [-config FILE]... [-services SRC]
  fastside actualize [-config FILE]... [-o PATH] [-d PATH] [-max-parallel N] [-u NAME]... [SERVICES_FILE]
  fastside version
  fastside help`)
}

// loadConfigAndLogger runs every subcommand's shared startup sequence:
// defaults -> file(s) -> env -> flag overrides, then the logger.
func loadConfigAndLogger(configFiles []string, port int, host string) error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("fastside.toml"); err == nil {
			configFiles = append(configFiles, "fastside.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	common.ApplyFlagOverrides(config, port, host)

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = common.SetupLogger(config)
	return nil
}
