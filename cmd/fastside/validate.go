package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/common"
)

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)

	var configFiles configPaths
	fs.Var(&configFiles, "config", "configuration file path (repeatable)")
	fs.Var(&configFiles, "c", "configuration file path (shorthand)")
	services := fs.String("services", "", "services catalog path or HTTPS URL (overrides config)")

	fs.Parse(args)

	if err := loadConfigAndLogger(configFiles, 0, ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer common.Stop()

	source := config.Catalog.Source
	if *services != "" {
		source = *services
	}

	data, err := catalog.LoadFromSource(source)
	if err != nil {
		logger.Error().Err(err).Str("source", source).Msg("failed to load catalog")
		os.Exit(1)
	}

	report := catalog.Validate(data)

	for _, n := range report.Notices {
		logger.Info().Str("detail", n).Msg("notice")
	}
	for _, w := range report.Warnings {
		logger.Warn().Str("detail", w).Msg("warning")
	}
	for _, e := range report.Errors {
		logger.Error().Str("detail", e).Msg("error")
	}

	if !report.OK() {
		fmt.Fprintf(os.Stderr, "validate: %d error(s), %d warning(s)\n", len(report.Errors), len(report.Warnings))
		os.Exit(1)
	}

	fmt.Printf("validate: ok (%d service(s), %d warning(s))\n", len(data.Services), len(report.Warnings))
}
