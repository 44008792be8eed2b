package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fastside/fastside/internal/actualizer"
	"github.com/fastside/fastside/internal/actualizer/updaters"
	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/common"
	"github.com/fastside/fastside/internal/pinghistory"
)

// onlyNames is a repeatable -u flag collecting the service-name
// subset to actualize, mirroring spec.md §4.5's "or the explicit --update
// subset".
type onlyNames []string

func (o *onlyNames) String() string {
	return fmt.Sprintf("%v", *o)
}

func (o *onlyNames) Set(value string) error {
	*o = append(*o, value)
	return nil
}

func runActualize(args []string) {
	fs := flag.NewFlagSet("actualize", flag.ExitOnError)

	var configFiles configPaths
	fs.Var(&configFiles, "config", "configuration file path (repeatable)")
	fs.Var(&configFiles, "c", "configuration file path (shorthand)")

	output := fs.String("o", "", "output catalog path (default: same as SERVICES_FILE)")
	dataFile := fs.String("d", "data.json", "ping history data file path")
	maxParallel := fs.Int("max-parallel", 0, "concurrent instance probes (overrides config)")

	var only onlyNames
	fs.Var(&only, "u", "limit the run to this service name (repeatable)")

	fs.Parse(args)

	servicesFile := "services.json"
	if rest := fs.Args(); len(rest) > 0 {
		servicesFile = rest[0]
	}
	if *output == "" {
		*output = servicesFile
	}

	if err := loadConfigAndLogger(configFiles, 0, ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer common.Stop()

	data, err := catalog.Load(servicesFile)
	if err != nil {
		logger.Fatal().Err(err).Str("services_file", servicesFile).Msg("failed to load services file")
	}

	report := catalog.Validate(data)
	if !report.OK() {
		for _, e := range report.Errors {
			logger.Error().Str("detail", e).Msg("catalog validation error")
		}
		os.Exit(1)
	}

	history, err := pinghistory.LoadStore(*dataFile)
	if err != nil {
		logger.Fatal().Err(err).Str("data_file", *dataFile).Msg("failed to load ping history")
	}

	parallel := config.Actualizer.MaxParallel
	if *maxParallel != 0 {
		parallel = *maxParallel
	}

	cfg := actualizer.Config{
		MaxParallel: parallel,
		Timeout:     5 * time.Second,
		Proxies:     proxiesFromConfig(),
	}
	if len(only) > 0 {
		cfg.Only = make(map[string]struct{}, len(only))
		for _, name := range only {
			cfg.Only[name] = struct{}{}
		}
	}

	a := actualizer.New(updaters.NewRegistry(), history, logger, cfg)

	start := time.Now()
	summary := a.Run(context.Background(), data)
	elapsed := time.Since(start)

	report2 := summary.Snapshot()
	logger.Info().
		Dur("elapsed", elapsed).
		Int("added_services", len(report2.Added)).
		Int("removed_instances", len(report2.Removed)).
		Int("newly_empty_services", len(report2.EmptyWithoutDeprecation)).
		Msg("actualize run complete")

	if err := history.Save(*dataFile); err != nil {
		logger.Fatal().Err(err).Str("data_file", *dataFile).Msg("failed to write ping history")
	}
	if err := catalog.Save(*output, data); err != nil {
		logger.Fatal().Err(err).Str("output", *output).Msg("failed to write services file")
	}

	fmt.Printf("actualize: wrote %s and %s (%d service(s) added instances, %d instance(s) pruned)\n",
		*output, *dataFile, len(report2.Added), len(report2.Removed))
}
