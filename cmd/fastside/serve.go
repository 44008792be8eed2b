package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fastside/fastside/internal/actualizer"
	"github.com/fastside/fastside/internal/actualizer/updaters"
	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/common"
	"github.com/fastside/fastside/internal/crawler"
	"github.com/fastside/fastside/internal/httpapi"
	"github.com/fastside/fastside/internal/pinghistory"
	"github.com/fastside/fastside/internal/probeclient"
	"github.com/fastside/fastside/internal/resolver"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)

	var configFiles configPaths
	fs.Var(&configFiles, "config", "configuration file path (repeatable)")
	fs.Var(&configFiles, "c", "configuration file path (shorthand)")

	services := fs.String("services", "", "services catalog path or HTTPS URL (overrides config)")
	listen := fs.String("listen", "", "host:port to listen on (overrides config)")
	workers := fs.Int("workers", 0, "crawler probe concurrency (overrides config)")
	skipWait := fs.Bool("skip-wait", false, "start serving before the first crawl completes")
	pingDataFile := fs.String("ping-data-file", "", "ping history document path (default: actualizer.data_file)")
	savePingData := fs.Bool("save-ping-data", false, "persist ping history to -ping-data-file after each scheduled actualize run and on shutdown")
	loadPingData := fs.Bool("load-ping-data", false, "load ping history from -ping-data-file at startup")

	fs.Parse(args)

	port, host := parseListen(*listen)
	if err := loadConfigAndLogger(configFiles, port, host); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer common.Stop()

	common.InstallCrashHandler("./logs")
	defer common.RecoverWithCrashFile()

	if *services != "" {
		config.Catalog.Source = *services
	}

	common.PrintBanner(config, logger)

	store, report, err := catalog.NewStore(config.Catalog.Source, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load services catalog")
	}
	for _, w := range report.Warnings {
		logger.Warn().Str("detail", w).Msg("catalog validation warning")
	}

	width := config.Crawler.MaxConcurrentRequests
	if *workers != 0 {
		width = *workers
	}
	requestTimeout, err := time.ParseDuration(config.Crawler.RequestTimeout)
	if err != nil {
		logger.Fatal().Err(err).Str("request_timeout", config.Crawler.RequestTimeout).Msg("invalid crawler.request_timeout")
	}
	pingInterval, err := time.ParseDuration(config.Crawler.PingInterval)
	if err != nil {
		logger.Fatal().Err(err).Str("ping_interval", config.Crawler.PingInterval).Msg("invalid crawler.ping_interval")
	}

	probeFn := crawler.NewProbeFunc(requestTimeout, proxiesFromConfig())
	cr := crawler.New(store, logger, width, probeFn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *skipWait {
		common.SafeGo(logger, "initial-crawl", func() { cr.Crawl(ctx) })
	} else {
		cr.Crawl(ctx)
	}
	common.SafeGoWithContext(ctx, logger, "crawler-loop", func() { cr.Loop(ctx, pingInterval) })
	common.SafeGoWithContext(ctx, logger, "catalog-watcher", func() { watchCatalog(ctx, store, cr) })

	var history *pinghistory.Store
	var cronRunner *cron.Cron
	dataFile := *pingDataFile
	if dataFile == "" {
		dataFile = config.Actualizer.DataFile
	}
	if *loadPingData {
		history, err = pinghistory.LoadStore(dataFile)
		if err != nil {
			logger.Fatal().Err(err).Str("ping_data_file", dataFile).Msg("failed to load ping history")
		}
	} else {
		history = pinghistory.NewStore()
	}

	cronRunner = cron.New()
	_, err = cronRunner.AddFunc("@every "+config.Actualizer.Interval, func() {
		runScheduledActualize(ctx, store, history, *savePingData, dataFile)
	})
	if err != nil {
		logger.Fatal().Err(err).Str("interval", config.Actualizer.Interval).Msg("invalid actualizer.interval")
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	res := resolver.New(store, cr, logger)
	server := httpapi.New(store, cr, res, logger, config.Server.Host, config.Server.Port)

	serverErr := make(chan error, 1)
	common.SafeGo(logger, "http-server", func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("interrupt signal received")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server failed to start")
		os.Exit(1)
	}

	common.PrintShutdownBanner(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	if *savePingData {
		if err := history.Save(dataFile); err != nil {
			logger.Error().Err(err).Str("ping_data_file", dataFile).Msg("failed to save ping history on shutdown")
		}
	}
}

// parseListen splits a "-listen host:port" flag value into the parts
// ApplyFlagOverrides expects; an empty value leaves both unset.
func parseListen(listen string) (port int, host string) {
	if listen == "" {
		return 0, ""
	}
	h, p, err := net.SplitHostPort(listen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fastside: invalid -listen value %q: %v\n", listen, err)
		os.Exit(1)
	}
	portNum, err := strconv.Atoi(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fastside: invalid -listen port %q: %v\n", p, err)
		os.Exit(1)
	}
	return portNum, h
}

// proxiesFromConfig adapts config.Crawler.Proxies into probeclient's Proxy shape.
func proxiesFromConfig() []probeclient.Proxy {
	out := make([]probeclient.Proxy, 0, len(config.Crawler.Proxies))
	for _, p := range config.Crawler.Proxies {
		out = append(out, probeclient.Proxy{Name: p.Name, URL: p.URL, Username: p.Username, Password: p.Password})
	}
	return out
}

// watchCatalog reloads the catalog store from its source every
// config.Catalog.WatchInterval. It triggers a crawler reload only when the
// reloaded catalog has a different number of services than the previous
// one; other changes reach the snapshot on the crawler loop's next pass.
func watchCatalog(ctx context.Context, store *catalog.Store, cr *crawler.Crawler) {
	interval, err := time.ParseDuration(config.Catalog.WatchInterval)
	if err != nil {
		logger.Warn().Err(err).Str("watch_interval", config.Catalog.WatchInterval).Msg("invalid catalog.watch_interval, catalog watcher disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	before := store.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Reload(); err != nil {
				logger.Warn().Err(err).Msg("catalog reload failed, keeping previous catalog")
				continue
			}
			after := store.Get()
			if len(after.Services) != len(before.Services) {
				cr.UpdateCrawl(ctx)
			}
			before = after
		}
	}
}

// runScheduledActualize runs one actualizer pass against a copy of the
// live catalog and writes the resulting catalog and (if requested) ping
// history back to disk.
func runScheduledActualize(ctx context.Context, store *catalog.Store, history *pinghistory.Store, save bool, dataFile string) {
	logger.Info().Msg("starting scheduled actualize run")

	live := store.Get()
	data := &catalog.StoredData{Services: make([]catalog.Service, len(live.Services))}
	for i, svc := range live.Services {
		svc.Instances = append([]catalog.Instance(nil), svc.Instances...)
		data.Services[i] = svc
	}
	cfg := actualizer.Config{
		MaxParallel: config.Actualizer.MaxParallel,
		Timeout:     5 * time.Second,
		Proxies:     proxiesFromConfig(),
	}
	a := actualizer.New(updaters.NewRegistry(), history, logger, cfg)
	summary := a.Run(ctx, data)
	report := summary.Snapshot()

	if catalog.IsRemoteSource(config.Catalog.Source) {
		logger.Warn().Msg("catalog source is remote, skipping write-back of scheduled actualize results")
	} else if err := catalog.Save(config.Catalog.Source, data); err != nil {
		logger.Error().Err(err).Msg("failed to write catalog after scheduled actualize run")
	}
	if save {
		if err := history.Save(dataFile); err != nil {
			logger.Error().Err(err).Str("ping_data_file", dataFile).Msg("failed to save ping history")
		}
	}

	logger.Info().
		Int("added_services", len(report.Added)).
		Int("removed_instances", len(report.Removed)).
		Int("newly_empty_services", len(report.EmptyWithoutDeprecation)).
		Msg("scheduled actualize run complete")
}
