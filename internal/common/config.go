package common

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the root application configuration, loaded from TOML files and
// overridden by FS__SECTION__KEY environment variables.
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	Logging     LoggingConfig    `toml:"logging"`
	Catalog     CatalogConfig    `toml:"catalog"`
	Crawler     CrawlerConfig    `toml:"crawler"`
	Actualizer  ActualizerConfig `toml:"actualizer"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"min=1,max=65535"`
}

// LoggingConfig controls Arbor log setup.
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // time.Format layout for log timestamps
}

// CatalogConfig controls where the services catalog is loaded from and how
// often a watcher checks it for changes.
type CatalogConfig struct {
	Source        string `toml:"source" validate:"required"` // filesystem path or HTTPS URL, auto-detected
	WatchInterval string `toml:"watch_interval"`              // how often the watcher polls Source for changes
	FailOnLoadErr bool   `toml:"fail_on_load_err"`             // not read: serve always refuses to start if the initial load fails
}

// ProxyConfig names one outbound proxy selectable via instance tags.
type ProxyConfig struct {
	Name     string `toml:"name"` // matched against an instance's tag set
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// CrawlerConfig controls probe behavior.
type CrawlerConfig struct {
	PingInterval          string        `toml:"ping_interval"`           // e.g. "5m"
	RequestTimeout        string        `toml:"request_timeout"`         // e.g. "5s"
	MaxConcurrentRequests int           `toml:"max_concurrent_requests" validate:"min=1"` // bounded executor width
	Proxies               []ProxyConfig `toml:"proxies"`
}

// ActualizerConfig controls the offline maintenance engine when it runs
// in schedule mode under `serve`, or as flags/defaults for the `actualize`
// subcommand.
type ActualizerConfig struct {
	Interval     string `toml:"interval"`      // cron-like sleep between runs, e.g. "24h"
	DataFile     string `toml:"data_file"`     // ping history document path
	MaxParallel  int    `toml:"max_parallel"`  // concurrent instance probes during a run
	UptimeFloor  int    `toml:"uptime_floor"`  // not read: pruning always uses pinghistory.UptimeFloor (30)
}

// NewDefaultConfig returns the configuration used before any file or
// environment override is applied.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 7878,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
		Catalog: CatalogConfig{
			Source:        "services.json",
			WatchInterval: "1m",
			FailOnLoadErr: true,
		},
		Crawler: CrawlerConfig{
			PingInterval:          "5m",
			RequestTimeout:        "5s",
			MaxConcurrentRequests: 200,
		},
		Actualizer: ActualizerConfig{
			Interval:    "24h",
			DataFile:    "ping_data.json",
			MaxParallel: 50,
			UptimeFloor: 30,
		},
	}
}

// LoadFromFiles loads configuration with priority:
// defaults -> file1 -> file2 -> ... -> env (FS__SECTION__KEY).
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides walks every FS__ prefixed environment variable and
// assigns it to the matching config field by toml tag path, e.g.
// FS__CRAWLER__PING_INTERVAL -> Config.Crawler.PingInterval.
//
// Unlike the teacher's per-field QUAERO_* handling, Fastside's config
// surface (crawler, catalog, actualizer, server, proxies) is wide enough
// that a generic reflect-driven walker is the better fit; see DESIGN.md.
func applyEnvOverrides(config *Config) {
	const prefix = "FS__"

	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, prefix) {
			continue
		}

		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			continue
		}
		key, value := kv[:eq], kv[eq+1:]

		path := strings.Split(strings.TrimPrefix(key, prefix), "__")
		if len(path) == 0 {
			continue
		}

		setByTagPath(reflect.ValueOf(config).Elem(), path, value)
	}
}

// setByTagPath descends a struct by successive toml tag components
// (case-insensitive) and assigns value to the leaf field once found.
func setByTagPath(v reflect.Value, path []string, value string) {
	if len(path) == 0 || v.Kind() != reflect.Struct {
		return
	}

	want := strings.ToLower(path[0])
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("toml")
		tag, _, _ = strings.Cut(tag, ",")
		if tag == "" {
			tag = strings.ToLower(field.Name)
		}
		if tag != want {
			continue
		}

		fv := v.Field(i)
		if len(path) > 1 {
			setByTagPath(fv, path[1:], value)
			return
		}
		assignScalar(fv, value)
		return
	}
}

// assignScalar converts value's textual form into fv's Go type.
func assignScalar(fv reflect.Value, value string) {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			fv.SetInt(n)
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			fv.SetBool(b)
		}
	case reflect.Slice:
		if fv.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i, p := range parts {
				parts[i] = strings.TrimSpace(p)
			}
			fv.Set(reflect.ValueOf(parts))
		}
	}
}

// ApplyFlagOverrides layers CLI flag values (highest priority) on top of
// whatever file/env configuration was already loaded.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction reports whether the configured environment is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate checks the fully-resolved configuration (after file, env, and
// flag overrides) against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
