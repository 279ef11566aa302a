// Package config loads the server configuration from defaults, a TOML file, the environment and
// command line flags, later sources overriding earlier ones.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigFile = "todos.toml"
	envPrefix         = "TODOS_"
)

const (
	DriverSQLite   = "sqlite"
	DriverJSONFile = "jsonfile"
	DriverMemory   = "memory"
)

type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Addr            string   `toml:"addr"`
	CORS            bool     `toml:"cors"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver    string `toml:"driver"`
	Path      string `toml:"path"`
	Table     string `toml:"table"`
	Partition string `toml:"partition"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration decodes TOML strings such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "localhost:8080",
			CORS:            true,
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Store: StoreConfig{
			Driver:    DriverSQLite,
			Path:      "todos.sqlite3",
			Table:     "todos",
			Partition: "todo",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the file named by -config (or todos.toml in the
// working directory when present), then TODOS_* environment variables, then flags.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Default()

	configPath := fs.String("config", "", "path to a TOML config file")
	addr := fs.String("addr", "", "the address to listen on")
	driver := fs.String("store", "", "store driver: sqlite, jsonfile or memory")
	path := fs.String("store-path", "", "database or JSON file path")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	logFormat := fs.String("log-format", "", "text or json")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	file := *configPath
	required := file != ""
	if file == "" {
		file = DefaultConfigFile
	}
	if err := loadFile(cfg, file, required); err != nil {
		return nil, err
	}

	if err := loadEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "store":
			cfg.Store.Driver = *driver
		case "store-path":
			cfg.Store.Path = *path
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in config file %s: %v", path, undecoded)
	}
	return nil
}

func loadEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ADDR":            &cfg.Server.Addr,
		"STORE_DRIVER":    &cfg.Store.Driver,
		"STORE_PATH":      &cfg.Store.Path,
		"STORE_TABLE":     &cfg.Store.Table,
		"STORE_PARTITION": &cfg.Store.Partition,
		"LOG_LEVEL":       &cfg.Log.Level,
		"LOG_FORMAT":      &cfg.Log.Format,
	}
	for name, dst := range strs {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	if v, ok := lookup(envPrefix + "CORS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sCORS: %w", envPrefix, err)
		}
		cfg.Server.CORS = b
	}
	if v, ok := lookup(envPrefix + "SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sSHUTDOWN_TIMEOUT: %w", envPrefix, err)
		}
		cfg.Server.ShutdownTimeout = Duration{d}
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverJSONFile:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for driver %s", c.Store.Driver))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Store.Table == "" {
		errs = append(errs, errors.New("store.table is empty"))
	}
	if c.Store.Partition == "" {
		errs = append(errs, errors.New("store.partition is empty"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
