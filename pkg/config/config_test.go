package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todos.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadLayering(t *testing.T) {
	path := writeFile(t, `
[server]
addr = "0.0.0.0:9000"
cors = false
shutdown_timeout = "3s"

[store]
driver = "jsonfile"
path = "from-file.json"
partition = "home"

[log]
level = "debug"
`)
	t.Setenv("TODOS_STORE_PATH", "from-env.json")
	t.Setenv("TODOS_LOG_FORMAT", "json")

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config", path, "-addr", ":7000"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("flag should win, addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.CORS {
		t.Error("file should disable cors")
	}
	if cfg.Server.ShutdownTimeout.Duration != 3*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Store.Driver != "jsonfile" || cfg.Store.Partition != "home" || cfg.Store.Table != "todos" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.Path != "from-env.json" {
		t.Errorf("env should override file, path = %q", cfg.Store.Path)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config", filepath.Join(t.TempDir(), "nope.toml")})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "[store]\ndriverr = \"sqlite\"\n")
	_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config", path})
	if err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadEnvBool(t *testing.T) {
	cfg := Default()
	env := map[string]string{"TODOS_CORS": "nah"}
	err := loadEnv(cfg, func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	if err == nil {
		t.Fatal("expected invalid bool to fail")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown driver": func(c *Config) { c.Store.Driver = "postgres" },
		"missing path":   func(c *Config) { c.Store.Path = "" },
		"empty table":    func(c *Config) { c.Store.Table = "" },
		"empty part":     func(c *Config) { c.Store.Partition = "" },
		"bad format":     func(c *Config) { c.Log.Format = "xml" },
		"empty addr":     func(c *Config) { c.Server.Addr = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	c := Default()
	c.Store.Driver = DriverMemory
	c.Store.Path = ""
	if err := c.Validate(); err != nil {
		t.Errorf("memory driver needs no path: %v", err)
	}
}
