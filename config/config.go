// config/config.go

// Package config loads server settings from .env, an optional YAML file
// and LUMI_* environment variables, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Workspace struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	TokenHash string `yaml:"token_hash"`
	// Token is a plain token, accepted for local development only. It is
	// hashed at startup.
	Token string `yaml:"token"`
}

type Config struct {
	Port             string      `yaml:"port"`
	DatabaseURL      string      `yaml:"database_url"`
	LogLevel         string      `yaml:"log_level"`
	LogFormat        string      `yaml:"log_format"`
	ImportDir        string      `yaml:"import_dir"`
	ImportWatch      bool        `yaml:"import_watch"`
	ImportWorkspace  string      `yaml:"import_workspace"`
	NormalizeUnicode bool        `yaml:"normalize_unicode"`
	Workspaces       []Workspace `yaml:"workspaces"`
}

func Default() Config {
	return Config{
		Port:      "8080",
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load reads .env (if present), the YAML file named by LUMI_CONFIG (if set)
// and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("LUMI_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strVars := map[string]*string{
		"LUMI_PORT":             &c.Port,
		"LUMI_DATABASE_URL":     &c.DatabaseURL,
		"LUMI_LOG_LEVEL":        &c.LogLevel,
		"LUMI_LOG_FORMAT":       &c.LogFormat,
		"LUMI_IMPORT_DIR":       &c.ImportDir,
		"LUMI_IMPORT_WORKSPACE": &c.ImportWorkspace,
	}
	for name, dst := range strVars {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	boolVars := map[string]*bool{
		"LUMI_IMPORT_WATCH":      &c.ImportWatch,
		"LUMI_NORMALIZE_UNICODE": &c.NormalizeUnicode,
	}
	for name, dst := range boolVars {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}

	// dev bootstrap of a single workspace
	if password, ok := lookup("LUMI_PASSWORD"); ok && password != "" {
		id, _ := lookup("LUMI_WORKSPACE")
		if id == "" {
			id = "default"
		}
		c.Workspaces = append(c.Workspaces, Workspace{ID: id, Name: id, Token: password})
	}
	return nil
}

func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}

	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (want console or json)", c.LogFormat)
	}

	seen := make(map[string]bool)
	for i, ws := range c.Workspaces {
		if ws.ID == "" {
			return fmt.Errorf("workspace %d: id required", i)
		}
		if seen[ws.ID] {
			return fmt.Errorf("workspace %s: duplicate id", ws.ID)
		}
		seen[ws.ID] = true
		if ws.TokenHash == "" && ws.Token == "" {
			return fmt.Errorf("workspace %s: token_hash required", ws.ID)
		}
	}

	if c.ImportDir != "" && c.ImportWorkspace == "" && len(c.Workspaces) != 1 {
		return errors.New("import_workspace required when importing with several workspaces")
	}
	return nil
}

// ImportWorkspaceID is the workspace imported contact files belong to.
func (c Config) ImportWorkspaceID() string {
	if c.ImportWorkspace != "" {
		return c.ImportWorkspace
	}
	if len(c.Workspaces) == 1 {
		return c.Workspaces[0].ID
	}
	return ""
}
