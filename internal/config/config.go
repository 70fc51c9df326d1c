// Package config loads the driver's runtime options from a YAML file,
// an optional .env file, and environment variables, applied in that
// order so each later source overrides the former.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"udl/pkg/udl"
)

// Config is the fully-resolved runtime configuration: the advisory
// udl.Options plus the device allow-list extension.
type Config struct {
	Options udl.Options

	// AllowSerials, when non-empty, restricts which attached devices a
	// daemon will claim. An empty list means "allow everything".
	AllowSerials []string
}

// fileConfig mirrors the YAML document shape.
type fileConfig struct {
	Verbose        bool     `yaml:"verbose"`
	StrictChecksum bool     `yaml:"strict_checksum"`
	AllowSerials   []string `yaml:"allow_serials"`
}

// Load resolves a Config from, in increasing precedence: yamlPath (if
// non-empty and the file exists), a .env file found by walking up from
// the working directory to the nearest go.mod, then environment
// variables (UDL_VERBOSE, UDL_STRICT_CHECKSUM, UDL_ALLOW_SERIALS).
func Load(yamlPath string) (*Config, error) {
	cfg := &Config{}

	if yamlPath != "" {
		if data, err := os.ReadFile(yamlPath); err == nil {
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return nil, err
			}
			cfg.Options.Verbose = fc.Verbose
			cfg.Options.StrictChecksum = fc.StrictChecksum
			cfg.AllowSerials = fc.AllowSerials
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	envPath := filepath.Join(findProjectRoot(), ".env")
	if data, err := os.ReadFile(envPath); err == nil {
		applyEnvFile(string(data), cfg)
	}

	applyEnviron(cfg)

	return cfg, nil
}

func applyEnvFile(content string, cfg *Config) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		applyKV(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), cfg)
	}
}

func applyEnviron(cfg *Config) {
	for _, key := range []string{"UDL_VERBOSE", "UDL_STRICT_CHECKSUM", "UDL_ALLOW_SERIALS"} {
		if v, ok := os.LookupEnv(key); ok {
			applyKV(key, v, cfg)
		}
	}
}

func applyKV(key, value string, cfg *Config) {
	switch key {
	case "UDL_VERBOSE":
		if b, err := strconv.ParseBool(value); err == nil {
			cfg.Options.Verbose = b
		}
	case "UDL_STRICT_CHECKSUM":
		if b, err := strconv.ParseBool(value); err == nil {
			cfg.Options.StrictChecksum = b
		}
	case "UDL_ALLOW_SERIALS":
		if value == "" {
			cfg.AllowSerials = nil
			return
		}
		var out []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		cfg.AllowSerials = out
	}
}

func findProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return cwd
		}
		cwd = parent
	}
}

// IsAllowed reports whether serial may be claimed: true if the
// allow-list is empty, or if serial appears in it.
func (c *Config) IsAllowed(serial string) bool {
	if len(c.AllowSerials) == 0 {
		return true
	}
	for _, s := range c.AllowSerials {
		if s == serial {
			return true
		}
	}
	return false
}
