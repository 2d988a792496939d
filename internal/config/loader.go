package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Environment variables consulted by Load
const (
	EnvFunctionsDir       = "LLM_FUNCTIONS_DIR"
	EnvAichatFunctionsDir = "AICHAT_FUNCTIONS_DIR"
	EnvFunctionsJSON      = "LLM_FUNCTIONS_JSON"
)

// LoadOptions carries everything Load reads from the outside world
type LoadOptions struct {
	// Home is the user's home directory, used for defaults and ~ expansion
	Home string

	// ConfigPath overrides the well-known YAML location
	ConfigPath string

	// LookupEnv reads environment variables. Nil means no variables are set.
	LookupEnv func(key string) (string, bool)
}

// DefaultConfigPath returns the well-known YAML configuration location
func DefaultConfigPath(home string) string {
	return filepath.Join(home, ".config", "io.datasette.llm", "llm-functions.yaml")
}

// FromEnvironment builds LoadOptions from the running process
func FromEnvironment() LoadOptions {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get home directory")
	}
	return LoadOptions{
		Home:      home,
		LookupEnv: os.LookupEnv,
	}
}

// Load resolves the configuration. The functions directory comes from
// LLM_FUNCTIONS_DIR, then AICHAT_FUNCTIONS_DIR, then the YAML file, then the
// default ~/llm-functions. A missing or malformed file yields defaults; Load
// never fails.
func Load(opts LoadOptions) *Config {
	cfg := DefaultConfig(opts.Home)

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = DefaultConfigPath(opts.Home)
	}
	configPath = expandHome(configPath, opts.Home)

	if fileCfg, ok := readFile(configPath, opts.Home); ok {
		cfg = fileCfg
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	if dir := envValue(lookup, EnvFunctionsDir); dir != "" {
		cfg.FunctionsDirectory = dir
	} else if dir := envValue(lookup, EnvAichatFunctionsDir); dir != "" {
		cfg.FunctionsDirectory = dir
	}
	if manifest := envValue(lookup, EnvFunctionsJSON); manifest != "" {
		cfg.FunctionsJSON = manifest
	}

	cfg.FunctionsDirectory = expandHome(cfg.FunctionsDirectory, opts.Home)
	cfg.FunctionsJSON = expandHome(cfg.FunctionsJSON, opts.Home)
	cfg.Logging.File = expandHome(cfg.Logging.File, opts.Home)
	if cfg.FunctionsJSON == "" {
		cfg.FunctionsJSON = cfg.ManifestPath()
	}

	for _, err := range cfg.Validate() {
		log.Warn().Err(err).Msg("Invalid configuration value, using default")
	}

	return cfg
}

// readFile loads the YAML file on top of the defaults. It reports false
// when the file is absent or unusable.
func readFile(path, home string) (*Config, bool) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("Cannot access config file, using defaults")
		}
		return nil, false
	}

	defaults := DefaultConfig(home)

	// Setup viper
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("functions_directory", defaults.FunctionsDirectory)
	v.SetDefault("max_output_size", defaults.MaxOutputSize)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.pretty", defaults.Logging.Pretty)
	v.SetDefault("logging.redaction", defaults.Logging.Redaction)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Malformed config file, using defaults")
		return nil, false
	}

	cfg := DefaultConfig(home)
	if err := v.Unmarshal(cfg); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Invalid config file, using defaults")
		return nil, false
	}

	log.Debug().Str("path", path).Msg("Loaded config file")
	return cfg, true
}

func envValue(lookup func(string) (string, bool), key string) string {
	value, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// expandHome replaces a leading ~ with home
func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
