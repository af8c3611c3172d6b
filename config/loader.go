package config

import (
	"fmt"
	"os"
	"strings"

	bofryconfig "github.com/Bofry/config"
	"github.com/joho/godotenv"
)

// Loader loads configuration from YAML files, .env files and environment
// variables, in that order, on top of the defaults.
type Loader struct {
	yamlFile       string
	dotEnvFile     string
	envPrefix      string
	useCommandArgs bool
}

// NewLoader creates a configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "REDSTONE_",
	}
}

// WithYAMLFile sets the YAML configuration file path.
func (l *Loader) WithYAMLFile(path string) *Loader {
	l.yamlFile = path
	return l
}

// WithDotEnvFile sets the .env file path.
func (l *Loader) WithDotEnvFile(path string) *Loader {
	l.dotEnvFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithCommandArguments enables parsing --name=value command line arguments
// as environment variable overrides.
func (l *Loader) WithCommandArguments() *Loader {
	l.useCommandArgs = true
	return l
}

// Load loads the configuration. Missing files are skipped silently; the
// result is validated before being returned.
func (l *Loader) Load(cfg *Config) error {
	*cfg = *DefaultConfig()

	if l.dotEnvFile != "" {
		if _, err := os.Stat(l.dotEnvFile); err == nil {
			if err := godotenv.Load(l.dotEnvFile); err != nil {
				return fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	if l.useCommandArgs {
		l.applyCommandArgs()
	}

	// Bofry/config panics on errors, so load under a recover guard.
	var loadErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok {
					loadErr = err
				} else {
					loadErr = fmt.Errorf("configuration loading panic: %v", r)
				}
			}
		}()

		service := bofryconfig.NewConfigurationService(cfg)

		if l.yamlFile != "" {
			if _, err := os.Stat(l.yamlFile); err == nil {
				service.LoadYamlFile(l.yamlFile)
			} else if !os.IsNotExist(err) {
				loadErr = fmt.Errorf("failed to check YAML file: %w", err)
				return
			}
		}

		prefix := strings.TrimSuffix(l.envPrefix, "_")
		service.LoadEnvironmentVariables(prefix)
	}()
	if loadErr != nil {
		return loadErr
	}

	return cfg.Validate()
}

// applyCommandArgs parses command line arguments in the form --name=value
// and sets them as environment variables using the configured prefix.
func (l *Loader) applyCommandArgs() {
	for _, arg := range os.Args[1:] {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		kv := strings.SplitN(arg[2:], "=", 2)
		if len(kv) != 2 {
			continue
		}
		name := strings.ToUpper(strings.ReplaceAll(kv[0], "-", "_"))
		os.Setenv(l.envPrefix+name, kv[1])
	}
}
