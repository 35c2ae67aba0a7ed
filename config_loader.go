package hydrx

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfigFromEnvironment reads HYDRX_* variables and returns a validated Config.
//
// envFiles are optional dotenv files read with godotenv; they never modify
// the process environment, and a variable set in the process wins over the
// same variable in a file.
//
//	// export HYDRX_BATCH_POLICY=continue
//	// export HYDRX_WORKERS=4
//	cfg, err := hydrx.LoadConfigFromEnvironment(".env")
func LoadConfigFromEnvironment(envFiles ...string) (Config, error) {
	fileEnv := map[string]string{}
	if len(envFiles) > 0 {
		var err error
		fileEnv, err = godotenv.Read(envFiles...)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read env files: %w", err)
		}
	}

	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileEnv[key]
	}

	cfg := Config{
		TagName:     get(EnvTagName),
		Location:    get(EnvLocation),
		BatchPolicy: get(EnvBatchPolicy),
		LogLevel:    get(EnvLogLevel),
		LogFormat:   get(EnvLogFormat),
	}
	if layouts := get(EnvTimeLayouts); layouts != "" {
		cfg.TimeLayouts = strings.Split(layouts, timeLayoutSeparator)
	}
	if workers := get(EnvWorkers); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s must be an integer: %v", ErrInvalidConfiguration, EnvWorkers, err)
		}
		cfg.Workers = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile loads and validates a YAML configuration file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config file not found: %s", path)
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// SaveConfigFile writes cfg as YAML.
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
