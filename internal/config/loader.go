package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv points to the config file and makes its absence an error.
const ConfigPathEnv = "CONFIG_PATH"

// Load reads the first config file found in the standard locations,
// applies env overrides and validates the result.
func Load() (*Config, error) {
	return LoadFromPath("")
}

// LoadFromPath is Load with an explicit file; a missing file is an error.
func LoadFromPath(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Loader merges defaults, a YAML file and environment variables, in that order.
type Loader struct {
	configPaths []string
}

// NewLoader creates a loader searching the standard locations.
func NewLoader() *Loader {
	return &Loader{
		configPaths: []string{
			"configs/config.yaml",
			"config.yaml",
			"/etc/statuswatch/config.yaml",
		},
	}
}

// WithConfigPaths replaces the search locations.
func (l *Loader) WithConfigPaths(paths []string) *Loader {
	l.configPaths = paths
	return l
}

// Load builds the configuration. Only an explicit path (argument or CONFIG_PATH)
// must exist; a file found by search that fails to load is skipped.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	filePath, explicit := l.resolvePath(path)
	if filePath != "" {
		if err := readFile(cfg, filePath); err != nil && explicit {
			return nil, fmt.Errorf("failed to load config from %s: %w", filePath, err)
		}
	}

	if err := applyEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) resolvePath(path string) (string, bool) {
	if path != "" {
		return path, true
	}
	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		return envPath, true
	}
	for _, candidate := range l.configPaths {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, false
		}
	}
	return "", false
}

func readFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv walks nested structs and sets every field whose `env` variable is non-empty.
func applyEnv(v reflect.Value) error {
	t := v.Type()
	for i := range v.NumField() {
		field, meta := v.Field(i), t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnv(field); err != nil {
				return err
			}
			continue
		}

		name := meta.Tag.Get("env")
		if name == "" {
			continue
		}
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if err := setField(field, value); err != nil {
			return fmt.Errorf("%s (%s): %w", name, meta.Name, err)
		}
	}
	return nil
}

var durationType = reflect.TypeFor[time.Duration]()

//nolint:exhaustive // в конфиге только строки, числа, bool и time.Duration
func setField(field reflect.Value, value string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidDuration, value)
		}
		field.SetInt(int64(d))
		return nil
	case field.Kind() == reflect.String:
		field.SetString(value)
		return nil
	}

	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %s", value)
		}
		field.SetUint(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
