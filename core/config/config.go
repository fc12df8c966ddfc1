package config

import (
	"fmt"
	"reflect"
	"strings"

	"locafix/core/database"
	"locafix/core/logger"
	"locafix/core/server"
	"locafix/core/storage"
	"locafix/feature/catalog"
	"locafix/feature/convert"
	"locafix/feature/dispatch"
	"locafix/feature/patcher"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the report archive (S3, MinIO).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run journal.
	Database database.Config `mapstructure:"database"`
	// Catalog holds configuration for catalog parsing.
	Catalog catalog.Config `mapstructure:"catalog"`
	// Patch holds configuration for reference patching.
	Patch patcher.Config `mapstructure:"patch"`
	// Dispatch holds configuration for tree scanning and the worker pool.
	Dispatch dispatch.Config `mapstructure:"dispatch"`
	// Convert holds configuration for the external conversion tool.
	Convert convert.Config `mapstructure:"convert"`
}

// Validate checks values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.Database.Enabled && !c.Database.IsValidDriver() {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if !c.Catalog.IsValidDuplicates() {
		return fmt.Errorf("unsupported duplicates policy %q", c.Catalog.Duplicates)
	}
	if len(c.Patch.Encodings) == 0 {
		return fmt.Errorf("at least one patch encoding is required")
	}
	if c.Dispatch.Workers < 0 {
		return fmt.Errorf("dispatch workers must not be negative")
	}
	return nil
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
