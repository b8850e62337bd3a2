package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/sbn-software/samsync/internal/shared/config"
	"github.com/sbn-software/samsync/internal/shared/constants"
	"github.com/sbn-software/samsync/internal/shared/utils"
)

// TargetExperiment is the experiment name of the shared catalog every
// experiment catalog is migrated into.
const TargetExperiment = "sbn"

type Config struct {
	Source    sharedConfig.CatalogConfig   `mapstructure:"source"`
	Target    sharedConfig.CatalogConfig   `mapstructure:"target"`
	Migration sharedConfig.MigrationConfig `mapstructure:"migration"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Email     sharedConfig.EmailConfig     `mapstructure:"email"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables. An explicit
// configPath must exist; otherwise config.yaml is optional and searched for in
// the usual places.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "samsync"))
		}
	}

	// Set environment variable prefix and replacer
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The scripts this tool replaces took the source experiment from SAM_EXPERIMENT.
	_ = v.BindEnv("source.experiment", "SAMSYNC_SOURCE_EXPERIMENT", "SAM_EXPERIMENT")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Validate checks the sections a run depends on.
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c.Source); err != nil {
		return fmt.Errorf("source catalog: %w", err)
	}
	if err := utils.ValidateStruct(c.Target); err != nil {
		return fmt.Errorf("target catalog: %w", err)
	}
	if err := utils.ValidateStruct(c.Migration); err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	if err := utils.ValidateStruct(c.Email); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	return nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Catalog defaults
	v.SetDefault("source.backend", "samweb")
	v.SetDefault("source.samweb.base_url", "https://samweb.fnal.gov:8483")
	v.SetDefault("source.samweb.timeout_seconds", 60)
	v.SetDefault("source.database.driver", "sqlite")
	v.SetDefault("target.backend", "samweb")
	v.SetDefault("target.experiment", TargetExperiment)
	v.SetDefault("target.samweb.base_url", "https://samweb.fnal.gov:8483")
	v.SetDefault("target.samweb.timeout_seconds", 60)
	v.SetDefault("target.database.driver", "sqlite")

	// Migration defaults
	v.SetDefault("migration.flush_threshold", 21)
	v.SetDefault("migration.flag_key", "sbn.migrate")
	v.SetDefault("migration.experiment_key", "sbn.experiment")
	v.SetDefault("migration.scratch_key", "loc.scratch")
	v.SetDefault("migration.scratch_marker", "/scratch/")
	v.SetDefault("migration.invalid_log", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stderr")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl_minutes", 360)

	// Email defaults
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "localhost")
	v.SetDefault("email.smtp_port", 25)
	v.SetDefault("email.from_address", "samsync@localhost.localdomain")
	v.SetDefault("email.from_name", "samsync")
}
