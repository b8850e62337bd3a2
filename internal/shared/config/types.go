package config

import (
	"fmt"
	"time"
)

// CatalogConfig describes one catalog endpoint. Backend "samweb" talks to a SAMWeb
// REST server; backend "sql" opens a catalog mirror through gorm.
type CatalogConfig struct {
	Backend    string         `mapstructure:"backend" validate:"required,oneof=samweb sql"`
	Experiment string         `mapstructure:"experiment" validate:"required"`
	SAMWeb     SAMWebConfig   `mapstructure:"samweb"`
	Database   DatabaseConfig `mapstructure:"database"`
}

type SAMWebConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Role           string `mapstructure:"role"`
	Token          string `mapstructure:"token"`
	TokenFile      string `mapstructure:"token_file"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
}

func (s *SAMWebConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"omitempty,oneof=sqlite mysql"`
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

// MigrationConfig holds the knobs of the reconciliation engine. The key names
// are the namespaced metadata parameters the engine reads and writes.
type MigrationConfig struct {
	FlushThreshold int    `mapstructure:"flush_threshold" validate:"gte=0"`
	FlagKey        string `mapstructure:"flag_key" validate:"required,samparam"`
	ExperimentKey  string `mapstructure:"experiment_key" validate:"required,samparam"`
	ScratchKey     string `mapstructure:"scratch_key" validate:"required,samparam"`
	ScratchMarker  string `mapstructure:"scratch_marker" validate:"required"`
	InvalidLog     string `mapstructure:"invalid_log"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	Debug      bool   `mapstructure:"debug"`
}

type RedisConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	LockTTLMinutes int    `mapstructure:"lock_ttl_minutes"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (r *RedisConfig) LockTTL() time.Duration {
	if r.LockTTLMinutes <= 0 {
		return 6 * time.Hour
	}
	return time.Duration(r.LockTTLMinutes) * time.Minute
}

type EmailConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	SMTPHost     string   `mapstructure:"smtp_host" validate:"required_if=Enabled true"`
	SMTPPort     int      `mapstructure:"smtp_port"`
	SMTPUser     string   `mapstructure:"smtp_user"`
	SMTPPassword string   `mapstructure:"smtp_password"`
	FromAddress  string   `mapstructure:"from_address" validate:"omitempty,email"`
	FromName     string   `mapstructure:"from_name"`
	To           []string `mapstructure:"to" validate:"required_if=Enabled true,dive,email"`
}
