package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"sheetsort/internal/errors"
)

// Supported storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config represents the complete application configuration
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	Upload       UploadConfig
	Backup       BackupConfig
	Distribution DistributionConfig
	LogLevel     string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port          string
	GinMode       string
	SessionCookie string
	SessionTTL    time.Duration
	// LockTimeout bounds the wait for a workbook another request is editing
	LockTimeout   time.Duration
}

// UploadConfig limits what the upload endpoint accepts
type UploadConfig struct {
	MaxBytes          int64
	AllowedExtensions []string
}

// BackupConfig controls snapshots
type BackupConfig struct {
	Dir          string
	OnDistribute bool
}

// DistributionConfig selects the distribution profile
type DistributionConfig struct {
	ProfilesFile   string
	DefaultProfile string
	GroupKeyIndex  int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:     loadDatabaseConfig(),
		Server:       loadServerConfig(),
		Upload:       loadUploadConfig(),
		Backup:       loadBackupConfig(),
		Distribution: loadDistributionConfig(),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	url := getEnvOrDefault("DATABASE_URL", "sheetsort.db")
	return DatabaseConfig{
		Driver:          getEnvOrDefault("DATABASE_DRIVER", detectDriver(url)),
		URL:             url,
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

// detectDriver picks postgres for postgres URLs and sqlite otherwise
func detectDriver(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:          getEnvOrDefault("PORT", "8080"),
		GinMode:       getEnvOrDefault("GIN_MODE", "debug"),
		SessionCookie: getEnvOrDefault("SESSION_COOKIE", "sheetsort_session"),
		SessionTTL:    getEnvDurationOrDefault("SESSION_TTL", 12*time.Hour),
		LockTimeout:   getEnvDurationOrDefault("LOCK_TIMEOUT", 30*time.Second),
	}
}

func loadUploadConfig() UploadConfig {
	return UploadConfig{
		MaxBytes:          int64(getEnvIntOrDefault("UPLOAD_MAX_BYTES", 16<<20)),
		AllowedExtensions: getEnvListOrDefault("UPLOAD_EXTENSIONS", []string{".xlsx", ".xlsm", ".csv"}),
	}
}

func loadBackupConfig() BackupConfig {
	return BackupConfig{
		Dir:          getEnvOrDefault("BACKUP_DIR", "backups"),
		OnDistribute: getEnvBoolOrDefault("BACKUP_ON_DISTRIBUTE", true),
	}
}

func loadDistributionConfig() DistributionConfig {
	return DistributionConfig{
		ProfilesFile:   getEnvOrDefault("PROFILES_FILE", ""),
		DefaultProfile: getEnvOrDefault("DEFAULT_PROFILE", "default"),
		GroupKeyIndex:  getEnvIntOrDefault("GROUP_KEY_INDEX", 1),
	}
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres, sqlite or memory")
	}
	if config.Database.Driver != DriverMemory && config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if config.Upload.MaxBytes <= 0 {
		return errors.ConfigInvalid("UPLOAD_MAX_BYTES must be positive")
	}
	if len(config.Upload.AllowedExtensions) == 0 {
		return errors.ConfigInvalid("UPLOAD_EXTENSIONS must name at least one extension")
	}
	if config.Distribution.GroupKeyIndex < 0 {
		return errors.ConfigInvalid("GROUP_KEY_INDEX must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated value; extensions are
// normalised to lower case with a leading dot
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	return out
}
