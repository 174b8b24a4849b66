// Package db opens the GORM connection used by the record store.
package db

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// retryInterval is the pause between connection attempts.
	retryInterval = 3 * time.Second
	// connectTimeout bounds how long OpenDB keeps retrying.
	connectTimeout = 60 * time.Second
)

// Config holds the database connection settings.
type Config struct {
	Driver       string
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	InstanceName string // Cloud SQL instance connection name; takes precedence over Host/Port
	SQLitePath   string
}

// Opener opens a GORM connection for a DSN. It is swapped out in tests.
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv reads the database settings from environment variables.
// DB_DRIVER defaults to mysql.
func LoadConfigFromEnv() Config {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER")))
	if driver == "" {
		driver = DriverMySQL
	}
	return Config{
		Driver:       driver,
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		Host:         os.Getenv("DB_HOST"),
		Port:         os.Getenv("DB_PORT"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		SQLitePath:   os.Getenv("DB_SQLITE_PATH"),
	}
}

// BuildDSN builds the data source name for cfg.Driver.
func BuildDSN(cfg Config) string {
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.InstanceName != "" {
			return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
				cfg.InstanceName, cfg.User, cfg.Password, cfg.Name)
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return "identity.db"
		}
		return cfg.SQLitePath
	default:
		if cfg.InstanceName != "" {
			return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
				cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	}
}

// NewOpener returns the Opener for a driver name.
func NewOpener(driver string) (Opener, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	switch driver {
	case DriverMySQL:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(gmysql.Open(dsn), gormCfg) }, nil
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(postgres.Open(dsn), gormCfg) }, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(sqlite.Open(dsn), gormCfg) }, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// ConnectWithRetry calls open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// OpenDB connects using cfg, retrying for up to a minute.
func OpenDB(cfg Config) (*gorm.DB, error) {
	open, err := NewOpener(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), connectTimeout, open)
	if err != nil {
		return nil, err
	}
	slog.Info("DB connection successful", "driver", cfg.Driver)
	return db, nil
}
