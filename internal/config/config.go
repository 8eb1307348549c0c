package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"reflections/internal/entity"
)

type Mode string

const (
	// ModeAccounts authenticates against the users table.
	ModeAccounts Mode = "accounts"
	// ModeShared authenticates with one passphrase and stores anonymous reflections.
	ModeShared Mode = "shared"
)

type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type LogConfig struct {
	Level  string
	Format string
}

type Config struct {
	Port             string
	Mode             Mode
	SharedPassphrase string
	SessionKey       string
	SessionMaxAge    int
	SessionSecure    bool
	HashPasswords    bool
	SeedUsers        []entity.SeedUser
	Database         DatabaseConfig
	Log              LogConfig
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Values already present in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading .env: %w", err)
	}

	return FromEnv()
}

func FromEnv() (Config, error) {
	maxAge, err := getEnvInt("SESSION_MAX_AGE", 0)
	if err != nil {
		return Config{}, err
	}

	hash, err := getEnvBool("HASH_PASSWORDS", true)
	if err != nil {
		return Config{}, err
	}

	secure, err := getEnvBool("SESSION_SECURE", false)
	if err != nil {
		return Config{}, err
	}

	roster := entity.DefaultRoster()
	if raw, ok := os.LookupEnv("SEED_USERS"); ok {
		roster, err = ParseRoster(raw)
		if err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		Mode:             Mode(getEnv("APP_MODE", string(ModeAccounts))),
		SharedPassphrase: getEnv("SHARED_PASSPHRASE", "12345"),
		SessionKey:       getEnv("SESSION_KEY", ""),
		SessionMaxAge:    maxAge,
		SessionSecure:    secure,
		HashPasswords:    hash,
		SeedUsers:        roster,
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "reflections.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "reflections"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeAccounts:
	case ModeShared:
		if c.SharedPassphrase == "" {
			return errors.New("SHARED_PASSPHRASE must not be empty in shared mode")
		}
	default:
		return fmt.Errorf("unknown APP_MODE %q", c.Mode)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	if c.SessionMaxAge < 0 {
		return errors.New("SESSION_MAX_AGE must not be negative")
	}

	return nil
}

// DSN returns the data source name for sql.Open with the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
		)
	}

	return "file:" + d.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// ParseRoster parses "name:password:role" entries separated by commas.
func ParseRoster(raw string) ([]entity.SeedUser, error) {
	var roster []entity.SeedUser

	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("SEED_USERS entry %q: want name:password:role", item)
		}

		role := entity.Role(parts[2])
		if !role.Valid() {
			return nil, fmt.Errorf("SEED_USERS entry %q: unknown role %q", item, parts[2])
		}
		if parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("SEED_USERS entry %q: empty name or password", item)
		}

		roster = append(roster, entity.SeedUser{Username: parts[0], Password: parts[1], Role: role})
	}

	return roster, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
