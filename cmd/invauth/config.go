package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/akulikov/invauth/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultAccessLifetime  = "1h"
	defaultRefreshLifetime = "30d"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key used to sign access tokens (symmetric MAC)
	// Required: the service must not start without it
	SecretKey string

	// Token lifetimes in '<integer><unit d|h>' format, e.g. '1h', '30d'
	AccessTokenLifetime  string
	RefreshTokenLifetime string

	// Origins allowed by the CORS boundary, empty disables CORS
	CORSOrigins []string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:             defaultLoggingLevel,
		ListenAddr:           defaultListenAddr,
		Environment:          defaultEnvironment,
		AccessTokenLifetime:  defaultAccessLifetime,
		RefreshTokenLifetime: defaultRefreshLifetime,
	}
}

// Load variables from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setStringSlice := func(o *[]string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = strings.Split(value, ",")
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":            setString(&c.ListenAddr),
		"DATABASE_URI":           setString(&c.DatabaseDSN),
		"SECRET_KEY":             setString(&c.SecretKey),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"ENVIRONMENT":            setString(&c.Environment),
		"ACCESS_TOKEN_LIFETIME":  setString(&c.AccessTokenLifetime),
		"REFRESH_TOKEN_LIFETIME": setString(&c.RefreshTokenLifetime),
		"CORS_ORIGINS":           setStringSlice(&c.CORSOrigins),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("invauth", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key to sign access tokens")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.AccessTokenLifetime, "access-lifetime", c.AccessTokenLifetime, "Access token lifetime, e.g. 1h")
	fs.StringVar(&c.RefreshTokenLifetime, "refresh-lifetime", c.RefreshTokenLifetime, "Refresh token lifetime, e.g. 30d")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origins", c.CORSOrigins, "Allowed CORS origins")

	return fs.Parse(args)
}

// Validate fails fast on a config the service must not start with
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("secret key is required, set SECRET_KEY or --secret-key")
	}
	if c.DatabaseDSN == "" {
		return errors.New("database DSN is required, set DATABASE_URI or --database")
	}
	if _, err := ParseLifetime(c.AccessTokenLifetime); err != nil {
		return fmt.Errorf("bad access token lifetime: %w", err)
	}
	if _, err := ParseLifetime(c.RefreshTokenLifetime); err != nil {
		return fmt.Errorf("bad refresh token lifetime: %w", err)
	}

	return nil
}

// ParseLifetime parses a token lifetime in '<integer><unit d|h>' format
func ParseLifetime(value string) (time.Duration, error) {
	if len(value) < 2 {
		return 0, fmt.Errorf("invalid lifetime %q, want e.g. '1h' or '30d'", value)
	}

	n, err := strconv.Atoi(value[:len(value)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid lifetime %q, want e.g. '1h' or '30d'", value)
	}

	switch value[len(value)-1] {
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid lifetime unit in %q, want 'd' or 'h'", value)
	}
}
