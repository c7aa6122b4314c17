package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/go-kit/log/level"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	HTTPAddr       string
	DatabaseURL    string
	SQLitePath     string
	MaxOpenConns   int
	AccessSecret   string
	AccessIssuer   string
	AccessTTL      time.Duration
	CookieHashKey  string
	CookieBlockKey string
	CookieSecure   bool
	BcryptCost     int
	RateLimit      int
	PublicList     bool
	LogLevel       string
}

var (
	ErrSecretMissing   = errors.New("access secret is required")
	ErrInvalidBlockKey = errors.New("cookie block key must be 16, 24 or 32 bytes")
	ErrInvalidLogLevel = errors.New("log level must be one of debug, info, warn, error")
)

// LoadDotEnv reads a .env file into the environment, keeping variables that
// are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Load parses args into a Config. Flag defaults come from the environment.
func Load(name string, args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	var cfg Config
	fs.StringVar(&cfg.HTTPAddr, "http.addr", getEnv("HTTP_ADDR", ":8000"), "HTTP listen address")
	fs.StringVar(&cfg.DatabaseURL, "database.url", getEnv("DATABASE_URL", ""), "Postgres URL; sqlite is used when empty")
	fs.StringVar(&cfg.SQLitePath, "sqlite.path", getEnv("SQLITE_PATH", "todos.db"), "sqlite database file")
	fs.IntVar(&cfg.MaxOpenConns, "database.max-open-conns", getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 10), "maximum open Postgres connections")
	fs.StringVar(&cfg.AccessSecret, "access.secret", getEnv("ACCESS_SECRET", ""), "HMAC secret for access tokens")
	fs.StringVar(&cfg.AccessIssuer, "access.issuer", getEnv("ACCESS_ISSUER", "todokit"), "access token issuer")
	fs.DurationVar(&cfg.AccessTTL, "access.ttl", getEnvAsDuration("ACCESS_TTL", authservice.AccessTokenExpiry()), "access token lifetime")
	fs.StringVar(&cfg.CookieHashKey, "cookie.hash-key", getEnv("COOKIE_HASH_KEY", ""), "HMAC key for the access_token cookie; cookies are disabled when empty")
	fs.StringVar(&cfg.CookieBlockKey, "cookie.block-key", getEnv("COOKIE_BLOCK_KEY", ""), "AES key for the access_token cookie")
	fs.BoolVar(&cfg.CookieSecure, "cookie.secure", getEnvAsBool("COOKIE_SECURE", true), "send the access_token cookie over HTTPS only")
	fs.IntVar(&cfg.BcryptCost, "bcrypt.cost", getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost), "bcrypt cost for new passwords")
	fs.IntVar(&cfg.RateLimit, "rate.limit", getEnvAsInt("RATE_LIMIT", 100), "requests per second per service")
	fs.BoolVar(&cfg.PublicList, "list.public", getEnvAsBool("LIST_PUBLIC", true), "serve the unauthenticated GET /todos/ listing")
	fs.StringVar(&cfg.LogLevel, "log.level", getEnv("LOG_LEVEL", "info"), "minimum log level")

	fs.Usage = usageFor(fs, name+" [flags]")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.AccessSecret == "" {
		return ErrSecretMissing
	}
	switch len(c.CookieBlockKey) {
	case 0, 16, 24, 32:
	default:
		return ErrInvalidBlockKey
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.BcryptCost != 0 && (c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.RateLimit <= 0 {
		return errors.New("rate limit must be positive")
	}
	return nil
}

// Level returns the go-kit level filter for LogLevel.
func (c Config) Level() (level.Option, error) {
	switch c.LogLevel {
	case "debug":
		return level.AllowDebug(), nil
	case "info", "":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, ErrInvalidLogLevel
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "USAGE\n")
		fmt.Fprintf(w, "  %s\n", short)
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "FLAGS\n")
		tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(tw, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		tw.Flush()
		fmt.Fprintf(w, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := strconv.ParseBool(value); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := time.ParseDuration(value); err == nil {
		return v
	}
	return fallback
}
