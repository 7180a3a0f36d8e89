// Package config reads the service settings from flags, FUEL_STATION_* environment variables
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

// EnvPrefix prefixes the environment variable of every flag
const EnvPrefix = "FUEL_STATION"

type Config struct {
	Addr      string
	LogFormat string
	LogLevel  string

	StoreDriver string
	DBPath      string
	DSN         string

	Storage    string
	UploadsDir string
	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string
	S3Access   string
	S3Secret   string

	OCRBackend  string
	OCRURL      string
	OCRTimeout  time.Duration
	GeminiKey   string
	GeminiModel string
	OllamaURL   string
	OllamaModel string

	JWTSecret string
	TokenTTL  time.Duration

	ShowVersion bool
}

// UsageError is returned when the arguments cannot be parsed. Help holds the flag usage text.
type UsageError struct {
	Help string
	Err  error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// Load reads envFile into the environment when it exists, without overriding variables that
// are already set, then parses args.
func Load(envFile string, args []string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	flags := ff.NewFlagSet("fuel-station")
	var (
		addr        = flags.StringLong("addr", ":5000", "HTTP listen address")
		logFormat   = flags.StringLong("log-format", "text", "Log format: 'text' or 'json'")
		logLevel    = flags.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		storeDriver = flags.StringLong("store", "bolt", "Store driver: 'bolt', 'sqlite' or 'postgres'")
		dbPath      = flags.StringLong("db", "fuel-station.db", "Bolt database file path")
		dsn         = flags.StringLong("dsn", "", "SQL data source name for the sqlite and postgres stores")
		storage     = flags.StringLong("storage", "local", "Image storage: 'local' or 's3'")
		uploadsDir  = flags.StringLong("uploads", "./uploads", "Upload directory for local storage")
		s3Bucket    = flags.StringLong("s3-bucket", "", "S3 bucket for receipt images")
		s3Prefix    = flags.StringLong("s3-prefix", "receipts", "S3 key prefix")
		s3Region    = flags.StringLong("s3-region", "us-east-1", "S3 region")
		s3Endpoint  = flags.StringLong("s3-endpoint", "", "Custom S3 endpoint, e.g. a MinIO server")
		s3Access    = flags.StringLong("s3-access-key", "", "S3 access key (default credential chain when empty)")
		s3Secret    = flags.StringLong("s3-secret-key", "", "S3 secret key")
		ocrBackend  = flags.StringLong("ocr", "client", "OCR backend: 'client', 'gemini' or 'ollama'")
		ocrURL      = flags.StringLong("ocr-url", "http://localhost:5001", "OCR service base URL")
		ocrTimeout  = flags.DurationLong("ocr-timeout", 60*time.Second, "OCR service request timeout")
		geminiKey   = flags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = flags.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = flags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = flags.StringLong("ollama-model", "llava", "Ollama model name")
		jwtSecret   = flags.StringLong("jwt-secret", "", "Secret used to sign identity tokens")
		tokenTTL    = flags.DurationLong("token-ttl", 24*time.Hour, "Identity token lifetime")
		showVersion = flags.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(flags, args, ff.WithEnvVarPrefix(EnvPrefix)); err != nil {
		return nil, &UsageError{Help: ffhelp.Flags(flags).String(), Err: err}
	}

	cfg := &Config{
		Addr:        *addr,
		LogFormat:   strings.ToLower(*logFormat),
		LogLevel:    *logLevel,
		StoreDriver: strings.ToLower(*storeDriver),
		DBPath:      *dbPath,
		DSN:         *dsn,
		Storage:     strings.ToLower(*storage),
		UploadsDir:  *uploadsDir,
		S3Bucket:    *s3Bucket,
		S3Prefix:    *s3Prefix,
		S3Region:    *s3Region,
		S3Endpoint:  *s3Endpoint,
		S3Access:    *s3Access,
		S3Secret:    *s3Secret,
		OCRBackend:  strings.ToLower(*ocrBackend),
		OCRURL:      *ocrURL,
		OCRTimeout:  *ocrTimeout,
		GeminiKey:   *geminiKey,
		GeminiModel: *geminiModel,
		OllamaURL:   *ollamaURL,
		OllamaModel: *ollamaModel,
		JWTSecret:   *jwtSecret,
		TokenTTL:    *tokenTTL,
		ShowVersion: *showVersion,
	}
	if cfg.GeminiKey == "" {
		cfg.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}

	if cfg.ShowVersion {
		return cfg, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, &UsageError{Help: ffhelp.Flags(flags).String(), Err: err}
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.LogFormat))
	}
	if _, err := c.level(); err != nil {
		errs = append(errs, err)
	}

	switch c.StoreDriver {
	case "bolt":
		if c.DBPath == "" {
			errs = append(errs, errors.New("--db is required for the bolt store"))
		}
	case "sqlite", "postgres":
		if c.DSN == "" {
			errs = append(errs, fmt.Errorf("--dsn is required for the %s store", c.StoreDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid store driver %q", c.StoreDriver))
	}

	switch c.Storage {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("--s3-bucket is required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage %q", c.Storage))
	}

	switch c.OCRBackend {
	case "client", "ollama":
	case "gemini":
		if c.GeminiKey == "" {
			errs = append(errs, errors.New("gemini API key is required; set --gemini-key or GEMINI_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid OCR backend %q", c.OCRBackend))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("--jwt-secret is required"))
	}

	return errors.Join(errs...)
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Logger builds the slog logger described by the log flags
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
