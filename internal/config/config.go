// Package config provides application configuration loaded from environment
// variables (optionally seeded from a .env file) with defaults and
// validation. It centralizes bot credentials, channel identifiers, the
// mapping store, the shortening service, polling and supervision timings,
// the HTTP surface, logging and observability.
//
// Config is assembled exactly once at startup and handed to the rest of the
// program; nothing else reads the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tbourn/go-linkbox/internal/sysutil"
)

// ErrSetup is wrapped by every validation failure returned from Load.
var ErrSetup = errors.New("setup error")

// Bot names accepted in BOTS.
const (
	BotUploader   = "uploader"
	BotConverter  = "converter"
	BotFileServer = "fileserver"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// BotsConfig holds the per-bot credentials and which bots run.
type BotsConfig struct {
	Enabled         []string // BOTS (csv of uploader, converter, fileserver)
	UploaderToken   string   // UPLOADER_BOT_TOKEN
	ConverterToken  string   // CONVERTER_BOT_TOKEN
	FileServerToken string   // FILE_SERVER_BOT_TOKEN
}

// StoreConfig selects and configures the mapping store backend.
type StoreConfig struct {
	Driver         string // mongo|sqlite
	MongoURI       string // MONGODB_URI
	MongoDB        string // MONGO_DB_NAME
	MappingsColl   string // MONGO_COLLECTION
	SQLitePath     string // DB_PATH
	IndexesOnStart bool   // MONGO_ENSURE_INDEXES
	MigrateOnStart bool   // DB_AUTOMIGRATE
}

// ChannelsConfig holds the Telegram channel identifiers.
type ChannelsConfig struct {
	StorageID int64  // STORAGE_CHANNEL_ID
	GateID    int64  // F_SUB_CHANNEL_ID
	GateLink  string // F_SUB_CHANNEL_LINK
}

// ShortenerConfig configures the external shortening service.
type ShortenerConfig struct {
	Domain  string        // SHORTENER_DOMAIN (alias VIRALBOX_DOMAIN)
	APIURL  string        // SHORTENER_API_URL, defaults to https://<domain>/api
	Timeout time.Duration // SHORTENER_TIMEOUT
}

// PollConfig configures the long-poll loops.
type PollConfig struct {
	Timeout time.Duration // POLL_TIMEOUT (server-side long-poll wait)
	Backoff time.Duration // POLL_BACKOFF (fixed sleep after a transport error)
}

// SupervisorConfig bounds the restart backoff of supervised tasks.
type SupervisorConfig struct {
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-linkbox")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	Bots       BotsConfig
	Store      StoreConfig
	Channels   ChannelsConfig
	Shortener  ShortenerConfig
	Poll       PollConfig
	Supervisor SupervisorConfig

	WorkerDomain   string // WORKER_DOMAIN, no trailing slash
	SupportContact string // SUPPORT_CONTACT

	// HTTP surface
	HTTPEnabled       bool
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test
	SwaggerEnabled    bool

	// Rate limiting of the redirect endpoint
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Logging
	LogLevel  string
	LogPretty bool

	// Observability
	OTEL OTELConfig
}

// BotEnabled reports whether name is listed in BOTS.
func (c Config) BotEnabled(name string) bool {
	for _, b := range c.Bots.Enabled {
		if b == name {
			return true
		}
	}
	return false
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none is
// given) without overriding variables already present in the environment.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("%w: load %s: %v", ErrSetup, f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	domain := sysutil.FirstNonEmpty(os.Getenv("SHORTENER_DOMAIN"), os.Getenv("VIRALBOX_DOMAIN"), "viralbox.in")

	cfg := Config{
		Bots: BotsConfig{
			Enabled:         splitCSV(getenv("BOTS", "uploader,converter,fileserver")),
			UploaderToken:   getenv("UPLOADER_BOT_TOKEN", ""),
			ConverterToken:  getenv("CONVERTER_BOT_TOKEN", ""),
			FileServerToken: getenv("FILE_SERVER_BOT_TOKEN", ""),
		},
		Store: StoreConfig{
			Driver:         strings.ToLower(getenv("STORE_DRIVER", DriverMongo)),
			MongoURI:       getenv("MONGODB_URI", ""),
			MongoDB:        getenv("MONGO_DB_NAME", "viralbox_db"),
			MappingsColl:   getenv("MONGO_COLLECTION", "mappings"),
			SQLitePath:     getenv("DB_PATH", "linkbox.db"),
			IndexesOnStart: getbool("MONGO_ENSURE_INDEXES", true),
			MigrateOnStart: getbool("DB_AUTOMIGRATE", true),
		},
		Channels: ChannelsConfig{
			StorageID: getint64("STORAGE_CHANNEL_ID", 0),
			GateID:    getint64("F_SUB_CHANNEL_ID", 0),
			GateLink:  getenv("F_SUB_CHANNEL_LINK", ""),
		},
		Shortener: ShortenerConfig{
			Domain:  strings.ToLower(strings.TrimSpace(domain)),
			APIURL:  getenv("SHORTENER_API_URL", ""),
			Timeout: getdur("SHORTENER_TIMEOUT", 15*time.Second),
		},
		Poll: PollConfig{
			Timeout: getdur("POLL_TIMEOUT", 50*time.Second),
			Backoff: getdur("POLL_BACKOFF", 2*time.Second),
		},
		Supervisor: SupervisorConfig{
			MinBackoff: getdur("SUPERVISOR_MIN_BACKOFF", time.Second),
			MaxBackoff: getdur("SUPERVISOR_MAX_BACKOFF", time.Minute),
		},

		WorkerDomain:   strings.TrimRight(strings.TrimSpace(getenv("WORKER_DOMAIN", "")), "/"),
		SupportContact: getenv("SUPPORT_CONTACT", "@viralbox_support"),

		HTTPEnabled:       getbool("HTTP_ENABLED", true),
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		SwaggerEnabled:    getbool("SWAGGER_ENABLED", false),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-linkbox"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	for i, b := range cfg.Bots.Enabled {
		cfg.Bots.Enabled[i] = normalizeBotName(b)
	}
	if cfg.Shortener.APIURL == "" && cfg.Shortener.Domain != "" {
		cfg.Shortener.APIURL = "https://" + cfg.Shortener.Domain + "/api"
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrSetup, err)
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}

	// --- bots ---
	if len(cfg.Bots.Enabled) == 0 {
		return errors.New("BOTS must name at least one bot")
	}
	for _, b := range cfg.Bots.Enabled {
		switch b {
		case BotUploader, BotConverter, BotFileServer:
		default:
			return fmt.Errorf("BOTS: unknown bot %q", b)
		}
	}
	if cfg.BotEnabled(BotUploader) {
		if cfg.Bots.UploaderToken == "" {
			return errors.New("UPLOADER_BOT_TOKEN is required")
		}
		if cfg.Channels.StorageID == 0 {
			return errors.New("STORAGE_CHANNEL_ID is required for the uploader bot")
		}
		if cfg.WorkerDomain == "" {
			return errors.New("WORKER_DOMAIN is required for the uploader bot")
		}
	}
	if cfg.BotEnabled(BotConverter) && cfg.Bots.ConverterToken == "" {
		return errors.New("CONVERTER_BOT_TOKEN is required")
	}
	if cfg.BotEnabled(BotFileServer) {
		if cfg.Bots.FileServerToken == "" {
			return errors.New("FILE_SERVER_BOT_TOKEN is required")
		}
		if cfg.Channels.StorageID == 0 {
			return errors.New("STORAGE_CHANNEL_ID is required for the file-server bot")
		}
		if cfg.Channels.GateID == 0 || strings.TrimSpace(cfg.Channels.GateLink) == "" {
			return errors.New("F_SUB_CHANNEL_ID and F_SUB_CHANNEL_LINK are required for the file-server bot")
		}
	}
	if cfg.BotEnabled(BotUploader) || cfg.BotEnabled(BotConverter) {
		if cfg.Shortener.Domain == "" {
			return errors.New("SHORTENER_DOMAIN must not be empty")
		}
		if cfg.Shortener.Timeout <= 0 {
			return errors.New("SHORTENER_TIMEOUT must be > 0")
		}
	}

	// --- store ---
	switch cfg.Store.Driver {
	case DriverMongo:
		if cfg.Store.MongoURI == "" {
			return errors.New("MONGODB_URI is required when STORE_DRIVER=mongo")
		}
		if cfg.Store.MongoDB == "" {
			return errors.New("MONGO_DB_NAME must not be empty")
		}
	case DriverSQLite:
		if strings.TrimSpace(cfg.Store.SQLitePath) == "" {
			return errors.New("DB_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", DriverMongo, DriverSQLite)
	}

	// --- timings ---
	if cfg.Poll.Timeout <= 0 || cfg.Poll.Backoff <= 0 {
		return errors.New("POLL_TIMEOUT and POLL_BACKOFF must be positive durations")
	}
	if cfg.Supervisor.MinBackoff <= 0 || cfg.Supervisor.MaxBackoff < cfg.Supervisor.MinBackoff {
		return errors.New("SUPERVISOR_MIN_BACKOFF must be > 0 and <= SUPERVISOR_MAX_BACKOFF")
	}

	// --- http ---
	if cfg.HTTPEnabled {
		if strings.TrimSpace(cfg.Port) == "" {
			return errors.New("PORT must not be empty")
		}
		if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
			return errors.New("timeouts must be positive durations")
		}
		if cfg.MaxHeaderBytes <= 0 {
			return errors.New("MAX_HEADER_BYTES must be > 0")
		}
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// getint64 parses channel ids, which are negative 64-bit numbers
// (e.g. -1001234567890).
func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if sysutil.IsTruthy(v) {
			return true
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBotName accepts a few spellings of each bot name.
func normalizeBotName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	return s
}
