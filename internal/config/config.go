package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates everything the api and worker binaries need.
type Config struct {
	HTTP       HTTPConfig
	Redis      RedisConfig
	DBURL      string
	Logging    LoggingConfig
	SentryDSN  string
	Validation ValidationConfig
	Proxy      ProxyConfig
	Worker     WorkerConfig
}

type HTTPConfig struct {
	Addr            string
	APIKey          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level  string
	Format string // text|json
}

// ValidationConfig holds the knobs of the DNS and SMTP stages.
type ValidationConfig struct {
	DNSTimeout         time.Duration
	HeloDomain         string
	MailFrom           string
	SMTPPort           string
	SMTPTimeout        time.Duration
	SMTPMaxConcurrency int
	DisposableListPath string
	RoleListPath       string
	ListRefresh        time.Duration
}

type ProxyConfig struct {
	List        []string
	Concurrency int
	SMTPEnabled bool
}

type WorkerConfig struct {
	Concurrency int
	TaskTimeout time.Duration
	RatePerSec  float64
	Burst       int
}

const (
	defaultHTTPAddr           = ":8080"
	defaultReadTimeout        = 30 * time.Second
	defaultWriteTimeout       = 30 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultShutdownTimeout    = 30 * time.Second
	defaultRedisAddr          = "127.0.0.1:6379"
	defaultLogLevel           = "info"
	defaultLogFormat          = "text"
	defaultDNSTimeout         = 5 * time.Second
	defaultHeloDomain         = "leadripper.com"
	defaultMailFrom           = "verify@leadripper.com"
	defaultSMTPPort           = "25"
	defaultSMTPTimeout        = 10 * time.Second
	defaultSMTPMaxConcurrency = 15
	defaultListRefresh        = 10 * time.Minute
	defaultTaskTimeout        = 60 * time.Second
	defaultRatePerSec         = 5.0
	defaultWorkerConcurrency  = 4
)

// Load reads configuration from the environment, after pulling in an
// optional .env file from the working directory.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:   valueOrDefault("HTTP_ADDR", defaultHTTPAddr),
			APIKey: os.Getenv("API_SECRET_KEY"),
		},
		Redis: RedisConfig{
			Addr:     valueOrDefault("REDIS_ADDR", defaultRedisAddr),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       parseIntWithDefault("REDIS_DB", 0),
		},
		DBURL: os.Getenv("DB_URL"),
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", defaultLogLevel),
			Format: valueOrDefault("LOG_FORMAT", defaultLogFormat),
		},
		SentryDSN: os.Getenv("SENTRY_DSN"),
		Validation: ValidationConfig{
			HeloDomain:         valueOrDefault("SMTP_HELO_DOMAIN", defaultHeloDomain),
			MailFrom:           valueOrDefault("SMTP_MAIL_FROM", defaultMailFrom),
			SMTPPort:           valueOrDefault("SMTP_PORT", defaultSMTPPort),
			SMTPMaxConcurrency: parseIntWithDefault("SMTP_MAX_CONCURRENCY", defaultSMTPMaxConcurrency),
			DisposableListPath: os.Getenv("DISPOSABLE_LIST_PATH"),
			RoleListPath:       os.Getenv("ROLE_LIST_PATH"),
		},
		Proxy: ProxyConfig{
			List:        splitList(os.Getenv("PROXY_LIST")),
			Concurrency: parseIntWithDefault("PROXY_CONCURRENCY", 0),
			SMTPEnabled: parseBoolWithDefault("SMTP_PROXY_ENABLED", false),
		},
		Worker: WorkerConfig{
			Concurrency: parseIntWithDefault("WORKER_CONCURRENCY", defaultWorkerConcurrency),
			Burst:       parseIntWithDefault("WORKER_BURST", 1),
		},
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"HTTP_READ_TIMEOUT", defaultReadTimeout, &cfg.HTTP.ReadTimeout},
		{"HTTP_WRITE_TIMEOUT", defaultWriteTimeout, &cfg.HTTP.WriteTimeout},
		{"HTTP_IDLE_TIMEOUT", defaultIdleTimeout, &cfg.HTTP.IdleTimeout},
		{"HTTP_SHUTDOWN_TIMEOUT", defaultShutdownTimeout, &cfg.HTTP.ShutdownTimeout},
		{"DNS_TIMEOUT", defaultDNSTimeout, &cfg.Validation.DNSTimeout},
		{"SMTP_TIMEOUT", defaultSMTPTimeout, &cfg.Validation.SMTPTimeout},
		{"LIST_REFRESH_INTERVAL", defaultListRefresh, &cfg.Validation.ListRefresh},
		{"WORKER_TASK_TIMEOUT", defaultTaskTimeout, &cfg.Worker.TaskTimeout},
	}
	for _, d := range durations {
		v, err := parseDuration(d.key, d.def)
		if err != nil {
			return Config{}, err
		}
		*d.dest = v
	}

	rate, err := parseFloat("WORKER_RATE_PER_SEC", defaultRatePerSec)
	if err != nil {
		return Config{}, err
	}
	cfg.Worker.RatePerSec = rate

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Validation.SMTPPort)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid SMTP_PORT %q", c.Validation.SMTPPort)
	}
	if c.Validation.SMTPMaxConcurrency <= 0 {
		return fmt.Errorf("SMTP_MAX_CONCURRENCY must be positive, got %d", c.Validation.SMTPMaxConcurrency)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.Worker.Concurrency)
	}
	if c.Worker.RatePerSec <= 0 {
		return fmt.Errorf("WORKER_RATE_PER_SEC must be positive, got %v", c.Worker.RatePerSec)
	}
	if !strings.Contains(c.Validation.MailFrom, "@") {
		return fmt.Errorf("invalid SMTP_MAIL_FROM %q", c.Validation.MailFrom)
	}
	return nil
}

func valueOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseIntWithDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseBoolWithDefault(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
