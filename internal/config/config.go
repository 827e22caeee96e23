package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	HTTPAddr    string
	DatabaseURL string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownWait     time.Duration

	LogFile string

	// Mail transports
	EmailTransport   string // "real" or "fake"
	PostalAPIURL     string
	SMTPTimeout      time.Duration
	SMTPMaxRetries   int
	SMTPRetryBackoff time.Duration

	// Postal circuit breaker
	CBMaxFailures  int
	CBResetTimeout time.Duration

	// Redis (dispatch lock)
	RedisEnabled    bool
	RedisURL        string
	DispatchLockTTL time.Duration

	// RabbitMQ
	RabbitURL      string
	RabbitExchange string

	// Attachment storage
	StorageDriver     string // "local" or "s3"
	UploadDir         string
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UsePathStyle    bool

	// Keepalive
	KeepaliveURL      string
	KeepaliveInterval time.Duration

	// Dispatcher
	DispatchEnabled   bool
	DispatchPollMax   time.Duration
	DispatchCooldown  time.Duration
	DispatchDelayUnit time.Duration

	// Rate limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnvFirst([]string{"APP_ENV", "ENV"}, "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", "")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":" + getEnv("PORT", "5000")
	}
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	cfg.ShutdownWait = getDuration("SHUTDOWN_WAIT", 10*time.Second)

	cfg.LogFile = getEnv("LOG_FILE", "")

	cfg.EmailTransport = strings.ToLower(getEnv("EMAIL_TRANSPORT", "real"))
	cfg.PostalAPIURL = strings.TrimRight(getEnv("POSTAL_API_URL", ""), "/")
	cfg.SMTPTimeout = getDuration("SMTP_TIMEOUT", 30*time.Second)
	cfg.SMTPMaxRetries = getInt("SMTP_MAX_RETRIES", 3)
	cfg.SMTPRetryBackoff = getDuration("SMTP_RETRY_BACKOFF", 5*time.Second)

	cfg.CBMaxFailures = getInt("POSTAL_CB_MAX_FAILURES", 5)
	cfg.CBResetTimeout = getDuration("POSTAL_CB_RESET_TIMEOUT", 30*time.Second)

	cfg.RedisEnabled = getBool("REDIS_ENABLED", false)
	cfg.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")
	cfg.DispatchLockTTL = getDuration("DISPATCH_LOCK_TTL", 5*time.Minute)

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "campaign.events")

	cfg.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", "local"))
	cfg.UploadDir = getEnv("UPLOAD_DIR", "./instance")
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.S3Region = getEnv("S3_REGION", "us-east-1")
	cfg.S3Bucket = getEnv("S3_BUCKET", "campaign-attachments")
	cfg.S3AccessKeyID = getEnv("S3_ACCESS_KEY_ID", "")
	cfg.S3SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", "")
	cfg.S3UsePathStyle = getBool("S3_USE_PATH_STYLE", true)

	cfg.KeepaliveURL = getEnv("KEEPALIVE_URL", "")
	cfg.KeepaliveInterval = getSeconds("KEEPALIVE_INTERVAL", 60*time.Second)

	cfg.DispatchEnabled = getBool("DISPATCH_ENABLED", true)
	cfg.DispatchPollMax = getDuration("DISPATCH_POLL_MAX", 10*time.Second)
	cfg.DispatchCooldown = getDuration("DISPATCH_COOLDOWN", 60*time.Second)
	cfg.DispatchDelayUnit = getDuration("DISPATCH_DELAY_UNIT", time.Second)

	cfg.RLEnabled = getBool("RL_ENABLED", true)
	cfg.RLLimit = getInt("RL_IP_LIMIT", 120)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	// validation
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("missing DATABASE_URL")
	}
	switch cfg.EmailTransport {
	case "real", "fake":
	default:
		return nil, fmt.Errorf("bad EMAIL_TRANSPORT %q (want real|fake)", cfg.EmailTransport)
	}
	switch cfg.StorageDriver {
	case "local":
	case "s3":
		if cfg.S3Endpoint == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("s3 storage selected but missing S3_ENDPOINT / S3_ACCESS_KEY_ID / S3_SECRET_ACCESS_KEY")
		}
	default:
		return nil, fmt.Errorf("bad STORAGE_DRIVER %q (want local|s3)", cfg.StorageDriver)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFirst(keys []string, def string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// getSeconds accepts a bare integer (seconds) or a Go duration string.
func getSeconds(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return getDuration(key, def)
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
