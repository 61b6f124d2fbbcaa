package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string `env:"DATABASE_URL,required"`
	JWTSecretKey string `env:"JWT_SECRET_KEY,required"`
	ServerPort   int    `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// R2 необязателен: без него загрузка файлов скриншотов отключена.
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicBaseURL   string `env:"R2_PUBLIC_BASE_URL"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	SMTPFrom string `env:"SMTP_FROM"`

	EvidenceMinMinutes      int           `env:"EVIDENCE_MIN_MINUTES" envDefault:"3"`
	VerificationCodeTTL     time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"10m"`
	VerificationMaxAttempts int           `env:"VERIFICATION_MAX_ATTEMPTS" envDefault:"5"`
	VerificationBcryptCost  int           `env:"VERIFICATION_BCRYPT_COST" envDefault:"10"`
	PendingSweepInterval    time.Duration `env:"PENDING_SWEEP_INTERVAL" envDefault:"1m"`

	ChatRatePerSecond float64 `env:"CHAT_RATE_PER_SECOND" envDefault:"1"`
	ChatBurst         int     `env:"CHAT_BURST" envDefault:"5"`
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()
	return Parse(env.Options{})
}

// Parse разбирает окружение; opts.Environment позволяет подменить его в тестах.
func Parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.EvidenceMinMinutes < 0 {
		return fmt.Errorf("EVIDENCE_MIN_MINUTES must not be negative, got %d", c.EvidenceMinMinutes)
	}
	if c.VerificationCodeTTL <= 0 {
		return fmt.Errorf("VERIFICATION_CODE_TTL must be positive, got %s", c.VerificationCodeTTL)
	}
	if c.VerificationMaxAttempts <= 0 {
		return fmt.Errorf("VERIFICATION_MAX_ATTEMPTS must be positive, got %d", c.VerificationMaxAttempts)
	}
	if c.ChatBurst < 0 {
		return fmt.Errorf("CHAT_BURST must not be negative, got %d", c.ChatBurst)
	}
	return nil
}

// SlogLevel переводит LOG_LEVEL в уровень slog, по умолчанию Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
