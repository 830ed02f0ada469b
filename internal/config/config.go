package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	GigaChat     GigaChatConfig
	SMTP         SMTPConfig
	IMAP         IMAPConfig
	Telegram     TelegramConfig
	Knowledge    KnowledgeConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr              string
	Password          string
	DB                int
	VerdictTTLMinutes int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines operator authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// GigaChatConfig holds credentials and endpoints for the classifier service.
type GigaChatConfig struct {
	AuthKey            string
	ClientID           string
	Scope              string
	OAuthURL           string
	CompletionsURL     string
	Model              string
	TokenTTLMinutes    int
	TimeoutSeconds     int
	InsecureSkipVerify bool
}

// SMTPConfig controls outbound mail delivery.
type SMTPConfig struct {
	Host           string
	Port           int
	Username       string
	Password       string
	From           string
	TimeoutSeconds int
}

// IMAPConfig controls the inbox polling worker.
type IMAPConfig struct {
	Addr                string
	Username            string
	Password            string
	PollIntervalSeconds int
	FetchLimit          int
}

// TelegramConfig controls operator alerts.
type TelegramConfig struct {
	BotToken       string
	ChatID         int64
	TimeoutSeconds int
}

// KnowledgeConfig locates the knowledge base file.
type KnowledgeConfig struct {
	Path string
}

// NotificationConfig holds the optional event webhook endpoint.
type NotificationConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	telegramChatID, err := parseChatID(os.Getenv("TELEGRAM_CHAT_ID"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-triage"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:              getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:          os.Getenv("REDIS_PASSWORD"),
			DB:                redisDB,
			VerdictTTLMinutes: getEnvAsInt("REDIS_VERDICT_TTL_MINUTES", 60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		GigaChat: GigaChatConfig{
			AuthKey:            os.Getenv("GIGACHAT_AUTH_KEY"),
			ClientID:           os.Getenv("GIGACHAT_CLIENT_ID"),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			OAuthURL:           getEnv("GIGACHAT_OAUTH_URL", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"),
			CompletionsURL:     getEnv("GIGACHAT_COMPLETIONS_URL", "https://gigachat.devices.sberbank.ru/api/v1/chat/completions"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			TokenTTLMinutes:    getEnvAsInt("GIGACHAT_TOKEN_TTL_MINUTES", 30),
			TimeoutSeconds:     getEnvAsInt("GIGACHAT_TIMEOUT_SECONDS", 30),
			InsecureSkipVerify: getEnvAsBool("GIGACHAT_INSECURE_SKIP_VERIFY", true),
		},
		SMTP: SMTPConfig{
			Host:           getEnv("SMTP_SERVER", "smtp.mail.ru"),
			Port:           getEnvAsInt("SMTP_PORT", 465),
			Username:       os.Getenv("EMAIL_ADDRESS"),
			Password:       os.Getenv("EMAIL_PASSWORD"),
			From:           getEnv("EMAIL_FROM", os.Getenv("EMAIL_ADDRESS")),
			TimeoutSeconds: getEnvAsInt("SMTP_TIMEOUT_SECONDS", 30),
		},
		IMAP: IMAPConfig{
			Addr:                getEnv("IMAP_SERVER", "imap.mail.ru:993"),
			Username:            os.Getenv("EMAIL_ADDRESS"),
			Password:            os.Getenv("EMAIL_PASSWORD"),
			PollIntervalSeconds: getEnvAsInt("IMAP_POLL_INTERVAL_SECONDS", 60),
			FetchLimit:          getEnvAsInt("IMAP_FETCH_LIMIT", 10),
		},
		Telegram: TelegramConfig{
			BotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:         telegramChatID,
			TimeoutSeconds: getEnvAsInt("TELEGRAM_TIMEOUT_SECONDS", 10),
		},
		Knowledge: KnowledgeConfig{
			Path: getEnv("KNOWLEDGE_BASE_PATH", "knowledge_base.json"),
		},
		Notification: NotificationConfig{
			WebhookURL:     os.Getenv("NOTIFY_WEBHOOK_URL"),
			TimeoutSeconds: getEnvAsInt("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", 5),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the default lifetime for cached access tokens, used when
// the OAuth response carries no explicit expiry.
func (g GigaChatConfig) TokenTTL() time.Duration {
	if g.TokenTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(g.TokenTTLMinutes) * time.Minute
}

// Timeout returns the per-call deadline for classifier requests.
func (g GigaChatConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// Enabled reports whether mail delivery is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

// Timeout returns the deadline for one SMTP exchange.
func (s SMTPConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Enabled reports whether inbox polling is configured.
func (i IMAPConfig) Enabled() bool {
	return i.Addr != "" && i.Username != "" && i.Password != ""
}

// PollInterval returns the polling period for the mailbox worker.
func (i IMAPConfig) PollInterval() time.Duration {
	if i.PollIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(i.PollIntervalSeconds) * time.Second
}

// Enabled reports whether Telegram alerts are configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

// Timeout returns the per-push deadline for the alert channel.
func (t TelegramConfig) Timeout() time.Duration {
	if t.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// VerdictTTL returns how long cached verdicts stay valid.
func (r RedisConfig) VerdictTTL() time.Duration {
	if r.VerdictTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(r.VerdictTTLMinutes) * time.Minute
}

func parseChatID(val string) (int64, error) {
	if val == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, errors.New("invalid TELEGRAM_CHAT_ID")
	}
	return id, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
