package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vetgate/internal/pkg/validate"
)

// Config holds all runtime configuration loaded from environment variables.
// Optional integrations (signature key, service account, SNS topic) are left
// untagged; main degrades gracefully when they are absent.
type Config struct {
	AppPort string `validate:"required"`
	AppEnv  string `validate:"required"`

	AWSRegion      string `validate:"required"`
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// Chat platform (Discord-compatible interactions API).
	DiscordAPIBase      string `validate:"required,url"`
	DiscordPublicKey    string // hex-encoded ed25519 key for webhook signatures
	DiscordBotToken     string
	DiscordClientID     string
	DiscordClientSecret string
	DiscordGuildID      string
	OAuthRedirectURI    string `validate:"required,url"`

	// Spreadsheet roster access (Google service account, JWT-bearer flow).
	GoogleServiceAccountEmail string
	GooglePrivateKeyPath      string `validate:"required"`
	GoogleTokenURL            string `validate:"required,url"`

	SMTPHost     string `validate:"required"`
	SMTPPort     string `validate:"required"`
	SMTPFrom     string `validate:"required,email"`
	SMTPUsername string
	SMTPPassword string

	SNSRegion   string
	SNSTopicARN string // empty disables the verified-event publisher

	// Retry budget for outbound calls. Worst-case forced delay must stay
	// well under the interaction response window (~3s).
	RetryAttempts  int           `validate:"gte=0"`
	RetryBaseDelay time.Duration `validate:"gte=0"`

	PasscodeTTL time.Duration `validate:"gt=0"`
	ApplyURL    string        `validate:"required,url"`

	AllowedOrigins []string `validate:"min=1"` // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each store.
type DynamoTables struct {
	Settings  string `validate:"required"`
	Passcodes string `validate:"required"`
}

// Validate checks the loaded configuration against its tags. Defaults keep
// the zero environment valid; a bad override should stop startup.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Settings:  getEnv("DYNAMO_TABLE_SETTINGS", "verifier_settings"),
			Passcodes: getEnv("DYNAMO_TABLE_PASSCODES", "verifier_passcodes"),
		},

		DiscordAPIBase:      getEnv("DISCORD_API_BASE", "https://discord.com/api/v10"),
		DiscordPublicKey:    getEnv("DISCORD_PUBLIC_KEY", ""),
		DiscordBotToken:     getEnv("DISCORD_BOT_TOKEN", ""),
		DiscordClientID:     getEnv("DISCORD_CLIENT_ID", ""),
		DiscordClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
		DiscordGuildID:      getEnv("DISCORD_GUILD_ID", ""),
		OAuthRedirectURI:    getEnv("OAUTH_REDIRECT_URI", "http://localhost:3000/v1/oauth"),

		GoogleServiceAccountEmail: getEnv("GOOGLE_SA_EMAIL", ""),
		GooglePrivateKeyPath:      getEnv("GOOGLE_SA_KEY_PATH", "./sa_key.pem"),
		GoogleTokenURL:            getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:   getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),

		RetryAttempts:  getEnvInt("RETRY_ATTEMPTS", 2),
		RetryBaseDelay: time.Duration(getEnvInt("RETRY_BASE_DELAY_MS", 200)) * time.Millisecond,

		PasscodeTTL: time.Duration(getEnvInt("PASSCODE_TTL_MINUTES", 5)) * time.Minute,
		ApplyURL:    getEnv("APPLY_URL", "https://example.com/apply"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
