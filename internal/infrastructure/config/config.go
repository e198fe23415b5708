package config

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const EnvProduction = "production"

// Config is the explicit process-wide configuration, loaded once at startup
// and injected into the orchestrator and its collaborators. Nothing reads the
// environment at call time.
type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// ClientURL is the frontend origin embedded in emailed action links.
	ClientURL string `env:"CLIENT_URL, default=http://localhost:5173"`

	JWTSecret        string `env:"JWT_SECRET"`
	EmailTokenSecret string `env:"EMAIL_TOKEN_SECRET"`
	PIICipherKey     string `env:"PII_CIPHER_KEY"`

	BcryptCost int `env:"BCRYPT_COST, default=12"`

	SessionTTL      time.Duration `env:"SESSION_TTL,            default=24h"`
	AdminSessionTTL time.Duration `env:"ADMIN_SESSION_TTL,      default=168h"`
	VerificationTTL time.Duration `env:"VERIFICATION_TOKEN_TTL, default=24h"`
	ResetTTL        time.Duration `env:"RESET_TOKEN_TTL,        default=1h"`

	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD, default=5"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION,  default=15m"`
	PasswordMaxAge   time.Duration `env:"PASSWORD_MAX_AGE,  default=2160h"`
	FailedLoginDelay time.Duration `env:"FAILED_LOGIN_DELAY, default=1500ms"`

	SignupMaxPerWindow int           `env:"SIGNUP_MAX_PER_WINDOW, default=5"`
	SignupWindow       time.Duration `env:"SIGNUP_WINDOW,         default=1h"`

	Mongo MongoConfig
	Redis RedisConfig
	Mail  MailConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=gadgetghar"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type MailConfig struct {
	APIKey    string `env:"BREVO_API_KEY"`
	FromEmail string `env:"MAIL_FROM_EMAIL"`
	FromName  string `env:"MAIL_FROM_NAME, default=Gadget Ghar"`

	SendTimeout      time.Duration `env:"MAIL_SEND_TIMEOUT,  default=10s"`
	ResetSendTimeout time.Duration `env:"RESET_MAIL_TIMEOUT, default=5s"`
}

// Load reads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Production reports whether the process runs with production hardening.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// ValidateSecrets enforces the production stance on missing secrets: in
// production they are a hard startup failure, elsewhere the caller may fall
// back to insecure defaults with a warning.
func (c *Config) ValidateSecrets() error {
	if !c.Production() {
		return nil
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.EmailTokenSecret == "" {
		return errors.New("EMAIL_TOKEN_SECRET is required in production")
	}
	if c.PIICipherKey == "" {
		return errors.New("PII_CIPHER_KEY is required in production")
	}
	return nil
}
