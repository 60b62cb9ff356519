package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is populated from the environment. An unset LDTS_SIGNING_KEY_FILE
// selects an ephemeral signing key, which invalidates all access tokens on
// restart; set it in anything beyond local development.
type Config struct {
	Issuer         string `env:"LDTS_ISSUER" envDefault:"ldts"`
	SigningKeyFile string `env:"LDTS_SIGNING_KEY_FILE"`
	DatabaseFile   string `env:"LDTS_DATABASE_FILE" envDefault:"ldts.db"`
	PepperFile     string `env:"LDTS_PEPPER_FILE" envDefault:"pepper"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT" envDefault:"8080"`

	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	AccessTokenTTL      time.Duration `env:"LDTS_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL     time.Duration `env:"LDTS_REFRESH_TOKEN_TTL" envDefault:"168h"`

	AllowedEmailDomains []string `env:"LDTS_ALLOWED_EMAIL_DOMAINS" envSeparator:","`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"LDTS_MAIL_FROM" envDefault:"LDTS System <no-reply@localhost>"`
	AppBaseURL   string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
