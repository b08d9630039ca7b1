package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName      string `env:"OV_APP_NAME" envDefault:"orientavision"`
	AppEnv       string `env:"OV_APP_ENV" envDefault:"local"`
	HTTPHost     string `env:"OV_HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort     string `env:"OV_HTTP_PORT" envDefault:"3001"`
	HTTPBasePath string `env:"OV_HTTP_BASE_PATH" envDefault:"/api"`

	DBDriver   string `env:"OV_DB_DRIVER" envDefault:"sqlite"`
	DBPath     string `env:"OV_DB_PATH" envDefault:"orientavision.db"`
	DBHost     string `env:"OV_DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"OV_DB_PORT" envDefault:"5432"`
	DBUser     string `env:"OV_DB_USER" envDefault:"app"`
	DBPassword string `env:"OV_DB_PASSWORD" envDefault:"app_password"`
	DBName     string `env:"OV_DB_NAME" envDefault:"orientavision"`
	DBSSLMode  string `env:"OV_DB_SSLMODE" envDefault:"disable"`

	AccessSecret  string        `env:"OV_JWT_ACCESS_SECRET"`
	RefreshSecret string        `env:"OV_JWT_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"OV_JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"OV_JWT_REFRESH_TTL" envDefault:"168h"`
	ResetTokenTTL time.Duration `env:"OV_RESET_TOKEN_TTL" envDefault:"1h"`

	NATSURL           string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSVerifySubject string `env:"NATS_SUBJECT_VERIFY_TOKEN" envDefault:"auth.verify-token"`

	MailerURL     string        `env:"OV_MAILER_URL"`
	MailerTimeout time.Duration `env:"OV_MAILER_TIMEOUT" envDefault:"5s"`

	APIRateLimitRPM  int `env:"OV_API_RATE_LIMIT_RPM" envDefault:"100"`
	AuthRateLimitRPM int `env:"OV_AUTH_RATE_LIMIT_RPM" envDefault:"20"`
}

// Dev fallbacks are refused in production: MustLoad will not let the
// process serve traffic without real secret material.
const (
	devAccessSecret  = "supersecretkey_dev"
	devRefreshSecret = "superrefreshsecretkey_dev"
)

func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.IsProduction() && (cfg.AccessSecret == "" || cfg.RefreshSecret == "") {
		log.Fatal("OV_JWT_ACCESS_SECRET and OV_JWT_REFRESH_SECRET are required in production")
	}
	if cfg.AccessSecret == "" {
		cfg.AccessSecret = devAccessSecret
	}
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = devRefreshSecret
	}
	return cfg
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }
