package shared

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog/log"
)

// Config is read from the environment once at process start.
type Config struct {
	AppEnv      string `env:"APP_ENV" env-default:"prod"`
	HTTPAddr    string `env:"HTTP_ADDR" env-default:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" env-default:""`
	BaseURL     string `env:"BASE_URL" env-default:"http://localhost:8080"`

	MySQLDSN string `env:"MYSQL_DSN" env-default:"root:root@tcp(localhost:3306)/unistay?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`

	RedisAddr string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB   int    `env:"REDIS_DB" env-default:"0"`

	StripeBase          string `env:"STRIPE_BASE_URL" env-default:"https://api.stripe.com/v1"`
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY" env-default:""`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET" env-default:""`

	AdminEmail    string `env:"ADMIN_EMAIL" env-default:""`
	AdminPassword string `env:"ADMIN_PASSWORD" env-default:""`

	SessionTTL     time.Duration `env:"SESSION_TTL" env-default:"168h"`
	ReconcileSpec  string        `env:"RECONCILE_CRON" env-default:"@every 10m"`
	ReconcileGrace time.Duration `env:"RECONCILE_GRACE" env-default:"15m"`
}

func Load() Config {
	var c Config
	if err := cleanenv.ReadEnv(&c); err != nil {
		log.Fatal().Err(err).Msg("read config from env failed")
	}
	if c.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is empty")
	}
	if c.StripeWebhookSecret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET is empty; webhook verification will reject everything")
	}
	return c
}
