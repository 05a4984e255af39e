package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env-default:"local"`
	AppURL     string `yaml:"app_url" env:"APP_URL" env-default:"http://localhost:8080"`
	Tokens     `yaml:"tokens"`
	Mongo      `yaml:"mongo"`
	RabbitMQ   `yaml:"rabbitmq"`
	HTTPServer `yaml:"http_server"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Mongo struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-required:"true"`
	Database string `yaml:"database" env-default:"storefront"`
}

type Tokens struct {
	AccessTokenTTL       time.Duration `yaml:"access_token_ttl" env-default:"15m"`
	RefreshTokenTTL      time.Duration `yaml:"refresh_token_ttl" env-default:"168h"`
	VerificationTokenTTL time.Duration `yaml:"verification_token_ttl" env-default:"24h"`
	ResetTokenTTL        time.Duration `yaml:"reset_token_ttl" env-default:"1h"`
	AccessTokenSecret    string        `yaml:"access_token_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	RefreshTokenSecret   string        `yaml:"refresh_token_secret" env:"REFRESH_TOKEN_SECRET" env-required:"true"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"email_jobs"`
}

// * MailerConfig — конфигурация почтового воркера (cmd/mail_sender).
// Ему не нужны ни Mongo, ни секреты подписи, поэтому тип отдельный.
type MailerConfig struct {
	Env      string `yaml:"env" env-default:"local"`
	RabbitMQ `yaml:"rabbitmq"`
	Email    `yaml:"email"`
}

type Email struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-required:"true"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USER" env-required:"true"`
	Password string `yaml:"password" env:"SMTP_PASS" env-required:"true"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	// * Секреты подписи обязательны на старте, а не при обработке запроса
	if cfg.Tokens.AccessTokenSecret == "" || cfg.Tokens.RefreshTokenSecret == "" {
		panic("token signing secrets must not be empty")
	}

	return &cfg
}

func MustLoadMailer(configPath string) *MailerConfig {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg MailerConfig

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
