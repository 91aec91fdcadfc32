// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQConnection      `yaml:"rabbitmq_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Stripe                  `yaml:"stripe"`
	SMTP                    `yaml:"smtp"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQConnection структура для настройки подключения к rabbitmq
type RabbitMQConnection struct {
	RabbitMQURL        string        `yaml:"rabbitmq_url"`
	RabbitMQMaxRetries int           `yaml:"rabbitmq_max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"rabbitmq_retry_delay" env-default:"2s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Stripe структура для настройки клиента Stripe и проверки вебхуков
type Stripe struct {
	StripeSecretKey     string `yaml:"stripe_secret_key" env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `yaml:"stripe_webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	StripePriceID       string `yaml:"stripe_price_id" env:"STRIPE_PRICE_ID"`
	CheckoutSuccessURL  string `yaml:"checkout_success_url"`
	CheckoutCancelURL   string `yaml:"checkout_cancel_url"`
	PortalReturnURL     string `yaml:"portal_return_url"`
}

// SMTP структура для настройки отправки почты
type SMTP struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort string `yaml:"smtp_port" env-default:"587"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass" env:"SMTP_PASS"`
}

// MustLoad функция для загрузки конфига, путь берется из переменной окружения CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
