// Package config предоставляет структуры и функции для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища состояния устройств.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	Catalog         `yaml:"catalog"`
	Auth            `yaml:"auth"`
	Newsletter      `yaml:"newsletter"`
	Checkout        `yaml:"checkout"`
	RabbitMQ        `yaml:"rabbitmq"`
	SMTP            `yaml:"smtp"`
	RateLimit       `yaml:"rate_limit"`
	Devices         `yaml:"devices"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Storage выбирает бэкенд, в котором хранятся корзины, избранное, сессии и подписчики.
type Storage struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	PostgresDSN string `yaml:"postgres_dsn" env:"STORAGE_POSTGRES_DSN"`
}

// RedisConnection структура для настройки подключения к redis.
// Используется и как хранилище, и как кеш каталога.
type RedisConnection struct {
	AddressRedis string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeout" env-default:"3s"`
}

// Catalog настройки клиента удалённого каталога товаров.
type Catalog struct {
	BaseURL       string        `yaml:"base_url" env:"CATALOG_BASE_URL" env-default:"https://fakestoreapi.com"`
	Timeout       time.Duration `yaml:"timeout" env-default:"5s"`
	ProductsTTL   time.Duration `yaml:"products_ttl" env-default:"1h"`
	CategoriesTTL time.Duration `yaml:"categories_ttl" env-default:"24h"`
}

// Auth настройки выдачи подписанных токенов сессии.
type Auth struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
	AdminUserIDs []int         `yaml:"admin_user_ids" env-default:"1"`
}

// Newsletter настройки рассылки.
type Newsletter struct {
	Delay time.Duration `yaml:"delay" env-default:"1s"`
}

// Checkout настройки имитации оплаты.
type Checkout struct {
	Delay time.Duration `yaml:"delay" env-default:"2s"`
}

// RabbitMQ настройки брокера событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env-default:"storefront"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового сервера для сервиса рассылки.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
}

// RateLimit настройки ограничителя запросов с одного адреса клиента.
type RateLimit struct {
	RPS     float64       `yaml:"rps" env-default:"10"`
	Burst   int           `yaml:"burst" env-default:"20"`
	IdleTTL time.Duration `yaml:"idle_ttl" env-default:"10m"`
}

// Devices ограничивает число состояний устройств, загруженных в память.
type Devices struct {
	DeviceIdleTTL time.Duration `yaml:"idle_ttl" env-default:"30m"`
	MaxDevices    int           `yaml:"max" env-default:"100000"`
}

// Load читает конфиг из файла path и переменных окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг из файла, указанного в CONFIG_PATH, и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Driver {
	case StorageMemory:
	case StorageRedis:
		if c.AddressRedis == "" {
			return fmt.Errorf("storage driver %q requires redis_connection.address", c.Driver)
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("storage driver %q requires storage.postgres_dsn", c.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	return nil
}

// IsAdmin сообщает, входит ли удалённый пользователь в список администраторов.
func (a Auth) IsAdmin(userID int) bool {
	for _, id := range a.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"Catalog:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"Auth:\n"+
			"  TokenTTL: %s\n"+
			"  AdminUserIDs: %v\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Driver,
		c.AddressRedis,
		c.DB,
		c.BaseURL,
		c.Catalog.Timeout,
		c.TokenTTL,
		c.AdminUserIDs,
		c.Exchange,
	)
}
