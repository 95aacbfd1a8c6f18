// Package config предоставляет структуры и функции для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string  `yaml:"env" env:"ENV" env-default:"local"`
	Storage         Storage `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	HTTPServer      `yaml:"http_server"`
	JWTToken        `yaml:"jwttoken"`
	Password        Password  `yaml:"password"`
	Model           Model     `yaml:"model"`
	RabbitMQ        RabbitMQ  `yaml:"rabbitmq"`
	RateLimit       RateLimit `yaml:"rate_limit"`
}

// Storage структура для выбора драйвера и строки подключения к БД
type Storage struct {
	Driver           string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	ConnectionString string `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING" env-default:"users.db"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес означает хранение сессий в памяти процесса.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"24h"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
	Issuer       string        `yaml:"issuer" env-default:"cropyield"`
}

// Password выбор алгоритма хеширования паролей: sha256 или bcrypt
type Password struct {
	Hasher string `yaml:"hasher" env:"PASSWORD_HASHER" env-default:"sha256"`
}

// Model путь к дампу модели урожайности. Пустой путь отключает прогнозы.
type Model struct {
	Path      string  `yaml:"path" env:"MODEL_PATH"`
	BaseScore float64 `yaml:"base_score" env-default:"0.5"`
}

// RabbitMQ настройки публикации событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env-default:"cropyield"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// RateLimit ограничение частоты запросов на вход
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// ErrNoPath возвращается, если путь к конфигу не задан.
var ErrNoPath = errors.New("config path is not set")

// Load читает конфиг из файла, поверх которого применяются переменные окружения
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if path == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoPath)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// LoadEnv собирает конфиг только из переменных окружения и значений по умолчанию.
func LoadEnv() (*Config, error) {
	const op = "config.LoadEnv"
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH, завершает процесс при ошибке
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

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  SessionTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"Password:\n"+
			"  Hasher: %s\n"+
			"Model:\n"+
			"  Path: %s\n"+
			"RateLimit:\n"+
			"  RPS: %g\n"+
			"  Burst: %d\n",
		c.Env,
		c.Storage.Driver,
		c.AddressRedis,
		c.DB,
		c.SessionTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.Password.Hasher,
		c.Model.Path,
		c.RateLimit.RPS,
		c.RateLimit.Burst,
	)
}
