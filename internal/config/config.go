// Package config предоставялет структуры и функцию для парсинга и загрузки конфига портала.
//
// Значения читаются из YAML-файла (CONFIG_PATH) и перекрываются переменными окружения,
// поэтому VITE_API_BASE_URL и VITE_FIREBASE_* продолжают настраивать внешние сервисы.
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
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	API             `yaml:"api"`
	Firebase        `yaml:"firebase"`
	RedisConnection `yaml:"redis_connection"`
	HTTPServer      `yaml:"http_server"`
	Session         `yaml:"session"`
	RabbitMQ        `yaml:"rabbitmq"`
}

// API настройки подключения к внешнему REST-бэкенду KYC.
type API struct {
	BaseURL    string        `yaml:"base_url" env:"VITE_API_BASE_URL"`
	TimeoutAPI time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"10s"`
	CacheTTL   time.Duration `yaml:"cache_ttl" env:"API_CACHE_TTL" env-default:"5m"`
}

// Firebase клиентская конфигурация Firebase. Портал только отдаёт её браузеру.
type Firebase struct {
	APIKey            string `yaml:"api_key" env:"VITE_FIREBASE_API_KEY" json:"apiKey"`
	AuthDomain        string `yaml:"auth_domain" env:"VITE_FIREBASE_AUTH_DOMAIN" json:"authDomain"`
	ProjectID         string `yaml:"project_id" env:"VITE_FIREBASE_PROJECT_ID" json:"projectId"`
	StorageBucket     string `yaml:"storage_bucket" env:"VITE_FIREBASE_STORAGE_BUCKET" json:"storageBucket"`
	MessagingSenderID string `yaml:"messaging_sender_id" env:"VITE_FIREBASE_MESSAGING_SENDER_ID" json:"messagingSenderId"`
	AppID             string `yaml:"app_id" env:"VITE_FIREBASE_APP_ID" json:"appId"`
	UseEmulator       bool   `yaml:"use_emulator" env:"VITE_USE_FIREBASE_EMULATOR" json:"useEmulator"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDR"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDR" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Session настройки браузерной сессии.
type Session struct {
	CookieName   string        `yaml:"cookie_name" env-default:"kyc_session"`
	SessionTTL   time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"168h"`
	SecureCookie bool          `yaml:"secure_cookie"`
	LoginRPS     float64       `yaml:"login_rps" env-default:"1"`
	LoginBurst   int           `yaml:"login_burst" env-default:"5"`
	// SessionIdle через сколько без обращений сессия выгружается из памяти.
	SessionIdle   time.Duration `yaml:"idle" env-default:"30m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env-default:"5m"`
}

// RabbitMQ настройки публикации событий сессии. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL      string `yaml:"url" env:"RABBITMQ_URL"`
	Exchange string `yaml:"exchange" env-default:"auth-events"`
}

// ErrNoConfigPath возвращается, если путь к конфигу не задан.
var ErrNoConfigPath = errors.New("CONFIG_PATH is not set")

// Load читает конфиг по указанному пути.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if configPath == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoConfigPath)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"API:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"  CacheTTL: %s\n"+
			"Firebase:\n"+
			"  ProjectID: %s\n"+
			"  UseEmulator: %t\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Session:\n"+
			"  Cookie: %s\n"+
			"  TTL: %s\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n",
		c.Env,
		c.BaseURL,
		c.TimeoutAPI,
		c.CacheTTL,
		c.ProjectID,
		c.UseEmulator,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.CookieName,
		c.SessionTTL,
		c.RabbitMQ.URL != "",
	)
}
