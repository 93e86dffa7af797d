package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	// база часовых поясов встроена в бинарник
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var (
	// ErrReadConfig ошибка чтения файла конфигурации
	ErrReadConfig = errors.New("config: failed to read config file")

	// ErrInvalidConfig некорректные значения конфигурации
	ErrInvalidConfig = errors.New("config: invalid config")
)

// Config конфигурация сервиса
type Config struct {
	Server         ServerConfig      `toml:"server"`
	Database       DatabaseConfig    `toml:"database"`
	Redis          RedisConfig       `toml:"redis"`
	Kafka          KafkaConfig       `toml:"kafka"`
	Logs           LogsConfig        `toml:"logs"`
	Metrics        MetricsConfig     `toml:"metrics"`
	ListingService IntegrationConfig `toml:"listing_service"`
	UserService    IntegrationConfig `toml:"user_service"`
	PaymentService PaymentConfig     `toml:"payment_service"`
	Booking        BookingConfig     `toml:"booking"`
	Worker         WorkerConfig      `toml:"worker"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// RedisConfig используется для распределённых блокировок слотов.
// При Enabled=false блокировки работают в памяти процесса.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	LockTTL  int    `toml:"lock_ttl_seconds"`
}

// KafkaConfig используется для отправки уведомлений о бронированиях
type KafkaConfig struct {
	Enabled  bool     `toml:"enabled"`
	Brokers  []string `toml:"brokers"`
	Topic    string   `toml:"topic"`
	ClientID string   `toml:"client_id"`
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

type PaymentConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
	APIKey  string `toml:"api_key"`
}

type BookingConfig struct {
	HoldTTLMinutes    int    `toml:"hold_ttl_minutes"`
	DefaultTaxPercent string `toml:"default_tax_percent"`
	Timezone          string `toml:"timezone"`
}

type WorkerConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
	BatchSize       int  `toml:"batch_size"`
}

// Load читает конфигурацию из TOML файла. Переменные окружения (в том числе из .env)
// переопределяют секреты: DB_PASSWORD, REDIS_PASSWORD, PAYMENT_API_KEY.
func Load(path string) (*Config, error) {
	// .env опционален
	_ = godotenv.Load()

	cfg := defaults()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadConfig, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			LockTTL: 10,
		},
		Kafka: KafkaConfig{
			Topic:    "booking-events",
			ClientID: "slot-booking-service",
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "slot_booking_service",
		},
		ListingService: IntegrationConfig{Timeout: 5},
		UserService:    IntegrationConfig{Timeout: 5},
		PaymentService: PaymentConfig{Timeout: 10},
		Booking: BookingConfig{
			HoldTTLMinutes:    15,
			DefaultTaxPercent: "0",
			Timezone:          "Asia/Kolkata",
		},
		Worker: WorkerConfig{
			Enabled:         true,
			IntervalSeconds: 60,
			BatchSize:       100,
		},
	}
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("DB_PASSWORD"); ok {
		cfg.Database.Password = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
		cfg.Redis.Password = v
	}
	if v, ok := os.LookupEnv("PAYMENT_API_KEY"); ok {
		cfg.PaymentService.APIKey = v
	}
	if v, ok := os.LookupEnv("HTTP_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = port
		}
	}
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("%w: server.http_port must be positive", ErrInvalidConfig)
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("%w: database.host and database.dbname are required", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("%w: booking.timezone: %v", ErrInvalidConfig, err)
	}
	if _, err := decimal.NewFromString(c.Booking.DefaultTaxPercent); err != nil {
		return fmt.Errorf("%w: booking.default_tax_percent: %v", ErrInvalidConfig, err)
	}
	if c.Booking.HoldTTLMinutes <= 0 {
		return fmt.Errorf("%w: booking.hold_ttl_minutes must be positive", ErrInvalidConfig)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers required when kafka is enabled", ErrInvalidConfig)
	}
	if c.Worker.Enabled && c.Worker.IntervalSeconds <= 0 {
		return fmt.Errorf("%w: worker.interval_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}
