package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YelzhanWeb/canteen/internal/scheduler"
)

const (
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
)

type Config struct {
	Store     string          `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Redis     RedisConfig     `yaml:"redis"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	MaxConns int    `yaml:"max_conns"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	Collection      string `yaml:"collection"`
}

type SchedulerConfig struct {
	Strategy               string            `yaml:"strategy"`
	RefreshIntervalSeconds int               `yaml:"refresh_interval_seconds"`
	Weights                scheduler.Weights `yaml:"weights"`
}

func (c SchedulerConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// Default returns the configuration used for every key config.yaml omits.
func Default() Config {
	return Config{
		Store: StorePostgres,
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "canteen",
			Password: "canteen",
			Database: "canteen",
			MaxConns: 10,
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			TTLSeconds: 30,
		},
		Firebase: FirebaseConfig{
			Collection: "orders",
		},
		Scheduler: SchedulerConfig{
			Strategy:               string(scheduler.StrategyEnhanced),
			RefreshIntervalSeconds: 30,
			Weights:                scheduler.DefaultWeights(),
		},
	}
}

// Load reads a .env file when present, then path on top of the defaults,
// then environment overrides. A missing config file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	envString("CANTEEN_STORE", &cfg.Store)
	envString("CANTEEN_DB_HOST", &cfg.Database.Host)
	envInt("CANTEEN_DB_PORT", &cfg.Database.Port)
	envString("CANTEEN_DB_USER", &cfg.Database.User)
	envString("CANTEEN_DB_PASSWORD", &cfg.Database.Password)
	envString("CANTEEN_DB_NAME", &cfg.Database.Database)
	envInt("CANTEEN_DB_MAX_CONNS", &cfg.Database.MaxConns)
	envString("CANTEEN_RABBITMQ_HOST", &cfg.RabbitMQ.Host)
	envInt("CANTEEN_RABBITMQ_PORT", &cfg.RabbitMQ.Port)
	envString("CANTEEN_RABBITMQ_USER", &cfg.RabbitMQ.User)
	envString("CANTEEN_RABBITMQ_PASSWORD", &cfg.RabbitMQ.Password)
	envString("CANTEEN_REDIS_ADDR", &cfg.Redis.Addr)
	envString("CANTEEN_REDIS_PASSWORD", &cfg.Redis.Password)
	envString("CANTEEN_FIREBASE_PROJECT_ID", &cfg.Firebase.ProjectID)
	envString("CANTEEN_FIREBASE_CREDENTIALS", &cfg.Firebase.CredentialsFile)
	envString("CANTEEN_SCHEDULER_STRATEGY", &cfg.Scheduler.Strategy)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store {
	case StorePostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			errs = append(errs, errors.New("database: host and database are required"))
		}
	case StoreFirestore:
		if c.Firebase.ProjectID == "" {
			errs = append(errs, errors.New("firebase.project_id: required for the firestore store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store: must be %q or %q, got %q", StorePostgres, StoreFirestore, c.Store))
	}

	if _, err := scheduler.ParseStrategy(c.Scheduler.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.strategy: %w", err))
	}
	if c.Scheduler.RefreshIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.refresh_interval_seconds: must be > 0, got %d", c.Scheduler.RefreshIntervalSeconds))
	}
	if err := c.Scheduler.Weights.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.weights: %w", err))
	}
	if c.Redis.TTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("redis.ttl_seconds: must be >= 0, got %d", c.Redis.TTLSeconds))
	}

	return errors.Join(errs...)
}
