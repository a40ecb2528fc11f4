package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Storage   StorageConfig   `yaml:"storage"`
	Zipkin    ZipkinConfig    `yaml:"zipkin"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"logfmt"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr" env:"GRPC_ADDR" env-default:":8082"`
}

type StorageConfig struct {
	Driver string       `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	DSN    string       `yaml:"dsn" env:"DB_DSN"`
}

type SQLiteConfig struct {
	Dir      string `yaml:"dir" env:"SQLITE_DIR" env-default:"data/databases"`
	Database string `yaml:"database" env:"SQLITE_DATABASE" env-default:"default.sqlite"`
}

type ZipkinConfig struct {
	URL string `yaml:"url" env:"ZIPKIN_URL"`
}

type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second" env:"RATE_LIMIT_PER_SECOND" env-default:"1"`
	Burst     int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"100"`
}

// Validate rejects settings the daemon cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %q needs a dsn", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Log.Format {
	case "logfmt", "json", "zap":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

// MustLoad reads the file named by -config or CONFIG_PATH, or the
// environment alone when neither is given.
func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		return MustLoadEnv()
	}
	return MustLoadByPath(path)
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exists: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read the config: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("invalid config: " + err.Error())
	}

	return &cfg
}

func MustLoadEnv() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read the environment: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("invalid config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
