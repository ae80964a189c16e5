package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Storage
	Postgres
	SQLite
	HTTPServer
	CORS
}

type Storage struct {
	Driver string `env:"STORAGE_DRIVER" env-default:"postgres"`
}

type Postgres struct {
	User       string        `env:"POSTGRES_USER" env-default:"postgres"`
	Pass       string        `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	Host       string        `env:"POSTGRES_HOST" env-default:"localhost"`
	Port       string        `env:"POSTGRES_PORT" env-default:"5432"`
	DB         string        `env:"POSTGRES_DB" env-default:"blog"`
	SSLMode    string        `env:"POSTGRES_SSLMODE" env-default:"disable"`
	Timeout    time.Duration `env:"POSTGRES_TIMEOUT" env-default:"5s"`
	Migrations string        `env:"POSTGRES_MIGRATIONS"`
}

type SQLite struct {
	Path string `env:"SQLITE_PATH" env-default:"blog.db"`
}

type HTTPServer struct {
	BindAddress     string        `env:"BIND_ADDRESS" env-default:"localhost"`
	BindPort        string        `env:"BIND_PORT" env-default:"8000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" env-default:"5s"`
}

type CORS struct {
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" env-default:"*" env-separator:","`
}

// New reads the environment, overloaded by the given .env file when it exists.
func New(env string) (*Config, error) {
	conf := &Config{}

	if env != "" {
		if err := godotenv.Overload(env); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("godotenv.Overload: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(conf); err != nil {
		return nil, fmt.Errorf("cleanenv.ReadEnv: %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverSQLite:
		return nil
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
}

// DSN is the lib/pq connection url.
func (p Postgres) DSN() string {
	return fmt.Sprintf(
		"postgresql://%v:%v@%v:%v/%v?sslmode=%v", p.User, p.Pass, p.Host, p.Port, p.DB, p.SSLMode)
}

func (s HTTPServer) Addr() string {
	return fmt.Sprintf("%v:%v", s.BindAddress, s.BindPort)
}
