package config

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// MustLoad читает конфиг из файла, путь к которому передан флагом -config
// или переменной окружения CONFIG_PATH. Переменные окружения перекрывают файл.
func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		log.Fatal("config path is empty")
	}

	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

// Load читает и проверяет конфиг по указанному пути.
func Load(path string) (*Config, error) {
	op := "config.Load()"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg.configPath = path

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

// ListenAddr возвращает адрес для http.Server.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.HttpServer.Address, c.HttpServer.Port)
}

// Location возвращает часовой пояс сайта; при ошибке — UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Path возвращает путь, из которого был прочитан конфиг.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) validate() error {
	switch c.DBConfig.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db driver: %q", c.DBConfig.Driver)
	}
	if c.HttpServer.Secret == "" {
		return fmt.Errorf("httpServer.secret is required")
	}
	if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		return fmt.Errorf("invalid site timezone %q: %w", c.Site.Timezone, err)
	}
	return nil
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
