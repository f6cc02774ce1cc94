package config

import "time"

type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	HttpServer HttpServerConfig `yaml:"httpServer" env-required:"true"`
	DBConfig   DBConfig         `yaml:"db" env-required:"true"`
	Site       SiteConfig       `yaml:"site"`
	Auth       AuthConfig       `yaml:"auth"`
	Nonce      NonceConfig      `yaml:"nonce"`
	configPath string
}

type HttpServerConfig struct {
	Address string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost"`
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
	Secret  string        `yaml:"secret" env:"HTTP_SECRET" env-required:"true"`
}

// DBConfig описывает хранилище записей. Driver: "postgres" или "sqlite".
// Для sqlite используется Path, для postgres — Host/Port/Name/User/Password.
type DBConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	Path     string `yaml:"path" env:"DB_PATH" env-default:"plainevents.db"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name     string `yaml:"name" env:"DB_NAME" env-default:"postgres"`
	User     string `yaml:"user" env:"DB_USER" env-default:"user"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:"password"`
	SSLMode  string `yaml:"sslMode" env:"DB_SSLMODE" env-default:"disable"`
}

// SiteConfig — настройки публичной части: часовой пояс для "сегодня" и локаль дат.
type SiteConfig struct {
	Timezone string `yaml:"timezone" env:"SITE_TIMEZONE" env-default:"UTC"`
	Locale   string `yaml:"locale" env:"SITE_LOCALE" env-default:"en"`
}

type AuthConfig struct {
	SessionTTL time.Duration `yaml:"sessionTTL" env:"AUTH_SESSION_TTL" env-default:"12h"`
}

type NonceConfig struct {
	Lifetime time.Duration `yaml:"lifetime" env:"NONCE_LIFETIME" env-default:"24h"`
}
