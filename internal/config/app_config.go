package config

import (
	"time"
)

type AppConfig struct {
	Port           int           `yaml:"port" env:"APP_PORT" env-default:"8080"`
	DefaultTimeout time.Duration `yaml:"default_timeout" env-default:"10s"`
	Drive          string        `yaml:"drive" env-default:"C:"`
	Env            string        `yaml:"env" env:"APP_ENV" env-default:"dev"`
}

type StorageConfig struct {
	// Backend selects the storage engine: "postgres" or "memory".
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"postgres"`
}
