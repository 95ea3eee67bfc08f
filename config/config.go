package config

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bookworm-app/bookworm/pkg/logger"
	"github.com/kelseyhightower/envconfig"
)

// API points the client at the library backend.
type API struct {
	BaseURL string        `yaml:"baseURL" envconfig:"BOOKWORM_API_URL" default:"http://localhost:8080/api/v1"`
	Timeout time.Duration `yaml:"timeout" envconfig:"BOOKWORM_API_TIMEOUT" default:"30s"`
}

// Credentials locates the persisted bearer token.
type Credentials struct {
	Path string `yaml:"path" envconfig:"BOOKWORM_TOKEN_PATH"`
}

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LIBRARYD_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"LIBRARYD_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration
}

type Database struct {
	Path string `yaml:"path" envconfig:"LIBRARYD_DB_PATH" default:"libraryd.db"`
}

type Config struct {
	API         API
	Credentials Credentials
	Server      HTTPServer
	Database    Database
	Log         logger.Log
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		if config.Credentials.Path == "" {
			config.Credentials.Path = defaultTokenPath()
		}
		cfg = config
	})

	return cfg
}

func defaultTokenPath() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "bookworm", "token.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bookworm", "token.json")
}
