package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/library-system/pkg/auth"
	"github.com/Astemirdum/library-system/pkg/circuit_breaker"
	"github.com/Astemirdum/library-system/pkg/kafka"
	"github.com/Astemirdum/library-system/pkg/logger"
	"github.com/Astemirdum/library-system/pkg/postgres"
	"github.com/Astemirdum/library-system/pkg/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LIBRARY_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"LIBRARY_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration
}

type Database struct {
	Driver   string `yaml:"driver" envconfig:"DB_DRIVER" default:"sqlite"`
	Postgres postgres.DB
	SQLite   sqlite.DB
}

type Config struct {
	Server   HTTPServer `yaml:"server"`
	Database Database   `yaml:"db"`
	Kafka    kafka.Config
	CB       circuit_breaker.Config
	Auth     auth.Config
	Log      logger.Log `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		config, err := Load(ops...)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

// Load applies ops and then the environment, without caching the result.
func Load(ops ...Option) (Config, error) {
	var config Config
	for _, op := range ops {
		op(&config)
	}
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}
	switch config.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unknown DB_DRIVER %q", config.Database.Driver)
	}
	return config, nil
}

func printConfig(cfg Config) {
	jscfg, _ := jsoniter.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
