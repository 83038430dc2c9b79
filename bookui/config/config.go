package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Astemirdum/book-manager/pkg/kafka"
	"github.com/Astemirdum/book-manager/pkg/logger"
	"github.com/kelseyhightower/envconfig"
)

// DefaultBooksAPIURL is the books API base address used when BOOKS_API_URL is unset.
const DefaultBooksAPIURL = "http://localhost:8000"

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"BOOKUI_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"BOOKUI_HTTP_PORT" default:"3000"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration
}

type BooksAPI struct {
	BaseURL string        `envconfig:"BOOKS_API_URL"`
	Timeout time.Duration `envconfig:"BOOKS_API_TIMEOUT" default:"30s"`
}

type Session struct {
	TTL time.Duration `envconfig:"SESSION_TTL" default:"12h"`
}

type Config struct {
	Server   HTTPServer   `yaml:"server"`
	BooksAPI BooksAPI     `yaml:"booksApi"`
	Session  Session      `yaml:"session"`
	Kafka    kafka.Config `yaml:"kafka"`
	Log      logger.Log   `yaml:"log"`
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

// Load applies ops and then the environment. Variables set in the environment win.
func Load(ops ...Option) (Config, error) {
	config := Config{
		BooksAPI: BooksAPI{BaseURL: DefaultBooksAPIURL},
	}
	for _, op := range ops {
		op(&config)
	}
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
