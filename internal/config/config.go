package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-core-fx/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type http struct {
	Enabled     bool     `koanf:"enabled"`
	Address     string   `koanf:"address"      validate:"required_if=Enabled true"`
	ProxyHeader string   `koanf:"proxy_header"`
	Proxies     []string `koanf:"proxies"`
}

type storageConfig struct {
	DataDir    string        `koanf:"data_dir"    validate:"required_unless=InMemory true"`
	InMemory   bool          `koanf:"in_memory"`
	GCInterval time.Duration `koanf:"gc_interval" validate:"gte=0"`
}

type retryConfig struct {
	Attempts     int           `koanf:"attempts"      validate:"min=1"`
	InitialDelay time.Duration `koanf:"initial_delay" validate:"gte=0"`
	MaxDelay     time.Duration `koanf:"max_delay"     validate:"gtefield=InitialDelay"`
}

type githubConfig struct {
	Token       string        `koanf:"token"       validate:"required"`
	BaseURL     string        `koanf:"base_url"    validate:"omitempty,url"`
	PerPage     int           `koanf:"per_page"    validate:"min=1,max=100"`
	Affiliation string        `koanf:"affiliation"`
	PageDelay   time.Duration `koanf:"page_delay"  validate:"gte=0"`
	Timeout     time.Duration `koanf:"timeout"     validate:"gte=0"`
	Retry       retryConfig   `koanf:"retry"`
}

type mirrorsConfig struct {
	Root string `koanf:"root" validate:"required"`
}

type gitConfig struct {
	Timeout  time.Duration `koanf:"timeout"  validate:"gt=0"`
	Username string        `koanf:"username"`
}

type schedulerConfig struct {
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
	Once     bool          `koanf:"once"`
}

type Config struct {
	HTTP http `koanf:"http"`

	Storage   storageConfig   `koanf:"storage"`
	GitHub    githubConfig    `koanf:"github"`
	Mirrors   mirrorsConfig   `koanf:"mirrors"`
	Git       gitConfig       `koanf:"git"`
	Scheduler schedulerConfig `koanf:"scheduler"`
}

// Flags are command line overrides. Zero values leave the loaded config alone.
type Flags struct {
	ConfigPath string
	Interval   time.Duration
	Once       bool
	Verbose    bool
}

func Default() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		HTTP: http{
			Enabled:     true,
			Address:     "127.0.0.1:3000",
			ProxyHeader: "X-Forwarded-For",
			Proxies:     []string{},
		},

		Storage: storageConfig{
			DataDir:    "./data",
			GCInterval: time.Hour,
		},

		GitHub: githubConfig{
			PerPage:     100,
			Affiliation: "owner,collaborator,organization_member",
			PageDelay:   500 * time.Millisecond,
			Timeout:     30 * time.Second,
			Retry: retryConfig{
				Attempts:     5,
				InitialDelay: time.Second,
				MaxDelay:     time.Minute,
			},
		},

		Mirrors: mirrorsConfig{
			Root: "./repos",
		},

		Git: gitConfig{
			Timeout: 300 * time.Second,
		},

		Scheduler: schedulerConfig{
			Interval: 24 * time.Hour,
		},
	}
}

func New(flags Flags, validate *validator.Validate) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if root := os.Getenv("REPOS_DIR"); root != "" {
		cfg.Mirrors.Root = root
	}

	options := []config.Option{}

	yamlPath := flags.ConfigPath
	if yamlPath == "" {
		yamlPath = os.Getenv("CONFIG_PATH")
	}
	if yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if flags.Interval > 0 {
		cfg.Scheduler.Interval = flags.Interval
	}
	if flags.Once {
		cfg.Scheduler.Once = true
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
