package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the configuration shared by the chat client and the reference server
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Assistant AssistantConfig `mapstructure:"assistant"`
}

// APIConfig locates the remote API and carries the bearer token
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChatConfig holds chat UI defaults
type ChatConfig struct {
	DefaultTitle string `mapstructure:"default_title"`
}

// LogConfig controls logging. An empty File means stderr.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ServerConfig configures the reference API server
type ServerConfig struct {
	Host        string          `mapstructure:"host"`
	Port        int             `mapstructure:"port"`
	JWTSecret   string          `mapstructure:"jwt_secret"`
	CORSOrigins string          `mapstructure:"cors_origins"`
	Storage     string          `mapstructure:"storage"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig bounds requests per user. Zero values use the middleware
// defaults.
type RateLimitConfig struct {
	APIMax     int           `mapstructure:"api_max"`
	APIWindow  time.Duration `mapstructure:"api_window"`
	ChatMax    int           `mapstructure:"chat_max"`
	ChatWindow time.Duration `mapstructure:"chat_window"`
}

// DatabaseConfig configures the postgres session store
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// AssistantConfig selects how the reference server produces replies
type AssistantConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

const (
	// DevJWTSecret signs tokens when no secret is configured. Local use only.
	DevJWTSecret = "change-me-in-production"
	// TokenIssuer is the iss claim of tokens minted for the chat API
	TokenIssuer = "outreach-chat"
)

// Address returns host:port for the server listener
func (s ServerConfig) Address() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// Load reads configuration. With an empty path, config.json is searched in
// the working directory, ./config and ~/.outreach; a missing file is not an
// error. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".outreach"))
		}
	}

	v.SetEnvPrefix("outreach")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:3001/api")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("chat.default_title", "New Chat")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.cors_origins", "http://localhost:3000")
	v.SetDefault("server.storage", "memory")
	v.SetDefault("server.rate_limit.api_max", 300)
	v.SetDefault("server.rate_limit.api_window", time.Minute)
	v.SetDefault("server.rate_limit.chat_max", 30)
	v.SetDefault("server.rate_limit.chat_window", time.Minute)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "outreach")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "outreach")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("assistant.provider", "canned")
	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.base_url", "")
	v.SetDefault("assistant.model", "gpt-3.5-turbo")
	v.SetDefault("assistant.system_prompt", "You are an assistant for an email outreach tool. Help the user write emails, analyze responses and optimize campaigns.")
}

func loadEnvOverrides(cfg *Config) {
	if url := os.Getenv("OUTREACH_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if token := os.Getenv("OUTREACH_TOKEN"); token != "" {
		cfg.API.Token = token
	}
	if secret := os.Getenv("OUTREACH_JWT_SECRET"); secret != "" {
		cfg.Server.JWTSecret = secret
	}
	if port := os.Getenv("OUTREACH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	// Database overrides
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Assistant.APIKey == "" {
		cfg.Assistant.APIKey = key
	}
}
