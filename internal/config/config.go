// Package config loads docdesk configuration from the environment and an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LLM provider names.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// History backend names.
const (
	BackendRemote    = "remote"
	BackendSQLite    = "sqlite"
	BackendSurrealDB = "surrealdb"
	BackendMemory    = "memory"
)

// Config holds all configuration values.
type Config struct {
	// Gateway client
	ServerURL     string
	ClientTimeout time.Duration

	// History persistence
	HistoryBackend       string
	ServerHistoryBackend string
	SQLitePath           string

	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Gateway server
	Port string

	// Capability backends
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	VisionModel     string
	VisionBaseURL   string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors Config for the YAML overlay. Empty fields keep the defaults.
type fileConfig struct {
	ServerURL     string `yaml:"server_url"`
	ClientTimeout string `yaml:"client_timeout"`

	History struct {
		Backend       string `yaml:"backend"`
		ServerBackend string `yaml:"server_backend"`
		SQLitePath    string `yaml:"sqlite_path"`
	} `yaml:"history"`

	SurrealDB struct {
		URL       string `yaml:"url"`
		Namespace string `yaml:"namespace"`
		Database  string `yaml:"database"`
		User      string `yaml:"user"`
		Pass      string `yaml:"pass"`
		AuthLevel string `yaml:"auth_level"`
	} `yaml:"surrealdb"`

	Port string `yaml:"port"`

	LLM struct {
		Provider      string `yaml:"provider"`
		Model         string `yaml:"model"`
		OllamaHost    string `yaml:"ollama_host"`
		VisionModel   string `yaml:"vision_model"`
		VisionBaseURL string `yaml:"vision_base_url"`
	} `yaml:"llm"`

	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads configuration from environment variables.
// If DOCDESK_CONFIG names a YAML file, its values replace the built-in defaults;
// environment variables still take precedence over the file.
func Load() (Config, error) {
	var fc fileConfig
	if path := os.Getenv("DOCDESK_CONFIG"); path != "" {
		var err error
		fc, err = readFile(path)
		if err != nil {
			return Config{}, err
		}
	}
	return build(fc), nil
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func build(fc fileConfig) Config {
	return Config{
		ServerURL:     getEnv("DOCDESK_SERVER_URL", or(fc.ServerURL, "http://localhost:8000")),
		ClientTimeout: parseDuration(getEnv("DOCDESK_CLIENT_TIMEOUT", or(fc.ClientTimeout, "2m")), 2*time.Minute),

		HistoryBackend:       getEnv("DOCDESK_HISTORY_BACKEND", or(fc.History.Backend, BackendRemote)),
		ServerHistoryBackend: getEnv("DOCDESK_SERVER_HISTORY_BACKEND", or(fc.History.ServerBackend, BackendSQLite)),
		SQLitePath:           getEnv("DOCDESK_SQLITE_PATH", or(fc.History.SQLitePath, "docdesk.db")),

		SurrealDBURL:       getEnv("SURREALDB_URL", or(fc.SurrealDB.URL, "ws://localhost:8001/rpc")),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", or(fc.SurrealDB.Namespace, "docdesk")),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", or(fc.SurrealDB.Database, "history")),
		SurrealDBUser:      getEnv("SURREALDB_USER", or(fc.SurrealDB.User, "root")),
		SurrealDBPass:      getEnv("SURREALDB_PASS", or(fc.SurrealDB.Pass, "root")),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", or(fc.SurrealDB.AuthLevel, "root")),

		Port: getEnv("DOCDESK_PORT", or(fc.Port, "8000")),

		LLMProvider:     getEnv("DOCDESK_LLM_PROVIDER", or(fc.LLM.Provider, ProviderOllama)),
		LLMModel:        getEnv("DOCDESK_LLM_MODEL", or(fc.LLM.Model, "llama3.2")),
		OllamaHost:      getEnv("OLLAMA_HOST", or(fc.LLM.OllamaHost, "http://localhost:11434")),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		VisionModel:     getEnv("DOCDESK_VISION_MODEL", or(fc.LLM.VisionModel, "gpt-4o-mini")),
		VisionBaseURL:   getEnv("DOCDESK_VISION_BASE_URL", fc.LLM.VisionBaseURL),

		LogFile:  getEnv("DOCDESK_LOG_FILE", or(fc.Log.File, "/tmp/docdesk.log")),
		LogLevel: parseLogLevel(getEnv("DOCDESK_LOG_LEVEL", or(fc.Log.Level, "INFO"))),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func or(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
