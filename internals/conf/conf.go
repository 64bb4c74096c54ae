package conf

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	z "github.com/Oudwins/zog"

	"todod/internals/version"
)

type StoreBackend string

const (
	StoreBackendFile   StoreBackend = "file"
	StoreBackendSQLite StoreBackend = "sqlite"
)

func StoreBackends() []StoreBackend {
	return []StoreBackend{StoreBackendFile, StoreBackendSQLite}
}

type Config struct {
	Version string        `json:"-"`
	Server  ServerConfig  `json:"server"`
	Store   StoreConfig   `json:"store"`
	Agent   AgentConfig   `json:"agent"`
	Session SessionConfig `json:"session"`
}

type ServerConfig struct {
	DataDir string `json:"data_dir"`
}

type StoreConfig struct {
	Backend StoreBackend `json:"backend"`
}

type AgentConfig struct {
	DefaultModel string `json:"default_model"`
	BaseURL      string `json:"base_url"`
}

type SessionConfig struct {
	// StepTimeout bounds one oracle call, as a Go duration string.
	StepTimeout string `json:"step_timeout"`
}

var serverSchema = z.Struct(z.Shape{
	"DataDir": z.String().Default("~/.todod").Transform(expandPathTransform),
})

var storeSchema = z.Struct(z.Shape{
	"Backend": z.StringLike[StoreBackend]().Default(StoreBackendFile).OneOf(StoreBackends()),
})

var agentSchema = z.Struct(z.Shape{
	"DefaultModel": z.String().Default("gpt-4o-mini"),
	"BaseURL":      z.String().Optional().Trim(),
})

var sessionSchema = z.Struct(z.Shape{
	"StepTimeout": z.String().Default("2m"),
})

var ConfigSchema = z.Struct(z.Shape{
	"server":  serverSchema,
	"store":   storeSchema,
	"agent":   agentSchema,
	"session": sessionSchema,
})

var config *Config

func GetConfig() *Config {
	if config == nil {
		defaults := &Config{}
		if err := ConfigSchema.Parse(map[string]any{}, defaults); err != nil {
			log.Fatal("[todod] Failed to parse default config", err)
		}
		defaults.Version = version.Version()

		configPath := filepath.Join(filepath.Clean(defaults.Server.DataDir), "todod.json")
		data, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				config = defaults
				return config
			}
			log.Fatal("[todod] Failed to read config file", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			config = defaults
			return config
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Fatal("[todod] Failed to parse config file", err)
		}
		parsed := &Config{}
		if err := ConfigSchema.Parse(payload, parsed); err != nil {
			log.Fatal("[todod] Failed to parse config", err)
		}
		parsed.Version = defaults.Version
		config = parsed
	}

	return config
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := ExpandPath(*ptr)
	*ptr = expanded
	return err
}

func ExpandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
