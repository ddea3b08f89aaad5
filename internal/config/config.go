package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type WeatherConfig struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	DefaultLocation string `toml:"default_location"`
}

type TodoistConfig struct {
	APIToken string `toml:"api_token"`
	BaseURL  string `toml:"base_url"`
	Filter   string `toml:"filter"`
}

type CalendarConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	TokenFile       string `toml:"token_file"`
	CalendarID      string `toml:"calendar_id"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	LLM      LLMConfig      `toml:"llm"`
	Weather  WeatherConfig  `toml:"weather"`
	Todoist  TodoistConfig  `toml:"todoist"`
	Calendar CalendarConfig `toml:"calendar"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Path: "data/assistant.db"},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "gpt-oss:latest",
			BaseURL:  "http://localhost:11434",
		},
		Weather: WeatherConfig{
			BaseURL:         "https://opendata.cwa.gov.tw/api/v1/rest/datastore",
			DefaultLocation: "Hsinchu City",
		},
		Todoist: TodoistConfig{
			BaseURL: "https://api.todoist.com/rest/v2",
		},
		Calendar: CalendarConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			CalendarID:      "primary",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}
