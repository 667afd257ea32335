package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/vocalens/vocalens/internal/dotenv"
)

// appConfig is the user-facing configuration, merged from the YAML config
// file, the environment, and flags. The API key itself never lives in the
// YAML file.
type appConfig struct {
	Model        string `yaml:"model"`
	Voice        string `yaml:"voice"`
	EditModel    string `yaml:"edit_model"`
	SystemPrompt string `yaml:"system_prompt"`

	apiKey string
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vocalens.yaml")
}

func loadConfig(path, apiKeyFlag string) (appConfig, error) {
	_ = dotenv.Load(".env")

	var cfg appConfig
	if path == "" {
		path = defaultConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return appConfig{}, fmt.Errorf("read config %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return appConfig{}, fmt.Errorf("parse config %q: %w", path, err)
			}
		}
	}

	cfg.apiKey = strings.TrimSpace(apiKeyFlag)
	if cfg.apiKey == "" {
		cfg.apiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if cfg.apiKey == "" {
		cfg.apiKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}
	if cfg.apiKey == "" {
		key, err := promptAPIKey()
		if err != nil {
			return appConfig{}, err
		}
		cfg.apiKey = key
	}
	return cfg, nil
}

// promptAPIKey reads the credential without echo when stdin is a terminal.
func promptAPIKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no API key: set GEMINI_API_KEY or pass --api-key")
	}
	fmt.Fprint(os.Stderr, "Gemini API key: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read API key: %w", err)
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", errors.New("no API key provided")
	}
	return key, nil
}
