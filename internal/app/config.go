package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultGenerateURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

type Config struct {
	APIKey                string `yaml:"api_key"`
	GenerateURL           string `yaml:"generate_url"`
	HistoryURL            string `yaml:"history_url"`
	PersistURL            string `yaml:"persist_url"`
	MaxMessagesPerSession int    `yaml:"max_messages_per_session"`
	ArchivePath           string `yaml:"archive_path"`
}

func DefaultConfig() Config {
	return Config{
		GenerateURL:           defaultGenerateURL,
		MaxMessagesPerSession: 20,
		ArchivePath:           DefaultArchivePath(),
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		applyEnv(&cfg)
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.GenerateURL == "" {
		cfg.GenerateURL = defaultGenerateURL
	}
	if cfg.MaxMessagesPerSession <= 0 {
		cfg.MaxMessagesPerSession = 20
	}
	if cfg.ArchivePath == "" {
		cfg.ArchivePath = DefaultArchivePath()
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv fills credentials and endpoints from the environment when the
// config file leaves them empty. The API key is never written back to disk.
func applyEnv(cfg *Config) {
	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if cfg.HistoryURL == "" {
		cfg.HistoryURL = strings.TrimSpace(os.Getenv("GEMCHAT_HISTORY_URL"))
	}
	if cfg.PersistURL == "" {
		cfg.PersistURL = strings.TrimSpace(os.Getenv("GEMCHAT_PERSIST_URL"))
	}
	if v := strings.TrimSpace(os.Getenv("GEMCHAT_GENERATE_URL")); v != "" {
		cfg.GenerateURL = v
	}
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	// Credentials stay in the environment.
	cfg.APIKey = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "gemchat", "config.yml")
}

// DefaultArchivePath picks the durable location for the session archive.
// Prefer XDG data dir (Linux/macOS). If unavailable, fall back to ~/.local/share.
func DefaultArchivePath() string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, "gemchat", archiveKey+".json")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "gemchat", archiveKey+".json")
	}
	return filepath.Join(os.TempDir(), "gemchat", archiveKey+".json")
}
