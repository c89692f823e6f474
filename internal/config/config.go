package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"nt/internal/task"
)

const (
	DefaultDirName        = ".nt"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tasks.db"
	DefaultLogName        = "nt.log"

	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "NT_CONFIG"
)

type Keymap struct {
	Quit    string `toml:"quit"`
	Add     string `toml:"add"`
	Up      string `toml:"up"`
	Down    string `toml:"down"`
	Actions string `toml:"actions"`
	Command string `toml:"command"`
	Details string `toml:"details"`
	Export  string `toml:"export"`
	Confirm string `toml:"confirm"`
	Cancel  string `toml:"cancel"`
}

type Config struct {
	DBPath        string `toml:"db_path"`
	DueSoonDays   int    `toml:"due_soon_days"`
	LogFile       string `toml:"log_file"`
	LogLevel      string `toml:"log_level"`
	ConfirmDelete bool   `toml:"confirm_delete"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath returns $NT_CONFIG when set, else ~/.nt/config.toml.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return expandHome(p)
	}
	return filepath.Join(homeDir(), DefaultDirName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first
// when the file does not exist. Missing keys keep their default values.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.normalize(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg.normalize(), nil
}

func (c Config) normalize() Config {
	def := defaultConfig()
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.DueSoonDays <= 0 {
		c.DueSoonDays = task.DefaultDueSoonDays
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	c.DBPath = expandHome(c.DBPath)
	c.LogFile = expandHome(c.LogFile)
	return c
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	dir := filepath.Join("~", DefaultDirName)
	return Config{
		DBPath:        filepath.Join(dir, DefaultDBName),
		DueSoonDays:   task.DefaultDueSoonDays,
		LogFile:       filepath.Join(dir, DefaultLogName),
		LogLevel:      "info",
		ConfirmDelete: true,
		Keys: Keymap{
			Quit:    "q",
			Add:     "a",
			Up:      "k",
			Down:    "j",
			Actions: "enter",
			Command: "/",
			Details: "i",
			Export:  "m",
			Confirm: "y",
			Cancel:  "esc",
		},
	}
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}
