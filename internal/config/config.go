package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"voxbridge/internal/protocol"
)

const (
	DefaultListen     = "127.0.0.1:33016"
	DefaultIntervalMS = 100
	DefaultOutboxSize = 64
	appDirName        = "minecraft-builder-rs"
)

type Config struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`

	// Root holds vox/<name>.vox and palette.json.
	Root    string `yaml:"root"`
	DataDir string `yaml:"data_dir"`

	CommandIntervalMS int    `yaml:"command_interval_ms"`
	SystemSender      string `yaml:"system_sender"`
	SubscribeEvent    string `yaml:"subscribe_event"`
	OutboxSize        int    `yaml:"outbox_size"`

	Journal bool `yaml:"journal"`
	Index   bool `yaml:"index"`
}

func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

func Defaults() Config {
	return Config{
		Listen:            DefaultListen,
		Path:              "/",
		Root:              DefaultRoot(),
		DataDir:           "data",
		CommandIntervalMS: DefaultIntervalMS,
		SystemSender:      protocol.DefaultSystemSender,
		SubscribeEvent:    protocol.EventPlayerMessage,
		OutboxSize:        DefaultOutboxSize,
		Journal:           true,
		Index:             true,
	}
}

// DefaultRoot is <user config dir>/minecraft-builder-rs, or the same name
// under the working directory when no user config dir is known.
func DefaultRoot() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return appDirName
	}
	return filepath.Join(dir, appDirName)
}

func (c *Config) Normalize() {
	c.Listen = strings.TrimSpace(c.Listen)
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	c.Path = strings.TrimSpace(c.Path)
	if c.Path == "" {
		c.Path = "/"
	}
	if !strings.HasPrefix(c.Path, "/") {
		c.Path = "/" + c.Path
	}
	c.Root = strings.TrimSpace(c.Root)
	if c.Root == "" {
		c.Root = DefaultRoot()
	}
	c.DataDir = strings.TrimSpace(c.DataDir)
	if c.SystemSender == "" {
		c.SystemSender = protocol.DefaultSystemSender
	}
	if strings.TrimSpace(c.SubscribeEvent) == "" {
		c.SubscribeEvent = protocol.EventPlayerMessage
	}
	if c.OutboxSize <= 0 {
		c.OutboxSize = DefaultOutboxSize
	}
}

func (c Config) Validate() error {
	if c.CommandIntervalMS < 0 {
		return fmt.Errorf("command_interval_ms must be >= 0 (got %d)", c.CommandIntervalMS)
	}
	switch c.Path {
	case "/healthz", "/metrics":
		return fmt.Errorf("path %q collides with a built-in endpoint", c.Path)
	}
	if (c.Journal || c.Index) && c.DataDir == "" {
		return fmt.Errorf("data_dir is required when journal or index is enabled")
	}
	return nil
}

func (c Config) CommandInterval() time.Duration {
	return time.Duration(c.CommandIntervalMS) * time.Millisecond
}
