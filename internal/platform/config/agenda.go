package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AgendaConfig configures the agenda agent (cmd/agenda).
type AgendaConfig struct {
	// ServerURL is the planner API base URL.
	ServerURL string `yaml:"server_url"`

	// Token authenticates as a session bearer token. When empty the agent
	// sends User through the dev header instead.
	Token string `yaml:"token,omitempty"`

	// User is the acting user id. It is the classification viewer either
	// way; with an empty Token it is also the dev-mode identity.
	User int64 `yaml:"user"`

	// Trip is the trip whose agenda is rendered.
	Trip int64 `yaml:"trip"`

	// View is the initial calendar window: day, week, month or list.
	View string `yaml:"view"`

	// Refresh is the watch-mode schedule, in cron syntax or a descriptor
	// such as "@every 30s".
	Refresh string `yaml:"refresh"`

	// Timezone is the IANA zone used when printing times. "Local" follows
	// the host zone.
	Timezone string `yaml:"timezone"`

	// FiltersDB is a bbolt file that persists the per-trip filter selection
	// across runs. Empty keeps filter state in memory only.
	FiltersDB string `yaml:"filters_db,omitempty"`

	// ICSPath, when set, rewrites an ICS export of the trip on every
	// refresh.
	ICSPath string `yaml:"ics,omitempty"`
}

func DefaultAgendaConfig() *AgendaConfig {
	return &AgendaConfig{
		ServerURL: "http://localhost:8080",
		User:      1,
		Trip:      1,
		View:      "week",
		Refresh:   "@every 30s",
		Timezone:  "Local",
	}
}

// Normalize fills zero values with defaults so partially filled configs
// behave the same as fully written ones.
func (c *AgendaConfig) Normalize() {
	if c.ServerURL == "" {
		c.ServerURL = "http://localhost:8080"
	}
	switch c.View {
	case "day", "week", "month", "list":
	default:
		c.View = "week"
	}
	if c.Refresh == "" {
		c.Refresh = "@every 30s"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
}

// LoadAgendaConfig reads the YAML config at path. A missing file is treated
// as a first run: the defaults are written there (0600) and returned.
func LoadAgendaConfig(path string) (*AgendaConfig, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultAgendaConfig()
			if err := SaveAgendaConfig(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg AgendaConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// SaveAgendaConfig writes cfg to path atomically (temp file + rename) with
// 0600 permissions, creating the parent directory when needed.
func SaveAgendaConfig(path string, cfg *AgendaConfig) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".agenda-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
