package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models northstar.yml.
type Config struct {
	Org struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"org"`
	Directory struct {
		Users       []SeedUser       `yaml:"users"`
		Departments []SeedDepartment `yaml:"departments"`
	} `yaml:"directory"`
	Notifier struct {
		// Mention emails are delivered through these endpoints, best effort.
		Targets []NotifierTarget `yaml:"targets"`
	} `yaml:"notifier"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
	Auth     struct {
		AllowLegacyActorHeader bool `yaml:"allow_legacy_actor_header"`
	} `yaml:"auth"`
}

type SeedUser struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	AvatarURL  string `yaml:"avatar_url"`
	Role       string `yaml:"role"`
	Department string `yaml:"department"`
}

type SeedDepartment struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type NotifierTarget struct {
	URL            string `yaml:"url"`
	Secret         string `yaml:"secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        *bool  `yaml:"enabled"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	Events         []string `yaml:"events"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run ns init or create it", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Org.ID == "" {
		return fmt.Errorf("config.org.id is required")
	}
	seen := map[string]bool{}
	for _, u := range c.Directory.Users {
		if u.ID == "" {
			return fmt.Errorf("directory user with empty id")
		}
		if seen[u.ID] {
			return fmt.Errorf("directory user %s listed twice", u.ID)
		}
		seen[u.ID] = true
	}
	depts := map[string]bool{}
	for _, d := range c.Directory.Departments {
		if d.ID == "" {
			return fmt.Errorf("directory department with empty id")
		}
		depts[d.ID] = true
	}
	for _, u := range c.Directory.Users {
		if u.Department != "" && len(depts) > 0 && !depts[u.Department] {
			return fmt.Errorf("user %s references unknown department %s", u.ID, u.Department)
		}
	}
	for i, t := range c.Notifier.Targets {
		if t.URL == "" {
			return fmt.Errorf("notifier target %d has empty url", i)
		}
	}
	for i, w := range c.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "northstar.yml")
}

// Default returns the default Config struct for an org.
func Default(orgID string) *Config {
	var cfg Config
	cfg.Org.ID = orgID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, orgID))).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault(orgID string) string {
	return fmt.Sprintf(defaultTemplate, orgID)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `org:
  id: %s
  name: Default Org

directory:
  departments:
    - id: engineering
      name: Engineering
    - id: product
      name: Product
  users: []

notifier:
  targets: []

webhooks: []

auth:
  allow_legacy_actor_header: true
`
