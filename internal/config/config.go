package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfig marks missing or unusable configuration, detected before any
// network call is made
var ErrConfig = errors.New("missing required configuration")

// Config holds everything one run needs, built once at startup and passed
// into the components. No component reads the environment directly.
type Config struct {
	// Wiki credentials and endpoint
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Domain   string `yaml:"domain"`

	// Email addresses
	Recipient string `yaml:"recipient"`
	Sender    string `yaml:"sender"`

	// Mailgun delivery
	MailgunDomain string `yaml:"mailgun_domain"`
	MailgunAPIKey string `yaml:"mailgun_api_key"`

	// Optional SQLite archive of sent digests; empty disables archiving
	ArchivePath string `yaml:"archive_path"`
}

// envVars maps each Config field loaded from the environment to its
// variable name; also used to report which variable is missing
var envVars = []struct {
	name     string
	required bool
	field    func(*Config) *string
}{
	{"MW_USERNAME", true, func(c *Config) *string { return &c.Username }},
	{"MW_PASSWORD", true, func(c *Config) *string { return &c.Password }},
	{"BASE_DOMAIN", true, func(c *Config) *string { return &c.Domain }},
	{"RECIPIENT_EMAIL", true, func(c *Config) *string { return &c.Recipient }},
	{"SENDER_EMAIL", true, func(c *Config) *string { return &c.Sender }},
	{"MAILGUN_DOMAIN", true, func(c *Config) *string { return &c.MailgunDomain }},
	{"MAILGUN_API_KEY", true, func(c *Config) *string { return &c.MailgunAPIKey }},
	{"ARCHIVE_PATH", false, func(c *Config) *string { return &c.ArchivePath }},
}

// Load builds the Config. When filePath is non-empty the YAML file is read
// first; environment variables fill any field the file left empty. The
// returned error wraps ErrConfig and names the first missing variable.
func Load(filePath string) (*Config, error) {
	cfg := &Config{}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfig, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config file: %v", ErrConfig, err)
		}
	}

	for _, v := range envVars {
		field := v.field(cfg)
		if *field == "" {
			*field = os.Getenv(v.name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every required field is set
func (c *Config) Validate() error {
	for _, v := range envVars {
		if v.required && *v.field(c) == "" {
			return fmt.Errorf("%w: %s", ErrConfig, v.name)
		}
	}
	return nil
}
