package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setFullEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MW_USERNAME", "bot")
	t.Setenv("MW_PASSWORD", "secret")
	t.Setenv("BASE_DOMAIN", "wiki.example.org")
	t.Setenv("RECIPIENT_EMAIL", "team@example.org")
	t.Setenv("SENDER_EMAIL", "wiki@mg.example.org")
	t.Setenv("MAILGUN_DOMAIN", "mg.example.org")
	t.Setenv("MAILGUN_API_KEY", "key-test")
	t.Setenv("ARCHIVE_PATH", "")
}

func TestLoadFromEnv(t *testing.T) {
	setFullEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Username != "bot" || cfg.Domain != "wiki.example.org" || cfg.MailgunAPIKey != "key-test" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadMissingVariable(t *testing.T) {
	setFullEnv(t)
	t.Setenv("MW_PASSWORD", "")

	_, err := Load("")
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}
	if !strings.Contains(err.Error(), "MW_PASSWORD") {
		t.Errorf("error should name the missing variable, got %v", err)
	}
}

func TestLoadFileOverridesEnv(t *testing.T) {
	setFullEnv(t)

	path := filepath.Join(t.TempDir(), "rc-report.yaml")
	content := "username: filebot\narchive_path: /tmp/digests.db\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Username != "filebot" {
		t.Errorf("file value should win over env, got username %q", cfg.Username)
	}
	if cfg.Password != "secret" {
		t.Errorf("env should fill fields the file left empty, got password %q", cfg.Password)
	}
	if cfg.ArchivePath != "/tmp/digests.db" {
		t.Errorf("archive_path = %q", cfg.ArchivePath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	setFullEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrConfig) {
		t.Errorf("error = %v, want ErrConfig for unreadable file", err)
	}
}
