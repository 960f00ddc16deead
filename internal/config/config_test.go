package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vemikrs/mira/internal/errors"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.json")
}

func TestLoadFrom_Missing(t *testing.T) {
	cfg, err := LoadFrom(tempConfigPath(t))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.GetServerURL() != DefaultServerURL {
		t.Errorf("ServerURL = %q, want default %q", cfg.GetServerURL(), DefaultServerURL)
	}
	if cfg.GetPageSize() != DefaultPageSize {
		t.Errorf("PageSize = %d, want default %d", cfg.GetPageSize(), DefaultPageSize)
	}
	if !cfg.GetNotificationsEnabled() {
		t.Error("NotificationsEnabled should default to true")
	}
}

func TestSaveAndLoad_Roundtrip(t *testing.T) {
	path := tempConfigPath(t)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	cfg.SetServerURL("https://mira.example.com")
	cfg.SetDefaultMode("STUDIO_AGENT")
	cfg.SetTheme("nord")
	cfg.SetNotificationsEnabled(false)
	cfg.MarkWelcomeShown()

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() after save error = %v", err)
	}

	if loaded.GetServerURL() != "https://mira.example.com" {
		t.Errorf("ServerURL = %q after roundtrip", loaded.GetServerURL())
	}
	if loaded.GetDefaultMode() != "STUDIO_AGENT" {
		t.Errorf("DefaultMode = %q after roundtrip", loaded.GetDefaultMode())
	}
	if loaded.GetTheme() != "nord" {
		t.Errorf("Theme = %q after roundtrip", loaded.GetTheme())
	}
	if !loaded.GetWelcomeShown() {
		t.Error("WelcomeShown should survive roundtrip")
	}
}

func TestSave_LeavesNoTempFile(t *testing.T) {
	path := tempConfigPath(t)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Save() should not leave a .tmp file behind")
	}
}

func TestLoadFrom_InvalidServerURL(t *testing.T) {
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte(`{"server_url":"not a url"}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("LoadFrom() should reject an invalid server URL")
	}
	if !errors.Is(err, errors.KindValidation) {
		t.Errorf("error kind = %v, want KindValidation", errors.GetKind(err))
	}
}

func TestLoadFrom_CorruptJSON(t *testing.T) {
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("LoadFrom() should fail on corrupt JSON")
	}
	if !errors.Is(err, errors.KindConfig) {
		t.Errorf("error kind = %v, want KindConfig", errors.GetKind(err))
	}
}
