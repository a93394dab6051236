package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", d.Host)
	}
	if d.UserID != "demo" {
		t.Errorf("UserID = %q, want demo", d.UserID)
	}
	if d.Avatar != "reflecto" {
		t.Errorf("Avatar = %q, want reflecto", d.Avatar)
	}
	if d.APIBase != "" {
		t.Errorf("APIBase = %q, want empty (derived from host)", d.APIBase)
	}
}

func TestMergeProjectOverridesGlobal(t *testing.T) {
	global := &Config{APIBase: "http://global:8000", UserID: "global-user"}
	project := &Config{APIBase: "http://project:8000"}

	merged := Merge(global, project)
	if merged.APIBase != "http://project:8000" {
		t.Errorf("APIBase = %q, want project value", merged.APIBase)
	}
	// Keys the project leaves empty fall back to global.
	if merged.UserID != "global-user" {
		t.Errorf("UserID = %q, want global value", merged.UserID)
	}
	// Keys neither sets fall back to defaults.
	if merged.Avatar != "reflecto" {
		t.Errorf("Avatar = %q, want default", merged.Avatar)
	}
}

func TestMergeNilConfigs(t *testing.T) {
	merged := Merge(nil, nil)
	if merged != Defaults() {
		t.Errorf("Merge(nil, nil) = %+v, want defaults", merged)
	}
}

func TestLoadProjectAbsentReturnsNil(t *testing.T) {
	dir := t.TempDir()
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(old) })

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if cfg != nil {
		t.Errorf("cfg = %+v, want nil for absent file", cfg)
	}
}

func TestLoadProjectParsesFile(t *testing.T) {
	dir := t.TempDir()
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(old) })

	content := `{"api_base":"http://localhost:9999","user_id":"alex"}`
	if err := os.WriteFile(filepath.Join(dir, ".reflectorc"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if cfg.APIBase != "http://localhost:9999" || cfg.UserID != "alex" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadProjectParseError(t *testing.T) {
	dir := t.TempDir()
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(old) })

	if err := os.WriteFile(filepath.Join(dir, ".reflectorc"), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadProject()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}
