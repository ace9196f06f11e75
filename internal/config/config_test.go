package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loom-ui/loom/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name": "demo"}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "demo" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Server.Port != DefaultPort || cfg.Server.Host != DefaultHost {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Debounce() != DefaultDebounce {
		t.Errorf("debounce = %v", cfg.Debounce())
	}
	if cfg.Static.Dir != "public" {
		t.Errorf("static dir = %q", cfg.Static.Dir)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{
		"server": {"host": "0.0.0.0", "port": 9000, "sessionIdle": "45s"},
		"engine": {"debounceMillis": 50, "minify": true}
	}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address() != "0.0.0.0:9000" {
		t.Errorf("address = %q", cfg.Address())
	}
	if cfg.Debounce() != 50*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Debounce())
	}
	if cfg.SessionIdle() != 45*time.Second {
		t.Errorf("idle = %v", cfg.SessionIdle())
	}
	if !cfg.Engine.Minify {
		t.Error("minify not set")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	var e *errors.Error
	if !errors.IsCategory(err, errors.CategoryConfig) {
		t.Fatalf("err = %v", err)
	}
	if !stderrors.As(err, &e) || e.Code != "L302" {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{not json`)

	_, err := Load(dir)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != "L301" {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"server": {"port": 70000}}`)
	if _, err := Load(dir); !errors.IsCategory(err, errors.CategoryConfig) {
		t.Fatalf("port: err = %v", err)
	}

	writeConfig(t, dir, `{"server": {"sessionIdle": "soon"}}`)
	if _, err := Load(dir); !errors.IsCategory(err, errors.CategoryConfig) {
		t.Fatalf("idle: err = %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name": "demo"}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Server.Port = 5000
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := Load(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Server.Port != 5000 {
		t.Errorf("port after round trip = %d", again.Server.Port)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{}`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	if found != root {
		t.Errorf("root = %q, want %q", found, root)
	}
}
