package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lastmod-cache/lastmod/store"
)

func TestValidateRequiresCachePath(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatal("expected an error for missing cache_path")
	}
}

func TestValidateETagsRequireDB(t *testing.T) {
	cfg := Config{CachePath: "/tmp/cache", UseETags: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for use_etags without db")
	}
	cfg.DB = "/tmp/meta.db"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenStorePicksImplementation(t *testing.T) {
	dir := t.TempDir()

	s, err := Config{CachePath: dir}.OpenStore()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*store.MtimeStore); !ok {
		t.Fatalf("store without db is %T, want MtimeStore", s)
	}

	s, err = Config{CachePath: dir, DB: filepath.Join(dir, "meta.db")}.OpenStore()
	if err != nil {
		t.Fatal(err)
	}
	sqlite, ok := s.(*store.SQLiteStore)
	if !ok {
		t.Fatalf("store with db is %T, want SQLiteStore", s)
	}
	sqlite.Close()
}

func TestLoadINI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lastmod.ini")
	content := `[lastmod]
cache_path = /var/cache/lastmod
db = /var/cache/lastmod.db
use_etags = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CachePath != "/var/cache/lastmod" {
		t.Fatalf("cache_path is %q", cfg.CachePath)
	}
	if cfg.DB != "/var/cache/lastmod.db" {
		t.Fatalf("db is %q", cfg.DB)
	}
	if !cfg.UseETags {
		t.Fatal("use_etags not set")
	}
}

func TestLoadINIMissingSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.ini")
	if err := os.WriteFile(path, []byte("[other]\nkey = value\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a config without the [lastmod] section")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lastmod.yaml")
	content := `cache_path: /var/cache/lastmod
db: /var/cache/lastmod.db
size_limit: 1048576
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CachePath != "/var/cache/lastmod" {
		t.Fatalf("cache_path is %q", cfg.CachePath)
	}
	if cfg.SizeLimit != 1048576 {
		t.Fatalf("size_limit is %d", cfg.SizeLimit)
	}
}
