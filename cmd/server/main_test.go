package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsWeakSecret(t *testing.T) {
	cases := map[string]bool{
		"short":                                  true,
		"change-me-in-production-please-0123456": true,
		"4f9a1c7e2b8d6053a1e9c4b7d2f80e6a91c3b5d7": false,
	}
	for secret, want := range cases {
		if got := isWeakSecret(secret); got != want {
			t.Fatalf("isWeakSecret(%q) want %v got %v", secret, want, got)
		}
	}
}

func TestEnsureSQLiteDir(t *testing.T) {
	base := t.TempDir()
	dsn := filepath.Join(base, "nested", "storefront.db")
	if err := ensureSQLiteDir("sqlite", dsn); err != nil {
		t.Fatalf("ensure dir failed: %v", err)
	}
	if info, err := os.Stat(filepath.Join(base, "nested")); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to be created: %v", err)
	}
	if err := ensureSQLiteDir("postgres", "host=localhost"); err != nil {
		t.Fatalf("postgres dsn should be ignored: %v", err)
	}
}
