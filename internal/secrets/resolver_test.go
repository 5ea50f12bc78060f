// SPDX-License-Identifier: MPL-2.0

package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolver_LocalSource(t *testing.T) {
	t.Parallel()

	r := NewResolver(map[string]string{"SPREADSHEET_ID": "sheet-123"}, "", nil)

	got, err := r.Resolve("SPREADSHEET_ID")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sheet-123" {
		t.Errorf("Resolve = %q", got)
	}
}

func TestResolver_EnvSource(t *testing.T) {
	t.Setenv(EnvPrefix+"DB_CONNECTION_URL", "mongodb://staging")

	r := NewResolver(nil, "", nil)
	got, err := r.Resolve("DB_CONNECTION_URL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "mongodb://staging" {
		t.Errorf("Resolve = %q", got)
	}
}

func TestResolver_FileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "secrets.toml")
	content := "GOOGLE_API_SECRET_PASSPHRASE = \"hunter2-but-long\"\nOTHER = \"value\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(nil, path, nil)
	got, err := r.Resolve("GOOGLE_API_SECRET_PASSPHRASE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hunter2-but-long" {
		t.Errorf("Resolve = %q", got)
	}
}

func TestResolver_LocalWinsOverEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"TOKEN", "from-env")

	r := NewResolver(map[string]string{"TOKEN": "from-local"}, "", nil)
	got, err := r.Resolve("TOKEN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-local" {
		t.Errorf("Resolve = %q, want local value", got)
	}
}

func TestResolver_MissingSecretFailsFast(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, "", nil)
	_, err := r.Resolve("NOT_CONFIGURED")
	if err == nil {
		t.Fatal("expected error for missing secret")
	}
	if !strings.Contains(err.Error(), "NOT_CONFIGURED") {
		t.Errorf("error should name the secret: %v", err)
	}
}

func TestResolver_EmptyValueIsError(t *testing.T) {
	t.Parallel()

	r := NewResolver(map[string]string{"EMPTY": "   "}, "", nil)
	if _, err := r.Resolve("EMPTY"); err == nil {
		t.Fatal("expected error for empty secret value")
	}
}

func TestResolver_TracksForRedaction(t *testing.T) {
	t.Parallel()

	red := NewRedactor()
	r := NewResolver(map[string]string{"TOKEN": "super-secret-value"}, "", red)

	if _, err := r.Resolve("TOKEN"); err != nil {
		t.Fatal(err)
	}

	out := red.Redact("leaked: super-secret-value end")
	if strings.Contains(out, "super-secret-value") {
		t.Errorf("secret not redacted: %q", out)
	}
	if !strings.Contains(out, Mask) {
		t.Errorf("mask missing: %q", out)
	}
}

func TestResolver_BadSecretsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "secrets.toml")
	if err := os.WriteFile(path, []byte("not = valid = toml"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(nil, path, nil)
	if _, err := r.Resolve("ANYTHING"); err == nil {
		t.Fatal("expected parse error")
	}
}
