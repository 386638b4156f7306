package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	return path
}

func TestLoadPrefersFile(t *testing.T) {
	path := writeSecret(t, "  from-file\n")

	got, err := Load(Source{Name: "gemini api key", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}

func TestLoadInlineValue(t *testing.T) {
	got, err := Load(Source{Value: " inline "})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected trimmed inline secret, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	empty := writeSecret(t, "\n \n")
	missing := filepath.Join(t.TempDir(), "missing")

	tests := []struct {
		name    string
		src     Source
		wantErr string
	}{
		{name: "not configured", src: Source{Name: "headhunter token"}, wantErr: "headhunter token is not configured"},
		{name: "default name", src: Source{}, wantErr: "secret is not configured"},
		{name: "empty file", src: Source{Name: "token", File: empty}, wantErr: "is empty"},
		{name: "empty optional file", src: Source{Name: "token", File: empty, Optional: true}, wantErr: "is empty"},
		{name: "missing file", src: Source{Name: "token", File: missing}, wantErr: "reading token from file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(tt.src)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in %q", tt.wantErr, err)
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	got, err := Load(Source{Name: "headhunter token", Optional: true})
	if err != nil {
		t.Fatalf("optional secret: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty secret, got %q", got)
	}

	_, err = Load(Source{Name: "headhunter token"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
