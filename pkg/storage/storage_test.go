package storage_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/JaimeStill/floracare/pkg/storage"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		segments []string
		want     string
		wantErr  error
	}{
		{"joined", "images", []string{"abc", "leaf.jpg"}, "images/abc/leaf.jpg", nil},
		{"leading slash trimmed", "/images", []string{"leaf.jpg"}, "images/leaf.jpg", nil},
		{"traversal", "images", []string{"..", "secret"}, "", storage.ErrInvalidKey},
		{"empty", "", nil, "", storage.ErrEmptyKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.Key(tt.prefix, tt.segments...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Key() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{storage.ErrNotConfigured, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_STORAGE_CONN", "UseDevelopmentStorage=true")

	cfg := &storage.Config{}
	if err := cfg.Finalize(&storage.Env{ConnectionString: "TEST_STORAGE_CONN"}); err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	if !cfg.Enabled() {
		t.Error("Enabled() = false with connection string")
	}
	if cfg.ContainerName != "plant-images" {
		t.Errorf("ContainerName = %q, want plant-images", cfg.ContainerName)
	}

	empty := &storage.Config{}
	if err := empty.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	if empty.Enabled() {
		t.Error("Enabled() = true without connection settings")
	}

	both := &storage.Config{ConnectionString: "x", ServiceURL: "https://acct.blob.core.windows.net"}
	if err := both.Finalize(nil); err == nil {
		t.Error("Finalize() should reject both connection_string and service_url")
	}
}

func TestNewNotConfigured(t *testing.T) {
	if _, err := storage.New(&storage.Config{}, nil); !errors.Is(err, storage.ErrNotConfigured) {
		t.Errorf("New() error = %v, want ErrNotConfigured", err)
	}
}
