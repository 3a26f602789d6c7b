package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/floracare/pkg/middleware"
)

func status(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func TestApplyOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	mw := middleware.New()
	mw.Use(tag("cors"))
	mw.Use(tag("logger"))
	mw.Use(tag("auth"))

	h := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if diff := cmp.Diff([]string{"cors", "logger", "auth", "handler"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.Handler
		wantLevel string
		wantCode  string
	}{
		{"implicit ok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) }), "INFO", "status=200"},
		{"not found", status(http.StatusNotFound), "WARN", "status=404"},
		{"unavailable", status(http.StatusServiceUnavailable), "ERROR", "status=503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			h := middleware.Logger(logger)(tt.handler)
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/plants?search=basil", nil))

			line := buf.String()
			for _, want := range []string{"level=" + tt.wantLevel, tt.wantCode, "uri=\"/api/plants?search=basil\""} {
				if !strings.Contains(line, want) {
					t.Errorf("log line %q missing %q", line, want)
				}
			}
		})
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:          true,
		Origins:          []string{"http://garden.local"},
		AllowCredentials: true,
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		cfg        *middleware.CORSConfig
		method     string
		origin     string
		wantCode   int
		wantOrigin string
	}{
		{"allowed origin", cfg, "GET", "http://garden.local", http.StatusOK, "http://garden.local"},
		{"denied origin", cfg, "GET", "http://elsewhere.local", http.StatusOK, ""},
		{"preflight", cfg, "OPTIONS", "http://garden.local", http.StatusNoContent, "http://garden.local"},
		{"disabled", &middleware.CORSConfig{Origins: cfg.Origins}, "GET", "http://garden.local", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.CORS(tt.cfg)(status(http.StatusOK))

			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}

	t.Run("allowed headers", func(t *testing.T) {
		h := middleware.CORS(cfg)(status(http.StatusOK))
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "http://garden.local")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		want := map[string]string{
			"Access-Control-Allow-Methods":     "GET, POST, PUT, DELETE, OPTIONS",
			"Access-Control-Allow-Headers":     "Content-Type, Authorization",
			"Access-Control-Allow-Credentials": "true",
			"Access-Control-Max-Age":           "3600",
			"Vary":                             "Origin",
		}
		for k, v := range want {
			if got := rec.Header().Get(k); got != v {
				t.Errorf("%s = %q, want %q", k, got, v)
			}
		}
	})
}

func TestCORSConfigEnv(t *testing.T) {
	t.Setenv("FC_CORS_ENABLED", "true")
	t.Setenv("FC_CORS_ORIGINS", "http://a.local, ,http://b.local")
	t.Setenv("FC_CORS_MAX_AGE", "600")

	cfg := middleware.CORSConfig{}
	err := cfg.Finalize(&middleware.CORSEnv{
		Enabled: "FC_CORS_ENABLED",
		Origins: "FC_CORS_ORIGINS",
		MaxAge:  "FC_CORS_MAX_AGE",
	})
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Enabled {
		t.Error("enabled should be true")
	}
	if diff := cmp.Diff([]string{"http://a.local", "http://b.local"}, cfg.Origins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.MaxAge != 600 {
		t.Errorf("max_age = %d, want 600", cfg.MaxAge)
	}
}

func TestCORSConfigMerge(t *testing.T) {
	base := middleware.CORSConfig{Origins: []string{"http://base.local"}, MaxAge: 3600}
	base.Merge(&middleware.CORSConfig{Enabled: true})

	if !base.Enabled {
		t.Error("enabled should apply from overlay")
	}
	if len(base.Origins) != 1 || base.MaxAge != 3600 {
		t.Errorf("unset overlay fields should be preserved, got %+v", base)
	}
}
