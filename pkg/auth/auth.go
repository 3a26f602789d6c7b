// Package auth validates OpenID Connect bearer tokens on incoming requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/floracare/pkg/handlers"
)

var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken indicates the bearer token failed verification.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Identity is the verified caller.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
}

// Verifier validates a raw bearer token and returns the caller identity.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Identity, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the issuer's provider metadata and returns a Verifier
// bound to the configured client ID.
func NewVerifier(ctx context.Context, cfg *Config) (Verifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	return &oidcVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return &Identity{Subject: token.Subject, Email: claims.Email}, nil
}

type identityKey struct{}

// FromContext returns the identity stored by Middleware.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok
}

// Middleware rejects requests without a valid bearer token.
// OPTIONS requests pass through so CORS preflight keeps working.
func Middleware(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("system", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrMissingToken)
				return
			}

			id, err := v.Verify(r.Context(), raw)
			if err != nil {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
