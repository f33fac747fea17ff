// Package auth verifies OpenID Connect bearer tokens on HTTP routes.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/proshot/pkg/handlers"
)

// Claims is the verified identity carried by a request.
type Claims struct {
	Subject string
	Email   string
}

// Verifier checks a raw bearer token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, raw string) (*Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, raw string) (*Claims, error) {
	return f(ctx, raw)
}

type verifier struct {
	ids *oidc.IDTokenVerifier
}

// New discovers the issuer's provider metadata and returns a Verifier that
// accepts ID tokens minted for cfg.Audience.
func New(ctx context.Context, cfg *Config) (Verifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	return &verifier{
		ids: provider.Verifier(&oidc.Config{ClientID: cfg.Audience}),
	}, nil
}

func (v *verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	token, err := v.ids.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}

	var extra struct {
		Email string `json:"email"`
	}
	if err := token.Claims(&extra); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}

	return &Claims{Subject: token.Subject, Email: extra.Email}, nil
}

type claimsKey struct{}

// ClaimsFrom returns the claims Bearer attached to ctx.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// Bearer returns middleware that rejects requests without a valid
// Authorization: Bearer token.
func Bearer(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, logger, ErrMissingToken, nil)
				return
			}

			claims, err := v.Verify(r.Context(), raw)
			if err != nil {
				unauthorized(w, logger, ErrInvalidToken, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, logger *slog.Logger, err, cause error) {
	if cause != nil {
		logger.Warn("token rejected", "error", cause)
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="proshot"`)
	handlers.RespondJSON(w, http.StatusUnauthorized, handlers.ErrorResponse{Error: err.Error()})
}
