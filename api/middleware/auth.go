package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kartvelo/kartvelo-backend/api/responses"
	pkgAuth "github.com/kartvelo/kartvelo-backend/pkg/auth"
	"github.com/kartvelo/kartvelo-backend/pkg/config"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// principal. Requests without credentials are rejected.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			principal, err := principalFromToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(seedContext(r, logg, principal)))
		})
	}
}

// MaybeAuth parses a bearer token when one is present and falls back to the
// guest principal otherwise. A token that is present but invalid is still
// rejected so clients never silently lose their identity.
func MaybeAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := principalFromToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(seedContext(r, logg, principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

func principalFromToken(cfg config.JWTConfig, token string) (pkgAuth.Principal, error) {
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return pkgAuth.Guest, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	return pkgAuth.FromClaims(claims), nil
}

func seedContext(r *http.Request, logg *logger.Logger, principal pkgAuth.Principal) context.Context {
	ctx := WithPrincipal(r.Context(), principal)
	if logg != nil {
		fields := map[string]any{
			"actor_role": string(principal.Role),
		}
		ctx = logg.WithUserID(ctx, principal.UserID.String())
		if principal.CompanyID != nil {
			ctx = logg.WithCompanyID(ctx, principal.CompanyID.String())
		}
		ctx = logg.WithFields(ctx, fields)
	}
	return ctx
}
