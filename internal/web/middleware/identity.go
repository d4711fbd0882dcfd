package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JonMunkholm/leadbook/internal/core"
)

// Headers set by a trusted authenticating proxy.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
)

// IdentityConfig selects where the acting user comes from. Sources are tried
// in order: bearer token, proxy headers, DevUser.
type IdentityConfig struct {
	// JWTSecret verifies HS256 bearer tokens. Nil disables token auth.
	JWTSecret []byte

	// TrustHeaders accepts the X-User-* headers. Only enable behind a proxy
	// that strips them from client requests.
	TrustHeaders bool

	// DevUser is used when the request carries no credentials.
	DevUser *core.User
}

// identityClaims is the token payload issued by the identity provider.
type identityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

var (
	errMissingSubject    = errors.New("token has no subject")
	errTokenAuthDisabled = errors.New("bearer tokens are not accepted")
)

// Identity resolves the acting user and stores it with core.ContextWithUser.
// A request with an invalid bearer token, or any bearer token while token auth
// is disabled, is rejected with 401; a request with no credentials passes
// through anonymous.
func Identity(cfg IdentityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok, err := resolveUser(r, cfg)
			if err != nil {
				slog.Warn("identity: rejected bearer token",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				writeUnauthorized(w, "invalid credentials")
				return
			}
			if ok {
				r = r.WithContext(core.ContextWithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects requests that Identity left anonymous.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := core.UserFromContext(r.Context()); !ok {
			writeUnauthorized(w, "Sign in to continue")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func resolveUser(r *http.Request, cfg IdentityConfig) (core.User, bool, error) {
	if token, ok := bearerToken(r); ok {
		if len(cfg.JWTSecret) == 0 {
			return core.User{}, false, errTokenAuthDisabled
		}
		u, err := parseToken(token, cfg.JWTSecret)
		if err != nil {
			return core.User{}, false, err
		}
		return u, true, nil
	}

	if cfg.TrustHeaders {
		if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
			return core.User{
				ID:       id,
				Email:    strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
				FullName: strings.TrimSpace(r.Header.Get(HeaderUserName)),
			}, true, nil
		}
	}

	if cfg.DevUser != nil && cfg.DevUser.ID != "" {
		return *cfg.DevUser, true, nil
	}
	return core.User{}, false, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// parseToken verifies an HS256 token and maps its claims to a user.
func parseToken(raw string, secret []byte) (core.User, error) {
	var claims identityClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return core.User{}, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return core.User{}, errMissingSubject
	}
	return core.User{
		ID:       strings.TrimSpace(claims.Subject),
		Email:    claims.Email,
		FullName: claims.Name,
	}, nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="leadbook"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   message,
		"message": message,
		"code":    "AUTH001",
	})
}
