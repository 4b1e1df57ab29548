package daemon

import (
	"net/http"
	"os"
	"strings"

	"mend/internal/auth"
)

const (
	// AuthHeader is the header name for bearer token authentication
	AuthHeader = "Authorization"

	// AuthScheme is the authentication scheme prefix
	AuthScheme = "Bearer "

	// TokenEnvVar is the environment variable holding a plaintext token,
	// used when no token hash or file is configured
	TokenEnvVar = "MEND_DAEMON_TOKEN"
)

// withAuth wraps a handler with bearer token authentication. Tokens are
// verified against the configured bcrypt hash; a plaintext token file or
// environment variable serves as fallback.
func (d *Daemon) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !d.config.Daemon.Auth.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get(AuthHeader)
		if authHeader == "" {
			d.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing Authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, AuthScheme) {
			d.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid Authorization scheme, expected Bearer")
			return
		}
		token := strings.TrimPrefix(authHeader, AuthScheme)

		if !d.verifyToken(token) {
			d.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (d *Daemon) verifyToken(token string) bool {
	if hash := d.config.Daemon.Auth.TokenHash; hash != "" {
		return auth.VerifyToken(token, hash)
	}

	if path := d.config.Daemon.Auth.TokenFile; path != "" {
		if strings.HasPrefix(path, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				path = home + path[1:]
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			d.logger.Warn("Failed to read token file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			return false
		}
		return token == strings.TrimSpace(string(data))
	}

	if expected := os.Getenv(TokenEnvVar); expected != "" {
		return token == expected
	}

	// Auth enabled but no token configured; refuse everything rather
	// than silently allowing.
	d.logger.Warn("Auth enabled but no token configured", nil)
	return false
}
