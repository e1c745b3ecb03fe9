package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	userport "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/repository/port"
)

const identityKey = "auth.identity"

// BearerToken extracts the credential from the Authorization header, falling
// back to the token query parameter for websocket handshakes where custom
// headers are awkward from browsers.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Resolve verifies the token and loads the user's reference row. The role
// stored on the user row is authoritative over the token claim, and suspended
// accounts are refused even with a valid token.
func Resolve(v *Verifier, users userport.UserRepository) func(r *http.Request) (Identity, error) {
	return func(r *http.Request) (Identity, error) {
		token := BearerToken(r)
		if token == "" {
			return Identity{}, ErrInvalidToken
		}
		id, err := v.Verify(token)
		if err != nil {
			return Identity{}, err
		}
		u, err := users.FindByID(r.Context(), id.UserID)
		if err != nil {
			if errors.Is(err, userport.ErrUserNotFound) {
				return Identity{}, ErrInvalidToken
			}
			return Identity{}, err
		}
		if !u.Active {
			return Identity{}, ErrSuspended
		}
		id.Role = u.Role
		return id, nil
	}
}

// Middleware authenticates every request in the group and stashes the
// resolved identity in the gin context.
func Middleware(v *Verifier, users userport.UserRepository, logger *zap.SugaredLogger) gin.HandlerFunc {
	resolve := Resolve(v, users)
	return func(c *gin.Context) {
		id, err := resolve(c.Request)
		switch {
		case err == nil:
			c.Set(identityKey, id)
			c.Next()
		case errors.Is(err, ErrSuspended):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account suspended"})
		case errors.Is(err, ErrInvalidToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing credential"})
		default:
			logger.Warnw("auth resolve failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication unavailable"})
		}
	}
}

// IdentityFrom returns the authenticated identity set by Middleware.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
