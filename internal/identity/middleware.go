package identity

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxOwnerKey = "identity.owner"
	ctxAdminKey = "identity.admin"
)

// TokenVerifier validates a bearer token and reports the caller it belongs to.
type TokenVerifier interface {
	VerifyAccess(token string) (userID string, admin bool, err error)
}

// SessionCookie describes the cookie that carries the anonymous session key.
// Secure must be true in any deployment served over TLS.
type SessionCookie struct {
	Name   string
	MaxAge int
	Secure bool
}

const defaultSessionMaxAge = 30 * 24 * 3600

// Resolve returns middleware that attaches an Owner to every request. A valid
// bearer token wins; otherwise the session cookie is used, created lazily when
// absent. Invalid tokens degrade to anonymous rather than failing the request.
func Resolve(verifier TokenVerifier, cookie SessionCookie) gin.HandlerFunc {
	maxAge := cookie.MaxAge
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}
	return func(c *gin.Context) {
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token := strings.TrimPrefix(h, "Bearer ")
			if userID, admin, err := verifier.VerifyAccess(token); err == nil {
				c.Set(ctxOwnerKey, User(userID))
				c.Set(ctxAdminKey, admin)
				c.Next()
				return
			}
		}

		key, err := c.Cookie(cookie.Name)
		if err != nil || key == "" {
			key = uuid.NewString()
			c.SetCookie(cookie.Name, key, maxAge, "/", "", cookie.Secure, true)
		}
		c.Set(ctxOwnerKey, Session(key))
		c.Set(ctxAdminKey, false)
		c.Next()
	}
}

// FromContext returns the Owner resolved for the request.
func FromContext(c *gin.Context) Owner {
	if v, ok := c.Get(ctxOwnerKey); ok {
		if o, ok := v.(Owner); ok {
			return o
		}
	}
	return Owner{}
}

func IsAdmin(c *gin.Context) bool {
	if v, ok := c.Get(ctxAdminKey); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Set is a test/middleware hook to inject a resolved owner.
func Set(c *gin.Context, o Owner, admin bool) {
	c.Set(ctxOwnerKey, o)
	c.Set(ctxAdminKey, admin)
}
