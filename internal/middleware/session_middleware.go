package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/util"
)

const (
	SessionIDKey      = "cart_session_id"
	SessionHeader     = "X-Cart-Session"
	SessionCookieName = "cart_session"
)

// SessionMiddleware binds every request to an anonymous cart session carried
// in a signed token. Requests without a token get a new session.
type SessionMiddleware struct {
	secret string
	ttl    time.Duration
}

func NewSessionMiddleware(secret string, ttl time.Duration) *SessionMiddleware {
	return &SessionMiddleware{secret: secret, ttl: ttl}
}

func (m *SessionMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token := c.GetHeader(SessionHeader)
		if token == "" {
			if cookie, err := c.Cookie(SessionCookieName); err == nil {
				token = cookie
			}
		}
		if token == "" {
			// websocket clients cannot set headers
			token = c.Query("session")
		}

		if token != "" {
			sessionID, err := util.ParseSessionToken(token, m.secret)
			switch {
			case err == nil:
				c.Set(SessionIDKey, sessionID)
				c.Next()
				return
			case errors.Is(err, util.ErrExpiredSessionToken):
				signed, err := util.SignSessionToken(sessionID, m.secret, m.ttl)
				if err != nil {
					log.Error("Failed to renew cart session", err)
					apperrors.InternalError(c, "")
					c.Abort()
					return
				}
				m.issue(c, sessionID, signed)
				log.Info("Cart session renewed", map[string]interface{}{
					"session_id": sessionID,
					"path":       c.Request.URL.Path,
				})
				c.Next()
				return
			default:
				log.Warn("Cart session token rejected", map[string]interface{}{
					"path":  c.Request.URL.Path,
					"error": err.Error(),
				})
				apperrors.Unauthorized(c, apperrors.SessionInvalid, "cart session is not valid")
				c.Abort()
				return
			}
		}

		sessionID, signed, err := util.NewSessionToken(m.secret, m.ttl)
		if err != nil {
			log.Error("Failed to issue cart session", err)
			apperrors.InternalError(c, "")
			c.Abort()
			return
		}
		m.issue(c, sessionID, signed)

		log.Debug("Cart session issued", map[string]interface{}{
			"session_id": sessionID,
		})
		c.Next()
	}
}

func (m *SessionMiddleware) issue(c *gin.Context, sessionID, signed string) {
	c.Header(SessionHeader, signed)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, signed, int(m.ttl.Seconds()), "/", "", false, true)
	c.Set(SessionIDKey, sessionID)
}

// GetSessionID returns the cart session bound by SessionMiddleware.
func GetSessionID(c *gin.Context) (string, bool) {
	id := c.GetString(SessionIDKey)
	return id, id != ""
}
