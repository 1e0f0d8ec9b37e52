// internal/interfaces/http/middleware/session.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-api/internal/config"
	"github.com/storefront-labs/storefront-api/internal/domain/cart"
)

const sessionIDKey = "session_id"

// Session makes sure every request carries a guest session id, issuing
// the cookie on first contact
func Session(cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cfg.CookieName)
		if err != nil || !validSessionID(sessionID) {
			sessionID = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

func validSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// GetSessionIDFromContext returns the guest session id of the request
func GetSessionIDFromContext(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// CartIdentity is who the request shops as: the signed-in user if any,
// and always the guest session
func CartIdentity(c *gin.Context) cart.RequestIdentity {
	userID, _ := GetUserIDFromContext(c)
	return cart.RequestIdentity{
		UserID:    userID,
		SessionID: GetSessionIDFromContext(c),
	}
}
