package middleware

import (
	"net/http"
	"strings"

	"voyago_back_end/internal/session"

	"github.com/gin-gonic/gin"
)

const SessionCookie = "voyago_session"

// AuthRequired est la porte d'authentification : toute route protégée exige
// une session présente. Sinon 401, sans aucun effet de bord.
func AuthRequired(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
			c.Abort()
			return
		}

		user, err := sessions.Get(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session invalide ou expirée"})
			c.Abort()
			return
		}

		c.Set("email", user.Email)
		c.Set("account", *user)
		c.Set("session_token", token)
		c.Next()
	}
}

// sessionToken accepte le cookie de session ou un header Bearer (clients
// non-navigateur).
func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	parts := strings.Split(auth, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
