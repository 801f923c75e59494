package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"svomo/internal/service"
)

const sessionIDKey = "wizard_session_id"

// SessionTokenMiddleware valida el token del wizard y guarda el id de sesion en el contexto.
func SessionTokenMiddleware(tokens *service.SessionTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session tokens not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		sessionID, err := tokens.Parse(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, service.ErrJWTExpired) {
				msg = "session expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
			c.Abort()
			return
		}

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionID obtiene el id de sesion validado desde el contexto.
func GetSessionID(c *gin.Context) (string, bool) {
	val, ok := c.Get(sessionIDKey)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok
}
