package handler

import (
	"complaintdesk/backend/internal/models"
	"strings"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on websocket upgrades, so the token query parameter is accepted too.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Query("token")
}

// RequireAuth rejects requests without a valid session and stores the
// principal on the context.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.Auth.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func principal(c *gin.Context) models.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}
	}
	p, _ := v.(models.Principal)
	return p
}
