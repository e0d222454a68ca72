package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userCtxKey = "userId"

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// userIdMiddleware validates the Bearer token and stores the user id
// in the request context under userCtxKey.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		abortUnauthorized(c, "missing Authorization header")
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		abortUnauthorized(c, "invalid Authorization header format")
		return
	}

	userID, err := h.services.ParseToken(parts[1])
	if err != nil {
		abortUnauthorized(c, "invalid or expired token")
		return
	}

	c.Set(userCtxKey, userID)
	c.Next()
}
