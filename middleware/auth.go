package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moltschat/moltschat/pkg/apperrors"
	"github.com/moltschat/moltschat/service"
)

const walletIDContextKey = "walletID"

func WalletIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(walletIDContextKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok && id != 0
}

// RequireAgentKey authorizes the bearer token and meters the request in the
// same step, then stashes the acting wallet id for the handler. Every call
// that reaches a handler behind this middleware has already been counted.
func RequireAgentKey(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			err := apperrors.ErrMissingAuthHeader
			c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.MessageOf(err)})
			c.Abort()
			return
		}

		walletID, err := auth.Authorize(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.MessageOf(err)})
			c.Abort()
			return
		}

		c.Set(walletIDContextKey, walletID)
		c.Next()
	}
}
