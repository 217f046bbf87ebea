package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/moltschat/moltschat/pkg/apperrors"
)

// respondError maps the error taxonomy onto HTTP statuses in one place so
// handlers never hand-pick codes. Internal detail stays out of the body.
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.MessageOf(err)})
}
