package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/s3fm/errors"
)

// RespondWithError writes err as the standard error body. Anything that is
// not an AppError becomes a 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondOK sends a 200 with v as the body, unwrapped.
func RespondOK(c *gin.Context, v any) {
	c.JSON(http.StatusOK, v)
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	RespondWithError(c, apperrors.NotFound("Route not found"))
}
