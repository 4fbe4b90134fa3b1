package api

import (
	"errors"
	"net/http"

	"arenaserver/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondError maps the service error taxonomy to stable HTTP codes. Unknown
// errors are logged and hidden behind a generic internal response.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not-found"})
	case errors.Is(err, service.ErrPreconditionFailed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "failed-precondition"})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "code": "insufficient-funds"})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "permission-denied"})
	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
	}
}
