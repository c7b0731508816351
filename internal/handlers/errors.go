package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// writeOperatorError maps every domain error kind pkg/errors defines to
// a status code for the operator-facing /api/v1 surface, unlike the
// agent wire protocol's narrower 401/404/500 carve-out.
func writeOperatorError(c *gin.Context, err error, op string) {
	switch {
	case srvErrors.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case srvErrors.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case srvErrors.IsIntegrityFailureError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case srvErrors.IsTransportUnavailableError(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case srvErrors.IsAgentTimeoutError(err):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case srvErrors.IsRemoteFailureError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case srvErrors.IsAgentAuthFailedError(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case srvErrors.IsCancelledError(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		zap.S().Named("operator_handler").Errorw("operator request failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
