package httpservice

import (
	"errors"
	"net/http"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}

// failWithError maps well known domain errors to their status code, anything else is
// logged and reported as an internal error.
func failWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrGameResultNotFound), errors.Is(err, domain.ErrNonceNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNonceNotRevealable):
		fail(c, http.StatusForbidden, err.Error())
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
