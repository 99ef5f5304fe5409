package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/htmlx/internal/mount"
	"github.com/GriffinCanCode/htmlx/internal/sandbox"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bind decodes the JSON body into req, answering 413 for oversized bodies
// and 400 for anything else that fails to decode.
func (h *Handlers) bind(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
	return false
}

// renderError maps sandbox and mount failures to HTTP responses.
func (h *Handlers) renderError(c *gin.Context, err error) {
	if kind := sandbox.Kind(err); kind != "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": kind})
		return
	}

	switch {
	case errors.Is(err, mount.ErrTemplateNotFound), errors.Is(err, mount.ErrTargetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, mount.ErrInvalidRef):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// LimitBody caps request bodies at limit bytes. Reads past the cap fail with
// *http.MaxBytesError, which bind reports as 413.
func LimitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
