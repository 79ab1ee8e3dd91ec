package api

import (
	"net/http"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// requireSession resolves the session token into a principal. Requests
// without a valid session never reach the handler.
func (h *Handlers) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := h.sessions.Validate(h.sessions.TokenFromRequest(c.Request))
		if err != nil {
			h.abort(c, err)
			return
		}

		p, err := h.svc.Gate().Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			h.abort(c, err)
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// principal returns the caller resolved by requireSession
func principal(c *gin.Context) *access.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*access.Principal); ok {
			return p
		}
	}
	return nil
}

// respondError writes the error body with the status of its kind.
// Rejections are expected traffic and only logged at debug level.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := apperror.StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"path", c.Request.URL.Path,
			"error", err,
		)
	} else {
		h.logger.Debug("Request rejected",
			"path", c.Request.URL.Path,
			"status", status,
			"error", err.Error(),
		)
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func (h *Handlers) abort(c *gin.Context, err error) {
	h.respondError(c, err)
	c.Abort()
}

// bindJSON decodes the request body or answers 400
func (h *Handlers) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.respondError(c, apperror.Validation("Invalid request body"))
		return false
	}
	return true
}
