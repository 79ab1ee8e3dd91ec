package api

import (
	"net/http"

	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/database"
	"github.com/gin-gonic/gin"
)

// LoginAdmin signs in a staff member with email and password
func (h *Handlers) LoginAdmin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.svc.LoginAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.startSession(c, user)
}

// LoginPortal signs in a customer with the file tracking number
func (h *Handlers) LoginPortal(c *gin.Context) {
	var req struct {
		TrackingNumber string `json:"dosyaTakipNumarasi"`
		Password       string `json:"password"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.svc.LoginPortal(c.Request.Context(), req.TrackingNumber, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.startSession(c, user)
}

func (h *Handlers) startSession(c *gin.Context, user *database.UserAuth) {
	token, expires, err := h.sessions.Issue(user.ID, user.Role)
	if err != nil {
		h.respondError(c, apperror.Upstream("Failed to create session", err))
		return
	}

	http.SetCookie(c.Writer, h.sessions.Cookie(c.Request, token))
	h.logger.Info("User signed in", "user_id", user.ID, "role", user.Role)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
		"session": gin.H{
			"access_token": token,
			"expires_at":   expires.Unix(),
		},
	})
}

// Logout expires the session cookie
func (h *Handlers) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, h.sessions.ClearCookie(c.Request))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdatePassword changes the caller's password, or another user's for a
// superadmin
func (h *Handlers) UpdatePassword(c *gin.Context) {
	var req struct {
		UserID      string `json:"userId"`
		NewPassword string `json:"newPassword"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.svc.UpdatePassword(c.Request.Context(), principal(c), req.UserID, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Şifre başarıyla güncellendi",
	})
}
