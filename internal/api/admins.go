package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAdmins lists the staff accounts with their case counts
func (h *Handlers) GetAdmins(c *gin.Context) {
	admins, err := h.svc.ListAdmins(c.Request.Context(), principal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"admins": admins})
}

// CreateAdmin creates a staff account
func (h *Handlers) CreateAdmin(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.svc.CreateAdmin(c.Request.Context(), principal(c), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Admin created successfully",
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// DeleteAdmin removes a staff account
func (h *Handlers) DeleteAdmin(c *gin.Context) {
	var req struct {
		AdminID string `json:"adminId"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.svc.DeleteAdmin(c.Request.Context(), principal(c), req.AdminID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Admin başarıyla silindi",
	})
}

// DeleteCustomer removes a customer with everything attached to it
func (h *Handlers) DeleteCustomer(c *gin.Context) {
	var req struct {
		CustomerID string `json:"customerId"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.svc.DeleteCustomer(c.Request.Context(), principal(c), req.CustomerID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Müşteri başarıyla silindi",
	})
}
