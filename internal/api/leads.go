package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bahadkc/deger360/internal/claims"
	"github.com/gin-gonic/gin"
)

// leadRequest is the application form. hasarTutari arrives as a string or
// a number depending on the form that posts it.
type leadRequest struct {
	FullName     string          `json:"adSoyad"`
	Phone        string          `json:"telefon"`
	VehicleModel string          `json:"aracMarkaModel"`
	DamageAmount json.RawMessage `json:"hasarTutari"`
	Email        string          `json:"email"`
}

func (r leadRequest) input() claims.LeadInput {
	amount := strings.TrimSpace(string(r.DamageAmount))
	var s string
	if err := json.Unmarshal(r.DamageAmount, &s); err == nil {
		amount = s
	} else if amount == "null" {
		amount = ""
	}
	return claims.LeadInput{
		FullName:     r.FullName,
		Phone:        r.Phone,
		VehicleModel: r.VehicleModel,
		DamageAmount: amount,
		Email:        r.Email,
	}
}

// CreateLead turns a web application into a customer and a case
func (h *Handlers) CreateLead(c *gin.Context) {
	var req leadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.CreateLead(c.Request.Context(), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"customer":    lead.Customer,
		"case":        lead.Case,
		"credentials": lead.Credentials,
	})
}

// Contact accepts the landing page form through the same lead path
func (h *Handlers) Contact(c *gin.Context) {
	var req leadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.CreateLead(c.Request.Context(), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"dosyaTakipNo": lead.Credentials.TrackingNumber,
	})
}
