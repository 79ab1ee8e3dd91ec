package api

import (
	"net/http"
	"strconv"

	"github.com/bahadkc/deger360/internal/claims"
	"github.com/gin-gonic/gin"
)

// GetCasesBoard returns the case cards of the kanban board
func (h *Handlers) GetCasesBoard(c *gin.Context) {
	cases, err := h.svc.CasesBoard(c.Request.Context(), principal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

// GetDashboardStats returns the case counters of the dashboard
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	stats, err := h.svc.DashboardStats(c.Request.Context(), principal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetCustomers searches the customers behind visible cases
func (h *Handlers) GetCustomers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	customers, err := h.svc.Customers(c.Request.Context(), principal(c), c.Query("search"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

// GetCase returns a case with its checklist, documents and assignments
func (h *Handlers) GetCase(c *gin.Context) {
	caseID := c.Param("caseId")
	if caseID == "" {
		caseID = c.Query("caseId")
	}

	detail, err := h.svc.GetCase(c.Request.Context(), principal(c), caseID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetUserCases returns the portal view of the caller's own cases
func (h *Handlers) GetUserCases(c *gin.Context) {
	cases, err := h.svc.UserCases(c.Request.Context(), principal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

// UpdateCase patches a case and its customer
func (h *Handlers) UpdateCase(c *gin.Context) {
	var req struct {
		CaseID          string                  `json:"caseId"`
		CaseUpdates     *claims.CaseUpdates     `json:"caseUpdates"`
		CustomerUpdates *claims.CustomerUpdates `json:"customerUpdates"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	updated, err := h.svc.UpdateCase(c.Request.Context(), principal(c), req.CaseID, req.CaseUpdates, req.CustomerUpdates)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": updated})
}

// UpdateCaseAssignments replaces the staff assigned to a case
func (h *Handlers) UpdateCaseAssignments(c *gin.Context) {
	var req struct {
		CaseID   string   `json:"caseId"`
		AdminIDs []string `json:"adminIds"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.svc.AssignAdmins(c.Request.Context(), principal(c), req.CaseID, req.AdminIDs); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetChecklist returns the full checklist of a case
func (h *Handlers) GetChecklist(c *gin.Context) {
	checklist, err := h.svc.GetChecklist(c.Request.Context(), principal(c), c.Query("caseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, checklist)
}

// UpdateChecklist toggles one checklist task and returns the new stage
func (h *Handlers) UpdateChecklist(c *gin.Context) {
	var req struct {
		CaseID    string `json:"caseId"`
		TaskKey   string `json:"taskKey"`
		Completed *bool  `json:"completed"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	update, err := h.svc.UpdateChecklist(c.Request.Context(), principal(c), req.CaseID, req.TaskKey, req.Completed)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, update)
}
