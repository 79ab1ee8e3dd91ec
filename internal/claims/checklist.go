package claims

import (
	"context"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/workflow"
)

const msgChecklistDenied = "You do not have permission to update checklist"

// Checklist is the full configured item set of a case
type Checklist struct {
	Items             []database.ChecklistItem `json:"checklist"`
	InsuranceResponse *string                  `json:"insuranceResponse"`
}

// ChecklistUpdate is the outcome of a task toggle. BoardStage is empty when
// the checklist could not be re-read after the write.
type ChecklistUpdate struct {
	Item       *database.ChecklistItem `json:"checklistItem"`
	BoardStage string                  `json:"boardStage,omitempty"`
}

// GetChecklist merges persisted rows with the configured items
func (s *Service) GetChecklist(ctx context.Context, p *access.Principal, caseID string) (*Checklist, error) {
	if caseID == "" {
		return nil, apperror.Validation("Case ID is required")
	}
	if err := s.gate.RequireCapability(p, access.StaffPanel); err != nil {
		return nil, apperror.Forbidden(access.MsgAdminRequired)
	}
	if err := s.gate.AuthorizeCase(ctx, p, caseID); err != nil {
		return nil, err
	}

	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	items, err := s.checklistOf(ctx, s.db, caseID)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch checklist", err)
	}

	return &Checklist{
		Items:             workflow.MergeChecklist(caseID, items),
		InsuranceResponse: c.InsuranceResponse,
	}, nil
}

// UpdateChecklist sets one task and recomputes the board stage from the
// whole checklist. completed defaults to true when nil.
func (s *Service) UpdateChecklist(ctx context.Context, p *access.Principal, caseID, taskKey string, completed *bool) (*ChecklistUpdate, error) {
	if caseID == "" || taskKey == "" {
		return nil, apperror.Validation("Case ID and task key are required")
	}
	if err := s.gate.AuthorizeCaseEdit(ctx, p, caseID, msgChecklistDenied); err != nil {
		return nil, err
	}
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return nil, err
	}

	done := true
	if completed != nil {
		done = *completed
	}

	item := workflow.CompletionUpdate(caseID, taskKey, done, p.DisplayName(), s.now())
	if err := upsertItem(ctx, s.db, &item); err != nil {
		s.logger.Error("Failed to update checklist", "case_id", caseID, "task_key", taskKey, "error", err)
		return nil, apperror.Upstream("", err)
	}

	s.record(ctx, caseID, p.UserID, ActionChecklistUpdated, map[string]interface{}{
		"task_key":  taskKey,
		"completed": done,
	})

	stage, err := s.syncBoardStage(ctx, caseID)
	if err != nil {
		s.logger.Warn("Failed to re-read checklist", "case_id", caseID, "error", err)
		return &ChecklistUpdate{Item: &item}, nil
	}
	return &ChecklistUpdate{Item: &item, BoardStage: stage}, nil
}
