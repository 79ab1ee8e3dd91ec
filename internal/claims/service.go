// Package claims implements the case, checklist and document operations of
// the back office on top of the access gate and the stage engine
package claims

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/storage"
	"github.com/bahadkc/deger360/internal/workflow"
	"github.com/bahadkc/deger360/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options are the tunables a Service reads from configuration
type Options struct {
	LeadEmailDomain string
	MaxUploadSize   int64
	UploadWorkers   int
}

// Service holds the dependencies every operation needs
type Service struct {
	db     *gorm.DB
	gate   *access.Gate
	store  storage.Store
	logger *logger.Logger
	opts   Options
	now    func() time.Time
}

func NewService(db *gorm.DB, gate *access.Gate, store storage.Store, logger *logger.Logger, opts Options) *Service {
	if opts.UploadWorkers <= 0 {
		opts.UploadWorkers = 4
	}
	if opts.LeadEmailDomain == "" {
		opts.LeadEmailDomain = "deger360.net"
	}
	return &Service{
		db:     db,
		gate:   gate,
		store:  store,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// WithClock replaces the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Gate exposes the access gate the service checks against
func (s *Service) Gate() *access.Gate {
	return s.gate
}

func (s *Service) loadCase(ctx context.Context, caseID string) (*database.Case, error) {
	var c database.Case
	err := s.db.WithContext(ctx).Where("id = ?", caseID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Case not found")
	}
	if err != nil {
		return nil, apperror.Upstream("", err)
	}
	return &c, nil
}

func (s *Service) checklistOf(ctx context.Context, db *gorm.DB, caseID string) ([]database.ChecklistItem, error) {
	var items []database.ChecklistItem
	if err := db.WithContext(ctx).Where("case_id = ?", caseID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// upsertItem writes a checklist row keyed by (case_id, task_key) and reloads
// it so the caller sees the stored id
func upsertItem(ctx context.Context, db *gorm.DB, item *database.ChecklistItem) error {
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "case_id"}, {Name: "task_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "completed", "completed_at", "completed_by", "updated_at"}),
	}).Create(item).Error
	if err != nil {
		return err
	}
	var stored database.ChecklistItem
	err = db.WithContext(ctx).
		Where("case_id = ? AND task_key = ?", item.CaseID, item.TaskKey).
		First(&stored).Error
	if err != nil {
		return err
	}
	*item = stored
	return nil
}

// syncBoardStage recomputes the stage from the persisted checklist and
// stores it. A failed write is logged and the computed stage still returned.
func (s *Service) syncBoardStage(ctx context.Context, caseID string) (string, error) {
	items, err := s.checklistOf(ctx, s.db, caseID)
	if err != nil {
		return "", err
	}
	stage := workflow.DeriveBoardStage(workflow.StatesOf(items))

	err = s.db.WithContext(ctx).Model(&database.Case{}).
		Where("id = ?", caseID).
		Update("board_stage", stage).Error
	if err != nil {
		s.logger.Error("Failed to update board stage", "case_id", caseID, "stage", stage, "error", err)
	}
	return stage, nil
}

// record appends an audit entry. Failures never fail the operation.
func (s *Service) record(ctx context.Context, caseID, actorID, action string, meta map[string]interface{}) {
	raw, err := json.Marshal(meta)
	if err != nil {
		s.logger.Warn("Failed to encode activity metadata", "action", action, "error", err)
		raw = []byte("{}")
	}
	entry := &database.ActivityLog{
		CaseID:   caseID,
		ActorID:  actorID,
		Action:   action,
		Metadata: datatypes.JSON(raw),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.logger.Warn("Failed to record activity", "case_id", caseID, "action", action, "error", err)
	}
}

// Activity actions
const (
	ActionChecklistUpdated = "checklist_updated"
	ActionDocumentSkipped  = "document_skipped"
	ActionDocumentUnskip   = "document_unskipped"
	ActionDocumentUploaded = "document_uploaded"
	ActionDocumentDeleted  = "document_deleted"
	ActionCaseUpdated      = "case_updated"
)

// ActivityLogs returns the audit trail of a case, newest first
func (s *Service) ActivityLogs(ctx context.Context, p *access.Principal, caseID string) ([]database.ActivityLog, error) {
	if err := s.gate.RequireCapability(p, access.StaffPanel); err != nil {
		return nil, err
	}
	if err := s.gate.AuthorizeCase(ctx, p, caseID); err != nil {
		return nil, err
	}

	logs := []database.ActivityLog{}
	err := s.db.WithContext(ctx).Where("case_id = ?", caseID).
		Order("created_at DESC").
		Limit(200).
		Find(&logs).Error
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch activity logs", err)
	}
	return logs, nil
}
