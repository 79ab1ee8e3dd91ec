package report

import (
	"context"
	"fmt"
	"time"

	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/workflow"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Data is the composite read model behind every report view
type Data struct {
	Cases      []database.Case      `json:"cases"`
	Admins     []AdminRow           `json:"admins"`
	CaseAdmins []database.CaseAdmin `json:"caseAdmins"`
	Checklist  []ChecklistRow       `json:"checklist"`
	Documents  []DocumentRow        `json:"documents"`
}

type AdminRow struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
	Role string  `json:"role"`
}

type ChecklistRow struct {
	CaseID    string `json:"case_id"`
	TaskKey   string `json:"task_key"`
	Completed bool   `json:"completed"`
}

type DocumentRow struct {
	ID         string    `json:"id"`
	CaseID     string    `json:"case_id"`
	Name       string    `json:"name"`
	FilePath   string    `json:"file_path"`
	Category   string    `json:"category"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func emptyData() *Data {
	return &Data{
		Cases:      []database.Case{},
		Admins:     []AdminRow{},
		CaseAdmins: []database.CaseAdmin{},
		Checklist:  []ChecklistRow{},
		Documents:  []DocumentRow{},
	}
}

// Scope limits a fetch to the cases a caller may see
type Scope struct {
	All     bool
	CaseIDs []string
}

// Fetcher loads report data from the store
type Fetcher interface {
	Fetch(ctx context.Context, scope Scope) (*Data, error)
}

// GormFetcher reads report data with one query per table, run concurrently
// once the case set is known
type GormFetcher struct {
	db *gorm.DB
}

func NewGormFetcher(db *gorm.DB) *GormFetcher {
	return &GormFetcher{db: db}
}

func (f *GormFetcher) Fetch(ctx context.Context, scope Scope) (*Data, error) {
	data := emptyData()
	if !scope.All && len(scope.CaseIDs) == 0 {
		return data, nil
	}

	query := f.db.WithContext(ctx).Model(&database.Case{}).Preload("Customer").Order("cases.created_at DESC")
	if scope.All {
		query = query.Joins("JOIN customers ON customers.id = cases.customer_id").
			Where("customers.is_sample = ?", false)
	} else {
		query = query.Where("cases.id IN ?", scope.CaseIDs)
	}
	if err := query.Find(&data.Cases).Error; err != nil {
		return nil, fmt.Errorf("failed to load cases: %w", err)
	}

	caseIDs := make([]string, 0, len(data.Cases))
	for _, c := range data.Cases {
		caseIDs = append(caseIDs, c.ID)
	}

	eg, gctx := errgroup.WithContext(ctx)
	db := f.db.WithContext(gctx)

	if scope.All {
		eg.Go(func() error {
			if err := db.Model(&database.UserAuth{}).
				Select("id", "name", "role").
				Where("role IN ?", []string{"admin", "lawyer", "acente"}).
				Find(&data.Admins).Error; err != nil {
				return fmt.Errorf("failed to load admins: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			if err := db.Find(&data.CaseAdmins).Error; err != nil {
				return fmt.Errorf("failed to load case assignments: %w", err)
			}
			return nil
		})
	}

	if len(caseIDs) > 0 {
		eg.Go(func() error {
			if err := db.Model(&database.ChecklistItem{}).
				Select("case_id", "task_key", "completed").
				Where("case_id IN ?", caseIDs).
				Find(&data.Checklist).Error; err != nil {
				return fmt.Errorf("failed to load checklist: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			if err := db.Model(&database.Document{}).
				Select("id", "case_id", "name", "file_path", "category", "uploaded_at").
				Where("case_id IN ? AND category = ?", caseIDs, workflow.CategoryAcenteyeAtilanDekont).
				Find(&data.Documents).Error; err != nil {
				return fmt.Errorf("failed to load documents: %w", err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}
