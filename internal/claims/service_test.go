package claims

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/storage"
	"github.com/bahadkc/deger360/internal/testutil"
	"github.com/bahadkc/deger360/pkg/logger"
	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 5, 14, 10, 30, 0, 0, time.UTC)

type env struct {
	fx    *testutil.Fixture
	svc   *Service
	store *storage.Local
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fx := testutil.NewFixture(t)
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(fx.DB, access.NewGate(fx.DB), store, logger.NewNop(), Options{
		LeadEmailDomain: "deger360.net",
		MaxUploadSize:   1 << 20,
		UploadWorkers:   2,
	}).WithClock(func() time.Time { return fixedNow })
	return &env{fx: fx, svc: svc, store: store}
}

func (e *env) principal(t *testing.T, userID string) *access.Principal {
	t.Helper()
	p, err := e.svc.Gate().Resolve(context.Background(), userID)
	if err != nil {
		t.Fatalf("Resolve(%s) error = %v", userID, err)
	}
	return p
}

func boardStage(t *testing.T, db *gorm.DB, caseID string) string {
	t.Helper()
	var c database.Case
	if err := db.Select("id", "board_stage").Where("id = ?", caseID).First(&c).Error; err != nil {
		t.Fatal(err)
	}
	return c.BoardStage
}

func checklistItem(t *testing.T, db *gorm.DB, caseID, taskKey string) *database.ChecklistItem {
	t.Helper()
	var item database.ChecklistItem
	err := db.Where("case_id = ? AND task_key = ?", caseID, taskKey).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return &item
}

func wantKind(t *testing.T, err error, kind apperror.Kind, msg string) {
	t.Helper()
	if !apperror.Is(err, kind) {
		t.Fatalf("error = %v, want kind %d", err, kind)
	}
	if msg != "" && err.Error() != msg {
		t.Errorf("message = %q, want %q", err.Error(), msg)
	}
}

func boolPtr(b bool) *bool { return &b }

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func upload(name, contentType string, data []byte) UploadFile {
	return UploadFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadSeekCloser, error) {
			return memFile{bytes.NewReader(data)}, nil
		},
	}
}

func onePagePDF(t *testing.T) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(40, 10, "Kaza tespit tutanagi")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
