// Package testutil builds throwaway databases and fixtures for package tests
package testutil

import (
	"fmt"
	"testing"

	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/session"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Password is the plain-text password of every fixture user
const Password = "secret123"

// NewDB opens a private in-memory SQLite database with the full schema
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := database.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts an auth identity with the fixture password
func CreateUser(t testing.TB, db *gorm.DB, email, role string, customerID *string) *database.UserAuth {
	t.Helper()

	hash, err := session.HashPassword(Password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	name := email
	user := &database.UserAuth{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         &name,
		CustomerID:   customerID,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

// CaseOption customizes a fixture case before insert
type CaseOption func(*database.Customer, *database.Case)

func WithBoardStage(stage string) CaseOption {
	return func(_ *database.Customer, c *database.Case) { c.BoardStage = stage }
}

func WithInsuranceResponse(resp string) CaseOption {
	return func(_ *database.Customer, c *database.Case) { c.InsuranceResponse = &resp }
}

func WithCompensation(amount float64) CaseOption {
	return func(_ *database.Customer, c *database.Case) { c.EstimatedCompensation = &amount }
}

func WithTrackingNumber(number string) CaseOption {
	return func(cu *database.Customer, _ *database.Case) { cu.DosyaTakipNumarasi = &number }
}

func AsSample() CaseOption {
	return func(cu *database.Customer, _ *database.Case) { cu.IsSample = true }
}

// CreateCase inserts a customer and one case for it
func CreateCase(t testing.TB, db *gorm.DB, name string, opts ...CaseOption) (*database.Customer, *database.Case) {
	t.Helper()

	customer := &database.Customer{
		FullName: name,
		Email:    uuid.New().String() + "@example.com",
	}
	c := &database.Case{
		CaseNumber:        "DK-2025-" + uuid.New().String()[:3],
		Status:            database.CaseStatusActive,
		VehiclePlate:      "34 ABC 123",
		VehicleBrandModel: "Renault Clio",
		AccidentDate:      "2025-01-10",
		BoardStage:        "basvuru_alindi",
	}
	for _, opt := range opts {
		opt(customer, c)
	}

	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	c.CustomerID = customer.ID
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("failed to create case: %v", err)
	}
	return customer, c
}

// Assign links a staff user to a case
func Assign(t testing.TB, db *gorm.DB, caseID, adminID string) {
	t.Helper()
	if err := db.Create(&database.CaseAdmin{CaseID: caseID, AdminID: adminID}).Error; err != nil {
		t.Fatalf("failed to assign case: %v", err)
	}
}

// CreateDocument inserts a document row without storing a file
func CreateDocument(t testing.TB, db *gorm.DB, caseID, category, filePath string) *database.Document {
	t.Helper()
	doc := &database.Document{
		CaseID:   caseID,
		Name:     category,
		Category: category,
		FilePath: filePath,
		FileType: "application/pdf",
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("failed to create document: %v", err)
	}
	return doc
}

// CompleteTasks persists completed checklist rows for a case
func CompleteTasks(t testing.TB, db *gorm.DB, caseID string, keys ...string) {
	t.Helper()
	for _, key := range keys {
		item := &database.ChecklistItem{CaseID: caseID, TaskKey: key, Completed: true}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("failed to create checklist item %s: %v", key, err)
		}
	}
}

// Fixture is a small populated database: a superadmin, an admin assigned to
// Case, and OtherCase that nobody is assigned to
type Fixture struct {
	DB         *gorm.DB
	Superadmin *database.UserAuth
	Admin      *database.UserAuth
	Customer   *database.Customer
	Case       *database.Case
	OtherCase  *database.Case
}

func NewFixture(t testing.TB) *Fixture {
	t.Helper()

	db := NewDB(t)
	fx := &Fixture{DB: db}
	fx.Superadmin = CreateUser(t, db, "super@example.com", "superadmin", nil)
	fx.Admin = CreateUser(t, db, "admin@example.com", "admin", nil)
	fx.Customer, fx.Case = CreateCase(t, db, "Ayşe Yılmaz", WithTrackingNumber("546179"))
	_, fx.OtherCase = CreateCase(t, db, "Mehmet Kaya")
	Assign(t, db, fx.Case.ID, fx.Admin.ID)
	return fx
}
