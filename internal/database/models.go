package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Case status values
const (
	CaseStatusActive    = "active"
	CaseStatusCompleted = "completed"
)

// Insurance response values
const (
	InsuranceAccepted = "accepted"
	InsuranceRejected = "rejected"
)

type Customer struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FullName           string    `json:"full_name" gorm:"not null"`
	Email              string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone              *string   `json:"phone"`
	Address            *string   `json:"address"`
	TCKimlik           *string   `json:"tc_kimlik" gorm:"column:tc_kimlik"`
	IBAN               *string   `json:"iban" gorm:"column:iban"`
	PaymentPersonName  *string   `json:"payment_person_name"`
	DosyaTakipNumarasi *string   `json:"dosya_takip_numarasi" gorm:"uniqueIndex"`
	IsSample           bool      `json:"is_sample" gorm:"default:false"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Case struct {
	ID                    string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID            string         `json:"customer_id" gorm:"index;not null"`
	Customer              *Customer      `json:"customers,omitempty" gorm:"foreignKey:CustomerID"`
	CaseNumber            string         `json:"case_number"`
	Status                string         `json:"status" gorm:"default:active"`
	VehiclePlate          string         `json:"vehicle_plate"`
	VehicleBrandModel     string         `json:"vehicle_brand_model"`
	AccidentDate          string         `json:"accident_date"`
	AccidentLocation      *string        `json:"accident_location"`
	DamageAmount          *float64       `json:"damage_amount"`
	ValueLossAmount       *float64       `json:"value_loss_amount"`
	FaultRate             float64        `json:"fault_rate"`
	EstimatedCompensation *float64       `json:"estimated_compensation"`
	CommissionRate        float64        `json:"commission_rate"`
	BoardStage            string         `json:"board_stage" gorm:"index"`
	AssignedLawyer        *string        `json:"assigned_lawyer"`
	InsuranceResponse     *string        `json:"insurance_response"`
	InsuranceDetails      datatypes.JSON `json:"insurance_details"`
	StartDate             time.Time      `json:"start_date"`
	CompletionDate        *time.Time     `json:"completion_date"`
	NotaryAndFileExpenses *float64       `json:"notary_and_file_expenses"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// ChecklistItem is one persisted task state of a case
type ChecklistItem struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CaseID      string     `json:"case_id" gorm:"uniqueIndex:idx_checklist_case_task;not null"`
	TaskKey     string     `json:"task_key" gorm:"uniqueIndex:idx_checklist_case_task;not null"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *string    `json:"completed_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Document struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CaseID         string    `json:"case_id" gorm:"index;not null"`
	Name           string    `json:"name"`
	Category       string    `json:"category" gorm:"index"`
	FilePath       string    `json:"file_path"`
	FileSize       int64     `json:"file_size"`
	FileType       string    `json:"file_type"`
	PageCount      int       `json:"page_count"`
	UploadedBy     string    `json:"uploaded_by"`
	UploadedByName *string   `json:"uploaded_by_name"`
	Description    *string   `json:"description"`
	UploadedAt     time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}

// SkippedDocument marks a document category as not required for a case
type SkippedDocument struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CaseID    string    `json:"case_id" gorm:"uniqueIndex:idx_skipped_case_category;not null"`
	Category  string    `json:"category" gorm:"uniqueIndex:idx_skipped_case_category;not null"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// CaseAdmin assigns a staff user to a case
type CaseAdmin struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CaseID    string    `json:"case_id" gorm:"uniqueIndex:idx_case_admin;not null"`
	AdminID   string    `json:"admin_id" gorm:"uniqueIndex:idx_case_admin;index;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAuth is an authenticated identity and its role
type UserAuth struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Role         string     `json:"role" gorm:"index;not null"`
	Name         *string    `json:"name"`
	CustomerID   *string    `json:"customer_id" gorm:"index"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ActivityLog is an append-only audit entry for case mutations
type ActivityLog struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CaseID    string         `json:"case_id" gorm:"index"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Metadata  datatypes.JSON `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Customer) TableName() string {
	return "customers"
}

func (Case) TableName() string {
	return "cases"
}

func (ChecklistItem) TableName() string {
	return "admin_checklist"
}

func (Document) TableName() string {
	return "documents"
}

func (SkippedDocument) TableName() string {
	return "skipped_documents"
}

func (CaseAdmin) TableName() string {
	return "case_admins"
}

func (UserAuth) TableName() string {
	return "user_auth"
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

func (c *Case) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	if c.StartDate.IsZero() {
		c.StartDate = time.Now()
	}
	return nil
}

func (i *ChecklistItem) BeforeCreate(tx *gorm.DB) error {
	newID(&i.ID)
	return nil
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	newID(&d.ID)
	return nil
}

func (s *SkippedDocument) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

func (ca *CaseAdmin) BeforeCreate(tx *gorm.DB) error {
	newID(&ca.ID)
	return nil
}

func (u *UserAuth) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	return nil
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}
