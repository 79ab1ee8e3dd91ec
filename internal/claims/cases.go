package claims

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/workflow"
	"gorm.io/gorm"
)

const msgCaseEditDenied = "You do not have permission to edit this data"

// AutoGenerate asks UpdateCase to assign the next tracking number
const AutoGenerate = "AUTO_GENERATE"

// firstTrackingNumber is issued when no number at or above the floor exists
const (
	trackingFloor        = 546178
	firstTrackingNumber  = "546179"
	defaultCustomerLimit = 100
)

// BoardCustomer is the customer part of a board card
type BoardCustomer struct {
	ID       string  `json:"id"`
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
}

// BoardCase is one card of the case board
type BoardCase struct {
	ID                string        `json:"id"`
	CaseNumber        string        `json:"case_number"`
	BoardStage        string        `json:"board_stage"`
	Status            string        `json:"status"`
	VehiclePlate      string        `json:"vehicle_plate"`
	VehicleBrandModel string        `json:"vehicle_brand_model"`
	ValueLossAmount   *float64      `json:"value_loss_amount"`
	FaultRate         float64       `json:"fault_rate"`
	AssignedLawyer    *string       `json:"assigned_lawyer"`
	CreatedAt         string        `json:"created_at"`
	Customer          BoardCustomer `json:"customer"`
}

// DashboardStats counts the cases visible to the caller
type DashboardStats struct {
	TotalCases     int `json:"totalCases"`
	ActiveCases    int `json:"activeCases"`
	CompletedCases int `json:"completedCases"`
}

// CustomerSummary is a customer with its first case
type CustomerSummary struct {
	database.Customer
	Case *database.Case `json:"case"`
}

// CaseDetail is everything a case page shows
type CaseDetail struct {
	Case       *database.Case           `json:"case"`
	Checklist  []database.ChecklistItem `json:"checklist"`
	Documents  []database.Document      `json:"documents"`
	Skipped    []string                 `json:"skippedCategories"`
	AdminIDs   []string                 `json:"assignedAdminIds"`
	StageTitle string                   `json:"stageTitle"`
}

// UserCase is a portal view of a case with skipped items hidden
type UserCase struct {
	database.Case
	Documents         []database.Document         `json:"documents"`
	Checklist         []database.ChecklistItem    `json:"admin_checklist"`
	ExpectedDocuments []workflow.ExpectedDocument `json:"expected_documents"`
}

// visibleCases scopes a query to the cases the caller may see. ok is false
// when the caller sees nothing.
func (s *Service) visibleCases(ctx context.Context, p *access.Principal, q *gorm.DB, column string) (*gorm.DB, bool, error) {
	ids, all, err := s.gate.VisibleCaseIDs(ctx, p)
	if err != nil {
		return nil, false, err
	}
	if all {
		return q, true, nil
	}
	if len(ids) == 0 {
		return q, false, nil
	}
	return q.Where(column+" IN ?", ids), true, nil
}

// CasesBoard lists the case cards visible to a staff user, newest first
func (s *Service) CasesBoard(ctx context.Context, p *access.Principal) ([]BoardCase, error) {
	if err := s.gate.RequireCapability(p, access.StaffPanel); err != nil {
		return nil, apperror.Forbidden(access.MsgAdminRequired)
	}

	q, ok, err := s.visibleCases(ctx, p, s.db.WithContext(ctx).Model(&database.Case{}), "cases.id")
	if err != nil {
		return nil, err
	}
	board := []BoardCase{}
	if !ok {
		return board, nil
	}

	var cases []database.Case
	if err := q.Preload("Customer").Order("created_at DESC").Find(&cases).Error; err != nil {
		return nil, apperror.Upstream("Failed to fetch cases", err)
	}

	for _, c := range cases {
		card := BoardCase{
			ID:                c.ID,
			CaseNumber:        c.CaseNumber,
			BoardStage:        c.BoardStage,
			Status:            c.Status,
			VehiclePlate:      c.VehiclePlate,
			VehicleBrandModel: c.VehicleBrandModel,
			ValueLossAmount:   c.ValueLossAmount,
			FaultRate:         c.FaultRate,
			AssignedLawyer:    c.AssignedLawyer,
			CreatedAt:         c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if card.BoardStage == "" {
			card.BoardStage = workflow.DefaultBoardStage
		}
		if c.Customer != nil {
			card.Customer = BoardCustomer{
				ID:       c.Customer.ID,
				FullName: c.Customer.FullName,
				Email:    c.Customer.Email,
				Phone:    c.Customer.Phone,
			}
		}
		board = append(board, card)
	}
	return board, nil
}

// DashboardStats counts visible cases. Sample customers are left out of the
// superadmin totals.
func (s *Service) DashboardStats(ctx context.Context, p *access.Principal) (*DashboardStats, error) {
	if err := s.gate.RequireCapability(p, access.StaffPanel); err != nil {
		return nil, apperror.Forbidden(access.MsgAdminRequired)
	}

	base := s.db.WithContext(ctx).Model(&database.Case{}).
		Joins("JOIN customers ON customers.id = cases.customer_id")
	q, ok, err := s.visibleCases(ctx, p, base, "cases.id")
	if err != nil {
		return nil, err
	}
	stats := &DashboardStats{}
	if !ok {
		return stats, nil
	}
	if p.Can(access.ReadAllCases) {
		q = q.Where("customers.is_sample = ?", false)
	}

	var cases []database.Case
	if err := q.Select("cases.id", "cases.board_stage", "cases.status").Find(&cases).Error; err != nil {
		return nil, apperror.Upstream("Failed to fetch cases", err)
	}

	byCase, err := s.checklistByCase(ctx, caseIDs(cases))
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch checklist", err)
	}

	stats.TotalCases = len(cases)
	for _, c := range cases {
		if workflow.IsCaseCompleted(c.BoardStage, byCase[c.ID]) {
			stats.CompletedCases++
		}
	}
	stats.ActiveCases = stats.TotalCases - stats.CompletedCases
	return stats, nil
}

func caseIDs(cases []database.Case) []string {
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		ids = append(ids, c.ID)
	}
	return ids
}

func (s *Service) checklistByCase(ctx context.Context, ids []string) (map[string][]workflow.TaskState, error) {
	byCase := make(map[string][]workflow.TaskState, len(ids))
	if len(ids) == 0 {
		return byCase, nil
	}
	var items []database.ChecklistItem
	if err := s.db.WithContext(ctx).Where("case_id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		byCase[item.CaseID] = append(byCase[item.CaseID], workflow.TaskState{TaskKey: item.TaskKey, Completed: item.Completed})
	}
	return byCase, nil
}

// Customers lists customers whose case the caller can see, optionally
// filtered by a search term on name, email, phone or tracking number
func (s *Service) Customers(ctx context.Context, p *access.Principal, search string, limit int) ([]CustomerSummary, error) {
	if err := s.gate.RequireCapability(p, access.StaffPanel); err != nil {
		return nil, apperror.Forbidden(access.MsgAdminRequired)
	}
	if limit <= 0 {
		limit = defaultCustomerLimit
	}

	base := s.db.WithContext(ctx).Model(&database.Case{}).
		Joins("JOIN customers ON customers.id = cases.customer_id")
	q, ok, err := s.visibleCases(ctx, p, base, "cases.id")
	if err != nil {
		return nil, err
	}
	out := []CustomerSummary{}
	if !ok {
		return out, nil
	}

	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(customers.full_name) LIKE ? OR LOWER(customers.email) LIKE ? OR customers.phone LIKE ? OR customers.dosya_takip_numarasi LIKE ?",
			like, like, like, like)
	}

	var cases []database.Case
	err = q.Preload("Customer").
		Order("customers.created_at DESC").
		Order("cases.created_at ASC").
		Find(&cases).Error
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch customers", err)
	}

	seen := make(map[string]bool)
	for i := range cases {
		c := cases[i]
		if c.Customer == nil || seen[c.CustomerID] {
			continue
		}
		seen[c.CustomerID] = true
		customer := *c.Customer
		c.Customer = nil
		out = append(out, CustomerSummary{Customer: customer, Case: &c})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// GetCase loads a case with its checklist, documents and assignments
func (s *Service) GetCase(ctx context.Context, p *access.Principal, caseID string) (*CaseDetail, error) {
	if caseID == "" {
		return nil, apperror.Validation("Case ID is required")
	}
	if err := s.gate.AuthorizeCase(ctx, p, caseID); err != nil {
		return nil, err
	}

	var c database.Case
	err := s.db.WithContext(ctx).Preload("Customer").Where("id = ?", caseID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Case not found")
	}
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch case", err)
	}

	items, err := s.checklistOf(ctx, s.db, caseID)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch checklist", err)
	}
	docs := []database.Document{}
	if err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Order("uploaded_at DESC").Find(&docs).Error; err != nil {
		return nil, apperror.Upstream("Failed to fetch documents", err)
	}
	skipped := []string{}
	if err := s.db.WithContext(ctx).Model(&database.SkippedDocument{}).Where("case_id = ?", caseID).Pluck("category", &skipped).Error; err != nil {
		return nil, apperror.Upstream("Failed to fetch skipped documents", err)
	}
	admins := []string{}
	if p.Can(access.StaffPanel) {
		if err := s.db.WithContext(ctx).Model(&database.CaseAdmin{}).Where("case_id = ?", caseID).Pluck("admin_id", &admins).Error; err != nil {
			return nil, apperror.Upstream("Failed to fetch assignments", err)
		}
	}

	return &CaseDetail{
		Case:       &c,
		Checklist:  workflow.MergeChecklist(caseID, items),
		Documents:  docs,
		Skipped:    skipped,
		AdminIDs:   admins,
		StageTitle: workflow.StageTitle(c.BoardStage),
	}, nil
}

// UserCases returns the caller's own cases with skipped document
// categories and their tasks removed
func (s *Service) UserCases(ctx context.Context, p *access.Principal) ([]UserCase, error) {
	if p == nil {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	if p.CustomerID == "" {
		return nil, apperror.NotFound("No customer_id found for user")
	}

	var cases []database.Case
	err := s.db.WithContext(ctx).Preload("Customer").
		Where("customer_id = ?", p.CustomerID).
		Order("created_at DESC").
		Find(&cases).Error
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch cases", err)
	}

	out := make([]UserCase, 0, len(cases))
	if len(cases) == 0 {
		return out, nil
	}
	ids := caseIDs(cases)

	var skippedRows []database.SkippedDocument
	if err := s.db.WithContext(ctx).Where("case_id IN ?", ids).Find(&skippedRows).Error; err != nil {
		s.logger.Warn("Failed to fetch skipped documents", "customer_id", p.CustomerID, "error", err)
	}
	skipped := make(map[string]map[string]bool)
	for _, row := range skippedRows {
		if skipped[row.CaseID] == nil {
			skipped[row.CaseID] = make(map[string]bool)
		}
		skipped[row.CaseID][row.Category] = true
	}

	var docs []database.Document
	if err := s.db.WithContext(ctx).Where("case_id IN ?", ids).Order("uploaded_at DESC").Find(&docs).Error; err != nil {
		return nil, apperror.Upstream("Failed to fetch documents", err)
	}
	var items []database.ChecklistItem
	if err := s.db.WithContext(ctx).Where("case_id IN ?", ids).Find(&items).Error; err != nil {
		return nil, apperror.Upstream("Failed to fetch checklist", err)
	}

	for _, c := range cases {
		response := ""
		if c.InsuranceResponse != nil {
			response = *c.InsuranceResponse
		}
		hiddenCategories := skipped[c.ID]
		hiddenTasks := workflow.SkippedTaskKeys(hiddenCategories, response)

		uc := UserCase{
			Case:              c,
			Documents:         []database.Document{},
			Checklist:         []database.ChecklistItem{},
			ExpectedDocuments: []workflow.ExpectedDocument{},
		}
		for _, doc := range workflow.ExpectedDocuments {
			if !hiddenCategories[doc.Key] {
				uc.ExpectedDocuments = append(uc.ExpectedDocuments, doc)
			}
		}
		for _, d := range docs {
			if d.CaseID == c.ID && !hiddenCategories[d.Category] {
				uc.Documents = append(uc.Documents, d)
			}
		}
		for _, item := range items {
			if item.CaseID == c.ID && !hiddenTasks[item.TaskKey] {
				uc.Checklist = append(uc.Checklist, item)
			}
		}
		out = append(out, uc)
	}
	return out, nil
}

// CaseUpdates is the patch accepted by UpdateCase. Nil fields are left
// alone. A non-empty BoardStage overrides the derived stage.
type CaseUpdates struct {
	Status                *string  `json:"status"`
	VehiclePlate          *string  `json:"vehicle_plate"`
	VehicleBrandModel     *string  `json:"vehicle_brand_model"`
	AccidentDate          *string  `json:"accident_date"`
	AccidentLocation      *string  `json:"accident_location"`
	DamageAmount          *float64 `json:"damage_amount"`
	ValueLossAmount       *float64 `json:"value_loss_amount"`
	FaultRate             *float64 `json:"fault_rate"`
	EstimatedCompensation *float64 `json:"estimated_compensation"`
	CommissionRate        *float64 `json:"commission_rate"`
	BoardStage            *string  `json:"board_stage"`
	AssignedLawyer        *string  `json:"assigned_lawyer"`
	InsuranceResponse     *string  `json:"insurance_response"`
	NotaryAndFileExpenses *float64 `json:"notary_and_file_expenses"`
}

func (u *CaseUpdates) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	set := func(name string, v interface{}, present bool) {
		if present {
			cols[name] = v
		}
	}
	set("status", derefString(u.Status), u.Status != nil)
	set("vehicle_plate", derefString(u.VehiclePlate), u.VehiclePlate != nil)
	set("vehicle_brand_model", derefString(u.VehicleBrandModel), u.VehicleBrandModel != nil)
	set("accident_date", derefString(u.AccidentDate), u.AccidentDate != nil)
	set("accident_location", u.AccidentLocation, u.AccidentLocation != nil)
	set("damage_amount", u.DamageAmount, u.DamageAmount != nil)
	set("value_loss_amount", u.ValueLossAmount, u.ValueLossAmount != nil)
	set("fault_rate", derefFloat(u.FaultRate), u.FaultRate != nil)
	set("estimated_compensation", u.EstimatedCompensation, u.EstimatedCompensation != nil)
	set("commission_rate", derefFloat(u.CommissionRate), u.CommissionRate != nil)
	set("board_stage", derefString(u.BoardStage), u.BoardStage != nil && *u.BoardStage != "")
	set("assigned_lawyer", u.AssignedLawyer, u.AssignedLawyer != nil)
	set("notary_and_file_expenses", u.NotaryAndFileExpenses, u.NotaryAndFileExpenses != nil)
	if u.InsuranceResponse != nil {
		if *u.InsuranceResponse == "" {
			cols["insurance_response"] = nil
		} else {
			cols["insurance_response"] = *u.InsuranceResponse
		}
	}
	return cols
}

// CustomerUpdates is the customer patch accepted by UpdateCase
type CustomerUpdates struct {
	FullName           *string `json:"full_name"`
	Email              *string `json:"email"`
	Phone              *string `json:"phone"`
	Address            *string `json:"address"`
	TCKimlik           *string `json:"tc_kimlik"`
	IBAN               *string `json:"iban"`
	PaymentPersonName  *string `json:"payment_person_name"`
	DosyaTakipNumarasi *string `json:"dosya_takip_numarasi"`
}

func (u *CustomerUpdates) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.FullName != nil {
		cols["full_name"] = *u.FullName
	}
	if u.Email != nil {
		cols["email"] = *u.Email
	}
	if u.Phone != nil {
		cols["phone"] = u.Phone
	}
	if u.Address != nil {
		cols["address"] = u.Address
	}
	if u.TCKimlik != nil {
		cols["tc_kimlik"] = u.TCKimlik
	}
	if u.IBAN != nil {
		cols["iban"] = u.IBAN
	}
	if u.PaymentPersonName != nil {
		cols["payment_person_name"] = u.PaymentPersonName
	}
	if u.DosyaTakipNumarasi != nil {
		cols["dosya_takip_numarasi"] = *u.DosyaTakipNumarasi
	}
	return cols
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// UpdateCase applies case and customer patches. AUTO_GENERATE in a customer
// patch assigns the next free tracking number, and so does a missing one when
// the customer has none yet. An existing number is never replaced implicitly.
// A customer email change is carried over to the customer's login.
func (s *Service) UpdateCase(ctx context.Context, p *access.Principal, caseID string, caseUpdates *CaseUpdates, customerUpdates *CustomerUpdates) (*database.Case, error) {
	if caseID == "" {
		return nil, apperror.Validation("Case ID is required")
	}
	if err := s.gate.AuthorizeCaseEdit(ctx, p, caseID, msgCaseEditDenied); err != nil {
		return nil, err
	}
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if caseUpdates != nil && caseUpdates.BoardStage != nil && *caseUpdates.BoardStage != "" && !p.Can(access.ReadAllCases) {
		if *caseUpdates.BoardStage != c.BoardStage {
			return nil, apperror.Forbidden("Only a superadmin can change the board stage")
		}
	}

	if customerUpdates != nil {
		generate, err := s.needsTrackingNumber(ctx, c.CustomerID, customerUpdates.DosyaTakipNumarasi)
		if err != nil {
			return nil, apperror.Upstream("Failed to update customer", err)
		}
		if generate {
			next, err := s.nextTrackingNumber(ctx, s.db)
			if err != nil {
				return nil, apperror.Upstream("Failed to update customer", err)
			}
			customerUpdates.DosyaTakipNumarasi = &next
		} else if customerUpdates.DosyaTakipNumarasi != nil && *customerUpdates.DosyaTakipNumarasi == "" {
			customerUpdates.DosyaTakipNumarasi = nil
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if customerUpdates.Email != nil {
				var old database.Customer
				if err := tx.Select("id", "email").Where("id = ?", c.CustomerID).First(&old).Error; err != nil {
					return err
				}
				if old.Email != *customerUpdates.Email {
					err := tx.Model(&database.UserAuth{}).
						Where("customer_id = ? AND email = ?", c.CustomerID, old.Email).
						Update("email", *customerUpdates.Email).Error
					if err != nil {
						return err
					}
				}
			}
			return tx.Model(&database.Customer{}).Where("id = ?", c.CustomerID).Updates(customerUpdates.columns()).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("Failed to update customer", err)
		}
		if err != nil {
			return nil, apperror.Upstream("Failed to update customer", err)
		}
	}

	if caseUpdates != nil {
		if cols := caseUpdates.columns(); len(cols) > 0 {
			if err := s.db.WithContext(ctx).Model(&database.Case{}).Where("id = ?", caseID).Updates(cols).Error; err != nil {
				return nil, apperror.Upstream("Failed to update case", err)
			}
		}
	}

	var updated database.Case
	if err := s.db.WithContext(ctx).Preload("Customer").Where("id = ?", caseID).First(&updated).Error; err != nil {
		return nil, apperror.Upstream("Failed to fetch updated case", err)
	}

	s.record(ctx, caseID, p.UserID, ActionCaseUpdated, map[string]interface{}{
		"case_fields":     caseUpdates != nil,
		"customer_fields": customerUpdates != nil,
	})
	return &updated, nil
}

// needsTrackingNumber reports whether a customer patch must be given a fresh
// tracking number
func (s *Service) needsTrackingNumber(ctx context.Context, customerID string, requested *string) (bool, error) {
	if requested != nil && *requested == AutoGenerate {
		return true, nil
	}
	if requested != nil && *requested != "" {
		return false, nil
	}
	var cu database.Customer
	if err := s.db.WithContext(ctx).Select("id", "dosya_takip_numarasi").Where("id = ?", customerID).First(&cu).Error; err != nil {
		return false, err
	}
	return cu.DosyaTakipNumarasi == nil || *cu.DosyaTakipNumarasi == "", nil
}

// nextTrackingNumber returns one past the highest numeric tracking number
// at or above the floor
func (s *Service) nextTrackingNumber(ctx context.Context, db *gorm.DB) (string, error) {
	var numbers []string
	err := db.WithContext(ctx).Model(&database.Customer{}).
		Where("dosya_takip_numarasi IS NOT NULL").
		Pluck("dosya_takip_numarasi", &numbers).Error
	if err != nil {
		return "", err
	}

	max := -1
	for _, n := range numbers {
		v, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || v < trackingFloor {
			continue
		}
		if v > max {
			max = v
		}
	}
	if max < 0 {
		return firstTrackingNumber, nil
	}
	return strconv.Itoa(max + 1), nil
}

// AssignAdmins replaces the set of staff assigned to a case
func (s *Service) AssignAdmins(ctx context.Context, p *access.Principal, caseID string, adminIDs []string) error {
	if caseID == "" {
		return apperror.Validation("Case ID is required")
	}
	if err := s.gate.RequireCapability(p, access.ManageAssignments); err != nil {
		return err
	}
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return err
	}

	unique := make([]string, 0, len(adminIDs))
	seen := make(map[string]bool)
	for _, id := range adminIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	if len(unique) > 0 {
		var staff []database.UserAuth
		if err := s.db.WithContext(ctx).Select("id", "role").Where("id IN ?", unique).Find(&staff).Error; err != nil {
			return apperror.Upstream("Failed to update assignments", err)
		}
		if len(staff) != len(unique) {
			return apperror.Validation("Unknown admin id")
		}
		for _, u := range staff {
			role, ok := access.ParseRole(u.Role)
			if !ok || !role.IsAssignable() {
				return apperror.Validation("Only admin, lawyer or acente users can be assigned")
			}
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ?", caseID).Delete(&database.CaseAdmin{}).Error; err != nil {
			return err
		}
		for _, id := range unique {
			if err := tx.Create(&database.CaseAdmin{CaseID: caseID, AdminID: id}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperror.Upstream("Failed to update assignments", err)
	}
	return nil
}
