package claims

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/session"
	"github.com/bahadkc/deger360/internal/workflow"
	"gorm.io/gorm"
)

// PlaceholderPlate is stored until the real plate is collected
const PlaceholderPlate = "BELİRTİLMEDİ"

// LeadInput is a web form application
type LeadInput struct {
	FullName     string
	Phone        string
	VehicleModel string
	DamageAmount string
	Email        string
}

// Credentials are shown to the applicant once, after the lead is created
type Credentials struct {
	TrackingNumber string `json:"dosyaTakipNo"`
	Password       string `json:"password"`
	Email          string `json:"email"`
}

// Lead is the outcome of CreateLead. Case is nil when the case insert
// failed after the customer was created.
type Lead struct {
	Customer    *database.Customer `json:"customer"`
	Case        *database.Case     `json:"case"`
	Credentials Credentials        `json:"credentials"`
}

var (
	nonDigit        = regexp.MustCompile(`[^0-9]`)
	groupedThousand = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

// CreateLead turns an application into a customer with a portal login and
// a fresh case on the board
func (s *Service) CreateLead(ctx context.Context, in LeadInput) (*Lead, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" || strings.TrimSpace(in.Phone) == "" || strings.TrimSpace(in.VehicleModel) == "" || strings.TrimSpace(in.DamageAmount) == "" {
		return nil, apperror.Validation("Tüm alanlar zorunludur")
	}

	tracking, err := s.nextTrackingNumber(ctx, s.db)
	if err != nil {
		return nil, apperror.Upstream("", err)
	}

	digits := nonDigit.ReplaceAllString(in.Phone, "")
	email := strings.TrimSpace(in.Email)
	if email == "" {
		email = fmt.Sprintf("%s@%s", digits, s.opts.LeadEmailDomain)
	}
	password := LeadPassword(in.FullName, digits)

	phone := in.Phone
	customer := &database.Customer{
		FullName:           in.FullName,
		Email:              email,
		Phone:              &phone,
		DosyaTakipNumarasi: &tracking,
	}
	err = s.db.WithContext(ctx).Create(customer).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		email = fmt.Sprintf("%s_%d@%s", digits, s.now().UnixMilli(), s.opts.LeadEmailDomain)
		customer = &database.Customer{
			FullName:           in.FullName,
			Email:              email,
			Phone:              &phone,
			DosyaTakipNumarasi: &tracking,
		}
		err = s.db.WithContext(ctx).Create(customer).Error
	}
	if err != nil {
		return nil, apperror.Upstream("", err)
	}

	if err := s.createPortalLogin(ctx, customer, email, password); err != nil {
		if derr := s.db.WithContext(ctx).Delete(&database.Customer{}, "id = ?", customer.ID).Error; derr != nil {
			s.logger.Error("Failed to roll back lead customer", "customer_id", customer.ID, "error", derr)
		}
		return nil, apperror.Upstream("", err)
	}

	now := s.now()
	c := &database.Case{
		CustomerID:        customer.ID,
		CaseNumber:        fmt.Sprintf("DK-%d-%s", now.Year(), lastN(tracking, 3)),
		Status:            database.CaseStatusActive,
		VehiclePlate:      PlaceholderPlate,
		VehicleBrandModel: in.VehicleModel,
		AccidentDate:      now.Format("2006-01-02"),
		DamageAmount:      ParseAmount(in.DamageAmount),
		BoardStage:        workflow.StageBasvuruAlindi,
		StartDate:         now,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		s.logger.Error("Failed to create lead case", "customer_id", customer.ID, "error", err)
		c = nil
	}

	s.logger.Info("Lead created successfully", "customer_id", customer.ID, "dosya_takip_no", tracking)
	return &Lead{
		Customer: customer,
		Case:     c,
		Credentials: Credentials{
			TrackingNumber: tracking,
			Password:       password,
			Email:          email,
		},
	}, nil
}

func (s *Service) createPortalLogin(ctx context.Context, customer *database.Customer, email, password string) error {
	hash, err := session.HashPassword(password)
	if err != nil {
		return err
	}
	customerID := customer.ID
	name := customer.FullName
	user := &database.UserAuth{
		Email:        email,
		PasswordHash: hash,
		Role:         access.RoleCustomer.String(),
		Name:         &name,
		CustomerID:   &customerID,
	}
	return s.db.WithContext(ctx).Create(user).Error
}

// LeadPassword is the lower-cased last word of the name, a dot, and the
// last four phone digits
func LeadPassword(fullName, phoneDigits string) string {
	words := strings.Fields(fullName)
	surname := ""
	if len(words) > 0 {
		surname = words[len(words)-1]
	}
	return strings.ToLower(surname) + "." + lastN(phoneDigits, 4)
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// ParseAmount reads a lira amount typed into a form. Both 12500.50 and the
// Turkish 12.500,50 forms are accepted. Unreadable input yields nil.
func ParseAmount(v string) *float64 {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "TL"))
	v = strings.ReplaceAll(v, " ", "")
	switch {
	case strings.Contains(v, ","):
		v = strings.ReplaceAll(v, ".", "")
		v = strings.ReplaceAll(v, ",", ".")
	case groupedThousand.MatchString(v):
		v = strings.ReplaceAll(v, ".", "")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
