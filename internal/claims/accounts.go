package claims

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/session"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// Login messages shown by the admin and portal sign-in forms
const (
	MsgLoginMissing       = "E-posta ve şifre gereklidir"
	MsgLoginInvalid       = "E-posta veya şifre hatalı. Lütfen bilgilerinizi kontrol edip tekrar deneyin."
	MsgNotAdminAccount    = "Bu hesap admin yetkisine sahip değil"
	MsgPortalMissing      = "Dosya takip numarası ve şifre gereklidir"
	MsgTrackingNotFound   = "Dosya takip numarası bulunamadı. Lütfen numaranızı kontrol edin."
	MsgPortalWrongPass    = "Şifre hatalı. Lütfen tekrar deneyin."
	MsgPasswordTooShort   = "Şifre en az 6 karakter olmalıdır"
	MsgSuperadminRequired = "Forbidden: Only superadmin can create admins"
)

// AdminSummary is a staff account as listed in the admin panel
type AdminSummary struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	Role      string  `json:"role"`
	CaseCount int64   `json:"caseCount"`
}

// LoginAdmin checks staff credentials and returns the account
func (s *Service) LoginAdmin(ctx context.Context, email, password string) (*database.UserAuth, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperror.Validation(MsgLoginMissing)
	}

	user, err := s.checkCredentials(ctx, "email = ?", email, password, MsgLoginInvalid)
	if err != nil {
		return nil, err
	}
	role, ok := access.ParseRole(user.Role)
	if !ok || !role.IsStaff() {
		return nil, apperror.Forbidden(MsgNotAdminAccount)
	}
	s.touchLogin(ctx, user)
	return user, nil
}

// LoginPortal checks a customer's tracking number and password
func (s *Service) LoginPortal(ctx context.Context, trackingNumber, password string) (*database.UserAuth, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" || password == "" {
		return nil, apperror.Validation(MsgPortalMissing)
	}

	var customer database.Customer
	err := s.db.WithContext(ctx).Where("dosya_takip_numarasi = ?", trackingNumber).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound(MsgTrackingNotFound)
	}
	if err != nil {
		return nil, apperror.Upstream("", err)
	}

	user, err := s.checkCredentials(ctx, "customer_id = ?", customer.ID, password, MsgPortalWrongPass)
	if err != nil {
		return nil, err
	}
	s.touchLogin(ctx, user)
	return user, nil
}

func (s *Service) checkCredentials(ctx context.Context, where string, arg interface{}, password, invalidMsg string) (*database.UserAuth, error) {
	var user database.UserAuth
	err := s.db.WithContext(ctx).Where(where, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Unauthorized(invalidMsg)
	}
	if err != nil {
		return nil, apperror.Upstream("", err)
	}
	if !session.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperror.Unauthorized(invalidMsg)
	}
	return &user, nil
}

func (s *Service) touchLogin(ctx context.Context, user *database.UserAuth) {
	now := s.now()
	if err := s.db.WithContext(ctx).Model(user).Update("last_login", now).Error; err != nil {
		s.logger.Warn("Failed to record login time", "user_id", user.ID, "error", err)
	}
}

// ListAdmins lists staff accounts with the number of assigned cases
func (s *Service) ListAdmins(ctx context.Context, p *access.Principal) ([]AdminSummary, error) {
	if err := s.gate.RequireCapability(p, access.StaffPanel); err != nil {
		return nil, err
	}

	var users []database.UserAuth
	err := s.db.WithContext(ctx).
		Where("role IN ?", []string{"superadmin", "admin", "lawyer", "acente"}).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, apperror.Upstream("Failed to get admins", err)
	}

	type countRow struct {
		AdminID string
		Total   int64
	}
	var counts []countRow
	err = s.db.WithContext(ctx).Model(&database.CaseAdmin{}).
		Select("admin_id, COUNT(*) AS total").
		Group("admin_id").
		Scan(&counts).Error
	if err != nil {
		return nil, apperror.Upstream("Failed to get admins", err)
	}
	byAdmin := make(map[string]int64, len(counts))
	for _, c := range counts {
		byAdmin[c.AdminID] = c.Total
	}

	admins := make([]AdminSummary, 0, len(users))
	for _, u := range users {
		admins = append(admins, AdminSummary{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			CaseCount: byAdmin[u.ID],
		})
	}
	return admins, nil
}

// CreateAdmin creates a staff account. Only admin, lawyer and acente roles
// can be created this way.
func (s *Service) CreateAdmin(ctx context.Context, p *access.Principal, name, email, password, role string) (*database.UserAuth, error) {
	if !p.Can(access.ManageAdmins) {
		return nil, apperror.Forbidden(MsgSuperadminRequired)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" || role == "" {
		return nil, apperror.Validation("Name, email, password, and role are required")
	}
	if len(password) < minPasswordLength {
		return nil, apperror.Validation("Password must be at least 6 characters")
	}
	parsed, ok := access.ParseRole(role)
	if !ok || !parsed.IsAssignable() {
		return nil, apperror.Validation(`Invalid role. Must be "admin", "lawyer", or "acente"`)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.Validation("Invalid email address")
	}

	hash, err := session.HashPassword(password)
	if err != nil {
		return nil, apperror.Upstream("Failed to create user", err)
	}
	user := &database.UserAuth{
		Email:        email,
		PasswordHash: hash,
		Role:         parsed.String(),
		Name:         &name,
	}
	err = s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperror.Conflict("A user with this email already exists", err)
	}
	if err != nil {
		return nil, apperror.Upstream("Failed to create admin record", err)
	}

	s.logger.Info("Created staff account", "user_id", user.ID, "role", user.Role, "by", p.UserID)
	return user, nil
}

// DeleteAdmin removes a staff account and its case assignments. A
// superadmin cannot be deleted.
func (s *Service) DeleteAdmin(ctx context.Context, p *access.Principal, adminID string) error {
	if err := s.gate.RequireCapability(p, access.ManageAdmins); err != nil {
		return err
	}
	if adminID == "" {
		return apperror.Validation("Admin ID gerekli")
	}

	var user database.UserAuth
	err := s.db.WithContext(ctx).Select("id", "role").Where("id = ?", adminID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("Admin bulunamadı")
	}
	if err != nil {
		return apperror.Upstream("", err)
	}
	role, _ := access.ParseRole(user.Role)
	if role == access.RoleSuperadmin {
		return apperror.Forbidden("Superadmin silinemez")
	}
	if !role.IsAssignable() {
		return apperror.NotFound("Admin bulunamadı")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("admin_id = ?", adminID).Delete(&database.CaseAdmin{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", adminID).Delete(&database.UserAuth{}).Error
	})
	if err != nil {
		return apperror.Upstream("Failed to delete admin", err)
	}
	return nil
}

// UpdatePassword changes a password. Users change their own; changing
// someone else's needs the admin management capability.
func (s *Service) UpdatePassword(ctx context.Context, p *access.Principal, userID, newPassword string) error {
	if p == nil {
		return apperror.Unauthorized("Unauthorized")
	}
	if userID == "" {
		userID = p.UserID
	}
	if newPassword == "" {
		return apperror.Validation("User ID ve yeni şifre gerekli")
	}
	if len([]rune(newPassword)) < minPasswordLength {
		return apperror.Validation(MsgPasswordTooShort)
	}
	if userID != p.UserID && !p.Can(access.ManageAdmins) {
		return apperror.Forbidden(access.MsgAdminRequired)
	}

	hash, err := session.HashPassword(newPassword)
	if err != nil {
		return apperror.Upstream("", err)
	}
	res := s.db.WithContext(ctx).Model(&database.UserAuth{}).Where("id = ?", userID).Update("password_hash", hash)
	if res.Error != nil {
		return apperror.Upstream("Failed to update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("User not found")
	}
	return nil
}

// DeleteCustomer removes a customer with every case, document and login
// that belongs to it. Stored files are removed on a best effort basis.
func (s *Service) DeleteCustomer(ctx context.Context, p *access.Principal, customerID string) error {
	if err := s.gate.RequireCapability(p, access.ManageAdmins); err != nil {
		return err
	}
	if customerID == "" {
		return apperror.Validation("Müşteri ID gerekli")
	}

	var ids []string
	if err := s.db.WithContext(ctx).Model(&database.Case{}).Where("customer_id = ?", customerID).Pluck("id", &ids).Error; err != nil {
		return apperror.Upstream("", err)
	}
	var paths []string
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Model(&database.Document{}).Where("case_id IN ?", ids).Pluck("file_path", &paths).Error; err != nil {
			return apperror.Upstream("", err)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(ids) > 0 {
			for _, model := range []interface{}{
				&database.ChecklistItem{}, &database.Document{}, &database.SkippedDocument{},
				&database.CaseAdmin{}, &database.ActivityLog{},
			} {
				if err := tx.Where("case_id IN ?", ids).Delete(model).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", ids).Delete(&database.Case{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("customer_id = ?", customerID).Delete(&database.UserAuth{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", customerID).Delete(&database.Customer{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("Customer not found")
	}
	if err != nil {
		return apperror.Upstream("Failed to delete customer", err)
	}

	for _, fp := range paths {
		if isStoredPath(fp) {
			if err := s.store.Delete(ctx, fp); err != nil {
				s.logger.Warn("Failed to delete stored file", "path", fp, "error", err)
			}
		}
	}
	return nil
}

// BootstrapSuperadmin creates the first superadmin when none with that
// email exists. It reports whether an account was created.
func (s *Service) BootstrapSuperadmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || len(password) < minPasswordLength {
		return false, apperror.Validation("SUPERADMIN_EMAIL and a password of at least 6 characters are required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&database.UserAuth{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := session.HashPassword(password)
	if err != nil {
		return false, err
	}
	name := "Super Admin"
	user := &database.UserAuth{Email: email, PasswordHash: hash, Role: access.RoleSuperadmin.String(), Name: &name}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return false, err
	}
	return true, nil
}
