package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/database"
	"gorm.io/gorm"
)

// Messages returned to callers that fail a check
const (
	MsgCaseNotAssigned = "Access denied. This case is not assigned to you."
	MsgNotOwnCase      = "Access denied. This case does not belong to you."
	MsgRoleNotFound    = "User role not found"
	MsgAdminRequired   = "Admin access required"
	MsgEditNotAllowed  = "You do not have permission to modify this case"
	MsgReportsDenied   = "You do not have permission to view reports"
)

// Principal is the resolved caller of a request
type Principal struct {
	UserID     string
	Email      string
	Name       string
	Role       Role
	CustomerID string
	Caps       Capabilities
}

// DisplayName is the actor recorded on completions and skips
func (p *Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// Can consults the capability table row resolved for the caller
func (p *Principal) Can(cap Capability) bool {
	return p != nil && p.Caps.Has(cap)
}

// Gate decides which cases a principal may see and change. Every check
// fails closed.
type Gate struct {
	db *gorm.DB
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// Resolve loads the role of an authenticated user. A missing row, a failed
// lookup or an unknown role string are all reported as forbidden.
func (g *Gate) Resolve(ctx context.Context, userID string) (*Principal, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}

	var user database.UserAuth
	if err := g.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, apperror.Forbidden(MsgRoleNotFound)
	}

	role, ok := ParseRole(user.Role)
	if !ok {
		return nil, apperror.Forbidden(MsgRoleNotFound)
	}

	p := &Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   role,
		Caps:   role.Capabilities(),
	}
	if user.Name != nil {
		p.Name = *user.Name
	}
	if user.CustomerID != nil {
		p.CustomerID = *user.CustomerID
	}
	return p, nil
}

// AuthorizeCase checks read access to one case
func (g *Gate) AuthorizeCase(ctx context.Context, p *Principal, caseID string) error {
	if p == nil {
		return apperror.Unauthorized("Unauthorized")
	}

	switch {
	case p.Can(ReadAllCases):
		return nil

	case p.Can(StaffPanel):
		var count int64
		err := g.db.WithContext(ctx).Model(&database.CaseAdmin{}).
			Where("case_id = ? AND admin_id = ?", caseID, p.UserID).
			Count(&count).Error
		if err != nil {
			return apperror.Upstream("failed to check case assignment", err)
		}
		if count == 0 {
			return apperror.Forbidden(MsgCaseNotAssigned)
		}
		return nil

	case p.Can(Portal):
		if p.CustomerID == "" {
			return apperror.Forbidden(MsgNotOwnCase)
		}
		var c database.Case
		err := g.db.WithContext(ctx).Select("id", "customer_id").Where("id = ?", caseID).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Forbidden(MsgNotOwnCase)
		}
		if err != nil {
			return apperror.Upstream("failed to load case", err)
		}
		if c.CustomerID != p.CustomerID {
			return apperror.Forbidden(MsgNotOwnCase)
		}
		return nil
	}

	return apperror.Forbidden(MsgRoleNotFound)
}

// AuthorizeCaseEdit checks access to a case plus the edit capability
func (g *Gate) AuthorizeCaseEdit(ctx context.Context, p *Principal, caseID, deniedMsg string) error {
	if p == nil {
		return apperror.Unauthorized("Unauthorized")
	}
	if !p.Can(EditCase) {
		if deniedMsg == "" {
			deniedMsg = MsgEditNotAllowed
		}
		return apperror.Forbidden(deniedMsg)
	}
	return g.AuthorizeCase(ctx, p, caseID)
}

// AuthorizeDocument loads a document and checks access to its case
func (g *Gate) AuthorizeDocument(ctx context.Context, p *Principal, documentID string) (*database.Document, error) {
	var doc database.Document
	err := g.db.WithContext(ctx).Where("id = ?", documentID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Document not found")
	}
	if err != nil {
		return nil, apperror.Upstream("failed to load document", err)
	}

	if err := g.AuthorizeCase(ctx, p, doc.CaseID); err != nil {
		return nil, err
	}
	return &doc, nil
}

// RequireCapability rejects principals whose role lacks cap
func (g *Gate) RequireCapability(p *Principal, cap Capability) error {
	if p == nil {
		return apperror.Unauthorized("Unauthorized")
	}
	if p.Can(cap) {
		return nil
	}
	switch cap {
	case ManageAdmins, ManageAssignments, ReadAllCases:
		return apperror.Forbidden(MsgAdminRequired)
	case EditCase:
		return apperror.Forbidden(MsgEditNotAllowed)
	case ViewReports:
		return apperror.Forbidden(MsgReportsDenied)
	}
	return apperror.Forbidden(fmt.Sprintf("Role %s is not allowed here", p.Role))
}

// VisibleCaseIDs returns the case ids a principal may list. all is true
// for roles that see every case, in which case ids is nil. An empty,
// non-nil slice means nothing is visible.
func (g *Gate) VisibleCaseIDs(ctx context.Context, p *Principal) (ids []string, all bool, err error) {
	if p == nil {
		return nil, false, apperror.Unauthorized("Unauthorized")
	}

	ids = []string{}
	switch {
	case p.Can(ReadAllCases):
		return nil, true, nil

	case p.Can(StaffPanel):
		err = g.db.WithContext(ctx).Model(&database.CaseAdmin{}).
			Where("admin_id = ?", p.UserID).
			Pluck("case_id", &ids).Error

	case p.Can(Portal):
		if p.CustomerID == "" {
			return ids, false, nil
		}
		err = g.db.WithContext(ctx).Model(&database.Case{}).
			Where("customer_id = ?", p.CustomerID).
			Pluck("id", &ids).Error

	default:
		return nil, false, apperror.Forbidden(MsgRoleNotFound)
	}

	if err != nil {
		return nil, false, apperror.Upstream("failed to load visible cases", err)
	}
	return ids, false, nil
}
