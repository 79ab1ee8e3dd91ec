package access

// Role is the closed set of identities a session can resolve to
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleLawyer     Role = "lawyer"
	RoleAcente     Role = "acente"
	RoleCustomer   Role = "customer"
)

// ParseRole accepts only the known role strings
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleSuperadmin, RoleAdmin, RoleLawyer, RoleAcente, RoleCustomer:
		return r, true
	}
	return "", false
}

// IsStaff reports whether the role signs in to the admin panel
func (r Role) IsStaff() bool {
	return r.Capabilities().StaffPanel
}

// IsAssignable reports whether superadmins can create accounts with this role
func (r Role) IsAssignable() bool {
	return r == RoleAdmin || r == RoleLawyer || r == RoleAcente
}

func (r Role) String() string {
	return string(r)
}

// Capability names one entry of the capability table
type Capability int

const (
	ReadAllCases Capability = iota
	EditCase
	ManageAssignments
	ManageAdmins
	ViewReports
	StaffPanel
	Portal
)

// Capabilities is what a role may do, resolved once per request
type Capabilities struct {
	ReadAllCases      bool
	EditCase          bool
	ManageAssignments bool
	ManageAdmins      bool
	ViewReports       bool
	StaffPanel        bool
	Portal            bool
}

var capabilityTable = map[Role]Capabilities{
	RoleSuperadmin: {
		ReadAllCases:      true,
		EditCase:          true,
		ManageAssignments: true,
		ManageAdmins:      true,
		ViewReports:       true,
		StaffPanel:        true,
	},
	RoleAdmin:    {EditCase: true, ViewReports: true, StaffPanel: true},
	RoleLawyer:   {EditCase: true, ViewReports: true, StaffPanel: true},
	RoleAcente:   {ViewReports: true, StaffPanel: true},
	RoleCustomer: {Portal: true},
}

// Capabilities returns the table row for r. Unknown roles get nothing.
func (r Role) Capabilities() Capabilities {
	return capabilityTable[r]
}

// Has reports whether the capability is granted
func (c Capabilities) Has(cap Capability) bool {
	switch cap {
	case ReadAllCases:
		return c.ReadAllCases
	case EditCase:
		return c.EditCase
	case ManageAssignments:
		return c.ManageAssignments
	case ManageAdmins:
		return c.ManageAdmins
	case ViewReports:
		return c.ViewReports
	case StaffPanel:
		return c.StaffPanel
	case Portal:
		return c.Portal
	}
	return false
}
