package auth

import "github.com/spec-kit/ppa-crm/internal/domain"

// Kind tags which credential class an Identity was resolved from.
type Kind int

const (
	KindAnonymous Kind = iota
	KindBuyer
	KindEmployee
	KindAdmin
)

func (k Kind) String() string {
	switch k {
	case KindBuyer:
		return "buyer"
	case KindEmployee:
		return "employee"
	case KindAdmin:
		return "admin"
	}
	return "anonymous"
}

// Identity is the resolved caller. Only the fields for its Kind are set:
// buyers carry ID and Email, employees additionally Role, ManagerID and Active,
// and the admin carries Email only.
type Identity struct {
	Kind      Kind
	ID        string
	Email     string
	Role      domain.Role
	ManagerID *string
	Active    bool
}

// Anonymous is the identity of a caller without a usable credential.
func Anonymous() Identity {
	return Identity{Kind: KindAnonymous}
}

// BuyerIdentity builds a buyer identity.
func BuyerIdentity(id, email string) Identity {
	return Identity{Kind: KindBuyer, ID: id, Email: email}
}

// EmployeeIdentity builds an employee identity from the current storage snapshot.
func EmployeeIdentity(e *domain.Employee) Identity {
	return Identity{
		Kind:      KindEmployee,
		ID:        e.ID,
		Email:     e.Email,
		Role:      e.Role,
		ManagerID: e.ManagerID,
		Active:    e.Active,
	}
}

// AdminIdentity builds the admin identity.
func AdminIdentity(email string) Identity {
	return Identity{Kind: KindAdmin, Email: email}
}

func (i Identity) IsAnonymous() bool { return i.Kind == KindAnonymous }
func (i Identity) IsBuyer() bool     { return i.Kind == KindBuyer }
func (i Identity) IsEmployee() bool  { return i.Kind == KindEmployee }
func (i Identity) IsAdmin() bool     { return i.Kind == KindAdmin }

// HasRole reports whether the identity is an active employee with the given role.
func (i Identity) HasRole(role domain.Role) bool {
	return i.Kind == KindEmployee && i.Active && i.Role == role
}

func kindForSubject(subject domain.SubjectType) Kind {
	switch subject {
	case domain.SubjectTypeBuyer:
		return KindBuyer
	case domain.SubjectTypeEmployee:
		return KindEmployee
	case domain.SubjectTypeAdmin:
		return KindAdmin
	}
	return KindAnonymous
}
