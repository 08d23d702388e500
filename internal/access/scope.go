package access

import (
	"context"

	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
)

// ScopeKind is the shape of a visibility predicate.
type ScopeKind int

const (
	// ScopeNone matches no rows.
	ScopeNone ScopeKind = iota
	// ScopeAssignees matches rows assigned to one of a fixed set of employees.
	ScopeAssignees
	// ScopeAll matches every row.
	ScopeAll
)

// Scope restricts which leads and tasks an identity may read. Activities
// are scoped through their parent lead. The zero value matches nothing.
type Scope struct {
	kind      ScopeKind
	assignees []string
}

// AllRows is the unrestricted scope.
func AllRows() Scope { return Scope{kind: ScopeAll} }

// NoRows is the empty scope.
func NoRows() Scope { return Scope{kind: ScopeNone} }

// AssignedTo matches rows whose assignee is in ids. An empty ids list yields NoRows.
func AssignedTo(ids ...string) Scope {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return NoRows()
	}
	return Scope{kind: ScopeAssignees, assignees: out}
}

// Kind returns the predicate shape.
func (s Scope) Kind() ScopeKind { return s.kind }

// Assignees returns a copy of the allowed assignee ids for ScopeAssignees.
func (s Scope) Assignees() []string {
	out := make([]string, len(s.assignees))
	copy(out, s.assignees)
	return out
}

// Matches evaluates the predicate against a row's assignee.
func (s Scope) Matches(assignedToID *string) bool {
	switch s.kind {
	case ScopeAll:
		return true
	case ScopeAssignees:
		if assignedToID == nil {
			return false
		}
		for _, id := range s.assignees {
			if id == *assignedToID {
				return true
			}
		}
	}
	return false
}

// Narrow restricts s to a single assignee, as used by an assignee filter.
// The result never widens s.
func (s Scope) Narrow(assignedToID string) Scope {
	if !s.Matches(&assignedToID) {
		return NoRows()
	}
	return AssignedTo(assignedToID)
}

// TeamLookup returns the ids of a manager's direct reports from current storage.
type TeamLookup interface {
	ListReportIDs(ctx context.Context, managerID string) ([]string, error)
}

// ScopeFor computes the read scope for identity. The team is looked up on
// every call so that reporting-line changes apply immediately.
func ScopeFor(ctx context.Context, identity auth.Identity, team TeamLookup) (Scope, error) {
	if !identity.IsEmployee() || !identity.Active {
		return NoRows(), nil
	}
	switch identity.Role {
	case domain.RoleSuperAdmin:
		return AllRows(), nil
	case domain.RoleManager:
		reports, err := team.ListReportIDs(ctx, identity.ID)
		if err != nil {
			return NoRows(), err
		}
		// Own rows stay visible with or without a team; an empty team adds nothing.
		return AssignedTo(append(reports, identity.ID)...), nil
	case domain.RoleAgent:
		return AssignedTo(identity.ID), nil
	}
	return NoRows(), nil
}
