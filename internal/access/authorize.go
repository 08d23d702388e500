package access

import (
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

// Action names a guarded operation.
type Action int

const (
	ActionViewLead Action = iota
	ActionUpdateLead
	ActionChangeLeadStatus
	ActionAssign
	ActionViewTask
	ActionUpdateTask
	ActionCompleteTask
	ActionDeleteTask
	ActionModifyContent
	ActionListEmployees
	ActionViewTeam
	ActionCreateEmployee
	ActionUpdateEmployee
	ActionDeactivateEmployee
)

var actionNames = map[Action]string{
	ActionViewLead:           "view_lead",
	ActionUpdateLead:         "update_lead",
	ActionChangeLeadStatus:   "change_lead_status",
	ActionAssign:             "assign",
	ActionViewTask:           "view_task",
	ActionUpdateTask:         "update_task",
	ActionCompleteTask:       "complete_task",
	ActionDeleteTask:         "delete_task",
	ActionModifyContent:      "modify_content",
	ActionListEmployees:      "list_employees",
	ActionViewTeam:           "view_team",
	ActionCreateEmployee:     "create_employee",
	ActionUpdateEmployee:     "update_employee",
	ActionDeactivateEmployee: "deactivate_employee",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Target is the resource snapshot an action is evaluated against. Only the
// fields relevant to the action need to be set.
type Target struct {
	// Resource names the entity for not-found responses, e.g. "lead".
	Resource string
	// OwnerID is the current assignee of a lead or task.
	OwnerID *string
	// CreatorID is the author of an activity or uploader of a document.
	CreatorID string
	// Assignee is the proposed new assignee for ActionAssign.
	Assignee *domain.Employee
	// EmployeeID is the employee being mutated.
	EmployeeID string
	// NewRole is the requested role on an employee update, if any.
	NewRole domain.Role
	// Deactivate is set when an employee update clears the active flag.
	Deactivate bool
}

// DenyKind classifies a refusal.
type DenyKind int

const (
	DenyForbidden DenyKind = iota + 1
	DenyNotFound
)

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed  bool
	Kind     DenyKind
	Reason   string
	resource string
}

func allow() Decision { return Decision{Allowed: true} }

func forbid(reason string) Decision {
	return Decision{Kind: DenyForbidden, Reason: reason}
}

func hide(resource string) Decision {
	if resource == "" {
		resource = "resource"
	}
	return Decision{Kind: DenyNotFound, Reason: resource + " not found", resource: resource}
}

// Err converts a refusal to the matching domain error, or nil when allowed.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Kind == DenyNotFound:
		return apperrors.NewNotFound(d.resource, nil)
	default:
		return apperrors.NewForbidden(d.Reason)
	}
}

type rule func(actor auth.Identity, t Target) Decision

var rules = map[Action]rule{
	ActionViewLead:           ownerOrSupervisor,
	ActionUpdateLead:         ownerOrSupervisor,
	ActionChangeLeadStatus:   ownerOrSupervisor,
	ActionAssign:             assign,
	ActionViewTask:           ownerOrSupervisor,
	ActionUpdateTask:         ownerOrSupervisor,
	ActionCompleteTask:       completeTask,
	ActionDeleteTask:         deleteTask,
	ActionModifyContent:      creatorOrSupervisor,
	ActionListEmployees:      supervisorOnly,
	ActionViewTeam:           viewTeam,
	ActionCreateEmployee:     superAdminOnly,
	ActionUpdateEmployee:     mutateEmployee,
	ActionDeactivateEmployee: mutateEmployee,
}

// Authorize decides whether actor may perform action on target. Only
// active employees with a known role can be allowed anything.
func Authorize(actor auth.Identity, action Action, target Target) Decision {
	if !actor.IsEmployee() || !actor.Active || !actor.Role.Valid() {
		return forbid("employee credentials required")
	}
	r, ok := rules[action]
	if !ok {
		return forbid("unknown action")
	}
	return r(actor, target)
}

// Check is Authorize returning an error.
func Check(actor auth.Identity, action Action, target Target) error {
	return Authorize(actor, action, target).Err()
}

func owns(actor auth.Identity, ownerID *string) bool {
	return ownerID != nil && *ownerID == actor.ID
}

func ownerOrSupervisor(actor auth.Identity, t Target) Decision {
	if actor.Role.Supervises() || owns(actor, t.OwnerID) {
		return allow()
	}
	return hide(t.Resource)
}

func completeTask(actor auth.Identity, t Target) Decision {
	if owns(actor, t.OwnerID) {
		return allow()
	}
	if actor.Role == domain.RoleAgent {
		return hide(t.Resource)
	}
	return forbid("only the assignee can complete this task")
}

func deleteTask(actor auth.Identity, t Target) Decision {
	if actor.Role.Supervises() {
		return allow()
	}
	if !owns(actor, t.OwnerID) {
		return hide(t.Resource)
	}
	return forbid("insufficient role")
}

func assign(actor auth.Identity, t Target) Decision {
	if t.Assignee == nil {
		return forbid("assignee required")
	}
	if t.Assignee.ID == actor.ID {
		return allow()
	}
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return allow()
	case domain.RoleManager:
		if t.Assignee.ReportsTo(actor.ID) {
			return allow()
		}
		return forbid("not your team member")
	}
	return forbid("only managers can assign to other employees")
}

func creatorOrSupervisor(actor auth.Identity, t Target) Decision {
	if actor.Role.Supervises() || (t.CreatorID != "" && t.CreatorID == actor.ID) {
		return allow()
	}
	return forbid("you can only modify your own entries")
}

func supervisorOnly(actor auth.Identity, _ Target) Decision {
	if actor.Role.Supervises() {
		return allow()
	}
	return forbid("insufficient role")
}

func viewTeam(actor auth.Identity, t Target) Decision {
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return allow()
	case domain.RoleManager:
		if t.EmployeeID == actor.ID {
			return allow()
		}
		return forbid("not your team")
	}
	return forbid("insufficient role")
}

func superAdminOnly(actor auth.Identity, _ Target) Decision {
	if actor.Role == domain.RoleSuperAdmin {
		return allow()
	}
	return forbid("insufficient role")
}

func mutateEmployee(actor auth.Identity, t Target) Decision {
	if t.EmployeeID == actor.ID {
		if t.Deactivate {
			return forbid("cannot deactivate your own account")
		}
		if t.NewRole != "" && t.NewRole.Below(actor.Role) {
			return forbid("cannot demote your own account")
		}
	}
	return superAdminOnly(actor, t)
}
