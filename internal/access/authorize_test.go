package access

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

var (
	agentA1    = employee("A1", domain.RoleAgent, ptr("M"))
	agentA2    = employee("A2", domain.RoleAgent, ptr("M2"))
	managerM   = employee("M", domain.RoleManager, nil)
	superAdmin = employee("S", domain.RoleSuperAdmin, nil)
)

func statusOf(t *testing.T, d Decision) int {
	t.Helper()
	err := d.Err()
	if err == nil {
		return http.StatusOK
	}
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	return de.HTTPStatus
}

func TestEveryActionHasARule(t *testing.T) {
	for action := range actionNames {
		_, ok := rules[action]
		assert.True(t, ok, action.String())
	}
	assert.Len(t, rules, len(actionNames))
}

func TestNonEmployeesAreDenied(t *testing.T) {
	for _, identity := range []auth.Identity{
		auth.Anonymous(),
		auth.BuyerIdentity("B1", "b@example.com"),
		auth.AdminIdentity("admin@example.com"),
	} {
		d := Authorize(identity, ActionViewLead, Target{Resource: "lead", OwnerID: ptr(identity.ID)})
		assert.False(t, d.Allowed)
		assert.Equal(t, DenyForbidden, d.Kind)
	}
}

func TestLeadOwnershipCheck(t *testing.T) {
	target := Target{Resource: "lead", OwnerID: ptr("A1")}

	assert.True(t, Authorize(agentA1, ActionViewLead, target).Allowed)
	assert.Equal(t, http.StatusNotFound, statusOf(t, Authorize(agentA2, ActionViewLead, target)))
	assert.Equal(t, http.StatusNotFound, statusOf(t, Authorize(agentA2, ActionUpdateLead, target)))
	assert.Equal(t, http.StatusNotFound, statusOf(t, Authorize(agentA2, ActionChangeLeadStatus, Target{Resource: "lead"})))

	assert.True(t, Authorize(managerM, ActionUpdateLead, Target{Resource: "lead", OwnerID: ptr("A2")}).Allowed)
	assert.True(t, Authorize(superAdmin, ActionChangeLeadStatus, Target{Resource: "lead"}).Allowed)
}

func TestAssignment(t *testing.T) {
	a1 := &domain.Employee{ID: "A1", Role: domain.RoleAgent, ManagerID: ptr("M"), Active: true}
	a3 := &domain.Employee{ID: "A3", Role: domain.RoleAgent, ManagerID: ptr("M2"), Active: true}
	m := &domain.Employee{ID: "M", Role: domain.RoleManager, Active: true}

	assert.True(t, Authorize(managerM, ActionAssign, Target{Assignee: a1}).Allowed)
	assert.True(t, Authorize(managerM, ActionAssign, Target{Assignee: m}).Allowed)

	denied := Authorize(managerM, ActionAssign, Target{Assignee: a3})
	assert.False(t, denied.Allowed)
	assert.Equal(t, "not your team member", denied.Reason)
	assert.Equal(t, http.StatusForbidden, statusOf(t, denied))

	assert.True(t, Authorize(superAdmin, ActionAssign, Target{Assignee: a3}).Allowed)

	assert.True(t, Authorize(agentA1, ActionAssign, Target{Assignee: a1}).Allowed)
	assert.False(t, Authorize(agentA1, ActionAssign, Target{Assignee: a3}).Allowed)
	assert.False(t, Authorize(superAdmin, ActionAssign, Target{}).Allowed)
}

func TestTaskCompletionIsAssigneeOnly(t *testing.T) {
	task := Target{Resource: "task", OwnerID: ptr("A1")}

	assert.True(t, Authorize(agentA1, ActionCompleteTask, task).Allowed)
	assert.Equal(t, http.StatusNotFound, statusOf(t, Authorize(agentA2, ActionCompleteTask, task)))
	assert.Equal(t, http.StatusForbidden, statusOf(t, Authorize(managerM, ActionCompleteTask, task)))
	assert.Equal(t, http.StatusForbidden, statusOf(t, Authorize(superAdmin, ActionCompleteTask, task)))

	assert.True(t, Authorize(managerM, ActionUpdateTask, task).Allowed)
	assert.True(t, Authorize(managerM, ActionDeleteTask, task).Allowed)
	assert.Equal(t, http.StatusForbidden, statusOf(t, Authorize(agentA1, ActionDeleteTask, task)))
	assert.Equal(t, http.StatusNotFound, statusOf(t, Authorize(agentA2, ActionDeleteTask, task)))
}

func TestCreatedContent(t *testing.T) {
	own := Target{CreatorID: "A1"}
	assert.True(t, Authorize(agentA1, ActionModifyContent, own).Allowed)
	assert.True(t, Authorize(managerM, ActionModifyContent, own).Allowed)
	assert.True(t, Authorize(superAdmin, ActionModifyContent, own).Allowed)
	assert.Equal(t, http.StatusForbidden, statusOf(t, Authorize(agentA2, ActionModifyContent, own)))
	assert.False(t, Authorize(agentA1, ActionModifyContent, Target{}).Allowed)
}

func TestSelfProtection(t *testing.T) {
	self := Target{EmployeeID: "S", Deactivate: true}
	d := Authorize(superAdmin, ActionDeactivateEmployee, self)
	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, statusOf(t, d))

	assert.True(t, Authorize(superAdmin, ActionDeactivateEmployee, Target{EmployeeID: "A1", Deactivate: true}).Allowed)

	demote := Target{EmployeeID: "S", NewRole: domain.RoleManager}
	assert.False(t, Authorize(superAdmin, ActionUpdateEmployee, demote).Allowed)
	assert.True(t, Authorize(superAdmin, ActionUpdateEmployee, Target{EmployeeID: "S", NewRole: domain.RoleSuperAdmin}).Allowed)
	assert.True(t, Authorize(superAdmin, ActionUpdateEmployee, Target{EmployeeID: "A1", NewRole: domain.RoleManager}).Allowed)

	assert.False(t, Authorize(managerM, ActionUpdateEmployee, Target{EmployeeID: "A1"}).Allowed)
}

func TestEmployeeAdministrationRoles(t *testing.T) {
	assert.False(t, Authorize(agentA1, ActionListEmployees, Target{}).Allowed)
	assert.True(t, Authorize(managerM, ActionListEmployees, Target{}).Allowed)
	assert.True(t, Authorize(managerM, ActionViewTeam, Target{EmployeeID: "M"}).Allowed)
	assert.False(t, Authorize(managerM, ActionViewTeam, Target{EmployeeID: "M2"}).Allowed)
	assert.True(t, Authorize(superAdmin, ActionViewTeam, Target{EmployeeID: "M2"}).Allowed)
	assert.False(t, Authorize(managerM, ActionCreateEmployee, Target{}).Allowed)
	assert.True(t, Authorize(superAdmin, ActionCreateEmployee, Target{}).Allowed)
}

func TestUnknownActionDenied(t *testing.T) {
	assert.False(t, Authorize(superAdmin, Action(999), Target{}).Allowed)
}
