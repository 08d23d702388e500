package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/config"
	"github.com/spec-kit/ppa-crm/internal/domain"
)

func newEmployeeFixture() (org, *EmployeeService) {
	o := newOrg()
	svc := NewEmployeeService(config.Config{Auth: config.AuthConfig{BcryptCost: testCost}}, EmployeeDependencies{
		EmployeeRepo: o.employees,
	})
	return o, svc
}

func employeeIDs(employees []domain.Employee) []string {
	out := make([]string, 0, len(employees))
	for _, e := range employees {
		out = append(out, e.ID)
	}
	return out
}

func TestEmployeeListByRole(t *testing.T) {
	o, svc := newEmployeeFixture()
	ctx := context.Background()

	all, err := svc.List(ctx, identityOf(o.super), EmployeeListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "A3", "M", "S"}, employeeIDs(all))

	team, err := svc.List(ctx, identityOf(o.manager), EmployeeListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "M"}, employeeIDs(team))

	agent := domain.RoleAgent
	agents, err := svc.List(ctx, identityOf(o.manager), EmployeeListFilter{Role: &agent})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, employeeIDs(agents))

	_, err = svc.List(ctx, identityOf(o.a1), EmployeeListFilter{})
	assert.Equal(t, "FORBIDDEN", errCode(err))
}

func TestEmployeeMe(t *testing.T) {
	o, svc := newEmployeeFixture()
	ctx := context.Background()

	profile, err := svc.Me(ctx, identityOf(o.a1))
	require.NoError(t, err)
	require.NotNil(t, profile.Manager)
	assert.Equal(t, "M", profile.Manager.ID)
	assert.Empty(t, profile.Reports)

	profile, err = svc.Me(ctx, identityOf(o.manager))
	require.NoError(t, err)
	assert.Nil(t, profile.Manager)
	assert.Equal(t, []string{"A1", "A2"}, employeeIDs(profile.Reports))

	_, err = svc.Me(ctx, auth.AdminIdentity("admin@example.com"))
	assert.Equal(t, "UNAUTHORIZED", errCode(err))
}

func TestEmployeeTeam(t *testing.T) {
	o, svc := newEmployeeFixture()
	ctx := context.Background()

	team, err := svc.Team(ctx, identityOf(o.manager), "M")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, employeeIDs(team))

	_, err = svc.Team(ctx, identityOf(o.manager), "S")
	assert.Equal(t, "FORBIDDEN", errCode(err))

	_, err = svc.Team(ctx, identityOf(o.a1), "M")
	assert.Equal(t, "FORBIDDEN", errCode(err))

	team, err = svc.Team(ctx, identityOf(o.super), "A1")
	require.NoError(t, err)
	assert.Empty(t, team)

	_, err = svc.Team(ctx, identityOf(o.super), "nobody")
	assert.Equal(t, "NOT_FOUND", errCode(err))
}

func TestEmployeeCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("super admin creates an agent under a manager", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		created, err := svc.Create(ctx, identityOf(o.super), CreateEmployeeInput{
			Email:     " New.Agent@Example.com ",
			Password:  "s3cret-pass",
			FirstName: "Nia",
			Role:      domain.RoleAgent,
			ManagerID: strPtr("M"),
		})
		require.NoError(t, err)
		assert.Equal(t, "new.agent@example.com", created.Email)
		assert.True(t, created.Active)
		assert.NotEqual(t, "s3cret-pass", created.PasswordHash)
		require.NoError(t, auth.ComparePassword(created.PasswordHash, "s3cret-pass"))
		require.NotNil(t, created.ManagerID)
		assert.Equal(t, "M", *created.ManagerID)
	})

	t.Run("only super admins create employees", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		_, err := svc.Create(ctx, identityOf(o.manager), CreateEmployeeInput{Email: "x@example.com", Password: "pw-123456", Role: domain.RoleAgent})
		assert.Equal(t, "FORBIDDEN", errCode(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		_, err := svc.Create(ctx, identityOf(o.super), CreateEmployeeInput{Email: "a1@example.com", Password: "pw-123456", Role: domain.RoleAgent})
		assert.Equal(t, "CONFLICT", errCode(err))
	})

	t.Run("manager must be a manager", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		_, err := svc.Create(ctx, identityOf(o.super), CreateEmployeeInput{Email: "x@example.com", Password: "pw-123456", Role: domain.RoleAgent, ManagerID: strPtr("A2")})
		assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	})

	t.Run("only agents have managers", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		_, err := svc.Create(ctx, identityOf(o.super), CreateEmployeeInput{Email: "x@example.com", Password: "pw-123456", Role: domain.RoleManager, ManagerID: strPtr("M")})
		assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	})

	t.Run("invalid role", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		_, err := svc.Create(ctx, identityOf(o.super), CreateEmployeeInput{Email: "x@example.com", Password: "pw-123456", Role: "owner"})
		assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	})
}

func TestEmployeeUpdate(t *testing.T) {
	ctx := context.Background()
	inactive := false
	manager := domain.RoleManager

	t.Run("self deactivation is refused before the row is read", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		_, err := svc.Update(ctx, identityOf(o.super), "S", UpdateEmployeeInput{Active: &inactive})
		assert.Equal(t, "FORBIDDEN", errCode(err))
		assert.True(t, o.employees.rows["S"].Active)
	})

	t.Run("self demotion is refused", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		_, err := svc.Update(ctx, identityOf(o.super), "S", UpdateEmployeeInput{Role: &manager})
		assert.Equal(t, "FORBIDDEN", errCode(err))
		assert.Equal(t, domain.RoleSuperAdmin, o.employees.rows["S"].Role)
	})

	t.Run("self rename is allowed", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		updated, err := svc.Update(ctx, identityOf(o.super), "S", UpdateEmployeeInput{FirstName: strPtr(" Samira ")})
		require.NoError(t, err)
		assert.Equal(t, "Samira", updated.FirstName)
	})

	t.Run("managers cannot edit their reports", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		_, err := svc.Update(ctx, identityOf(o.manager), "A1", UpdateEmployeeInput{FirstName: strPtr("x")})
		assert.Equal(t, "FORBIDDEN", errCode(err))
	})

	t.Run("promotion drops the manager link", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		updated, err := svc.Update(ctx, identityOf(o.super), "A1", UpdateEmployeeInput{Role: &manager})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleManager, updated.Role)
		assert.Nil(t, updated.ManagerID)
	})

	t.Run("manager link can be set and cleared", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		updated, err := svc.Update(ctx, identityOf(o.super), "A3", UpdateEmployeeInput{ManagerID: strPtr("M")})
		require.NoError(t, err)
		require.NotNil(t, updated.ManagerID)
		assert.Equal(t, "M", *updated.ManagerID)

		updated, err = svc.Update(ctx, identityOf(o.super), "A3", UpdateEmployeeInput{ClearManager: true})
		require.NoError(t, err)
		assert.Nil(t, updated.ManagerID)
	})

	t.Run("password is rehashed", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		updated, err := svc.Update(ctx, identityOf(o.super), "A2", UpdateEmployeeInput{Password: strPtr("rotated-pass")})
		require.NoError(t, err)
		require.NoError(t, auth.ComparePassword(updated.PasswordHash, "rotated-pass"))
	})

	t.Run("manager with reports cannot be demoted", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		agent := domain.RoleAgent
		_, err := svc.Update(ctx, identityOf(o.super), "M", UpdateEmployeeInput{Role: &agent})
		assert.Equal(t, "CONFLICT", errCode(err))
		assert.Equal(t, domain.RoleManager, o.employees.rows["M"].Role)
	})

	t.Run("manager with reports cannot be deactivated", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		_, err := svc.Update(ctx, identityOf(o.super), "M", UpdateEmployeeInput{Active: &inactive})
		assert.Equal(t, "CONFLICT", errCode(err))
		assert.True(t, o.employees.rows["M"].Active)
	})

	t.Run("manager rename ignores reports", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		updated, err := svc.Update(ctx, identityOf(o.super), "M", UpdateEmployeeInput{FirstName: strPtr("Mina")})
		require.NoError(t, err)
		assert.Equal(t, "Mina", updated.FirstName)
	})

	t.Run("unknown employee", func(t *testing.T) {
		o, svc := newEmployeeFixture()
		_, err := svc.Update(ctx, identityOf(o.super), "ghost", UpdateEmployeeInput{FirstName: strPtr("x")})
		assert.Equal(t, "NOT_FOUND", errCode(err))
	})
}

func TestEmployeeDeactivate(t *testing.T) {
	o, svc := newEmployeeFixture()
	ctx := context.Background()

	require.NoError(t, svc.Deactivate(ctx, identityOf(o.super), "A1"))
	assert.False(t, o.employees.rows["A1"].Active)

	// Repeating is a no-op.
	require.NoError(t, svc.Deactivate(ctx, identityOf(o.super), "A1"))

	assert.Equal(t, "FORBIDDEN", errCode(svc.Deactivate(ctx, identityOf(o.super), "S")))
	assert.Equal(t, "FORBIDDEN", errCode(svc.Deactivate(ctx, identityOf(o.manager), "A2")))
	assert.Equal(t, "NOT_FOUND", errCode(svc.Deactivate(ctx, identityOf(o.super), "ghost")))
}

func TestEmployeeDeactivateManagerNeedsEmptyTeam(t *testing.T) {
	o, svc := newEmployeeFixture()
	ctx := context.Background()

	assert.Equal(t, "CONFLICT", errCode(svc.Deactivate(ctx, identityOf(o.super), "M")))
	assert.True(t, o.employees.rows["M"].Active)

	for _, id := range []string{"A1", "A2"} {
		_, err := svc.Update(ctx, identityOf(o.super), id, UpdateEmployeeInput{ClearManager: true})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Deactivate(ctx, identityOf(o.super), "M"))
	assert.False(t, o.employees.rows["M"].Active)
}
