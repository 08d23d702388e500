package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/repository"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

const recentLeadWindow = 7 * 24 * time.Hour

// LeadListFilter holds the caller's lead filters. They narrow the role scope, never widen it.
type LeadListFilter struct {
	Status       *domain.LeadStatus
	Priority     *domain.Priority
	Source       *domain.LeadSource
	AssignedToID *string
	Search       *string
	Page
}

// LeadInput holds the fields of a new lead.
type LeadInput struct {
	CompanyName    string
	Location       string
	State          string
	CreditRating   *string
	FirstName      string
	LastName       string
	Designation    *string
	Mobile1        string
	Mobile2        *string
	Landline       *string
	Landline2      *string
	Email1         string
	Email2         *string
	Status         domain.LeadStatus
	Priority       domain.Priority
	Remarks        *string
	EstimatedValue *decimal.Decimal
	AssignedToID   *string
}

// LeadUpdateInput holds optional lead changes. Assignment and status have their own operations.
type LeadUpdateInput struct {
	CompanyName    *string
	Location       *string
	State          *string
	CreditRating   *string
	FirstName      *string
	LastName       *string
	Designation    *string
	Mobile1        *string
	Mobile2        *string
	Landline       *string
	Landline2      *string
	Email1         *string
	Email2         *string
	Priority       *domain.Priority
	Remarks        *string
	EstimatedValue *decimal.Decimal
}

// LeadService implements the CRM lead pipeline.
type LeadService struct {
	leads      repository.LeadRepository
	activities repository.ActivityRepository
	employees  repository.EmployeeRepository
	tx         repository.TransactionManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// LeadDependencies encapsulates requirements for the lead service.
type LeadDependencies struct {
	LeadRepo     repository.LeadRepository
	ActivityRepo repository.ActivityRepository
	EmployeeRepo repository.EmployeeRepository
	TxManager    repository.TransactionManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewLeadService builds the service.
func NewLeadService(deps LeadDependencies) *LeadService {
	return &LeadService{
		leads:      deps.LeadRepo,
		activities: deps.ActivityRepo,
		employees:  deps.EmployeeRepo,
		tx:         deps.TxManager,
		dispatcher: deps.Dispatcher,
		logger:     nopIfNil(deps.Logger),
		now:        time.Now,
	}
}

// List returns the leads visible to actor plus the total matching count.
func (s *LeadService) List(ctx context.Context, actor auth.Identity, filter LeadListFilter) ([]domain.Lead, int64, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, 0, err
	}
	scope, err := access.ScopeFor(ctx, actor, s.employees)
	if err != nil {
		return nil, 0, err
	}
	if filter.AssignedToID != nil && actor.Role.Supervises() {
		scope = scope.Narrow(*filter.AssignedToID)
	}
	return s.leads.List(ctx, repository.LeadFilter{
		Scope:    scope,
		Status:   filter.Status,
		Priority: filter.Priority,
		Source:   filter.Source,
		Search:   filter.Search,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// Get loads a single lead. Agents get NOT_FOUND for leads they do not own.
func (s *LeadService) Get(ctx context.Context, actor auth.Identity, id string) (*domain.Lead, error) {
	return s.load(ctx, actor, access.ActionViewLead, id)
}

// Create adds a lead on behalf of an employee.
func (s *LeadService) Create(ctx context.Context, actor auth.Identity, input LeadInput) (*domain.Lead, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	lead := &domain.Lead{
		CompanyName:  strings.TrimSpace(input.CompanyName),
		Location:     strings.TrimSpace(input.Location),
		State:        strings.TrimSpace(input.State),
		CreditRating: trimmed(input.CreditRating),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Designation:  trimmed(input.Designation),
		Mobile1:      strings.TrimSpace(input.Mobile1),
		Mobile2:      trimmed(input.Mobile2),
		Landline:     trimmed(input.Landline),
		Landline2:    trimmed(input.Landline2),
		Email1:       normalizeEmail(input.Email1),
		Email2:       trimmed(input.Email2),
		Status:       domain.LeadStatusNew,
		Priority:     domain.PriorityMedium,
		Source:       domain.LeadSourceManual,
		Remarks:      trimmed(input.Remarks),
	}
	if input.Status != "" {
		if !input.Status.Valid() {
			return nil, invalidStatus(input.Status)
		}
		lead.Status = input.Status
	}
	if input.Priority != "" {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
		}
		lead.Priority = input.Priority
	}
	if input.EstimatedValue != nil {
		lead.EstimatedValue = decimal.NewNullDecimal(*input.EstimatedValue)
	}
	creator := actor.ID
	lead.CreatedByID = &creator

	switch target := trimmed(input.AssignedToID); {
	case target != nil:
		if _, err := s.assignee(ctx, actor, *target); err != nil {
			return nil, err
		}
		lead.AssignedToID = target
	case actor.Role == domain.RoleAgent:
		self := actor.ID
		lead.AssignedToID = &self
	}

	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventLeadCreated, lead.ID, actorOf(actor), events.LeadCreatedPayload{Lead: *lead}))
	if lead.AssignedToID != nil && *lead.AssignedToID != actor.ID {
		s.publishAssigned(ctx, actor, lead, nil)
	}
	return lead, nil
}

// Update changes descriptive lead fields.
func (s *LeadService) Update(ctx context.Context, actor auth.Identity, id string, input LeadUpdateInput) (*domain.Lead, error) {
	lead, err := s.load(ctx, actor, access.ActionUpdateLead, id)
	if err != nil {
		return nil, err
	}
	setString(&lead.CompanyName, input.CompanyName)
	setString(&lead.Location, input.Location)
	setString(&lead.State, input.State)
	setString(&lead.FirstName, input.FirstName)
	setString(&lead.LastName, input.LastName)
	setString(&lead.Mobile1, input.Mobile1)
	if input.Email1 != nil {
		lead.Email1 = normalizeEmail(*input.Email1)
	}
	setOptional(&lead.CreditRating, input.CreditRating)
	setOptional(&lead.Designation, input.Designation)
	setOptional(&lead.Mobile2, input.Mobile2)
	setOptional(&lead.Landline, input.Landline)
	setOptional(&lead.Landline2, input.Landline2)
	setOptional(&lead.Email2, input.Email2)
	setOptional(&lead.Remarks, input.Remarks)
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		lead.Priority = *input.Priority
	}
	if input.EstimatedValue != nil {
		lead.EstimatedValue = decimal.NewNullDecimal(*input.EstimatedValue)
	}

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, notFound(err, "lead")
	}
	return lead, nil
}

// Assign moves a lead to another employee.
func (s *LeadService) Assign(ctx context.Context, actor auth.Identity, id, assigneeID string) (*domain.Lead, error) {
	lead, err := s.load(ctx, actor, access.ActionViewLead, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.assignee(ctx, actor, assigneeID); err != nil {
		return nil, err
	}
	if lead.AssignedTo(assigneeID) {
		return lead, nil
	}

	previous := lead.AssignedToID
	lead.AssignedToID = &assigneeID
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, notFound(err, "lead")
	}
	s.logger.Info("lead assigned", zap.String("lead_id", lead.ID), zap.String("assignee_id", assigneeID), zap.String("by", actor.ID))
	s.publishAssigned(ctx, actor, lead, previous)
	return lead, nil
}

// ChangeStatus moves a lead through the pipeline and logs the move as an activity.
func (s *LeadService) ChangeStatus(ctx context.Context, actor auth.Identity, id string, status domain.LeadStatus) (*domain.Lead, error) {
	if !status.Valid() {
		return nil, invalidStatus(status)
	}
	lead, err := s.load(ctx, actor, access.ActionChangeLeadStatus, id)
	if err != nil {
		return nil, err
	}
	old := lead.Status
	now := s.now().UTC()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		lead.Status = status
		lead.LastContactedAt = &now
		if err := s.leads.Update(txCtx, lead); err != nil {
			return notFound(err, "lead")
		}
		subject := fmt.Sprintf("Status changed from %s to %s", old, status)
		return s.activities.Create(txCtx, &domain.Activity{
			LeadID:     lead.ID,
			EmployeeID: actor.ID,
			Type:       domain.ActivityStatusChange,
			Subject:    &subject,
		})
	})
	if err != nil {
		return nil, err
	}

	if old != status {
		publish(ctx, s.dispatcher, s.logger, events.New(events.EventLeadStatusChanged, lead.ID, actorOf(actor),
			events.LeadStatusChangedPayload{OldStatus: old, NewStatus: status}))
	}
	return lead, nil
}

// Stats aggregates dashboard figures over the leads visible to actor.
func (s *LeadService) Stats(ctx context.Context, actor auth.Identity) (domain.LeadStats, error) {
	if err := requireEmployee(actor); err != nil {
		return domain.LeadStats{}, err
	}
	scope, err := access.ScopeFor(ctx, actor, s.employees)
	if err != nil {
		return domain.LeadStats{}, err
	}
	return s.leads.Stats(ctx, scope, s.now().Add(-recentLeadWindow))
}

// load fetches a lead and authorizes action against it.
func (s *LeadService) load(ctx context.Context, actor auth.Identity, action access.Action, id string) (*domain.Lead, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "lead")
	}
	if err := access.Check(actor, action, access.Target{Resource: "lead", OwnerID: lead.AssignedToID}); err != nil {
		return nil, err
	}
	return lead, nil
}

// assignee loads a proposed assignee and authorizes the assignment.
func (s *LeadService) assignee(ctx context.Context, actor auth.Identity, id string) (*domain.Employee, error) {
	return resolveAssignee(ctx, s.employees, actor, id)
}

func (s *LeadService) publishAssigned(ctx context.Context, actor auth.Identity, lead *domain.Lead, previous *string) {
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventLeadAssigned, lead.ID, actorOf(actor), events.LeadAssignedPayload{
		PreviousAssigneeID: previous,
		AssigneeID:         *lead.AssignedToID,
		CompanyName:        lead.CompanyName,
	}))
}

// resolveAssignee is shared by leads and tasks.
func resolveAssignee(ctx context.Context, employees repository.EmployeeRepository, actor auth.Identity, id string) (*domain.Employee, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("assignedToId is required", nil)
	}
	if actor.Role == domain.RoleAgent && id != actor.ID {
		return nil, access.Check(actor, access.ActionAssign, access.Target{Assignee: &domain.Employee{ID: id}})
	}
	assignee, err := employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	if err := access.Check(actor, access.ActionAssign, access.Target{Assignee: assignee}); err != nil {
		return nil, err
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee is deactivated", nil)
	}
	return assignee, nil
}

func invalidStatus(status domain.LeadStatus) error {
	return apperrors.NewValidationError("invalid status", map[string]any{
		"status":  status,
		"allowed": domain.LeadStatuses,
	})
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setOptional(dst **string, src *string) {
	if src != nil {
		*dst = trimmed(src)
	}
}
