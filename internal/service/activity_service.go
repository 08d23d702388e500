package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/repository"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

// ActivityInput holds the fields of a logged interaction.
type ActivityInput struct {
	Type        domain.ActivityType
	Subject     *string
	Description *string
	Outcome     *string
	Duration    *int
}

// ActivityUpdateInput holds optional changes. The type cannot change.
type ActivityUpdateInput struct {
	Subject     *string
	Description *string
	Outcome     *string
	Duration    *int
}

// ActivityService manages the lead interaction log.
type ActivityService struct {
	activities repository.ActivityRepository
	leads      repository.LeadRepository
	employees  repository.EmployeeRepository
	tx         repository.TransactionManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ActivityDependencies encapsulates requirements for the activity service.
type ActivityDependencies struct {
	ActivityRepo repository.ActivityRepository
	LeadRepo     repository.LeadRepository
	EmployeeRepo repository.EmployeeRepository
	TxManager    repository.TransactionManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewActivityService builds the service.
func NewActivityService(deps ActivityDependencies) *ActivityService {
	return &ActivityService{
		activities: deps.ActivityRepo,
		leads:      deps.LeadRepo,
		employees:  deps.EmployeeRepo,
		tx:         deps.TxManager,
		dispatcher: deps.Dispatcher,
		logger:     nopIfNil(deps.Logger),
		now:        time.Now,
	}
}

// ListForLead returns the log of a lead the actor can see.
func (s *ActivityService) ListForLead(ctx context.Context, actor auth.Identity, leadID string, activityType *domain.ActivityType, page Page) ([]domain.Activity, error) {
	if _, err := s.lead(ctx, actor, leadID); err != nil {
		return nil, err
	}
	// The lead check above already authorizes every entry on it.
	return s.activities.List(ctx, repository.ActivityFilter{
		Scope:  access.AllRows(),
		LeadID: &leadID,
		Type:   activityType,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// List returns recent activities across the leads visible to actor.
func (s *ActivityService) List(ctx context.Context, actor auth.Identity, activityType *domain.ActivityType, page Page) ([]domain.Activity, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	scope, err := access.ScopeFor(ctx, actor, s.employees)
	if err != nil {
		return nil, err
	}
	return s.activities.List(ctx, repository.ActivityFilter{
		Scope:  scope,
		Type:   activityType,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// Create logs an interaction and stamps the lead as contacted.
func (s *ActivityService) Create(ctx context.Context, actor auth.Identity, leadID string, input ActivityInput) (*domain.Activity, error) {
	if !input.Type.Valid() {
		return nil, apperrors.NewValidationError("invalid activity type", map[string]any{
			"type":    input.Type,
			"allowed": domain.ActivityTypes,
		})
	}
	if input.Duration != nil && *input.Duration < 0 {
		return nil, apperrors.NewValidationError("duration must not be negative", nil)
	}
	lead, err := s.lead(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}

	activity := &domain.Activity{
		LeadID:      lead.ID,
		EmployeeID:  actor.ID,
		Type:        input.Type,
		Subject:     trimmed(input.Subject),
		Description: trimmed(input.Description),
		Outcome:     trimmed(input.Outcome),
		Duration:    input.Duration,
	}
	now := s.now().UTC()
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.activities.Create(txCtx, activity); err != nil {
			return err
		}
		lead.LastContactedAt = &now
		return notFound(s.leads.Update(txCtx, lead), "lead")
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventActivityLogged, activity.ID, actorOf(actor), events.ActivityLoggedPayload{
		LeadID:       lead.ID,
		ActivityID:   activity.ID,
		ActivityType: activity.Type,
	}))
	return activity, nil
}

// Update edits an entry. Only its creator or a supervisor may do so.
func (s *ActivityService) Update(ctx context.Context, actor auth.Identity, id string, input ActivityUpdateInput) (*domain.Activity, error) {
	activity, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if input.Duration != nil && *input.Duration < 0 {
		return nil, apperrors.NewValidationError("duration must not be negative", nil)
	}
	setOptional(&activity.Subject, input.Subject)
	setOptional(&activity.Description, input.Description)
	setOptional(&activity.Outcome, input.Outcome)
	if input.Duration != nil {
		activity.Duration = input.Duration
	}
	if err := s.activities.Update(ctx, activity); err != nil {
		return nil, notFound(err, "activity")
	}
	return activity, nil
}

// Delete removes an entry. Only its creator or a supervisor may do so.
func (s *ActivityService) Delete(ctx context.Context, actor auth.Identity, id string) error {
	activity, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	return notFound(s.activities.Delete(ctx, activity.ID), "activity")
}

func (s *ActivityService) lead(ctx context.Context, actor auth.Identity, leadID string) (*domain.Lead, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, notFound(err, "lead")
	}
	if err := access.Check(actor, access.ActionViewLead, access.Target{Resource: "lead", OwnerID: lead.AssignedToID}); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *ActivityService) load(ctx context.Context, actor auth.Identity, id string) (*domain.Activity, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "activity")
	}
	if err := authorizeContent(ctx, s.leads, actor, "activity", activity.LeadID, activity.EmployeeID); err != nil {
		return nil, err
	}
	return activity, nil
}
