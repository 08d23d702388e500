package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/repository"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

// TaskListFilter holds the caller's task filters.
type TaskListFilter struct {
	LeadID    *string
	Status    *domain.TaskStatus
	Priority  *domain.Priority
	DueBefore *time.Time
	Page
}

// TaskInput holds the fields of a new task.
type TaskInput struct {
	LeadID       string
	Title        string
	Description  *string
	Priority     domain.Priority
	DueDate      *time.Time
	AssignedToID *string
}

// TaskUpdateInput holds optional task changes.
type TaskUpdateInput struct {
	Title        *string
	Description  *string
	Priority     *domain.Priority
	DueDate      *time.Time
	ClearDueDate bool
	AssignedToID *string
}

// TaskService manages lead follow-up tasks.
type TaskService struct {
	tasks      repository.TaskRepository
	leads      repository.LeadRepository
	employees  repository.EmployeeRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TaskDependencies encapsulates requirements for the task service.
type TaskDependencies struct {
	TaskRepo     repository.TaskRepository
	LeadRepo     repository.LeadRepository
	EmployeeRepo repository.EmployeeRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewTaskService builds the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:      deps.TaskRepo,
		leads:      deps.LeadRepo,
		employees:  deps.EmployeeRepo,
		dispatcher: deps.Dispatcher,
		logger:     nopIfNil(deps.Logger),
		now:        time.Now,
	}
}

// List returns the tasks visible to actor.
func (s *TaskService) List(ctx context.Context, actor auth.Identity, filter TaskListFilter) ([]domain.Task, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	scope, err := access.ScopeFor(ctx, actor, s.employees)
	if err != nil {
		return nil, err
	}
	return s.tasks.List(ctx, repository.TaskFilter{
		Scope:     scope,
		LeadID:    filter.LeadID,
		Status:    filter.Status,
		Priority:  filter.Priority,
		DueBefore: filter.DueBefore,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	})
}

// Get loads a single task.
func (s *TaskService) Get(ctx context.Context, actor auth.Identity, id string) (*domain.Task, error) {
	return s.load(ctx, actor, access.ActionViewTask, id)
}

// Create adds a task to a lead the actor can see. Without an explicit
// assignee the task goes to the actor.
func (s *TaskService) Create(ctx context.Context, actor auth.Identity, input TaskInput) (*domain.Task, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(ctx, input.LeadID)
	if err != nil {
		return nil, notFound(err, "lead")
	}
	if err := access.Check(actor, access.ActionViewLead, access.Target{Resource: "lead", OwnerID: lead.AssignedToID}); err != nil {
		return nil, err
	}

	task := &domain.Task{
		LeadID:       lead.ID,
		AssignedToID: actor.ID,
		Title:        strings.TrimSpace(input.Title),
		Description:  trimmed(input.Description),
		Priority:     domain.PriorityMedium,
		Status:       domain.TaskStatusPending,
		DueDate:      input.DueDate,
	}
	if input.Priority != "" {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
		}
		task.Priority = input.Priority
	}
	if target := trimmed(input.AssignedToID); target != nil && *target != actor.ID {
		if _, err := resolveAssignee(ctx, s.employees, actor, *target); err != nil {
			return nil, err
		}
		task.AssignedToID = *target
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	if task.AssignedToID != actor.ID {
		s.publishAssigned(ctx, actor, task)
	}
	return task, nil
}

// Update edits a task. Reassignment follows the assignment rule.
func (s *TaskService) Update(ctx context.Context, actor auth.Identity, id string, input TaskUpdateInput) (*domain.Task, error) {
	task, err := s.load(ctx, actor, access.ActionUpdateTask, id)
	if err != nil {
		return nil, err
	}
	reassigned := false
	if target := trimmed(input.AssignedToID); target != nil && *target != task.AssignedToID {
		if _, err := resolveAssignee(ctx, s.employees, actor, *target); err != nil {
			return nil, err
		}
		task.AssignedToID = *target
		reassigned = true
	}
	setString(&task.Title, input.Title)
	if task.Title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	setOptional(&task.Description, input.Description)
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		task.Priority = *input.Priority
	}
	switch {
	case input.ClearDueDate:
		task.DueDate = nil
	case input.DueDate != nil:
		task.DueDate = input.DueDate
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, notFound(err, "task")
	}
	if reassigned && task.AssignedToID != actor.ID {
		s.publishAssigned(ctx, actor, task)
	}
	return task, nil
}

// Complete marks the actor's own task as done.
func (s *TaskService) Complete(ctx context.Context, actor auth.Identity, id string) (*domain.Task, error) {
	task, err := s.load(ctx, actor, access.ActionCompleteTask, id)
	if err != nil {
		return nil, err
	}
	if task.Status == domain.TaskStatusCompleted {
		return task, nil
	}
	now := s.now().UTC()
	task.Status = domain.TaskStatusCompleted
	task.CompletedAt = &now
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, notFound(err, "task")
	}
	return task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, actor auth.Identity, id string) error {
	task, err := s.load(ctx, actor, access.ActionDeleteTask, id)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return notFound(err, "task")
	}
	return nil
}

func (s *TaskService) load(ctx context.Context, actor auth.Identity, action access.Action, id string) (*domain.Task, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "task")
	}
	owner := task.AssignedToID
	if err := access.Check(actor, action, access.Target{Resource: "task", OwnerID: &owner}); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) publishAssigned(ctx context.Context, actor auth.Identity, task *domain.Task) {
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTaskAssigned, task.ID, actorOf(actor), events.TaskAssignedPayload{
		LeadID:     task.LeadID,
		AssigneeID: task.AssignedToID,
		Title:      task.Title,
		DueDate:    task.DueDate,
	}))
}
