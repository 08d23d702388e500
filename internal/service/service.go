package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/repository"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

// notFound maps a missing row to a NOT_FOUND domain error for resource.
func notFound(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

// authorizeContent gates changes to an activity or document. Anyone but the
// author must first be able to see the parent lead; otherwise the entry is
// reported missing, same as an unknown id.
func authorizeContent(ctx context.Context, leads repository.LeadRepository, actor auth.Identity, resource, leadID, creatorID string) error {
	if creatorID == "" || creatorID != actor.ID {
		lead, err := leads.GetByID(ctx, leadID)
		if err != nil {
			return notFound(err, resource)
		}
		if err := access.Check(actor, access.ActionViewLead, access.Target{Resource: resource, OwnerID: lead.AssignedToID}); err != nil {
			return err
		}
	}
	return access.Check(actor, access.ActionModifyContent, access.Target{Resource: resource, CreatorID: creatorID})
}

// publish hands an event to the dispatcher. Dispatch problems never fail the caller.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func actorOf(identity auth.Identity) events.Actor {
	switch {
	case identity.IsEmployee():
		id := identity.ID
		return events.Actor{Type: domain.SubjectTypeEmployee, ID: &id}
	case identity.IsBuyer():
		id := identity.ID
		return events.Actor{Type: domain.SubjectTypeBuyer, ID: &id}
	case identity.IsAdmin():
		return events.Actor{Type: domain.SubjectTypeAdmin}
	}
	return events.Actor{}
}

func requireEmployee(identity auth.Identity) error {
	if !identity.IsEmployee() {
		return apperrors.NewUnauthorized("employee credentials required")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// trimmed returns nil for nil or blank input.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
