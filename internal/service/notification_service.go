package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/mail"
	"github.com/spec-kit/ppa-crm/internal/repository"
)

const dateLayout = "02 Jan 2006"

// NotificationService turns domain events into emails.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     mail.Sender
	adminEmail string
	leads      repository.LeadRepository
	employees  repository.EmployeeRepository
	activities repository.ActivityRepository
	logger     *zap.Logger
}

// NotificationDependencies encapsulates requirements for the notification service.
type NotificationDependencies struct {
	Dispatcher   events.Dispatcher
	Sender       mail.Sender
	AdminEmail   string
	LeadRepo     repository.LeadRepository
	EmployeeRepo repository.EmployeeRepository
	ActivityRepo repository.ActivityRepository
	Logger       *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		sender:     deps.Sender,
		adminEmail: strings.TrimSpace(deps.AdminEmail),
		leads:      deps.LeadRepo,
		employees:  deps.EmployeeRepo,
		activities: deps.ActivityRepo,
		logger:     nopIfNil(deps.Logger),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventLeadCreated, n.handleLeadCreated)
	n.dispatcher.Subscribe(events.EventLeadAssigned, n.handleLeadAssigned)
	n.dispatcher.Subscribe(events.EventLeadStatusChanged, n.handleLeadStatusChanged)
	n.dispatcher.Subscribe(events.EventTaskAssigned, n.handleTaskAssigned)
	n.dispatcher.Subscribe(events.EventActivityLogged, n.handleActivityLogged)
	n.dispatcher.Subscribe(events.EventMatchCreated, n.handleMatchCreated)
	n.dispatcher.Subscribe(events.EventTermsAgreed, n.handleTermsAgreed)
}

func (n *NotificationService) handleLeadCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LeadCreatedPayload)
	if !ok || payload.Lead.Source != domain.LeadSourceWebsite {
		return nil
	}
	n.logger.Info("LeadCreated", zap.String("lead_id", event.ResourceID))
	subject := fmt.Sprintf("New Lead: %s", payload.Lead.CompanyName)
	return n.send(ctx, n.adminEmail, subject, "new_lead.html", payload.Lead)
}

func (n *NotificationService) handleLeadAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LeadAssignedPayload)
	if !ok {
		return nil
	}
	assignee, err := n.employees.GetByID(ctx, payload.AssigneeID)
	if err != nil {
		return err
	}
	return n.send(ctx, assignee.Email, "Lead assigned: "+payload.CompanyName, "lead_assigned.html", map[string]any{
		"AssigneeName": assignee.FullName(),
		"CompanyName":  payload.CompanyName,
		"AssignedBy":   n.actorName(ctx, event.Actor),
	})
}

func (n *NotificationService) handleLeadStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LeadStatusChangedPayload)
	if !ok {
		return nil
	}
	lead, err := n.leads.GetByID(ctx, event.ResourceID)
	if err != nil {
		return err
	}
	recipient := n.adminEmail
	if lead.AssignedToID != nil && (event.Actor.ID == nil || *event.Actor.ID != *lead.AssignedToID) {
		if assignee, err := n.employees.GetByID(ctx, *lead.AssignedToID); err == nil {
			recipient = assignee.Email
		}
	}
	if !payload.NewStatus.Closed() && recipient == n.adminEmail {
		return nil
	}
	subject := fmt.Sprintf("Lead %s moved to %s", lead.CompanyName, payload.NewStatus)
	return n.send(ctx, recipient, subject, "lead_status.html", map[string]any{
		"CompanyName": lead.CompanyName,
		"OldStatus":   payload.OldStatus,
		"NewStatus":   payload.NewStatus,
		"ChangedBy":   n.actorName(ctx, event.Actor),
	})
}

func (n *NotificationService) handleTaskAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TaskAssignedPayload)
	if !ok {
		return nil
	}
	assignee, err := n.employees.GetByID(ctx, payload.AssigneeID)
	if err != nil {
		return err
	}
	return n.send(ctx, assignee.Email, "New task: "+payload.Title, "task_assigned.html", map[string]any{
		"AssigneeName": assignee.FullName(),
		"Title":        payload.Title,
		"DueDate":      formatDate(payload.DueDate),
	})
}

// handleActivityLogged tells the lead owner when someone else logs against their lead.
func (n *NotificationService) handleActivityLogged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ActivityLoggedPayload)
	if !ok {
		return nil
	}
	lead, err := n.leads.GetByID(ctx, payload.LeadID)
	if err != nil {
		return err
	}
	if lead.AssignedToID == nil || (event.Actor.ID != nil && *event.Actor.ID == *lead.AssignedToID) {
		return nil
	}
	owner, err := n.employees.GetByID(ctx, *lead.AssignedToID)
	if err != nil {
		return err
	}
	activity, err := n.activities.GetByID(ctx, payload.ActivityID)
	if err != nil {
		return err
	}
	return n.send(ctx, owner.Email, "Activity on "+lead.CompanyName, "activity.html", map[string]any{
		"EmployeeName": n.actorName(ctx, event.Actor),
		"Type":         activity.Type,
		"CompanyName":  lead.CompanyName,
		"Subject":      activity.Subject,
		"Outcome":      activity.Outcome,
	})
}

// handleMatchCreated emails the buyer. The seller is masked because no terms exist yet.
func (n *NotificationService) handleMatchCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MatchCreatedPayload)
	if !ok || payload.Match.Buyer == nil {
		return nil
	}
	view := access.ProjectMatchForBuyer(&payload.Match)
	n.logger.Info("MatchCreated", zap.String("match_id", event.ResourceID))
	return n.send(ctx, payload.Match.Buyer.Email, "You have a new PPA match", "match.html", map[string]any{
		"BuyerName": payload.Match.Buyer.FullName(),
		"Seller":    view.Seller,
	})
}

func (n *NotificationService) handleTermsAgreed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TermsAgreedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("TermsAgreed", zap.String("match_id", event.ResourceID))
	data := map[string]any{"AgreedAt": payload.Agreement.AgreedAt.Format(time.RFC1123)}
	if buyer := payload.Match.Buyer; buyer != nil {
		data["BuyerName"] = buyer.FullName()
		data["BuyerEmail"] = buyer.Email
		data["BuyerCompany"] = buyer.CompanyName
	}
	if seller := payload.Match.Seller; seller != nil {
		data["SellerCompany"] = seller.CompanyName
	}
	return n.send(ctx, n.adminEmail, "Terms agreed on a PPA match", "terms_agreed.html", data)
}

func (n *NotificationService) send(ctx context.Context, to, subject, template string, data any) error {
	if n.sender == nil || strings.TrimSpace(to) == "" {
		return nil
	}
	body, err := mail.Render(template, data)
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, mail.Message{To: []string{to}, Subject: subject, HTML: body}); err != nil {
		return fmt.Errorf("send %s: %w", template, err)
	}
	n.logger.Debug("notification sent", zap.String("template", template), zap.String("to", to))
	return nil
}

func (n *NotificationService) actorName(ctx context.Context, actor events.Actor) string {
	switch actor.Type {
	case domain.SubjectTypeEmployee:
		if actor.ID == nil {
			return ""
		}
		employee, err := n.employees.GetByID(ctx, *actor.ID)
		if err != nil {
			return ""
		}
		return employee.FullName()
	case domain.SubjectTypeAdmin:
		return "Administrator"
	}
	return ""
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
