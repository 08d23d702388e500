package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/crmsync"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/repository"
)

// PublicLeadInput is the website enquiry form.
type PublicLeadInput struct {
	CompanyName  string
	Location     string
	State        string
	CreditRating *string
	FirstName    string
	LastName     string
	Designation  *string
	Mobile1      string
	Mobile2      *string
	Landline     *string
	Landline2    *string
	Email1       string
	Email2       *string
	Remarks      *string
}

// PublicService handles unauthenticated submissions.
type PublicService struct {
	leads      repository.LeadRepository
	sellers    repository.SellerRepository
	pusher     crmsync.LeadPusher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// PublicDependencies encapsulates requirements for the public service.
type PublicDependencies struct {
	LeadRepo   repository.LeadRepository
	SellerRepo repository.SellerRepository
	Pusher     crmsync.LeadPusher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewPublicService builds the service.
func NewPublicService(deps PublicDependencies) *PublicService {
	return &PublicService{
		leads:      deps.LeadRepo,
		sellers:    deps.SellerRepo,
		pusher:     deps.Pusher,
		dispatcher: deps.Dispatcher,
		logger:     nopIfNil(deps.Logger),
	}
}

// SubmitLead stores a website enquiry as an unassigned lead, then pushes it
// to the external CRM and notifies the admin. Neither follow-up can fail the submission.
func (s *PublicService) SubmitLead(ctx context.Context, input PublicLeadInput) (*domain.Lead, error) {
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
		Remarks:      trimmed(input.Remarks),
		Status:       domain.LeadStatusNew,
		Priority:     domain.PriorityMedium,
		Source:       domain.LeadSourceWebsite,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}
	s.logger.Info("website lead received", zap.String("lead_id", lead.ID))

	if s.pusher != nil {
		if err := s.pusher.PushLead(ctx, lead); err != nil {
			if errors.Is(err, crmsync.ErrNotConfigured) {
				s.logger.Debug("zoho sync skipped", zap.String("lead_id", lead.ID))
			} else {
				s.logger.Warn("zoho sync failed", zap.String("lead_id", lead.ID), zap.Error(err))
			}
		}
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventLeadCreated, lead.ID, actorOf(auth.Anonymous()), events.LeadCreatedPayload{Lead: *lead}))
	return lead, nil
}

// RegisterSeller lists a new seller. Listings go live immediately and admins review them afterwards.
func (s *PublicService) RegisterSeller(ctx context.Context, input SellerInput) (*domain.Seller, error) {
	input.Status = domain.SellerStatusActive
	seller, err := createSeller(ctx, s.sellers, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("seller registered", zap.String("seller_id", seller.ID))
	return seller, nil
}
