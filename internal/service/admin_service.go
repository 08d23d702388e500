package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/repository"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

// SellerInput holds the fields of a seller listing.
type SellerInput struct {
	CompanyName   string
	ContactPerson string
	ContactEmail  string
	ContactPhone  string
	ProjectType   string
	Capacity      decimal.Decimal
	Location      string
	State         string
	AskingPrice   decimal.Decimal
	Status        domain.SellerStatus
}

// SellerUpdateInput holds optional seller changes.
type SellerUpdateInput struct {
	CompanyName   *string
	ContactPerson *string
	ContactEmail  *string
	ContactPhone  *string
	ProjectType   *string
	Capacity      *decimal.Decimal
	Location      *string
	State         *string
	AskingPrice   *decimal.Decimal
	Status        *domain.SellerStatus
}

// MatchListFilter narrows the admin match list.
type MatchListFilter struct {
	UserID   *string
	SellerID *string
	Status   *domain.MatchStatus
	Page
}

// BuyerDetail is a buyer with their matches.
type BuyerDetail struct {
	Buyer   *domain.Buyer
	Matches []domain.Match
}

// AdminService backs the marketplace administration console.
type AdminService struct {
	buyers     repository.BuyerRepository
	sellers    repository.SellerRepository
	matches    repository.MatchRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AdminDependencies encapsulates requirements for the admin service.
type AdminDependencies struct {
	BuyerRepo  repository.BuyerRepository
	SellerRepo repository.SellerRepository
	MatchRepo  repository.MatchRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAdminService builds the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		buyers:     deps.BuyerRepo,
		sellers:    deps.SellerRepo,
		matches:    deps.MatchRepo,
		dispatcher: deps.Dispatcher,
		logger:     nopIfNil(deps.Logger),
	}
}

// ListBuyers returns registered buyers.
func (s *AdminService) ListBuyers(ctx context.Context, admin auth.Identity, search string, page Page) ([]domain.Buyer, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.buyers.List(ctx, strings.TrimSpace(search), page.Limit, page.Offset)
}

// GetBuyer returns a buyer and every match they have.
func (s *AdminService) GetBuyer(ctx context.Context, admin auth.Identity, id string) (*BuyerDetail, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	buyer, err := s.buyers.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "buyer")
	}
	matches, err := s.matches.List(ctx, repository.MatchFilter{UserID: &buyer.ID})
	if err != nil {
		return nil, err
	}
	return &BuyerDetail{Buyer: buyer, Matches: matches}, nil
}

// ListSellers returns listings, optionally by status.
func (s *AdminService) ListSellers(ctx context.Context, admin auth.Identity, status *domain.SellerStatus, page Page) ([]domain.Seller, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.sellers.List(ctx, status, page.Limit, page.Offset)
}

// CreateSeller adds a listing.
func (s *AdminService) CreateSeller(ctx context.Context, admin auth.Identity, input SellerInput) (*domain.Seller, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return createSeller(ctx, s.sellers, input)
}

// UpdateSeller edits a listing.
func (s *AdminService) UpdateSeller(ctx context.Context, admin auth.Identity, id string, input SellerUpdateInput) (*domain.Seller, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	seller, err := s.sellers.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "seller")
	}
	setString(&seller.CompanyName, input.CompanyName)
	setString(&seller.ContactPerson, input.ContactPerson)
	setString(&seller.ContactPhone, input.ContactPhone)
	setString(&seller.ProjectType, input.ProjectType)
	setString(&seller.Location, input.Location)
	setString(&seller.State, input.State)
	if input.ContactEmail != nil {
		seller.ContactEmail = normalizeEmail(*input.ContactEmail)
	}
	if input.Capacity != nil {
		seller.Capacity = *input.Capacity
	}
	if input.AskingPrice != nil {
		seller.AskingPrice = *input.AskingPrice
	}
	if input.Status != nil {
		seller.Status = *input.Status
	}
	if err := validateSeller(seller); err != nil {
		return nil, err
	}
	if err := s.sellers.Update(ctx, seller); err != nil {
		return nil, notFound(err, "seller")
	}
	return seller, nil
}

// DeleteSeller removes a listing that no open match refers to.
func (s *AdminService) DeleteSeller(ctx context.Context, admin auth.Identity, id string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	if _, err := s.sellers.GetByID(ctx, id); err != nil {
		return notFound(err, "seller")
	}
	open, err := s.matches.CountOpenBySeller(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return apperrors.NewConflict("seller has active matches", map[string]any{"openMatches": open})
	}
	if err := s.sellers.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("seller is still referenced by matches", nil)
		}
		return notFound(err, "seller")
	}
	return nil
}

// ListMatches returns every match with buyer, seller and agreement.
func (s *AdminService) ListMatches(ctx context.Context, admin auth.Identity, filter MatchListFilter) ([]domain.Match, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.matches.List(ctx, repository.MatchFilter{
		UserID:   filter.UserID,
		SellerID: filter.SellerID,
		Status:   filter.Status,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// CreateMatch pairs a buyer with an active seller. A pair can only be matched once.
func (s *AdminService) CreateMatch(ctx context.Context, admin auth.Identity, userID, sellerID string) (*domain.Match, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if _, err := s.buyers.GetByID(ctx, userID); err != nil {
		return nil, notFound(err, "buyer")
	}
	seller, err := s.sellers.GetByID(ctx, sellerID)
	if err != nil {
		return nil, notFound(err, "seller")
	}
	if seller.Status != domain.SellerStatusActive {
		return nil, apperrors.NewConflict("seller is not active", nil)
	}

	match := &domain.Match{UserID: userID, SellerID: sellerID, Status: domain.MatchStatusPending}
	if err := s.matches.Create(ctx, match); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("buyer is already matched with this seller", nil)
		}
		return nil, err
	}
	full, err := s.matches.GetByID(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventMatchCreated, full.ID, actorOf(admin), events.MatchCreatedPayload{Match: *full}))
	return full, nil
}

// DeleteMatch removes a match whose terms were not agreed.
func (s *AdminService) DeleteMatch(ctx context.Context, admin auth.Identity, id string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	match, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "match")
	}
	if match.TermsAgreed() {
		return apperrors.NewConflict("cannot delete a match after terms were agreed", nil)
	}
	if err := s.matches.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("cannot delete a match after terms were agreed", nil)
		}
		return notFound(err, "match")
	}
	return nil
}

func requireAdmin(identity auth.Identity) error {
	if !identity.IsAdmin() {
		return apperrors.NewUnauthorized("admin credentials required")
	}
	return nil
}

func createSeller(ctx context.Context, sellers repository.SellerRepository, input SellerInput) (*domain.Seller, error) {
	seller := &domain.Seller{
		CompanyName:   strings.TrimSpace(input.CompanyName),
		ContactPerson: strings.TrimSpace(input.ContactPerson),
		ContactEmail:  normalizeEmail(input.ContactEmail),
		ContactPhone:  strings.TrimSpace(input.ContactPhone),
		ProjectType:   strings.TrimSpace(input.ProjectType),
		Capacity:      input.Capacity,
		Location:      strings.TrimSpace(input.Location),
		State:         strings.TrimSpace(input.State),
		AskingPrice:   input.AskingPrice,
		Status:        input.Status,
	}
	if seller.Status == "" {
		seller.Status = domain.SellerStatusActive
	}
	if err := validateSeller(seller); err != nil {
		return nil, err
	}
	if err := sellers.Create(ctx, seller); err != nil {
		return nil, err
	}
	return seller, nil
}

func validateSeller(seller *domain.Seller) error {
	if _, err := mail.ParseAddress(seller.ContactEmail); err != nil {
		return apperrors.NewValidationError("invalid email format", map[string]any{"contactEmail": seller.ContactEmail})
	}
	if !seller.Capacity.IsPositive() {
		return apperrors.NewValidationError("capacity must be a positive number", nil)
	}
	if !seller.AskingPrice.IsPositive() {
		return apperrors.NewValidationError("asking price must be a positive number", nil)
	}
	if seller.Status != domain.SellerStatusActive && seller.Status != domain.SellerStatusInactive {
		return apperrors.NewValidationError("invalid seller status", map[string]any{"status": seller.Status})
	}
	return nil
}
