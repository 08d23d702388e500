package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/repository"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

var errAlreadyAgreed = apperrors.NewConflict("terms already agreed for this match", nil)

// MarketplaceService is the buyer side of the marketplace. Every seller it
// returns passes through the disclosure gate.
type MarketplaceService struct {
	matches    repository.MatchRepository
	terms      repository.TermsRepository
	tx         repository.TransactionManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// MarketplaceDependencies encapsulates requirements for the marketplace service.
type MarketplaceDependencies struct {
	MatchRepo  repository.MatchRepository
	TermsRepo  repository.TermsRepository
	TxManager  repository.TransactionManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewMarketplaceService builds the service.
func NewMarketplaceService(deps MarketplaceDependencies) *MarketplaceService {
	return &MarketplaceService{
		matches:    deps.MatchRepo,
		terms:      deps.TermsRepo,
		tx:         deps.TxManager,
		dispatcher: deps.Dispatcher,
		logger:     nopIfNil(deps.Logger),
	}
}

// Matches lists the buyer's matches, masked until terms are agreed.
func (s *MarketplaceService) Matches(ctx context.Context, buyer auth.Identity, page Page) ([]access.MatchView, error) {
	if !buyer.IsBuyer() {
		return nil, apperrors.NewUnauthorized("buyer credentials required")
	}
	userID := buyer.ID
	matches, err := s.matches.List(ctx, repository.MatchFilter{UserID: &userID, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, err
	}
	views := make([]access.MatchView, 0, len(matches))
	for i := range matches {
		views = append(views, access.ProjectMatchForBuyer(&matches[i]))
	}
	return views, nil
}

// AgreeTerms records the buyer's one-time agreement and unlocks the seller.
// A second agreement for the same match is a conflict, including when two
// requests race.
func (s *MarketplaceService) AgreeTerms(ctx context.Context, buyer auth.Identity, matchID, ip string) (*access.MatchView, error) {
	match, err := s.ownMatch(ctx, buyer, matchID)
	if err != nil {
		return nil, err
	}
	if match.TermsAgreed() {
		return nil, errAlreadyAgreed
	}

	agreement := &domain.TermsAgreement{MatchID: match.ID, UserID: buyer.ID, IPAddress: ip}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.terms.Create(txCtx, agreement); err != nil {
			return err
		}
		return s.matches.UpdateStatus(txCtx, match.ID, domain.MatchStatusTermsAgreed)
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyAgreed) {
			return nil, errAlreadyAgreed
		}
		return nil, notFound(err, "match")
	}

	match.Status = domain.MatchStatusTermsAgreed
	match.TermsAgreement = agreement
	s.logger.Info("terms agreed", zap.String("match_id", match.ID), zap.String("buyer_id", buyer.ID))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTermsAgreed, match.ID, actorOf(buyer),
		events.TermsAgreedPayload{Match: *match, Agreement: *agreement}))

	view := access.ProjectMatchForBuyer(match)
	return &view, nil
}

// Seller returns the full seller record once terms are agreed.
func (s *MarketplaceService) Seller(ctx context.Context, buyer auth.Identity, matchID string) (*access.SellerView, error) {
	match, err := s.ownMatch(ctx, buyer, matchID)
	if err != nil {
		return nil, err
	}
	if !match.TermsAgreed() {
		return nil, apperrors.NewForbidden("you must agree to terms before viewing seller details")
	}
	return access.FullSeller(match.Seller), nil
}

// ownMatch loads a match belonging to buyer. Other buyers' matches are reported missing.
func (s *MarketplaceService) ownMatch(ctx context.Context, buyer auth.Identity, matchID string) (*domain.Match, error) {
	if !buyer.IsBuyer() {
		return nil, apperrors.NewUnauthorized("buyer credentials required")
	}
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, notFound(err, "match")
	}
	if match.UserID != buyer.ID {
		return nil, apperrors.NewNotFound("match", nil)
	}
	return match, nil
}
