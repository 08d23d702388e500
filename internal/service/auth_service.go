package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/config"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/ratelimit"
	"github.com/spec-kit/ppa-crm/internal/repository"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

const adminSubjectID = "admin"

var errInvalidCredentials = apperrors.NewUnauthorized("invalid credentials")

// Session is an issued credential.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterBuyerInput holds buyer sign-up fields.
type RegisterBuyerInput struct {
	Email       string
	Password    string
	CompanyName string
	FirstName   string
	LastName    string
	Location    string
	State       string
	Mobile      string
}

// AuthService issues credentials for buyers, employees and the admin.
type AuthService struct {
	buyers     repository.BuyerRepository
	employees  repository.EmployeeRepository
	tokens     *auth.TokenManager
	limiter    ratelimit.Limiter
	attempts   int
	bcryptCost int
	admin      config.AdminConfig
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	BuyerRepo    repository.BuyerRepository
	EmployeeRepo repository.EmployeeRepository
	Tokens       *auth.TokenManager
	Limiter      ratelimit.Limiter
	Logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		buyers:     deps.BuyerRepo,
		employees:  deps.EmployeeRepo,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		attempts:   cfg.RateLimit.LoginAttempts,
		bcryptCost: cfg.Auth.BcryptCost,
		admin:      cfg.Admin,
		logger:     nopIfNil(deps.Logger),
	}
}

// RegisterBuyer creates a marketplace account and signs the buyer in.
func (s *AuthService) RegisterBuyer(ctx context.Context, input RegisterBuyerInput) (*domain.Buyer, Session, error) {
	email := normalizeEmail(input.Email)
	if _, err := s.buyers.GetByEmail(ctx, email); err == nil {
		return nil, Session{}, apperrors.NewConflict("email already registered", nil)
	} else if !apperrors.IsNotFound(err) {
		return nil, Session{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, Session{}, apperrors.NewInternalError(err)
	}
	buyer := &domain.Buyer{
		Email:        email,
		PasswordHash: hash,
		CompanyName:  strings.TrimSpace(input.CompanyName),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Location:     strings.TrimSpace(input.Location),
		State:        strings.TrimSpace(input.State),
		Mobile:       strings.TrimSpace(input.Mobile),
	}
	if err := s.buyers.Create(ctx, buyer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Session{}, apperrors.NewConflict("email already registered", nil)
		}
		return nil, Session{}, err
	}

	session, err := s.issue(buyer.ID, buyer.Email, domain.SubjectTypeBuyer, nil)
	if err != nil {
		return nil, Session{}, err
	}
	return buyer, session, nil
}

// LoginBuyer authenticates a buyer.
func (s *AuthService) LoginBuyer(ctx context.Context, email, password, ip string) (*domain.Buyer, Session, error) {
	email = normalizeEmail(email)
	key := loginKey(domain.SubjectTypeBuyer, email, ip)
	if err := s.throttle(ctx, key); err != nil {
		return nil, Session{}, err
	}

	buyer, err := s.buyers.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			auth.RejectUnknownAccount(password)
			return nil, Session{}, errInvalidCredentials
		}
		return nil, Session{}, err
	}
	if err := auth.ComparePassword(buyer.PasswordHash, password); err != nil {
		return nil, Session{}, errInvalidCredentials
	}

	session, err := s.issue(buyer.ID, buyer.Email, domain.SubjectTypeBuyer, nil)
	if err != nil {
		return nil, Session{}, err
	}
	s.resetThrottle(ctx, key)
	return buyer, session, nil
}

// LoginEmployee authenticates a CRM employee. Deactivated accounts are refused
// after the password check so the response does not reveal account state to guessers.
func (s *AuthService) LoginEmployee(ctx context.Context, email, password, ip string) (*domain.Employee, Session, error) {
	email = normalizeEmail(email)
	key := loginKey(domain.SubjectTypeEmployee, email, ip)
	if err := s.throttle(ctx, key); err != nil {
		return nil, Session{}, err
	}

	employee, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			auth.RejectUnknownAccount(password)
			return nil, Session{}, errInvalidCredentials
		}
		return nil, Session{}, err
	}
	if err := auth.ComparePassword(employee.PasswordHash, password); err != nil {
		return nil, Session{}, errInvalidCredentials
	}
	if !employee.Active {
		return nil, Session{}, apperrors.NewForbidden("account is deactivated")
	}

	role := employee.Role
	session, err := s.issue(employee.ID, employee.Email, domain.SubjectTypeEmployee, &role)
	if err != nil {
		return nil, Session{}, err
	}
	s.resetThrottle(ctx, key)
	return employee, session, nil
}

// LoginAdmin checks the configured admin credential.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password, ip string) (Session, error) {
	email = normalizeEmail(email)
	key := loginKey(domain.SubjectTypeAdmin, email, ip)
	if err := s.throttle(ctx, key); err != nil {
		return Session{}, err
	}
	if s.admin.Email == "" || s.admin.PasswordHash == "" {
		return Session{}, errInvalidCredentials
	}
	if email != normalizeEmail(s.admin.Email) {
		auth.RejectUnknownAccount(password)
		return Session{}, errInvalidCredentials
	}
	if err := auth.ComparePassword(s.admin.PasswordHash, password); err != nil {
		return Session{}, errInvalidCredentials
	}

	session, err := s.issue(adminSubjectID, s.admin.Email, domain.SubjectTypeAdmin, nil)
	if err != nil {
		return Session{}, err
	}
	s.resetThrottle(ctx, key)
	return session, nil
}

// CurrentBuyer loads the signed-in buyer.
func (s *AuthService) CurrentBuyer(ctx context.Context, identity auth.Identity) (*domain.Buyer, error) {
	if !identity.IsBuyer() {
		return nil, apperrors.NewUnauthorized("buyer credentials required")
	}
	buyer, err := s.buyers.GetByID(ctx, identity.ID)
	if err != nil {
		return nil, notFound(err, "buyer")
	}
	return buyer, nil
}

// TTL exposes the session lifetime for cookie expiry.
func (s *AuthService) TTL(kind domain.SubjectType) time.Duration {
	return s.tokens.TTL(kind)
}

func (s *AuthService) issue(subjectID, email string, kind domain.SubjectType, role *domain.Role) (Session, error) {
	token, exp, err := s.tokens.GenerateToken(subjectID, email, kind, role)
	if err != nil {
		return Session{}, apperrors.NewInternalError(err)
	}
	return Session{Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) throttle(ctx context.Context, key string) error {
	if s.limiter == nil || s.attempts <= 0 {
		return nil
	}
	decision := s.limiter.Allow(ctx, key, s.attempts)
	if !decision.Allowed {
		s.logger.Warn("login throttled", zap.String("key", key), zap.Int("count", decision.Count))
		return apperrors.NewTooManyRequests("too many login attempts, try again later")
	}
	return nil
}

func (s *AuthService) resetThrottle(ctx context.Context, key string) {
	if s.limiter != nil {
		s.limiter.Reset(ctx, key)
	}
}

func loginKey(kind domain.SubjectType, email, ip string) string {
	return string(kind) + "|" + email + "|" + ip
}
