package crmsync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/config"
	"github.com/spec-kit/ppa-crm/internal/domain"
)

// ErrNotConfigured is returned when Zoho credentials are missing.
var ErrNotConfigured = errors.New("zoho not configured")

const (
	requestTimeout = 10 * time.Second
	tokenSkew      = time.Minute
)

// LeadPusher mirrors website leads into an external CRM.
type LeadPusher interface {
	PushLead(ctx context.Context, lead *domain.Lead) error
}

// ZohoClient pushes leads to Zoho CRM using a refresh-token OAuth flow.
type ZohoClient struct {
	cfg    config.ZohoConfig
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewZohoClient constructs the client.
func NewZohoClient(cfg config.ZohoConfig, logger *zap.Logger) *ZohoClient {
	return &ZohoClient{cfg: cfg, logger: logger, now: time.Now}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresInSec int    `json:"expires_in_sec"`
	Error        string `json:"error"`
}

type zohoLead struct {
	Company        string `json:"Company"`
	Location       string `json:"Location"`
	State          string `json:"State"`
	CreditRating   string `json:"Credit_Rating"`
	Priority       string `json:"Priority"`
	FirstName      string `json:"First_Name"`
	LastName       string `json:"Last_Name"`
	Designation    string `json:"Designation"`
	Phone          string `json:"Phone"`
	Mobile         string `json:"Mobile"`
	OtherPhone     string `json:"Other_Phone"`
	HomePhone      string `json:"Home_Phone"`
	Email          string `json:"Email"`
	SecondaryEmail string `json:"Secondary_Email"`
	Description    string `json:"Description"`
	LeadSource     string `json:"Lead_Source"`
	LeadStatus     string `json:"Lead_Status"`
}

type zohoPayload struct {
	Data []zohoLead `json:"data"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func mapLead(lead *domain.Lead) zohoPayload {
	return zohoPayload{Data: []zohoLead{{
		Company:        lead.CompanyName,
		Location:       lead.Location,
		State:          lead.State,
		CreditRating:   deref(lead.CreditRating),
		Priority:       string(lead.Priority),
		FirstName:      lead.FirstName,
		LastName:       lead.LastName,
		Designation:    deref(lead.Designation),
		Phone:          lead.Mobile1,
		Mobile:         deref(lead.Mobile2),
		OtherPhone:     deref(lead.Landline),
		HomePhone:      deref(lead.Landline2),
		Email:          lead.Email1,
		SecondaryEmail: deref(lead.Email2),
		Description:    deref(lead.Remarks),
		LeadSource:     "Website",
		LeadStatus:     "New Lead",
	}}}
}

// PushLead submits a lead. It returns ErrNotConfigured without any network
// call when credentials are incomplete.
func (z *ZohoClient) PushLead(ctx context.Context, lead *domain.Lead) error {
	if !z.cfg.Enabled() {
		return ErrNotConfigured
	}
	token, err := z.token(ctx)
	if err != nil {
		return err
	}

	agent := fiber.Post(z.cfg.APIURL+"/Leads").
		Set(fiber.HeaderAuthorization, "Zoho-oauthtoken "+token).
		JSON(mapLead(lead)).
		Timeout(timeoutFrom(ctx))
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("zoho lead submit: %w", errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("zoho lead submit failed (%d): %s", code, body)
	}
	return nil
}

func (z *ZohoClient) token(ctx context.Context) (string, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.accessToken != "" && z.expiresAt.Sub(z.now()) > tokenSkew {
		return z.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", z.cfg.RefreshToken)
	form.Set("client_id", z.cfg.ClientID)
	form.Set("client_secret", z.cfg.ClientSecret)

	var resp tokenResponse
	code, body, errs := fiber.Post(z.cfg.AccessTokenURL).
		ContentType(fiber.MIMEApplicationForm).
		BodyString(form.Encode()).
		Timeout(timeoutFrom(ctx)).
		Struct(&resp)
	if len(errs) > 0 {
		return "", fmt.Errorf("zoho token refresh: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("zoho token refresh failed (%d): %s", code, body)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("zoho token response missing access_token: %s", resp.Error)
	}

	expiresIn := resp.ExpiresInSec
	if expiresIn == 0 {
		expiresIn = resp.ExpiresIn
	}
	if expiresIn == 0 {
		expiresIn = 3300
	}
	z.accessToken = resp.AccessToken
	z.expiresAt = z.now().Add(time.Duration(expiresIn) * time.Second)
	z.logger.Debug("zoho access token refreshed", zap.Time("expires_at", z.expiresAt))
	return z.accessToken, nil
}

func timeoutFrom(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < requestTimeout {
			return remaining
		}
	}
	return requestTimeout
}
