package crmsync

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/config"
	"github.com/spec-kit/ppa-crm/internal/domain"
)

func startZohoStub(t *testing.T) (string, *int32, chan zohoPayload) {
	t.Helper()
	var tokenCalls int32
	leads := make(chan zohoPayload, 4)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/oauth/token", func(c *fiber.Ctx) error {
		atomic.AddInt32(&tokenCalls, 1)
		if c.FormValue("grant_type") != "refresh_token" || c.FormValue("refresh_token") != "refresh" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_grant"})
		}
		return c.JSON(fiber.Map{"access_token": "tok", "expires_in": 3600})
	})
	app.Post("/crm/Leads", func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) != "Zoho-oauthtoken tok" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		var payload zohoPayload
		if err := json.Unmarshal(c.Body(), &payload); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		leads <- payload
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": []fiber.Map{{"code": "SUCCESS"}}})
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String(), &tokenCalls, leads
}

func TestPushLeadNotConfigured(t *testing.T) {
	z := NewZohoClient(config.ZohoConfig{}, zap.NewNop())
	err := z.PushLead(context.Background(), &domain.Lead{CompanyName: "Acme"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPushLeadRefreshesTokenOnce(t *testing.T) {
	base, tokenCalls, leads := startZohoStub(t)
	z := NewZohoClient(config.ZohoConfig{
		ClientID:       "id",
		ClientSecret:   "secret",
		RefreshToken:   "refresh",
		AccessTokenURL: base + "/oauth/token",
		APIURL:         base + "/crm",
	}, zap.NewNop())

	remarks := "Rooftop 2MW"
	lead := &domain.Lead{CompanyName: "Acme Steel", FirstName: "Ravi", Mobile1: "999", Email1: "r@acme.example",
		Priority: domain.PriorityHigh, Remarks: &remarks}

	require.NoError(t, z.PushLead(context.Background(), lead))
	require.NoError(t, z.PushLead(context.Background(), lead))
	assert.Equal(t, int32(1), atomic.LoadInt32(tokenCalls))

	got := <-leads
	require.Len(t, got.Data, 1)
	assert.Equal(t, "Acme Steel", got.Data[0].Company)
	assert.Equal(t, "Rooftop 2MW", got.Data[0].Description)
	assert.Equal(t, "Website", got.Data[0].LeadSource)
	assert.Equal(t, "high", got.Data[0].Priority)
}

func TestMapLeadHandlesNilOptionals(t *testing.T) {
	payload := mapLead(&domain.Lead{CompanyName: "Acme"})
	assert.Equal(t, "", payload.Data[0].Mobile)
	assert.Equal(t, "New Lead", payload.Data[0].LeadStatus)
}
