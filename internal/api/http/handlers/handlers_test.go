package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/repository"
	"github.com/spec-kit/ppa-crm/internal/service"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code, "details": de.Details}})
	}})
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out), string(raw))
}

func TestParsePage(t *testing.T) {
	app := newTestApp()
	app.Get("/page", func(c *fiber.Ctx) error {
		return c.JSON(parsePage(c))
	})

	cases := map[string]service.Page{
		"/page":                         {Limit: defaultPageSize},
		"/page?limit=10&offset=30":      {Limit: 10, Offset: 30},
		"/page?page=3&pageSize=20":      {Limit: 20, Offset: 40},
		"/page?limit=5000":              {Limit: maxPageSize},
		"/page?limit=-1&offset=abc":     {Limit: defaultPageSize},
		"/page?page=2&limit=5&offset=1": {Limit: 5, Offset: 1},
	}
	for url, want := range cases {
		resp := doJSON(t, app, http.MethodGet, url, "")
		var got service.Page
		decode(t, resp, &got)
		assert.Equal(t, want, got, url)
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-04-01")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))

	got, err = parseDate("2026-04-01T15:30:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, 10, got.UTC().Hour())

	got, err = parseDate("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseDate("01/04/2026")
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestLeadUpdateRejectsAssignmentAndStatus(t *testing.T) {
	app := newTestApp()
	h := NewLeadsHandler(nil)
	app.Put("/leads/:id", h.Update)

	for field, body := range map[string]string{
		"status":       `{"companyName":"x","status":"won"}`,
		"assignedToId": `{"assignedToId":"A2"}`,
	} {
		resp := doJSON(t, app, http.MethodPut, "/leads/L1", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, field)
		var out errorBody
		decode(t, resp, &out)
		assert.Equal(t, "VALIDATION_FAILED", out.Error.Code)
		assert.Contains(t, out.Error.Details, field)
	}
}

type recordingLeads struct {
	created []domain.Lead
}

func (r *recordingLeads) Create(_ context.Context, lead *domain.Lead) error {
	lead.ID = "lead-1"
	r.created = append(r.created, *lead)
	return nil
}

func (r *recordingLeads) Update(context.Context, *domain.Lead) error { return nil }

func (r *recordingLeads) GetByID(context.Context, string) (*domain.Lead, error) {
	return nil, apperrors.NewNotFound("lead", nil)
}

func (r *recordingLeads) List(context.Context, repository.LeadFilter) ([]domain.Lead, int64, error) {
	return nil, 0, nil
}

func (r *recordingLeads) Stats(context.Context, access.Scope, time.Time) (domain.LeadStats, error) {
	return domain.LeadStats{}, nil
}

func TestPublicSubmitLead(t *testing.T) {
	leads := &recordingLeads{}
	app := newTestApp()
	h := NewPublicHandler(service.NewPublicService(service.PublicDependencies{LeadRepo: leads}))
	app.Post("/api/leads", h.SubmitLead)

	resp := doJSON(t, app, http.MethodPost, "/api/leads", `{"companyName":"Harbor Cement","location":"Vizag","state":"AP"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var invalid errorBody
	decode(t, resp, &invalid)
	assert.Equal(t, "VALIDATION_FAILED", invalid.Error.Code)
	assert.Equal(t, "required", invalid.Error.Details["email1"])
	assert.Equal(t, "required", invalid.Error.Details["firstName"])
	assert.Empty(t, leads.created)

	resp = doJSON(t, app, http.MethodPost, "/api/leads", `{
		"companyName":"Harbor Cement","location":"Vizag","state":"AP",
		"firstName":"Ira","lastName":"Vale","mobile1":"9876543210","email1":"ira@harbor.example"
	}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decode(t, resp, &created)
	assert.Equal(t, "lead-1", created.Data.ID)
	require.Len(t, leads.created, 1)
	assert.Nil(t, leads.created[0].AssignedToID)
	assert.Equal(t, domain.LeadSourceWebsite, leads.created[0].Source)
}

func TestPublicSubmitLeadRejectsMalformedJSON(t *testing.T) {
	app := newTestApp()
	h := NewPublicHandler(service.NewPublicService(service.PublicDependencies{LeadRepo: &recordingLeads{}}))
	app.Post("/api/leads", h.SubmitLead)

	resp := doJSON(t, app, http.MethodPost, "/api/leads", `{"companyName":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
