package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ppa-crm/internal/crmsync"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
)

type stubPusher struct {
	err    error
	pushed []string
}

func (p *stubPusher) PushLead(_ context.Context, lead *domain.Lead) error {
	p.pushed = append(p.pushed, lead.ID)
	return p.err
}

func websiteEnquiry() PublicLeadInput {
	return PublicLeadInput{
		CompanyName: " Harbor Cement ",
		Location:    "Vizag",
		State:       "Andhra Pradesh",
		FirstName:   "Ira",
		LastName:    "Vale",
		Mobile1:     "9876543210",
		Email1:      " Ira.Vale@Harbor.example ",
		Remarks:     strPtr("  "),
	}
}

func TestSubmitLeadIsUnassignedWebsiteLead(t *testing.T) {
	for name, pushErr := range map[string]error{
		"pushed":         nil,
		"not configured": crmsync.ErrNotConfigured,
		"push failure":   errors.New("zoho 502"),
	} {
		t.Run(name, func(t *testing.T) {
			leads := newFakeLeads()
			pusher := &stubPusher{err: pushErr}
			dispatcher := newRecordingDispatcher()
			svc := NewPublicService(PublicDependencies{LeadRepo: leads, Pusher: pusher, Dispatcher: dispatcher})

			lead, err := svc.SubmitLead(context.Background(), websiteEnquiry())
			require.NoError(t, err)
			assert.Nil(t, lead.AssignedToID)
			assert.Equal(t, domain.LeadSourceWebsite, lead.Source)
			assert.Equal(t, domain.LeadStatusNew, lead.Status)
			assert.Equal(t, "Harbor Cement", lead.CompanyName)
			assert.Equal(t, "ira.vale@harbor.example", lead.Email1)
			assert.Nil(t, lead.Remarks)
			assert.Contains(t, leads.rows, lead.ID)
			assert.Equal(t, []string{lead.ID}, pusher.pushed)

			created := dispatcher.ofType(events.EventLeadCreated)
			require.Len(t, created, 1)
			assert.Equal(t, lead.ID, created[0].ResourceID)
		})
	}
}

func TestSubmitLeadWithoutPusher(t *testing.T) {
	svc := NewPublicService(PublicDependencies{LeadRepo: newFakeLeads()})
	lead, err := svc.SubmitLead(context.Background(), websiteEnquiry())
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
}

func TestRegisterSellerGoesLive(t *testing.T) {
	sellers := newFakeSellers()
	svc := NewPublicService(PublicDependencies{SellerRepo: sellers})

	input := validSellerInput()
	input.Status = domain.SellerStatusInactive
	seller, err := svc.RegisterSeller(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.SellerStatusActive, seller.Status)
	assert.Contains(t, sellers.rows, seller.ID)

	input.AskingPrice = input.AskingPrice.Neg()
	_, err = svc.RegisterSeller(context.Background(), input)
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
}
