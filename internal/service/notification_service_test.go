package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/mail"
)

const testAdminEmail = "ops@example.com"

type notificationFixture struct {
	org        org
	leads      *fakeLeads
	activities *fakeActivities
	sender     *mockSender
	dispatcher *recordingDispatcher
}

func newNotificationFixture() notificationFixture {
	o := newOrg()
	leads := newFakeLeads(
		&domain.Lead{ID: "L1", CompanyName: "Alpha Steel", AssignedToID: strPtr("A1"), Status: domain.LeadStatusContacted},
	)
	activities := newFakeActivities(leads,
		&domain.Activity{ID: "X1", LeadID: "L1", EmployeeID: "M", Type: domain.ActivityCall, Subject: strPtr("Pricing call")},
	)
	sender := &mockSender{}
	dispatcher := newRecordingDispatcher()
	NewNotificationService(NotificationDependencies{
		Dispatcher:   dispatcher,
		Sender:       sender,
		AdminEmail:   " " + testAdminEmail + " ",
		LeadRepo:     leads,
		EmployeeRepo: o.employees,
		ActivityRepo: activities,
	}).RegisterHandlers()
	return notificationFixture{org: o, leads: leads, activities: activities, sender: sender, dispatcher: dispatcher}
}

func employeeActor(id string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeEmployee, ID: &id}
}

func sentTo(to string, subjectPrefix string) interface{} {
	return mock.MatchedBy(func(msg mail.Message) bool {
		return len(msg.To) == 1 && msg.To[0] == to && strings.HasPrefix(msg.Subject, subjectPrefix)
	})
}

func TestNotifyWebsiteLeadToAdmin(t *testing.T) {
	f := newNotificationFixture()
	f.sender.On("Send", mock.Anything, sentTo(testAdminEmail, "New Lead: Harbor Cement")).Return(nil).Once()

	lead := domain.Lead{ID: "L9", CompanyName: "Harbor Cement", Source: domain.LeadSourceWebsite, Email1: "ira@harbor.example"}
	require.NoError(t, f.dispatcher.Publish(context.Background(), events.New(events.EventLeadCreated, lead.ID, events.Actor{}, events.LeadCreatedPayload{Lead: lead})))

	manual := domain.Lead{ID: "L10", CompanyName: "Desk Lead", Source: domain.LeadSourceManual}
	require.NoError(t, f.dispatcher.Publish(context.Background(), events.New(events.EventLeadCreated, manual.ID, employeeActor("A1"), events.LeadCreatedPayload{Lead: manual})))

	f.sender.AssertExpectations(t)
	f.sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestNotifyAssignments(t *testing.T) {
	f := newNotificationFixture()
	f.sender.On("Send", mock.Anything, sentTo("a2@example.com", "Lead assigned: Alpha Steel")).Return(nil).Once()
	f.sender.On("Send", mock.Anything, sentTo("a1@example.com", "New task: Send proposal")).Return(nil).Once()
	ctx := context.Background()

	require.NoError(t, f.dispatcher.Publish(ctx, events.New(events.EventLeadAssigned, "L1", employeeActor("M"),
		events.LeadAssignedPayload{AssigneeID: "A2", CompanyName: "Alpha Steel"})))
	due := fixedNow
	require.NoError(t, f.dispatcher.Publish(ctx, events.New(events.EventTaskAssigned, "T1", employeeActor("M"),
		events.TaskAssignedPayload{LeadID: "L1", AssigneeID: "A1", Title: "Send proposal", DueDate: &due})))

	f.sender.AssertExpectations(t)
}

func TestNotifyActivityOnlyWhenSomeoneElseLogs(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()
	f.sender.On("Send", mock.Anything, sentTo("a1@example.com", "Activity on Alpha Steel")).Return(nil).Once()

	require.NoError(t, f.dispatcher.Publish(ctx, events.New(events.EventActivityLogged, "X1", employeeActor("M"),
		events.ActivityLoggedPayload{LeadID: "L1", ActivityID: "X1", ActivityType: domain.ActivityCall})))
	require.NoError(t, f.dispatcher.Publish(ctx, events.New(events.EventActivityLogged, "X1", employeeActor("A1"),
		events.ActivityLoggedPayload{LeadID: "L1", ActivityID: "X1", ActivityType: domain.ActivityCall})))

	f.sender.AssertExpectations(t)
	f.sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestNotifyStatusChange(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()
	f.sender.On("Send", mock.Anything, sentTo("a1@example.com", "Lead Alpha Steel moved to meeting_scheduled")).Return(nil).Once()
	f.sender.On("Send", mock.Anything, sentTo(testAdminEmail, "Lead Alpha Steel moved to won")).Return(nil).Once()

	// Supervisor moved the lead: the assignee hears about it.
	require.NoError(t, f.dispatcher.Publish(ctx, events.New(events.EventLeadStatusChanged, "L1", employeeActor("M"),
		events.LeadStatusChangedPayload{OldStatus: domain.LeadStatusContacted, NewStatus: domain.LeadStatusMeetingScheduled})))
	// The assignee's own progress is silent until the lead closes.
	require.NoError(t, f.dispatcher.Publish(ctx, events.New(events.EventLeadStatusChanged, "L1", employeeActor("A1"),
		events.LeadStatusChangedPayload{OldStatus: domain.LeadStatusMeetingScheduled, NewStatus: domain.LeadStatusProposalSent})))
	require.NoError(t, f.dispatcher.Publish(ctx, events.New(events.EventLeadStatusChanged, "L1", employeeActor("A1"),
		events.LeadStatusChangedPayload{OldStatus: domain.LeadStatusProposalSent, NewStatus: domain.LeadStatusWon})))

	f.sender.AssertExpectations(t)
	f.sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestNotifyMatchKeepsSellerMasked(t *testing.T) {
	f := newNotificationFixture()
	market := newMarketFixture()
	m := market.match(t, "B1", "solarfarm-01")

	var body string
	f.sender.On("Send", mock.Anything, sentTo("buyer1@example.com", "You have a new PPA match")).
		Run(func(args mock.Arguments) { body = args.Get(1).(mail.Message).HTML }).
		Return(nil).Once()

	require.NoError(t, f.dispatcher.Publish(context.Background(), events.New(events.EventMatchCreated, m.ID, events.Actor{Type: domain.SubjectTypeAdmin},
		events.MatchCreatedPayload{Match: *m})))

	f.sender.AssertExpectations(t)
	assert.Contains(t, body, "Seller-SOLARF")
	assert.NotContains(t, body, "Sunfield Energy")
	assert.NotContains(t, body, "dana@sunfield.example")
}

func TestNotifyTermsAgreedToAdmin(t *testing.T) {
	f := newNotificationFixture()
	market := newMarketFixture()
	m := market.match(t, "B1", "solarfarm-01")
	agreement := domain.TermsAgreement{MatchID: m.ID, UserID: "B1", AgreedAt: fixedNow}

	var body string
	f.sender.On("Send", mock.Anything, sentTo(testAdminEmail, "Terms agreed")).
		Run(func(args mock.Arguments) { body = args.Get(1).(mail.Message).HTML }).
		Return(nil).Once()

	require.NoError(t, f.dispatcher.Publish(context.Background(), events.New(events.EventTermsAgreed, m.ID, events.Actor{Type: domain.SubjectTypeBuyer},
		events.TermsAgreedPayload{Match: *m, Agreement: agreement})))

	f.sender.AssertExpectations(t)
	assert.Contains(t, body, "Sunfield Energy")
	assert.Contains(t, body, "buyer1@example.com")
}
