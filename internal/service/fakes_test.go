package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/mail"
	"github.com/spec-kit/ppa-crm/internal/repository"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

type idGen struct {
	mu   sync.Mutex
	next int
}

func (g *idGen) id(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", prefix, g.next)
}

var ids = &idGen{}

type fakeEmployees struct {
	rows map[string]*domain.Employee
}

func newFakeEmployees(employees ...*domain.Employee) *fakeEmployees {
	f := &fakeEmployees{rows: map[string]*domain.Employee{}}
	for _, e := range employees {
		f.rows[e.ID] = e
	}
	return f
}

func (f *fakeEmployees) Create(_ context.Context, e *domain.Employee) error {
	for _, existing := range f.rows {
		if existing.Email == e.Email {
			return repository.ErrDuplicate
		}
	}
	if e.ID == "" {
		e.ID = ids.id("emp")
	}
	cp := *e
	f.rows[e.ID] = &cp
	return nil
}

func (f *fakeEmployees) Update(_ context.Context, e *domain.Employee) error {
	if _, ok := f.rows[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *e
	f.rows[e.ID] = &cp
	return nil
}

func (f *fakeEmployees) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	e, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEmployees) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	for _, e := range f.rows {
		if e.Email == email {
			cp := *e
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEmployees) List(_ context.Context, filter repository.EmployeeFilter) ([]domain.Employee, error) {
	var out []domain.Employee
	for _, e := range f.rows {
		if filter.Role != nil && e.Role != *filter.Role {
			continue
		}
		if filter.ManagerID != nil && !e.ReportsTo(*filter.ManagerID) {
			continue
		}
		if m := filter.SelfOrReportsOf; m != nil && e.ID != *m && !e.ReportsTo(*m) {
			continue
		}
		if filter.Active != nil && e.Active != *filter.Active {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEmployees) ListReportIDs(_ context.Context, managerID string) ([]string, error) {
	var out []string
	for _, e := range f.rows {
		if e.ReportsTo(managerID) {
			out = append(out, e.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeLeads struct {
	rows    map[string]*domain.Lead
	updates int
}

func newFakeLeads(leads ...*domain.Lead) *fakeLeads {
	f := &fakeLeads{rows: map[string]*domain.Lead{}}
	for _, l := range leads {
		f.rows[l.ID] = l
	}
	return f
}

func (f *fakeLeads) Create(_ context.Context, l *domain.Lead) error {
	if l.ID == "" {
		l.ID = ids.id("lead")
	}
	cp := *l
	f.rows[l.ID] = &cp
	return nil
}

func (f *fakeLeads) Update(_ context.Context, l *domain.Lead) error {
	if _, ok := f.rows[l.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.updates++
	cp := *l
	f.rows[l.ID] = &cp
	return nil
}

func (f *fakeLeads) GetByID(_ context.Context, id string) (*domain.Lead, error) {
	l, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLeads) List(_ context.Context, filter repository.LeadFilter) ([]domain.Lead, int64, error) {
	var out []domain.Lead
	for _, l := range f.rows {
		if !filter.Scope.Matches(l.AssignedToID) {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		if filter.Search != nil && !strings.Contains(strings.ToLower(l.CompanyName), strings.ToLower(*filter.Search)) {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeLeads) Stats(_ context.Context, scope access.Scope, _ time.Time) (domain.LeadStats, error) {
	stats := domain.LeadStats{StatusCounts: map[domain.LeadStatus]int64{}, PriorityCounts: map[domain.Priority]int64{}}
	for _, l := range f.rows {
		if !scope.Matches(l.AssignedToID) {
			continue
		}
		stats.TotalLeads++
		stats.StatusCounts[l.Status]++
		stats.PriorityCounts[l.Priority]++
	}
	return stats, nil
}

type fakeTasks struct {
	rows map[string]*domain.Task
}

func newFakeTasks(tasks ...*domain.Task) *fakeTasks {
	f := &fakeTasks{rows: map[string]*domain.Task{}}
	for _, t := range tasks {
		f.rows[t.ID] = t
	}
	return f
}

func (f *fakeTasks) Create(_ context.Context, t *domain.Task) error {
	if t.ID == "" {
		t.ID = ids.id("task")
	}
	cp := *t
	f.rows[t.ID] = &cp
	return nil
}

func (f *fakeTasks) Update(_ context.Context, t *domain.Task) error {
	if _, ok := f.rows[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	f.rows[t.ID] = &cp
	return nil
}

func (f *fakeTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeTasks) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range f.rows {
		owner := t.AssignedToID
		if !filter.Scope.Matches(&owner) {
			continue
		}
		if filter.LeadID != nil && t.LeadID != *filter.LeadID {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeActivities struct {
	rows  map[string]*domain.Activity
	leads *fakeLeads
}

func newFakeActivities(leads *fakeLeads, activities ...*domain.Activity) *fakeActivities {
	f := &fakeActivities{rows: map[string]*domain.Activity{}, leads: leads}
	for _, a := range activities {
		f.rows[a.ID] = a
	}
	return f
}

func (f *fakeActivities) Create(_ context.Context, a *domain.Activity) error {
	if a.ID == "" {
		a.ID = ids.id("act")
	}
	cp := *a
	f.rows[a.ID] = &cp
	return nil
}

func (f *fakeActivities) Update(_ context.Context, a *domain.Activity) error {
	if _, ok := f.rows[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *a
	f.rows[a.ID] = &cp
	return nil
}

func (f *fakeActivities) GetByID(_ context.Context, id string) (*domain.Activity, error) {
	a, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeActivities) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeActivities) List(_ context.Context, filter repository.ActivityFilter) ([]domain.Activity, error) {
	var out []domain.Activity
	for _, a := range f.rows {
		if filter.LeadID != nil && a.LeadID != *filter.LeadID {
			continue
		}
		if filter.Type != nil && a.Type != *filter.Type {
			continue
		}
		if filter.Scope.Kind() != access.ScopeAll {
			lead, ok := f.leads.rows[a.LeadID]
			if !ok || !filter.Scope.Matches(lead.AssignedToID) {
				continue
			}
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeDocuments struct {
	rows map[string]*domain.Document
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{rows: map[string]*domain.Document{}}
}

func (f *fakeDocuments) Create(_ context.Context, d *domain.Document) error {
	if d.ID == "" {
		d.ID = ids.id("doc")
	}
	cp := *d
	f.rows[d.ID] = &cp
	return nil
}

func (f *fakeDocuments) GetByID(_ context.Context, id string) (*domain.Document, error) {
	d, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocuments) ListByLead(_ context.Context, leadID string) ([]domain.Document, error) {
	var out []domain.Document
	for _, d := range f.rows {
		if d.LeadID == leadID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocuments) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

type fakeBuyers struct {
	rows map[string]*domain.Buyer
}

func newFakeBuyers(buyers ...*domain.Buyer) *fakeBuyers {
	f := &fakeBuyers{rows: map[string]*domain.Buyer{}}
	for _, b := range buyers {
		f.rows[b.ID] = b
	}
	return f
}

func (f *fakeBuyers) Create(_ context.Context, b *domain.Buyer) error {
	for _, existing := range f.rows {
		if existing.Email == b.Email {
			return repository.ErrDuplicate
		}
	}
	if b.ID == "" {
		b.ID = ids.id("buyer")
	}
	cp := *b
	f.rows[b.ID] = &cp
	return nil
}

func (f *fakeBuyers) GetByID(_ context.Context, id string) (*domain.Buyer, error) {
	b, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBuyers) GetByEmail(_ context.Context, email string) (*domain.Buyer, error) {
	for _, b := range f.rows {
		if b.Email == email {
			cp := *b
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeBuyers) List(_ context.Context, _ string, _, _ int) ([]domain.Buyer, error) {
	var out []domain.Buyer
	for _, b := range f.rows {
		out = append(out, *b)
	}
	return out, nil
}

type fakeSellers struct {
	rows map[string]*domain.Seller
}

func newFakeSellers(sellers ...*domain.Seller) *fakeSellers {
	f := &fakeSellers{rows: map[string]*domain.Seller{}}
	for _, s := range sellers {
		f.rows[s.ID] = s
	}
	return f
}

func (f *fakeSellers) Create(_ context.Context, s *domain.Seller) error {
	if s.ID == "" {
		s.ID = ids.id("seller")
	}
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSellers) Update(_ context.Context, s *domain.Seller) error {
	if _, ok := f.rows[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSellers) GetByID(_ context.Context, id string) (*domain.Seller, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSellers) List(_ context.Context, status *domain.SellerStatus, _, _ int) ([]domain.Seller, error) {
	var out []domain.Seller
	for _, s := range f.rows {
		if status != nil && s.Status != *status {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSellers) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

// fakeMarket backs both the match and terms repositories so that reads see agreements.
type fakeMarket struct {
	matches map[string]*domain.Match
	terms   map[string]*domain.TermsAgreement
	buyers  *fakeBuyers
	sellers *fakeSellers
}

func newFakeMarket(buyers *fakeBuyers, sellers *fakeSellers) *fakeMarket {
	return &fakeMarket{
		matches: map[string]*domain.Match{},
		terms:   map[string]*domain.TermsAgreement{},
		buyers:  buyers,
		sellers: sellers,
	}
}

func (f *fakeMarket) Create(_ context.Context, m *domain.Match) error {
	for _, existing := range f.matches {
		if existing.UserID == m.UserID && existing.SellerID == m.SellerID {
			return repository.ErrDuplicate
		}
	}
	if m.ID == "" {
		m.ID = ids.id("match")
	}
	m.MatchedAt = fixedNow
	cp := *m
	f.matches[m.ID] = &cp
	return nil
}

func (f *fakeMarket) hydrate(m domain.Match) domain.Match {
	if s, ok := f.sellers.rows[m.SellerID]; ok {
		cp := *s
		m.Seller = &cp
	}
	if b, ok := f.buyers.rows[m.UserID]; ok {
		cp := *b
		m.Buyer = &cp
	}
	if t, ok := f.terms[m.ID]; ok {
		cp := *t
		m.TermsAgreement = &cp
	}
	return m
}

func (f *fakeMarket) GetByID(_ context.Context, id string) (*domain.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := f.hydrate(*m)
	return &out, nil
}

func (f *fakeMarket) List(_ context.Context, filter repository.MatchFilter) ([]domain.Match, error) {
	var out []domain.Match
	for _, m := range f.matches {
		if filter.UserID != nil && m.UserID != *filter.UserID {
			continue
		}
		if filter.SellerID != nil && m.SellerID != *filter.SellerID {
			continue
		}
		out = append(out, f.hydrate(*m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMarket) UpdateStatus(_ context.Context, id string, status domain.MatchStatus) error {
	m, ok := f.matches[id]
	if !ok {
		return pgx.ErrNoRows
	}
	m.Status = status
	return nil
}

func (f *fakeMarket) CountOpenBySeller(_ context.Context, sellerID string) (int64, error) {
	var n int64
	for _, m := range f.matches {
		if m.SellerID == sellerID && m.Status != domain.MatchStatusCompleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeMarket) Delete(_ context.Context, id string) error {
	if _, ok := f.matches[id]; !ok {
		return pgx.ErrNoRows
	}
	if _, agreed := f.terms[id]; agreed {
		return repository.ErrReferenced
	}
	delete(f.matches, id)
	return nil
}

type fakeTerms struct {
	market *fakeMarket
}

func (f fakeTerms) Create(_ context.Context, t *domain.TermsAgreement) error {
	if _, exists := f.market.terms[t.MatchID]; exists {
		return repository.ErrAlreadyAgreed
	}
	t.ID = ids.id("terms")
	t.AgreedAt = fixedNow
	cp := *t
	f.market.terms[t.MatchID] = &cp
	return nil
}

// inlineTx runs fn directly; fakes have no rollback.
type inlineTx struct {
	calls int
}

func (t *inlineTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
	handlers  map[events.EventType][]events.EventHandler
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: map[events.EventType][]events.EventHandler{}}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	handlers := append([]events.EventHandler{}, d.handlers[event.Type]...)
	d.mu.Unlock()
	for _, h := range handlers {
		_ = h(ctx, event)
	}
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) ofType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.published {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// org is a small team: super admin S, manager M with agents A1 and A2, agent A3 without a manager.
type org struct {
	employees *fakeEmployees
	super     *domain.Employee
	manager   *domain.Employee
	a1        *domain.Employee
	a2        *domain.Employee
	a3        *domain.Employee
}

func newOrg() org {
	super := &domain.Employee{ID: "S", Email: "s@example.com", FirstName: "Sam", Role: domain.RoleSuperAdmin, Active: true}
	manager := &domain.Employee{ID: "M", Email: "m@example.com", FirstName: "Mia", Role: domain.RoleManager, Active: true}
	a1 := &domain.Employee{ID: "A1", Email: "a1@example.com", FirstName: "Ari", Role: domain.RoleAgent, ManagerID: strPtr("M"), Active: true}
	a2 := &domain.Employee{ID: "A2", Email: "a2@example.com", FirstName: "Bo", Role: domain.RoleAgent, ManagerID: strPtr("M"), Active: true}
	a3 := &domain.Employee{ID: "A3", Email: "a3@example.com", FirstName: "Cy", Role: domain.RoleAgent, Active: true}
	return org{
		employees: newFakeEmployees(super, manager, a1, a2, a3),
		super:     super,
		manager:   manager,
		a1:        a1,
		a2:        a2,
		a3:        a3,
	}
}

func identityOf(e *domain.Employee) auth.Identity {
	return auth.EmployeeIdentity(e)
}
