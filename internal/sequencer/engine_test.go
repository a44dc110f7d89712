package sequencer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/service/campaign"
)

// --- fakes shared by the sequencer tests ---

type fakeStore struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	saves     int
}

func newFakeStore(cs ...*domain.Campaign) *fakeStore {
	f := &fakeStore{campaigns: make(map[string]*domain.Campaign)}
	for _, c := range cs {
		f.campaigns[c.ID] = c
	}
	return f
}

func cloneCampaign(c *domain.Campaign) *domain.Campaign {
	cp := *c
	cp.Steps = append([]domain.Step(nil), c.Steps...)
	cp.Leads = append([]domain.LeadEnrollment(nil), c.Leads...)
	return &cp
}

func (f *fakeStore) Get(_ context.Context, id string) (*domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	return cloneCampaign(c), nil
}

func (f *fakeStore) Save(_ context.Context, c *domain.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaigns[c.ID] = cloneCampaign(c)
	f.saves++
	return nil
}

func (f *fakeStore) ListActiveIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, c := range f.campaigns {
		if c.Status == domain.CampaignActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// stored returns the persisted campaign for assertions.
func (f *fakeStore) stored(id string) *domain.Campaign {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneCampaign(f.campaigns[id])
}

// mutate edits the persisted campaign in place (fixture backdating).
func (f *fakeStore) mutate(id string, fn func(c *domain.Campaign)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.campaigns[id])
}

type fakeLeads struct {
	mu      sync.Mutex
	leads   map[string]*domain.Lead
	logged  []domain.MessageRecord
	readErr error
}

func newFakeLeads(ls ...*domain.Lead) *fakeLeads {
	f := &fakeLeads{leads: make(map[string]*domain.Lead)}
	for _, l := range ls {
		f.leads[l.ID] = l
	}
	return f
}

func (f *fakeLeads) Get(_ context.Context, id string) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.leads[id], nil // nil when absent
}

func (f *fakeLeads) RecordOutbound(_ context.Context, id string, m domain.MessageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logged = append(f.logged, m)
	return nil
}

type fakeSuppressions struct {
	mu        sync.Mutex
	addresses map[string]bool
}

func newFakeSuppressions(emails ...string) *fakeSuppressions {
	f := &fakeSuppressions{addresses: make(map[string]bool)}
	for _, e := range emails {
		f.addresses[e] = true
	}
	return f
}

func (f *fakeSuppressions) IsSuppressed(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addresses[email], nil
}

type dispatchCall struct {
	campaignID string
	step       int
	subject    string
	body       string
}

type fakeGateway struct {
	mu     sync.Mutex
	result DispatchResult
	calls  []dispatchCall
}

func (f *fakeGateway) Dispatch(_ context.Context, c *domain.Campaign, step *domain.Step, _ *domain.Lead, subject, body string) *DispatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{campaignID: c.ID, step: step.Number, subject: subject, body: body})
	r := f.result
	return &r
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// --- fixtures ---

func alwaysOpen() domain.Schedule {
	return domain.Schedule{
		FrequencyMinutes: 15,
		TimeWindows:      []domain.TimeWindow{{Start: "00:00", End: "24:00"}},
		Timezone:         "UTC",
		DailyLimit:       100,
		DaysOfWeek:       []int{1, 2, 3, 4, 5, 6, 7},
	}
}

func activeCampaign() *domain.Campaign {
	return &domain.Campaign{
		ID:         "camp-1",
		Name:       "Outbound Q3",
		Status:     domain.CampaignActive,
		WebhookURL: "https://hooks.example/send",
		Schedule:   alwaysOpen(),
		Steps: []domain.Step{
			{Number: 1, SubjectTemplate: "Hi {{first_name}}", BodyTemplate: "Intro for {{company}}", DelayDays: 0, Active: true},
			{Number: 2, SubjectTemplate: "Bump", BodyTemplate: "Still interested?", DelayDays: 3, Active: true},
		},
		Leads: []domain.LeadEnrollment{
			{LeadID: "lead-1", Email: "jane@acme.example", Status: domain.EnrollmentPending, CurrentStep: 1},
		},
	}
}

func acmeLead() *domain.Lead {
	return &domain.Lead{ID: "lead-1", ContactName: "Jane Smith", FirstName: "Jane", Company: "Acme", Email: "jane@acme.example"}
}

func newTestEngine(store *fakeStore, leads *fakeLeads, sup *fakeSuppressions, gw *fakeGateway) (*Engine, *MemoryHistory) {
	history := NewMemoryHistory(50)
	return NewEngine(store, leads, sup, gw, history, nil), history
}

// --- tests ---

func TestRunTickTwoStepSequence(t *testing.T) {
	store := newFakeStore(activeCampaign())
	leads := newFakeLeads(acmeLead())
	gw := &fakeGateway{result: DispatchResult{Outcome: domain.DispatchSent}}
	engine, _ := newTestEngine(store, leads, newFakeSuppressions(), gw)
	ctx := context.Background()

	// Tick 1: step 1 sends immediately.
	stop, err := engine.RunTick(ctx, "camp-1")
	if err != nil || stop {
		t.Fatalf("tick 1: stop=%v err=%v", stop, err)
	}
	c := store.stored("camp-1")
	e := c.FindEnrollment("lead-1")
	if e.Status != domain.EnrollmentWaiting || e.CurrentStep != 2 || e.SentCount != 1 {
		t.Fatalf("after tick 1: %+v", e)
	}
	if c.Stats.EmailsSent != 1 || c.Stats.SendsToday != 1 {
		t.Fatalf("stats after tick 1: %+v", c.Stats)
	}
	if gw.calls[0].subject != "Hi Jane" || gw.calls[0].body != "Intro for Acme" {
		t.Fatalf("rendered call: %+v", gw.calls[0])
	}
	if len(leads.logged) != 1 || leads.logged[0].Step != 1 {
		t.Fatalf("outreach log: %+v", leads.logged)
	}

	// One day later: step 2 needs 3 days, so nothing is due.
	store.mutate("camp-1", func(c *domain.Campaign) {
		back := time.Now().Add(-24 * time.Hour)
		c.FindEnrollment("lead-1").LastSentAt = &back
		c.Stats.SendsToday = 0
	})
	engine.RunTick(ctx, "camp-1")
	if gw.callCount() != 1 {
		t.Fatal("step 2 dispatched before its delay elapsed")
	}

	// Three days later: step 2 sends, sequence completes.
	store.mutate("camp-1", func(c *domain.Campaign) {
		back := time.Now().Add(-73 * time.Hour)
		c.FindEnrollment("lead-1").LastSentAt = &back
	})
	stop, _ = engine.RunTick(ctx, "camp-1")
	if stop {
		t.Fatal("dispatching tick should not stop the timer")
	}
	e = store.stored("camp-1").FindEnrollment("lead-1")
	if e.Status != domain.EnrollmentCompleted || e.SentCount != 2 || e.LastStepSent != 2 {
		t.Fatalf("after final step: %+v", e)
	}

	// Next tick: everything terminal, campaign completes and timer stops.
	stop, _ = engine.RunTick(ctx, "camp-1")
	if !stop {
		t.Fatal("all-terminal tick should stop the timer")
	}
	c = store.stored("camp-1")
	if c.Status != domain.CampaignCompleted || c.CompletedAt == nil {
		t.Fatalf("campaign should be completed: %+v", c.Status)
	}
}

func TestRunTickCounterpartyFailure(t *testing.T) {
	store := newFakeStore(activeCampaign())
	gw := &fakeGateway{result: DispatchResult{Outcome: domain.DispatchFailed, Detail: "generation quota exceeded"}}
	engine, _ := newTestEngine(store, newFakeLeads(acmeLead()), newFakeSuppressions(), gw)
	ctx := context.Background()

	engine.RunTick(ctx, "camp-1")
	e := store.stored("camp-1").FindEnrollment("lead-1")
	if e.Status != domain.EnrollmentPending {
		t.Fatalf("status = %s, must stay pending", e.Status)
	}
	if e.SentCount != 0 || e.Error != "generation quota exceeded" {
		t.Fatalf("enrollment after failure: %+v", e)
	}

	// Same pair is selected again next tick.
	engine.RunTick(ctx, "camp-1")
	if gw.callCount() != 2 || gw.calls[1].step != 1 {
		t.Fatalf("retry calls: %+v", gw.calls)
	}
}

func TestRunTickTransportErrorNoStateChange(t *testing.T) {
	c := activeCampaign()
	c.Stats.LastSendReset = time.Now().UTC().Format("2006-01-02")
	store := newFakeStore(c)
	gw := &fakeGateway{result: DispatchResult{Outcome: domain.DispatchTransportError, Detail: "dial tcp: connection refused"}}
	engine, history := newTestEngine(store, newFakeLeads(acmeLead()), newFakeSuppressions(), gw)

	engine.RunTick(context.Background(), "camp-1")
	if store.saves != 0 {
		t.Fatalf("transport error must not persist anything, saves=%d", store.saves)
	}
	e := store.stored("camp-1").FindEnrollment("lead-1")
	if e.Status != domain.EnrollmentPending || e.Error != "" {
		t.Fatalf("enrollment mutated: %+v", e)
	}
	// The attempt is still visible in the history log.
	entries, _ := history.Recent(context.Background(), "camp-1", 10)
	if len(entries) != 1 || entries[0].Outcome != domain.DispatchTransportError {
		t.Fatalf("history: %+v", entries)
	}
}

func TestRunTickSuppressedConvergesToBlacklisted(t *testing.T) {
	store := newFakeStore(activeCampaign())
	gw := &fakeGateway{result: DispatchResult{Outcome: domain.DispatchSent}}
	engine, _ := newTestEngine(store, newFakeLeads(acmeLead()), newFakeSuppressions("jane@acme.example"), gw)

	engine.RunTick(context.Background(), "camp-1")
	e := store.stored("camp-1").FindEnrollment("lead-1")
	if e.Status != domain.EnrollmentBlacklisted {
		t.Fatalf("status = %s, want blacklisted within one tick", e.Status)
	}
	if gw.callCount() != 0 {
		t.Fatal("suppressed lead must never be dispatched")
	}
}

func TestRunTickDailyLimit(t *testing.T) {
	c := activeCampaign()
	c.Schedule.DailyLimit = 1
	c.Stats.SendsToday = 1
	c.Stats.LastSendReset = time.Now().UTC().Format("2006-01-02")
	store := newFakeStore(c)
	gw := &fakeGateway{result: DispatchResult{Outcome: domain.DispatchSent}}
	engine, _ := newTestEngine(store, newFakeLeads(acmeLead()), newFakeSuppressions(), gw)

	engine.RunTick(context.Background(), "camp-1")
	if gw.callCount() != 0 {
		t.Fatal("rate gate must block selection entirely")
	}
}

func TestRunTickWindowClosed(t *testing.T) {
	c := activeCampaign()
	c.Schedule.TimeWindows = nil // never open
	store := newFakeStore(c)
	gw := &fakeGateway{result: DispatchResult{Outcome: domain.DispatchSent}}
	engine, _ := newTestEngine(store, newFakeLeads(acmeLead()), newFakeSuppressions(), gw)

	stop, err := engine.RunTick(context.Background(), "camp-1")
	if err != nil || stop {
		t.Fatalf("closed window is a no-op tick, not an error: stop=%v err=%v", stop, err)
	}
	if gw.callCount() != 0 {
		t.Fatal("no selection outside the window")
	}
}

func TestRunTickInactiveCampaignStops(t *testing.T) {
	c := activeCampaign()
	c.Status = domain.CampaignPaused
	store := newFakeStore(c)
	gw := &fakeGateway{result: DispatchResult{Outcome: domain.DispatchSent}}
	engine, _ := newTestEngine(store, newFakeLeads(acmeLead()), newFakeSuppressions(), gw)

	stop, _ := engine.RunTick(context.Background(), "camp-1")
	if !stop {
		t.Fatal("non-active campaign must stop its own timer")
	}
	if gw.callCount() != 0 {
		t.Fatal("non-active campaign must not dispatch")
	}
}

func TestRunTickMissingCampaignStops(t *testing.T) {
	engine, _ := newTestEngine(newFakeStore(), newFakeLeads(), newFakeSuppressions(), &fakeGateway{})
	stop, err := engine.RunTick(context.Background(), "ghost")
	if err != nil || !stop {
		t.Fatalf("deleted campaign should stop quietly: stop=%v err=%v", stop, err)
	}
}

func TestRunTickMissingLeadRecord(t *testing.T) {
	store := newFakeStore(activeCampaign())
	gw := &fakeGateway{result: DispatchResult{Outcome: domain.DispatchSent}}
	engine, _ := newTestEngine(store, newFakeLeads(), newFakeSuppressions(), gw) // directory empty

	engine.RunTick(context.Background(), "camp-1")
	e := store.stored("camp-1").FindEnrollment("lead-1")
	if e.Status != domain.EnrollmentError || e.Error == "" {
		t.Fatalf("missing lead record should park the enrollment: %+v", e)
	}
	if gw.callCount() != 0 {
		t.Fatal("no dispatch without a lead record")
	}
}

func TestRunTickCounterpartyOverridesLoggedText(t *testing.T) {
	store := newFakeStore(activeCampaign())
	leads := newFakeLeads(acmeLead())
	gw := &fakeGateway{result: DispatchResult{
		Outcome: domain.DispatchSent,
		Subject: "AI subject",
		Body:    "AI body",
		From:    "sdr@ignite.example",
	}}
	engine, _ := newTestEngine(store, leads, newFakeSuppressions(), gw)

	engine.RunTick(context.Background(), "camp-1")
	if len(leads.logged) != 1 {
		t.Fatalf("outreach log: %+v", leads.logged)
	}
	m := leads.logged[0]
	if m.Subject != "AI subject" || m.Body != "AI body" || m.From != "sdr@ignite.example" {
		t.Fatalf("counterparty text must win in the outreach record: %+v", m)
	}
}
