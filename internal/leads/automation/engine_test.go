package automation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"agencydesk_backend/internal/leads/domain"
	"agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/internal/leads/scoring"
	"agencydesk_backend/internal/settings"
	"agencydesk_backend/internal/users"
)

type fakeDirectory struct {
	assignees []users.User
}

func (f *fakeDirectory) GetByID(ctx context.Context, id uuid.UUID) (users.User, error) {
	for _, user := range f.assignees {
		if user.ID == id {
			return user, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (f *fakeDirectory) ListEligibleAssignees(ctx context.Context) ([]users.User, error) {
	return f.assignees, nil
}

func (f *fakeDirectory) ListManagers(ctx context.Context) ([]users.User, error) {
	return nil, nil
}

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestEngine(directory users.Directory) *Engine {
	engine := NewEngine(directory)
	engine.now = func() time.Time { return testNow }
	return engine
}

func allAutomationOff() settings.Settings {
	s := settings.Defaults()
	s.RoundRobinEnabled = false
	s.AutoQualifyEnabled = false
	s.StatusRulesEnabled = false
	s.AssignmentEmailEnabled = false
	s.ActivityLogEnabled = false
	s.ScoringEnabled = false
	return s
}

func countEffects(effects []Effect, match func(Effect) bool) int {
	count := 0
	for _, effect := range effects {
		if match(effect) {
			count++
		}
	}
	return count
}

func activityCount(effects []Effect, action string) int {
	return countEffects(effects, func(e Effect) bool {
		logged, ok := e.(LogActivity)
		return ok && logged.Action == action
	})
}

func TestApplyOnCreateDefaults(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()

	lead, _, err := engine.ApplyOnCreate(context.Background(), repository.Lead{Company: "Acme"}, s)
	if err != nil {
		t.Fatalf("ApplyOnCreate() error = %v", err)
	}

	if lead.Status != domain.StatusLead {
		t.Errorf("status = %q, want %q", lead.Status, domain.StatusLead)
	}
	if lead.Priority != domain.PriorityNormal {
		t.Errorf("priority = %q, want %q", lead.Priority, domain.PriorityNormal)
	}
	if !lead.StatusChangedAt.Equal(testNow) {
		t.Errorf("statusChangedAt = %v, want creation time", lead.StatusChangedAt)
	}
}

func TestApplyOnCreateAutoQualifies(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()
	s.AutoQualifyEnabled = true
	s.ActivityLogEnabled = true

	lead, effects, err := engine.ApplyOnCreate(context.Background(), repository.Lead{
		Company: "Acme",
		Status:  domain.StatusLead,
		Budget:  5000,
		Source:  "site web",
	}, s)
	if err != nil {
		t.Fatalf("ApplyOnCreate() error = %v", err)
	}

	if lead.Status != domain.StatusQualified {
		t.Errorf("status = %q, want auto-qualified to %q", lead.Status, domain.StatusQualified)
	}
	if activityCount(effects, repository.ActionAutoQualified) != 1 {
		t.Error("expected one AUTO_QUALIFIED activity effect")
	}
}

func TestApplyOnCreateNoAutoQualifyWithoutBudgetOrSource(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()
	s.AutoQualifyEnabled = true

	tests := []struct {
		name string
		lead repository.Lead
	}{
		{"missing budget", repository.Lead{Company: "Acme", Source: "ads"}},
		{"missing source", repository.Lead{Company: "Acme", Budget: 5000}},
		{"blank source", repository.Lead{Company: "Acme", Budget: 5000, Source: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead, _, err := engine.ApplyOnCreate(context.Background(), tt.lead, s)
			if err != nil {
				t.Fatalf("ApplyOnCreate() error = %v", err)
			}
			if lead.Status != domain.StatusLead {
				t.Errorf("status = %q, want %q", lead.Status, domain.StatusLead)
			}
		})
	}
}

func TestAutoQualifyRespectsExplicitStatus(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()
	s.AutoQualifyEnabled = true

	current := repository.Lead{
		ID: uuid.New(), Company: "Acme",
		Status: domain.StatusLead, Budget: 5000, Source: "ads",
	}

	// The caller explicitly keeps the lead in LEAD.
	updated, _, err := engine.ApplyOnTransition(context.Background(), current, current, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	if updated.Status != domain.StatusLead {
		t.Errorf("explicit status overridden to %q", updated.Status)
	}

	// Same update without an explicit status advances the lead.
	updated, _, err = engine.ApplyOnTransition(context.Background(), current, current, false, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	if updated.Status != domain.StatusQualified {
		t.Errorf("status = %q, want %q", updated.Status, domain.StatusQualified)
	}
}

func TestRoundRobinAssignsOnCreate(t *testing.T) {
	alice := users.User{ID: uuid.New(), Name: "Alice", Email: "alice@agence.fr"}
	bob := users.User{ID: uuid.New(), Name: "Bob", Email: "bob@agence.fr"}
	engine := newTestEngine(&fakeDirectory{assignees: []users.User{alice, bob}})

	s := allAutomationOff()
	s.RoundRobinEnabled = true
	s.AssignmentEmailEnabled = true
	s.ActivityLogEnabled = true

	first, effects, err := engine.ApplyOnCreate(context.Background(), repository.Lead{Company: "A"}, s)
	if err != nil {
		t.Fatalf("ApplyOnCreate() error = %v", err)
	}
	second, _, err := engine.ApplyOnCreate(context.Background(), repository.Lead{Company: "B"}, s)
	if err != nil {
		t.Fatalf("ApplyOnCreate() error = %v", err)
	}

	if first.AssignedTo == nil || *first.AssignedTo != alice.ID {
		t.Errorf("first lead assigned to %v, want %s", first.AssignedTo, alice.ID)
	}
	if second.AssignedTo == nil || *second.AssignedTo != bob.ID {
		t.Errorf("second lead assigned to %v, want %s", second.AssignedTo, bob.ID)
	}

	if activityCount(effects, repository.ActionAssigned) != 1 {
		t.Error("expected an ASSIGNED activity effect")
	}
	notify := countEffects(effects, func(e Effect) bool { _, ok := e.(NotifyAssignment); return ok })
	if notify != 1 {
		t.Error("expected a NotifyAssignment effect")
	}
}

func TestRoundRobinKeepsExplicitAssignee(t *testing.T) {
	alice := users.User{ID: uuid.New(), Name: "Alice", Email: "alice@agence.fr"}
	engine := newTestEngine(&fakeDirectory{assignees: []users.User{alice}})
	s := allAutomationOff()
	s.RoundRobinEnabled = true

	chosen := uuid.New()
	lead, _, err := engine.ApplyOnCreate(context.Background(), repository.Lead{
		Company: "Acme", AssignedTo: &chosen,
	}, s)
	if err != nil {
		t.Fatalf("ApplyOnCreate() error = %v", err)
	}
	if lead.AssignedTo == nil || *lead.AssignedTo != chosen {
		t.Error("round-robin must not override an explicit assignee")
	}
}

func TestContactedStampsLastContact(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()
	s.StatusRulesEnabled = true

	current := repository.Lead{ID: uuid.New(), Company: "Acme", Status: domain.StatusQualified}
	updated := current
	updated.Status = domain.StatusContacted

	result, _, err := engine.ApplyOnTransition(context.Background(), current, updated, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	if result.LastContactAt == nil || !result.LastContactAt.Equal(testNow) {
		t.Errorf("lastContactAt = %v, want %v", result.LastContactAt, testNow)
	}

	// An existing contact date survives the transition.
	earlier := testNow.AddDate(0, 0, -2)
	current.LastContactAt = &earlier
	updated = current
	updated.Status = domain.StatusContacted

	result, _, err = engine.ApplyOnTransition(context.Background(), current, updated, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	if result.LastContactAt == nil || !result.LastContactAt.Equal(earlier) {
		t.Errorf("lastContactAt = %v, want untouched %v", result.LastContactAt, earlier)
	}
}

func TestProposalSchedulesFollowUpOnce(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()
	s.StatusRulesEnabled = true
	s.ProposalFollowUpDays = 7

	current := repository.Lead{ID: uuid.New(), Company: "Acme", Status: domain.StatusDemo}
	updated := current
	updated.Status = domain.StatusProposal

	result, _, err := engine.ApplyOnTransition(context.Background(), current, updated, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	want := testNow.AddDate(0, 0, 7)
	if result.NextActionAt == nil || !result.NextActionAt.Equal(want) {
		t.Errorf("nextActionAt = %v, want %v", result.NextActionAt, want)
	}

	// Re-entering PROPOSAL with a follow-up already planned keeps the date.
	planned := testNow.AddDate(0, 0, 2)
	current = result
	current.Status = domain.StatusDemo
	current.NextActionAt = &planned
	updated = current
	updated.Status = domain.StatusProposal

	result, _, err = engine.ApplyOnTransition(context.Background(), current, updated, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	if result.NextActionAt == nil || !result.NextActionAt.Equal(planned) {
		t.Errorf("nextActionAt = %v, want untouched %v", result.NextActionAt, planned)
	}
}

func TestClosingClearsNextAction(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()
	s.StatusRulesEnabled = true
	s.ClearNextActionOnClose = true

	planned := testNow.AddDate(0, 0, 3)
	current := repository.Lead{
		ID: uuid.New(), Company: "Acme",
		Status: domain.StatusProposal, NextActionAt: &planned,
	}
	updated := current
	updated.Status = domain.StatusLost

	result, _, err := engine.ApplyOnTransition(context.Background(), current, updated, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	if result.NextActionAt != nil {
		t.Errorf("nextActionAt = %v, want cleared on close", result.NextActionAt)
	}
}

func TestStatusChangedAtOnlyMovesOnTransition(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()

	changedAt := testNow.AddDate(0, 0, -10)
	current := repository.Lead{
		ID: uuid.New(), Company: "Acme",
		Status: domain.StatusContacted, StatusChangedAt: changedAt,
	}

	// Same status: the marker stays put.
	updated := current
	updated.Budget = 9000
	result, _, err := engine.ApplyOnTransition(context.Background(), current, updated, false, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	if !result.StatusChangedAt.Equal(changedAt) {
		t.Errorf("statusChangedAt moved to %v without a transition", result.StatusChangedAt)
	}

	// A real transition stamps it.
	updated = current
	updated.Status = domain.StatusDemo
	result, _, err = engine.ApplyOnTransition(context.Background(), current, updated, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	if !result.StatusChangedAt.Equal(testNow) {
		t.Errorf("statusChangedAt = %v, want %v", result.StatusChangedAt, testNow)
	}
}

func TestWonRequestsConversionOnlyWhenUnlinked(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()

	current := repository.Lead{ID: uuid.New(), Company: "Acme", Status: domain.StatusProposal}
	updated := current
	updated.Status = domain.StatusWon

	_, effects, err := engine.ApplyOnTransition(context.Background(), current, updated, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	converts := countEffects(effects, func(e Effect) bool { _, ok := e.(ConvertToClient); return ok })
	if converts != 1 {
		t.Errorf("ConvertToClient effects = %d, want 1", converts)
	}

	// Already linked: re-entering WON requests nothing.
	clientID := uuid.New()
	current.Status = domain.StatusWon
	current.ClientAccountID = &clientID
	updated = current

	_, effects, err = engine.ApplyOnTransition(context.Background(), current, updated, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	converts = countEffects(effects, func(e Effect) bool { _, ok := e.(ConvertToClient); return ok })
	if converts != 0 {
		t.Errorf("ConvertToClient effects = %d on a linked lead, want 0", converts)
	}
}

func TestScoringAppliedWhenEnabled(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()
	s.ScoringEnabled = true

	lead, _, err := engine.ApplyOnCreate(context.Background(), repository.Lead{
		Company:      "Acme",
		Budget:       25000,
		Source:       "referral",
		Priority:     domain.PriorityUrgent,
		ContactEmail: "jean@acme.fr",
		ContactPhone: "0612345678",
	}, s)
	if err != nil {
		t.Fatalf("ApplyOnCreate() error = %v", err)
	}
	if lead.Score == nil {
		t.Fatal("score should be set when scoring is enabled")
	}
	if *lead.Score != 85 {
		t.Errorf("score = %d, want 85 with default weights", *lead.Score)
	}
}

func TestScoringDisabledLeavesScoreUnset(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()

	lead, _, err := engine.ApplyOnCreate(context.Background(), repository.Lead{
		Company: "Acme",
		Budget:  25000,
		Source:  "referral",
	}, s)
	if err != nil {
		t.Fatalf("ApplyOnCreate() error = %v", err)
	}
	if lead.Score != nil {
		t.Errorf("score = %d, want no score when scoring is disabled", *lead.Score)
	}
}

func TestScoringConfigErrorFailsOperation(t *testing.T) {
	engine := newTestEngine(&fakeDirectory{})
	s := allAutomationOff()
	s.ScoringEnabled = true
	s.ScoringWeights = scoring.Weights{scoring.WeightHasEmail: -1}

	_, _, err := engine.ApplyOnCreate(context.Background(), repository.Lead{Company: "Acme"}, s)
	if err == nil {
		t.Fatal("expected a malformed weight table to fail the operation")
	}
}
