package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	domainevents "agencydesk_backend/internal/events"
	"agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/internal/settings"
	"agencydesk_backend/internal/users"
	"agencydesk_backend/platform/events"
	"agencydesk_backend/platform/logger"
)

var sweepNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

type fakeSweepSource struct {
	stale []repository.Lead
}

func (f *fakeSweepSource) ListInactive(ctx context.Context, cutoff time.Time) ([]repository.Lead, error) {
	out := make([]repository.Lead, 0)
	for _, lead := range f.stale {
		if lead.UpdatedAt.Before(cutoff) {
			out = append(out, lead)
		}
	}
	return out, nil
}

type fakeWriter struct {
	assignments map[uuid.UUID]uuid.UUID
}

func (f *fakeWriter) UpdateAssignment(ctx context.Context, id uuid.UUID, assignee *uuid.UUID) error {
	if f.assignments == nil {
		f.assignments = make(map[uuid.UUID]uuid.UUID)
	}
	f.assignments[id] = *assignee
	return nil
}

type fakeActivities struct {
	entries []repository.Activity
}

func (f *fakeActivities) AddActivity(ctx context.Context, activity repository.Activity) (repository.Activity, error) {
	f.entries = append(f.entries, activity)
	return activity, nil
}

func (f *fakeActivities) ListActivities(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.Activity, error) {
	return f.entries, nil
}

type fakeDirectory struct {
	byID      map[uuid.UUID]users.User
	assignees []users.User
}

func (f *fakeDirectory) GetByID(ctx context.Context, id uuid.UUID) (users.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return user, nil
}

func (f *fakeDirectory) ListEligibleAssignees(ctx context.Context) ([]users.User, error) {
	return f.assignees, nil
}

func (f *fakeDirectory) ListManagers(ctx context.Context) ([]users.User, error) {
	return nil, nil
}

type capturedEvents struct {
	escalated []domainevents.LeadEscalated
	assigned  []domainevents.LeadAssigned
}

func captureEvents(bus *events.InMemoryBus) *capturedEvents {
	captured := &capturedEvents{}
	bus.Subscribe(domainevents.LeadEscalatedName, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		captured.escalated = append(captured.escalated, e.(domainevents.LeadEscalated))
		return nil
	}))
	bus.Subscribe(domainevents.LeadAssignedName, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		captured.assigned = append(captured.assigned, e.(domainevents.LeadAssigned))
		return nil
	}))
	return captured
}

func staleLead(assignee *uuid.UUID, daysOld int) repository.Lead {
	return repository.Lead{
		ID:         uuid.New(),
		Company:    "Acme",
		Status:     "CONTACTED",
		AssignedTo: assignee,
		UpdatedAt:  sweepNow.AddDate(0, 0, -daysOld),
	}
}

func sweepSettings(mode string, manager *uuid.UUID) settings.Settings {
	s := settings.Defaults()
	s.EscalationThresholdDays = 3
	s.EscalationMode = mode
	s.EscalationManagerID = manager
	return s
}

func newSweepService(source *fakeSweepSource, writer *fakeWriter, activities *fakeActivities, directory *fakeDirectory) (*Service, *capturedEvents) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	captured := captureEvents(bus)
	return NewService(source, writer, activities, directory, bus, log), captured
}

func TestSweepNotifiesManager(t *testing.T) {
	managerID := uuid.New()
	assigneeID := uuid.New()
	directory := &fakeDirectory{byID: map[uuid.UUID]users.User{
		managerID:  {ID: managerID, Name: "Chef", Email: "chef@agence.fr"},
		assigneeID: {ID: assigneeID, Name: "Alice", Email: "alice@agence.fr"},
	}}
	source := &fakeSweepSource{stale: []repository.Lead{staleLead(&assigneeID, 5)}}
	writer := &fakeWriter{}
	activities := &fakeActivities{}
	service, captured := newSweepService(source, writer, activities, directory)

	result, err := service.Sweep(context.Background(), sweepSettings(settings.EscalationNotifyManager, &managerID), sweepNow)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Scanned != 1 || result.Escalated != 1 {
		t.Errorf("result = %+v, want 1 scanned and 1 escalated", result)
	}
	if len(captured.escalated) != 1 {
		t.Fatalf("escalation events = %d, want 1", len(captured.escalated))
	}
	event := captured.escalated[0]
	if event.ManagerEmail != "chef@agence.fr" {
		t.Errorf("manager email = %q", event.ManagerEmail)
	}
	if event.DaysInactive != 5 {
		t.Errorf("daysInactive = %d, want 5", event.DaysInactive)
	}
	if event.Reassigned {
		t.Error("NOTIFY_MANAGER mode must not reassign")
	}
	if len(writer.assignments) != 0 {
		t.Error("no assignment change expected in NOTIFY_MANAGER mode")
	}
}

func TestSweepReassignsToAnotherAssignee(t *testing.T) {
	alice := users.User{ID: uuid.New(), Name: "Alice", Email: "alice@agence.fr"}
	bob := users.User{ID: uuid.New(), Name: "Bob", Email: "bob@agence.fr"}
	directory := &fakeDirectory{
		byID:      map[uuid.UUID]users.User{alice.ID: alice, bob.ID: bob},
		assignees: []users.User{alice, bob},
	}
	lead := staleLead(&alice.ID, 4)
	source := &fakeSweepSource{stale: []repository.Lead{lead}}
	writer := &fakeWriter{}
	activities := &fakeActivities{}
	service, captured := newSweepService(source, writer, activities, directory)

	result, err := service.Sweep(context.Background(), sweepSettings(settings.EscalationReassign, nil), sweepNow)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Escalated != 1 {
		t.Fatalf("escalated = %d, want 1", result.Escalated)
	}
	newOwner, ok := writer.assignments[lead.ID]
	if !ok {
		t.Fatal("lead was not reassigned")
	}
	if newOwner == alice.ID {
		t.Error("reassignment picked the current assignee")
	}
	if len(captured.assigned) != 1 {
		t.Errorf("assignment events = %d, want 1", len(captured.assigned))
	}
	if len(captured.escalated) != 1 || !captured.escalated[0].Reassigned {
		t.Error("escalation event should flag the reassignment")
	}
}

func TestSweepBothModeNotifiesAndReassigns(t *testing.T) {
	managerID := uuid.New()
	alice := users.User{ID: uuid.New(), Name: "Alice", Email: "alice@agence.fr"}
	bob := users.User{ID: uuid.New(), Name: "Bob", Email: "bob@agence.fr"}
	directory := &fakeDirectory{
		byID: map[uuid.UUID]users.User{
			managerID: {ID: managerID, Name: "Chef", Email: "chef@agence.fr"},
			alice.ID:  alice, bob.ID: bob,
		},
		assignees: []users.User{alice, bob},
	}
	lead := staleLead(&alice.ID, 10)
	source := &fakeSweepSource{stale: []repository.Lead{lead}}
	writer := &fakeWriter{}
	service, captured := newSweepService(source, writer, &fakeActivities{}, directory)

	_, err := service.Sweep(context.Background(), sweepSettings(settings.EscalationBoth, &managerID), sweepNow)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if len(writer.assignments) != 1 {
		t.Error("BOTH mode should reassign")
	}
	if len(captured.escalated) != 1 || captured.escalated[0].ManagerEmail == "" {
		t.Error("BOTH mode should notify the manager")
	}
}

func TestSweepWithoutManagerStillEscalates(t *testing.T) {
	assigneeID := uuid.New()
	directory := &fakeDirectory{byID: map[uuid.UUID]users.User{}}
	source := &fakeSweepSource{stale: []repository.Lead{staleLead(&assigneeID, 6)}}
	service, captured := newSweepService(source, &fakeWriter{}, &fakeActivities{}, directory)

	result, err := service.Sweep(context.Background(), sweepSettings(settings.EscalationNotifyManager, nil), sweepNow)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if result.Escalated != 1 {
		t.Errorf("escalated = %d, want 1 even without a manager", result.Escalated)
	}
	if len(captured.escalated) != 1 || captured.escalated[0].ManagerEmail != "" {
		t.Error("event should carry no manager email when none is configured")
	}
}

func TestSweepSkipsUnassignedLeads(t *testing.T) {
	alice := users.User{ID: uuid.New(), Name: "Alice", Email: "alice@agence.fr"}
	directory := &fakeDirectory{
		byID:      map[uuid.UUID]users.User{alice.ID: alice},
		assignees: []users.User{alice},
	}
	source := &fakeSweepSource{stale: []repository.Lead{staleLead(nil, 6)}}
	writer := &fakeWriter{}
	activities := &fakeActivities{}
	service, captured := newSweepService(source, writer, activities, directory)

	result, err := service.Sweep(context.Background(), sweepSettings(settings.EscalationReassign, nil), sweepNow)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Scanned != 0 || result.Escalated != 0 {
		t.Errorf("result = %+v, want nothing scanned or escalated for an unowned lead", result)
	}
	if len(writer.assignments) != 0 {
		t.Error("an unowned lead must not be handed an assignee by the sweep")
	}
	if len(captured.escalated) != 0 {
		t.Errorf("escalation events = %d, want 0", len(captured.escalated))
	}
	if len(activities.entries) != 0 {
		t.Errorf("activity entries = %d, want 0", len(activities.entries))
	}
}

func TestSweepIgnoresFreshLeads(t *testing.T) {
	assigneeID := uuid.New()
	source := &fakeSweepSource{stale: []repository.Lead{staleLead(&assigneeID, 1)}}
	service, _ := newSweepService(source, &fakeWriter{}, &fakeActivities{}, &fakeDirectory{})

	result, err := service.Sweep(context.Background(), sweepSettings(settings.EscalationNotifyManager, nil), sweepNow)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if result.Scanned != 0 {
		t.Errorf("scanned = %d, want 0 for leads inside the threshold", result.Scanned)
	}
}

func TestSweepRecordsEscalationActivity(t *testing.T) {
	assigneeID := uuid.New()
	activities := &fakeActivities{}
	source := &fakeSweepSource{stale: []repository.Lead{staleLead(&assigneeID, 6)}}
	service, _ := newSweepService(source, &fakeWriter{}, activities, &fakeDirectory{})

	if _, err := service.Sweep(context.Background(), sweepSettings(settings.EscalationNotifyManager, nil), sweepNow); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	found := false
	for _, entry := range activities.entries {
		if entry.Action == repository.ActionEscalated {
			found = true
		}
	}
	if !found {
		t.Error("expected an ESCALATED activity entry")
	}
}
