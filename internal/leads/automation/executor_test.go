package automation

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"agencydesk_backend/internal/clients"
	"agencydesk_backend/internal/leads/domain"
	"agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/platform/events"
	"agencydesk_backend/platform/logger"
)

type fakeActivityStore struct {
	activities []repository.Activity
}

func (f *fakeActivityStore) AddActivity(ctx context.Context, activity repository.Activity) (repository.Activity, error) {
	activity.ID = uuid.New()
	f.activities = append(f.activities, activity)
	return activity, nil
}

func (f *fakeActivityStore) ListActivities(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.Activity, error) {
	return f.activities, nil
}

func (f *fakeActivityStore) count(action string) int {
	count := 0
	for _, activity := range f.activities {
		if activity.Action == action {
			count++
		}
	}
	return count
}

type fakeLinker struct {
	links map[uuid.UUID]uuid.UUID
}

func newFakeLinker() *fakeLinker {
	return &fakeLinker{links: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeLinker) LinkClientAccount(ctx context.Context, leadID, clientID uuid.UUID) (bool, error) {
	if _, exists := f.links[leadID]; exists {
		return false, nil
	}
	f.links[leadID] = clientID
	return true, nil
}

type fakeConverter struct {
	accounts map[string]clients.ClientAccount
	projects int
}

func newFakeConverter() *fakeConverter {
	return &fakeConverter{accounts: make(map[string]clients.ClientAccount)}
}

func (f *fakeConverter) EnsureAccount(ctx context.Context, in clients.AccountInput) (clients.ClientAccount, bool, error) {
	if account, ok := f.accounts[in.Email]; ok {
		return account, true, nil
	}
	account := clients.ClientAccount{ID: uuid.New(), CompanyName: in.Company, Email: in.Email}
	f.accounts[in.Email] = account
	return account, false, nil
}

func (f *fakeConverter) OpenProject(ctx context.Context, clientID uuid.UUID, company string) (clients.Project, error) {
	f.projects++
	return clients.Project{ID: uuid.New(), ClientID: clientID}, nil
}

func TestConversionIsIdempotent(t *testing.T) {
	log := logger.New("development")
	activities := &fakeActivityStore{}
	linker := newFakeLinker()
	converter := newFakeConverter()
	bus := events.NewInMemoryBus(log)
	directory := &fakeDirectory{}
	executor := NewExecutor(activities, linker, directory, converter, bus, log)
	engine := newTestEngine(directory)

	s := allAutomationOff()
	lead := repository.Lead{
		ID:           uuid.New(),
		Company:      "Acme",
		ContactEmail: "jean@acme.fr",
		Status:       domain.StatusProposal,
	}
	won := lead
	won.Status = domain.StatusWon

	// First WON transition converts.
	result, effects, err := engine.ApplyOnTransition(context.Background(), lead, won, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	executor.Execute(context.Background(), result, nil, effects)

	// The stored lead now carries the link; a second WON transition must
	// change nothing.
	clientID := linker.links[lead.ID]
	result.ClientAccountID = &clientID
	again, effects, err := engine.ApplyOnTransition(context.Background(), result, result, true, s)
	if err != nil {
		t.Fatalf("ApplyOnTransition() error = %v", err)
	}
	executor.Execute(context.Background(), again, nil, effects)

	if len(converter.accounts) != 1 {
		t.Errorf("client accounts = %d, want exactly 1", len(converter.accounts))
	}
	if converter.projects != 1 {
		t.Errorf("projects = %d, want exactly 1", converter.projects)
	}
	if got := activities.count(repository.ActionConverted); got != 1 {
		t.Errorf("CONVERTED activities = %d, want exactly 1", got)
	}
}

func TestConversionSkipsProjectWhenAlreadyLinked(t *testing.T) {
	log := logger.New("development")
	activities := &fakeActivityStore{}
	linker := newFakeLinker()
	converter := newFakeConverter()
	executor := NewExecutor(activities, linker, &fakeDirectory{}, converter, events.NewInMemoryBus(log), log)

	lead := repository.Lead{
		ID:           uuid.New(),
		Company:      "Acme",
		ContactEmail: "jean@acme.fr",
		Status:       domain.StatusWon,
	}

	// Even if the engine somehow emits the effect twice for one lead, the
	// write-once link keeps the outcome single.
	executor.Execute(context.Background(), lead, nil, []Effect{ConvertToClient{}})
	executor.Execute(context.Background(), lead, nil, []Effect{ConvertToClient{}})

	if converter.projects != 1 {
		t.Errorf("projects = %d, want 1", converter.projects)
	}
	if got := activities.count(repository.ActionConverted); got != 1 {
		t.Errorf("CONVERTED activities = %d, want 1", got)
	}
}
