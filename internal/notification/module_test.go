package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"agencydesk_backend/internal/email"
	domainevents "agencydesk_backend/internal/events"
	"agencydesk_backend/internal/settings"
	"agencydesk_backend/platform/events"
	"agencydesk_backend/platform/logger"
)

type fakeSender struct {
	assigned  []string
	escalated []string
	digests   []string
	reports   []string
	converted []string
	fail      bool
}

func (f *fakeSender) SendLeadAssigned(ctx context.Context, to string, data email.AssignmentData) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.assigned = append(f.assigned, to)
	return nil
}

func (f *fakeSender) SendEscalation(ctx context.Context, to string, data email.EscalationData) error {
	f.escalated = append(f.escalated, to)
	return nil
}

func (f *fakeSender) SendDigest(ctx context.Context, to, subject string, data email.DigestData) error {
	f.digests = append(f.digests, to)
	return nil
}

func (f *fakeSender) SendWeeklyReport(ctx context.Context, to string, data email.WeeklyReportData) error {
	f.reports = append(f.reports, to)
	return nil
}

func (f *fakeSender) SendLeadConverted(ctx context.Context, to string, data email.ConversionData) error {
	f.converted = append(f.converted, to)
	return nil
}

type fakeSettings struct {
	current settings.Settings
}

func (f *fakeSettings) Get(ctx context.Context) (settings.Settings, error) {
	return f.current, nil
}

func newTestModule(sender *fakeSender, recipients []string) (*Module, *events.InMemoryBus) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	dispatcher := NewDirectDispatcher(sender, log)
	current := settings.Defaults()
	current.DigestRecipients = recipients

	module := NewModule(bus, dispatcher, &fakeSettings{current: current}, "https://crm.example.fr", log)
	return module, bus
}

func TestDirectDispatcherSendsAssignment(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := NewDirectDispatcher(sender, logger.New("development"))

	result := dispatcher.Send(context.Background(), Request{
		Kind:       KindLeadAssigned,
		Recipient:  "alice@agence.fr",
		Assignment: &email.AssignmentData{AssigneeName: "Alice", Company: "Acme"},
	})

	if !result.Sent || result.Err != nil {
		t.Fatalf("Send() = %+v, want sent", result)
	}
	if len(sender.assigned) != 1 || sender.assigned[0] != "alice@agence.fr" {
		t.Errorf("assignment emails = %v", sender.assigned)
	}
}

func TestDirectDispatcherReportsFailureWithoutError(t *testing.T) {
	sender := &fakeSender{fail: true}
	dispatcher := NewDirectDispatcher(sender, logger.New("development"))

	result := dispatcher.Send(context.Background(), Request{
		Kind:       KindLeadAssigned,
		Recipient:  "alice@agence.fr",
		Assignment: &email.AssignmentData{Company: "Acme"},
	})

	if result.Sent {
		t.Error("Send() reported sent despite sender failure")
	}
	if result.Err == nil {
		t.Error("Send() should surface the failure in the result")
	}
}

func TestDirectDispatcherRejectsMissingPayload(t *testing.T) {
	dispatcher := NewDirectDispatcher(&fakeSender{}, logger.New("development"))

	result := dispatcher.Send(context.Background(), Request{
		Kind:      KindEscalation,
		Recipient: "manager@agence.fr",
	})
	if result.Sent || result.Err == nil {
		t.Errorf("Send() without payload = %+v, want failure", result)
	}
}

func TestModuleSendsAssignmentOnEvent(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newTestModule(sender, nil)

	err := bus.PublishSync(context.Background(), domainevents.LeadAssigned{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        uuid.New(),
		Company:       "Acme",
		AssigneeName:  "Alice",
		AssigneeEmail: "alice@agence.fr",
	})
	if err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}
	if len(sender.assigned) != 1 {
		t.Fatalf("assignment emails = %d, want 1", len(sender.assigned))
	}
}

func TestModuleSkipsAssignmentWithoutEmail(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newTestModule(sender, nil)

	err := bus.PublishSync(context.Background(), domainevents.LeadAssigned{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		Company:   "Acme",
	})
	if err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}
	if len(sender.assigned) != 0 {
		t.Error("no email expected when the assignee has no address")
	}
}

func TestModuleSendsEscalationToManager(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newTestModule(sender, nil)

	err := bus.PublishSync(context.Background(), domainevents.LeadEscalated{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       uuid.New(),
		Company:      "Acme",
		DaysInactive: 5,
		ManagerEmail: "chef@agence.fr",
	})
	if err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}
	if len(sender.escalated) != 1 || sender.escalated[0] != "chef@agence.fr" {
		t.Errorf("escalation emails = %v", sender.escalated)
	}
}

func TestModuleSendsConversionToDigestRecipients(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newTestModule(sender, []string{"direction@agence.fr", "ventes@agence.fr"})

	err := bus.PublishSync(context.Background(), domainevents.LeadConverted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		ClientID:  uuid.New(),
		Company:   "Acme",
	})
	if err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}
	if len(sender.converted) != 2 {
		t.Errorf("conversion notices = %d, want one per recipient", len(sender.converted))
	}
}
