package settings

import (
	"context"
	"testing"
	"time"

	"agencydesk_backend/internal/leads/scoring"
	"agencydesk_backend/platform/apperr"
	"agencydesk_backend/platform/logger"
)

type fakeStore struct {
	saved   *Settings
	saveErr error
}

func (f *fakeStore) Get(ctx context.Context) (Settings, error) {
	if f.saved == nil {
		return Settings{}, ErrNotFound
	}
	return *f.saved, nil
}

func (f *fakeStore) Save(ctx context.Context, s Settings) (Settings, error) {
	if f.saveErr != nil {
		return Settings{}, f.saveErr
	}
	s.UpdatedAt = time.Now()
	f.saved = &s
	return s, nil
}

func newTestService(store Store) *Service {
	return NewService(store, logger.New("development"))
}

func boolPtr(v bool) *bool    { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestGetReturnsDefaultsWhenUnsaved(t *testing.T) {
	service := newTestService(&fakeStore{})

	got, err := service.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	defaults := Defaults()
	if got.ColdLeadThresholdDays != defaults.ColdLeadThresholdDays {
		t.Errorf("ColdLeadThresholdDays = %d, want default %d", got.ColdLeadThresholdDays, defaults.ColdLeadThresholdDays)
	}
	if !got.RoundRobinEnabled {
		t.Error("defaults should enable round-robin")
	}
}

func TestUpdateMergesPatchIntoCurrent(t *testing.T) {
	store := &fakeStore{}
	service := newTestService(store)

	_, err := service.Update(context.Background(), Patch{
		RoundRobinEnabled:     boolPtr(false),
		ColdLeadThresholdDays: intPtr(14),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	saved, err := service.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if saved.RoundRobinEnabled {
		t.Error("RoundRobinEnabled should be false after patch")
	}
	if saved.ColdLeadThresholdDays != 14 {
		t.Errorf("ColdLeadThresholdDays = %d, want 14", saved.ColdLeadThresholdDays)
	}
	// Untouched fields keep their defaults.
	if !saved.AutoQualifyEnabled {
		t.Error("AutoQualifyEnabled should keep its default value")
	}
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
	}{
		{"zero threshold", Patch{ColdLeadThresholdDays: intPtr(0)}},
		{"malformed daily run time", Patch{DailyRunAt: strPtr("25:00")}},
		{"unknown escalation mode", Patch{EscalationMode: strPtr("PAGE_EVERYONE")}},
		{"negative scoring weight", Patch{ScoringWeights: scoring.Weights{scoring.WeightHasEmail: -1}}},
		{"bad digest recipient", Patch{DigestRecipients: []string{"not-an-email"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(&fakeStore{})
			_, err := service.Update(context.Background(), tt.patch)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("Update() error = %v, want validation error", err)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock("08:30")
	if err != nil || hour != 8 || minute != 30 {
		t.Errorf("ParseClock(08:30) = %d, %d, %v", hour, minute, err)
	}

	for _, bad := range []string{"", "8h30", "24:00", "12:60", ":30"} {
		if _, _, err := ParseClock(bad); err == nil {
			t.Errorf("ParseClock(%q) expected error", bad)
		}
	}
}
