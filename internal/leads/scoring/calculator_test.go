package scoring

import (
	"testing"

	"agencydesk_backend/internal/leads/domain"
)

func TestScoreDefaultWeights(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  int
	}{
		{
			name:  "empty lead scores zero",
			input: Input{},
			want:  0,
		},
		{
			name: "high budget referral urgent with full contact details",
			input: Input{
				Budget:       25000,
				Source:       "referral",
				Priority:     domain.PriorityUrgent,
				ContactEmail: "contact@acme.fr",
				ContactPhone: "+33612345678",
			},
			want: 85,
		},
		{
			name: "medium budget ads normal priority",
			input: Input{
				Budget:   5000,
				Source:   "google ads",
				Priority: domain.PriorityNormal,
			},
			want: 35,
		},
		{
			name: "low budget unknown source",
			input: Input{
				Budget: 500,
				Source: "salon",
			},
			want: 15,
		},
		{
			name: "boundary budget counts as medium tier",
			input: Input{
				Budget: 1000,
			},
			want: 20,
		},
		{
			name: "low priority contributes nothing",
			input: Input{
				Priority: domain.PriorityLow,
			},
			want: 0,
		},
		{
			name: "blank contact fields do not count",
			input: Input{
				ContactEmail: "   ",
				ContactPhone: "\t",
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.input, nil)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreClampsAtHundred(t *testing.T) {
	weights := Weights{
		WeightBudgetHigh:     90,
		WeightSourceReferral: 90,
		WeightHasEmail:       50,
	}
	input := Input{
		Budget:       50000,
		Source:       "referral",
		ContactEmail: "ceo@bigcorp.fr",
	}

	got, err := Score(input, weights)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if got != 100 {
		t.Errorf("Score() = %d, want clamp at 100", got)
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	budgets := []float64{-100, 0, 999.99, 1000, 9999, 10001, 1e9}
	sources := []string{"", "referral", "ads", "site web", "parrainage"}
	priorities := []string{"", domain.PriorityLow, domain.PriorityNormal, domain.PriorityHigh, domain.PriorityUrgent}

	for _, budget := range budgets {
		for _, source := range sources {
			for _, priority := range priorities {
				input := Input{
					Budget:       budget,
					Source:       source,
					Priority:     priority,
					ContactEmail: "x@y.fr",
					ContactPhone: "0612345678",
				}
				got, err := Score(input, nil)
				if err != nil {
					t.Fatalf("Score(%+v) error = %v", input, err)
				}
				if got < 0 || got > 100 {
					t.Fatalf("Score(%+v) = %d, out of [0,100]", input, got)
				}
			}
		}
	}
}

func TestScorePartialWeightsFallBackToDefaults(t *testing.T) {
	weights := Weights{WeightHasEmail: 42}
	input := Input{
		Budget:       20000,
		ContactEmail: "a@b.fr",
	}

	got, err := Score(input, weights)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	// budgetHigh default 30 + overridden hasEmail 42.
	if got != 72 {
		t.Errorf("Score() = %d, want 72", got)
	}
}

func TestScoreRejectsNegativeWeight(t *testing.T) {
	weights := Weights{WeightBudgetHigh: -5}

	if _, err := Score(Input{Budget: 20000}, weights); err == nil {
		t.Fatal("Score() with negative weight expected error, got nil")
	}
}
