// Package scoring computes lead scores from commercial and contact signals.
// The calculator is pure: no I/O, deterministic for a given lead and weight
// table.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"agencydesk_backend/internal/leads/domain"
)

// Weight keys. Each key has a documented default applied when the weight
// table does not carry it.
const (
	WeightBudgetHigh     = "budgetHigh"
	WeightBudgetMedium   = "budgetMedium"
	WeightBudgetLow      = "budgetLow"
	WeightSourceReferral = "sourceReferral"
	WeightSourceAds      = "sourceAds"
	WeightSourceOther    = "sourceOther"
	WeightPriorityUrgent = "priorityUrgent"
	WeightPriorityHigh   = "priorityHigh"
	WeightPriorityNormal = "priorityNormal"
	WeightHasEmail       = "hasEmail"
	WeightHasPhone       = "hasPhone"
)

// Budget tier boundaries, in the account currency.
const (
	budgetHighFloor   = 10000.0
	budgetMediumFloor = 1000.0
)

// Weights maps weight keys to their point contribution. Missing keys fall
// back to DefaultWeights.
type Weights map[string]float64

// DefaultWeights is the weight table used when settings carry no override.
var DefaultWeights = Weights{
	WeightBudgetHigh:     30,
	WeightBudgetMedium:   20,
	WeightBudgetLow:      10,
	WeightSourceReferral: 20,
	WeightSourceAds:      10,
	WeightSourceOther:    5,
	WeightPriorityUrgent: 15,
	WeightPriorityHigh:   10,
	WeightPriorityNormal: 5,
	WeightHasEmail:       10,
	WeightHasPhone:       10,
}

// Input carries the lead attributes that contribute to the score.
type Input struct {
	Budget       float64
	Source       string
	Priority     string
	ContactEmail string
	ContactPhone string
}

// Score computes the lead score in [0, 100]. Every contribution is
// non-negative, so only the upper bound needs clamping. A negative or
// non-finite weight indicates a configuration bug and fails the operation.
func Score(in Input, weights Weights) (int, error) {
	if err := ValidateWeights(weights); err != nil {
		return 0, err
	}

	total := 0.0
	total += budgetContribution(in.Budget, weights)
	total += sourceContribution(in.Source, weights)
	total += priorityContribution(in.Priority, weights)

	if strings.TrimSpace(in.ContactEmail) != "" {
		total += weightOr(weights, WeightHasEmail)
	}
	if strings.TrimSpace(in.ContactPhone) != "" {
		total += weightOr(weights, WeightHasPhone)
	}

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}
	return score, nil
}

func budgetContribution(budget float64, weights Weights) float64 {
	switch {
	case budget > budgetHighFloor:
		return weightOr(weights, WeightBudgetHigh)
	case budget >= budgetMediumFloor:
		return weightOr(weights, WeightBudgetMedium)
	case budget > 0:
		return weightOr(weights, WeightBudgetLow)
	default:
		return 0
	}
}

func sourceContribution(source string, weights Weights) float64 {
	normalized := strings.ToLower(strings.TrimSpace(source))
	switch {
	case normalized == "":
		return 0
	case strings.Contains(normalized, "referral") || strings.Contains(normalized, "parrainage"):
		return weightOr(weights, WeightSourceReferral)
	case strings.Contains(normalized, "ads") || strings.Contains(normalized, "pub"):
		return weightOr(weights, WeightSourceAds)
	default:
		return weightOr(weights, WeightSourceOther)
	}
}

func priorityContribution(priority string, weights Weights) float64 {
	switch strings.ToUpper(strings.TrimSpace(priority)) {
	case domain.PriorityUrgent:
		return weightOr(weights, WeightPriorityUrgent)
	case domain.PriorityHigh:
		return weightOr(weights, WeightPriorityHigh)
	case domain.PriorityNormal:
		return weightOr(weights, WeightPriorityNormal)
	default:
		return 0
	}
}

func weightOr(weights Weights, key string) float64 {
	if weights != nil {
		if value, ok := weights[key]; ok {
			return value
		}
	}
	return DefaultWeights[key]
}

// ValidateWeights rejects weight tables carrying negative or non-finite
// values. Settings updates run the same check before persisting.
func ValidateWeights(weights Weights) error {
	for key, value := range weights {
		if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("invalid scoring weight %q: %v", key, value)
		}
	}
	return nil
}
