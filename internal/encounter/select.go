package encounter

import (
	"cmp"
	"fmt"
	"slices"
)

// Candidate is one creature eligible for selection.
type Candidate struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Level  int      `json:"level"`
	Pack   string   `json:"pack,omitempty"`
	Traits []string `json:"traits,omitempty"`
}

// Pick is one selected candidate and the cost charged for it.
type Pick struct {
	Candidate Candidate `json:"candidate"`
	Cost      int       `json:"cost"`
}

// Result is the outcome of one selection.
// TotalSpent + RemainingBudget always equals the input budget.
type Result struct {
	Picks           []Pick `json:"picks"`
	TotalSpent      int    `json:"total_spent"`
	RemainingBudget int    `json:"remaining_budget"`
}

// SelectEncounter fills budget from pool by repeated uniform draws.
//
// Each round draws one candidate uniformly from those still in the pool
// whose cost fits the remaining budget; the drawn candidate's ID is then
// removed from the pool. Selection stops after desiredCount picks, when the
// budget is spent, when the pool is empty, or when nothing is affordable.
// None of those stops is an error.
//
// A nil costOf uses DefaultCostTable; a nil rng uses DefaultRNG. pool is
// not modified. Costs are looked up once per candidate; a negative cost is
// ErrInvalidInput.
func SelectEncounter(budget int, pool []Candidate, desiredCount int, costOf CostFunc, rng RandomSource) (Result, error) {
	if budget < 0 {
		return Result{}, fmt.Errorf("%w: budget must be >= 0, got %d", ErrInvalidInput, budget)
	}
	if desiredCount < 0 {
		return Result{}, fmt.Errorf("%w: desired count must be >= 0, got %d", ErrInvalidInput, desiredCount)
	}
	if costOf == nil {
		costOf = DefaultCostTable().Cost
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	working := make([]Pick, 0, len(pool))
	for _, c := range pool {
		cost := costOf(c.Level)
		if cost < 0 {
			return Result{}, fmt.Errorf("%w: cost for %q (level %d) is negative", ErrInvalidInput, c.ID, c.Level)
		}
		working = append(working, Pick{Candidate: c, Cost: cost})
	}
	slices.SortStableFunc(working, func(a, b Pick) int {
		return cmp.Compare(a.Candidate.Level, b.Candidate.Level)
	})

	remaining := budget
	picks := make([]Pick, 0, min(desiredCount, len(working)))
	affordable := make([]Pick, 0, len(working))

	for i := 0; i < desiredCount && remaining > 0 && len(working) > 0; i++ {
		affordable = affordable[:0]
		for _, p := range working {
			if p.Cost <= remaining {
				affordable = append(affordable, p)
			}
		}
		if len(affordable) == 0 {
			break
		}

		chosen := affordable[pickIndex(rng, len(affordable))]
		picks = append(picks, chosen)
		remaining -= chosen.Cost

		working = slices.DeleteFunc(working, func(p Pick) bool {
			return p.Candidate.ID == chosen.Candidate.ID
		})
	}

	return Result{
		Picks:           picks,
		TotalSpent:      budget - remaining,
		RemainingBudget: remaining,
	}, nil
}
