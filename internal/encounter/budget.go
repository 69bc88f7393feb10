package encounter

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput reports a negative party size, count or budget, or a
// malformed cost table.
var ErrInvalidInput = errors.New("invalid encounter input")

const (
	// BaselinePartySize is the party size the base budgets are written for.
	BaselinePartySize = 4
	// PerMemberAdjustment shifts the budget for each member above or below baseline.
	PerMemberAdjustment = 20
	// BudgetFloor is the smallest budget ever returned (the trivial base).
	BudgetFloor = 40
	// MaxPartySize is the largest party ValidatePartySize accepts.
	MaxPartySize = 100
)

var baseBudget = map[DifficultyTier]int{
	TierTrivial:  40,
	TierLow:      60,
	TierModerate: 80,
	TierSevere:   120,
	TierExtreme:  160,
}

// BaseBudget returns the four-member budget for t. Unrecognized tiers use
// the moderate value.
func BaseBudget(t DifficultyTier) int {
	if b, ok := baseBudget[t]; ok {
		return b
	}
	return baseBudget[TierModerate]
}

// ComputeBudget converts a party size and tier into a point budget:
// base + (partySize-4)*20, never below BudgetFloor. Sizes whose budget
// would overflow saturate at math.MaxInt.
func ComputeBudget(partySize int, tier DifficultyTier) int {
	base := BaseBudget(tier)
	switch {
	case partySize < math.MinInt/PerMemberAdjustment+BaselinePartySize:
		return BudgetFloor
	case partySize-BaselinePartySize > (math.MaxInt-base)/PerMemberAdjustment:
		return math.MaxInt
	}
	budget := base + (partySize-BaselinePartySize)*PerMemberAdjustment
	return max(budget, BudgetFloor)
}

// ValidatePartySize rejects party sizes outside 1..MaxPartySize.
func ValidatePartySize(partySize int) error {
	if partySize < 1 {
		return fmt.Errorf("%w: party size must be >= 1, got %d", ErrInvalidInput, partySize)
	}
	if partySize > MaxPartySize {
		return fmt.Errorf("%w: party size must be <= %d, got %d", ErrInvalidInput, MaxPartySize, partySize)
	}
	return nil
}
