package encounter

import (
	"strconv"
	"strings"
)

// DifficultyTier is a named encounter difficulty. Values follow the
// encounter-level selector numbering, 1 (trivial) through 5 (extreme).
type DifficultyTier int

const (
	TierUnknown DifficultyTier = iota
	TierTrivial
	TierLow
	TierModerate
	TierSevere
	TierExtreme
)

// Tiers lists the recognized tiers in ascending difficulty.
var Tiers = []DifficultyTier{TierTrivial, TierLow, TierModerate, TierSevere, TierExtreme}

func (t DifficultyTier) String() string {
	switch t {
	case TierTrivial:
		return "trivial"
	case TierLow:
		return "low"
	case TierModerate:
		return "moderate"
	case TierSevere:
		return "severe"
	case TierExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}

// Known reports whether t is one of the five recognized tiers.
func (t DifficultyTier) Known() bool {
	return t >= TierTrivial && t <= TierExtreme
}

// ParseTier accepts a tier name (any case) or its number. Anything else
// returns TierUnknown, which budgets as moderate.
func ParseTier(s string) DifficultyTier {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		return DifficultyTier(n)
	}
	for _, t := range Tiers {
		if t.String() == s {
			return t
		}
	}
	return TierUnknown
}
