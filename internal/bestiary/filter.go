package bestiary

import (
	"slices"
	"strings"
)

// Filter narrows which packs and creatures enter the pool. Empty string
// fields and nil bounds place no constraint.
type Filter struct {
	LabelContains string   // pack label must contain this
	PackType      string   // pack type must equal this
	CreatureType  string   // creature type must equal this
	Packs         []string // when set, pack name must be one of these
	MinLevel      *int
	MaxLevel      *int
}

// DefaultFilter selects npc creatures from Actor packs whose label
// mentions "Bestiary".
func DefaultFilter() Filter {
	return Filter{
		LabelContains: "Bestiary",
		PackType:      "Actor",
		CreatureType:  "npc",
	}
}

// MatchPack reports whether pack-level constraints accept p.
func (f Filter) MatchPack(p Pack) bool {
	if f.LabelContains != "" && !strings.Contains(p.Label, f.LabelContains) {
		return false
	}
	if f.PackType != "" && p.Type != f.PackType {
		return false
	}
	if len(f.Packs) > 0 && !slices.Contains(f.Packs, p.Name) {
		return false
	}
	return true
}

// MatchCreature reports whether creature-level constraints accept c.
func (f Filter) MatchCreature(c Creature) bool {
	if f.CreatureType != "" && c.Type != f.CreatureType {
		return false
	}
	if f.MinLevel != nil && c.Level < *f.MinLevel {
		return false
	}
	if f.MaxLevel != nil && c.Level > *f.MaxLevel {
		return false
	}
	return true
}
