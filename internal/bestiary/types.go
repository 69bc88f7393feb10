// Package bestiary loads creature packs and turns them into candidate pools.
package bestiary

import (
	"context"

	"github.com/xtding233/encounter-backend/internal/encounter"
)

// Pack is one creature collection as stored on disk.
type Pack struct {
	Name      string     `yaml:"name"`
	Label     string     `yaml:"label"`
	Type      string     `yaml:"type"` // "Actor" for creature packs
	Creatures []Creature `yaml:"creatures"`
}

// Creature is one pack entry.
type Creature struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Level  int      `yaml:"level"`
	Type   string   `yaml:"type"` // "npc", "hazard", ...
	Traits []string `yaml:"traits,omitempty"`
}

// Source yields the candidate pool for a filter.
type Source interface {
	Candidates(ctx context.Context, f Filter) ([]encounter.Candidate, error)
}

// CandidateID is the pool-wide identifier of a creature: pack/creature.
func CandidateID(pack, creature string) string {
	return pack + "/" + creature
}

// Candidate converts a creature of pack p into a selection candidate.
func (p Pack) Candidate(c Creature) encounter.Candidate {
	return encounter.Candidate{
		ID:     CandidateID(p.Name, c.ID),
		Name:   c.Name,
		Level:  c.Level,
		Pack:   p.Name,
		Traits: append([]string(nil), c.Traits...),
	}
}

// PoolFrom collects the candidates of packs that pass f.
func PoolFrom(packs []Pack, f Filter) []encounter.Candidate {
	var pool []encounter.Candidate
	for _, p := range packs {
		if !f.MatchPack(p) {
			continue
		}
		for _, c := range p.Creatures {
			if f.MatchCreature(c) {
				pool = append(pool, p.Candidate(c))
			}
		}
	}
	return pool
}
