// Package party tracks who is playing in the next encounter.
package party

import (
	"errors"
	"slices"
	"strings"
)

// ErrEmptyParty is returned when an encounter is requested with nobody in the party.
var ErrEmptyParty = errors.New("add at least one player")

// Roster is the ordered set of players in the current party.
// The zero value is an empty roster.
type Roster struct {
	players []string
}

// NewRoster returns a roster holding names, deduplicated in order.
func NewRoster(names ...string) *Roster {
	r := &Roster{}
	for _, n := range names {
		r.Add(n)
	}
	return r
}

// Add appends name unless it is blank or already present. It reports
// whether the roster changed.
func (r *Roster) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || slices.Contains(r.players, name) {
		return false
	}
	r.players = append(r.players, name)
	return true
}

// Remove drops name and reports whether it was present.
func (r *Roster) Remove(name string) bool {
	name = strings.TrimSpace(name)
	i := slices.Index(r.players, name)
	if i < 0 {
		return false
	}
	r.players = slices.Delete(r.players, i, i+1)
	return true
}

// Players returns a copy of the current players.
func (r *Roster) Players() []string { return slices.Clone(r.players) }

// Size is the party size used for budgeting.
func (r *Roster) Size() int { return len(r.players) }

// Require returns ErrEmptyParty when the roster is empty.
func (r *Roster) Require() error {
	if r.Size() == 0 {
		return ErrEmptyParty
	}
	return nil
}

// ParseNames splits a comma separated list of player names, trimming
// whitespace and dropping blanks.
func ParseNames(csv string) []string {
	var names []string
	for _, part := range strings.Split(csv, ",") {
		if n := strings.TrimSpace(part); n != "" {
			names = append(names, n)
		}
	}
	return names
}
