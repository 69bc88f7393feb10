// Package service turns encounter requests into budgeted creature selections.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xtding233/encounter-backend/internal/bestiary"
	"github.com/xtding233/encounter-backend/internal/encounter"
	"github.com/xtding233/encounter-backend/internal/party"
)

const (
	defaultTrials    = 1000
	defaultMaxTrials = 100000
)

// Request describes one encounter to build.
type Request struct {
	// Players names the party; when empty PartySize is used instead.
	Players []string
	// Absent names players sitting this encounter out.
	Absent    []string
	PartySize int
	Tier      encounter.DifficultyTier
	Count     int
	// Seed makes the draw reproducible when set.
	Seed     *uint64
	Packs    []string
	MinLevel *int
	MaxLevel *int
}

// Encounter is a generated selection with its budgeting context.
type Encounter struct {
	ID         string   `json:"id"`
	PartySize  int      `json:"party_size"`
	Tier       string   `json:"tier"`
	Budget     int      `json:"budget"`
	Seed       *uint64  `json:"seed,omitempty"`
	PoolSize   int      `json:"pool_size"`
	Recipients []string `json:"recipients,omitempty"`
	encounter.Result
}

// SimRequest repeats a Request's selection Trials times.
type SimRequest struct {
	Request
	Trials int
}

// SimReport compares random fills against the best achievable fill.
type SimReport struct {
	PartySize int             `json:"party_size"`
	Tier      string          `json:"tier"`
	Budget    int             `json:"budget"`
	PoolSize  int             `json:"pool_size"`
	Stats     encounter.Stats `json:"stats"`
	Ceiling   encounter.Fill  `json:"ceiling"`
	// Efficiency is mean random spend over the ceiling spend.
	Efficiency float64 `json:"efficiency"`
}

// Service builds encounters from a bestiary source.
type Service struct {
	source     bestiary.Source
	costs      encounter.CostTable
	recipients []string
	maxTrials  int
	newID      func() string
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCostTable replaces the reference cost table.
func WithCostTable(t encounter.CostTable) Option {
	return func(s *Service) { s.costs = t }
}

// WithRecipients sets the players who receive encounter results.
func WithRecipients(names []string) Option {
	return func(s *Service) { s.recipients = append([]string(nil), names...) }
}

// WithMaxTrials caps Simulate's trial count.
func WithMaxTrials(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTrials = n
		}
	}
}

// WithIDGenerator replaces the uuid encounter IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service reading candidates from source.
func New(source bestiary.Source, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.New("bestiary source is required")
	}
	s := &Service{
		source:    source,
		costs:     encounter.DefaultCostTable(),
		maxTrials: defaultMaxTrials,
		newID:     uuid.NewString,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.costs.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Budget resolves the party size and computes the budget for req.
func (s *Service) Budget(req Request) (partySize, budget int, err error) {
	partySize, err = resolvePartySize(req)
	if err != nil {
		return 0, 0, err
	}
	return partySize, encounter.ComputeBudget(partySize, req.Tier), nil
}

// Generate fetches the pool, computes the budget and selects creatures.
func (s *Service) Generate(ctx context.Context, req Request) (Encounter, error) {
	partySize, budget, err := s.Budget(req)
	if err != nil {
		return Encounter{}, err
	}
	pool, err := s.source.Candidates(ctx, filterFor(req))
	if err != nil {
		return Encounter{}, fmt.Errorf("load candidates: %w", err)
	}

	res, err := encounter.SelectEncounter(budget, pool, req.Count, s.costs.Cost, rngFor(req.Seed))
	if err != nil {
		return Encounter{}, err
	}

	enc := Encounter{
		ID:         s.newID(),
		PartySize:  partySize,
		Tier:       tierName(req.Tier),
		Budget:     budget,
		Seed:       req.Seed,
		PoolSize:   len(pool),
		Recipients: append([]string(nil), s.recipients...),
		Result:     res,
	}
	s.logger.InfoContext(ctx, "encounter generated",
		"id", enc.ID,
		"party_size", partySize,
		"tier", enc.Tier,
		"budget", budget,
		"pool", len(pool),
		"picks", len(res.Picks),
		"spent", res.TotalSpent,
	)
	return enc, nil
}

// Simulate runs the request's selection repeatedly and reports spend stats
// next to the best achievable fill.
func (s *Service) Simulate(ctx context.Context, req SimRequest) (SimReport, error) {
	trials := req.Trials
	switch {
	case trials < 0:
		return SimReport{}, fmt.Errorf("%w: trials must be >= 0, got %d", encounter.ErrInvalidInput, trials)
	case trials == 0:
		trials = min(defaultTrials, s.maxTrials)
	case trials > s.maxTrials:
		return SimReport{}, fmt.Errorf("%w: trials must be <= %d, got %d", encounter.ErrInvalidInput, s.maxTrials, trials)
	}

	partySize, budget, err := s.Budget(req.Request)
	if err != nil {
		return SimReport{}, err
	}
	pool, err := s.source.Candidates(ctx, filterFor(req.Request))
	if err != nil {
		return SimReport{}, fmt.Errorf("load candidates: %w", err)
	}

	stats, err := encounter.RunMonteCarlo(encounter.SimParams{
		Budget:       budget,
		Pool:         pool,
		DesiredCount: req.Count,
		CostOf:       s.costs.Cost,
	}, trials, rngFor(req.Seed))
	if err != nil {
		return SimReport{}, err
	}
	ceiling := encounter.BestFill(budget, pool, req.Count, s.costs.Cost)

	report := SimReport{
		PartySize: partySize,
		Tier:      tierName(req.Tier),
		Budget:    budget,
		PoolSize:  len(pool),
		Stats:     stats,
		Ceiling:   ceiling,
	}
	if ceiling.Spent > 0 {
		report.Efficiency = stats.Mean / float64(ceiling.Spent)
	}
	s.logger.InfoContext(ctx, "encounter simulated",
		"party_size", partySize,
		"tier", report.Tier,
		"budget", budget,
		"trials", trials,
		"mean_spent", stats.Mean,
		"ceiling", ceiling.Spent,
	)
	return report, nil
}

func resolvePartySize(req Request) (int, error) {
	size := req.PartySize
	if len(req.Players) > 0 {
		roster := party.NewRoster(req.Players...)
		for _, name := range req.Absent {
			roster.Remove(name)
		}
		if err := roster.Require(); err != nil {
			return 0, err
		}
		size = roster.Size()
	}
	if size == 0 {
		return 0, party.ErrEmptyParty
	}
	if err := encounter.ValidatePartySize(size); err != nil {
		return 0, err
	}
	return size, nil
}

func filterFor(req Request) bestiary.Filter {
	f := bestiary.DefaultFilter()
	f.Packs = req.Packs
	f.MinLevel = req.MinLevel
	f.MaxLevel = req.MaxLevel
	return f
}

func rngFor(seed *uint64) encounter.RandomSource {
	if seed == nil {
		return encounter.DefaultRNG()
	}
	return encounter.NewSeededRNG(*seed)
}

// tierName reports unrecognized tiers under the tier they budget as.
func tierName(t encounter.DifficultyTier) string {
	if !t.Known() {
		return encounter.TierModerate.String()
	}
	return t.String()
}

// IsInvalid reports whether err was caused by the caller's input.
func IsInvalid(err error) bool {
	return errors.Is(err, encounter.ErrInvalidInput) || errors.Is(err, party.ErrEmptyParty)
}
