package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xtding233/encounter-backend/internal/bestiary"
	"github.com/xtding233/encounter-backend/internal/encounter"
	"github.com/xtding233/encounter-backend/internal/party"
)

// memSource serves fixed packs through the default filtering rules.
type memSource struct {
	packs []bestiary.Pack
	err   error
	last  bestiary.Filter
}

func (m *memSource) Candidates(ctx context.Context, f bestiary.Filter) ([]encounter.Candidate, error) {
	m.last = f
	if m.err != nil {
		return nil, m.err
	}
	return bestiary.PoolFrom(m.packs, f), nil
}

func testSource() *memSource {
	return &memSource{packs: []bestiary.Pack{{
		Name:  "core",
		Label: "Core Bestiary",
		Type:  "Actor",
		Creatures: []bestiary.Creature{
			{ID: "kobold", Name: "Kobold", Level: 0, Type: "npc"},
			{ID: "wolf", Name: "Wolf", Level: 1, Type: "npc"},
			{ID: "orc", Name: "Orc", Level: 2, Type: "npc"},
			{ID: "ogre", Name: "Ogre", Level: 3, Type: "npc"},
			{ID: "trap", Name: "Trap", Level: 0, Type: "hazard"},
		},
	}}}
}

func newTestService(t *testing.T, src bestiary.Source, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string { return "enc-1" }),
	}, opts...)
	svc, err := New(src, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seed(v uint64) *uint64 { return &v }

func TestNewRequiresSource(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestNewRejectsBadCostTable(t *testing.T) {
	_, err := New(testSource(), WithCostTable(encounter.CostTable{Default: -1}))
	if !errors.Is(err, encounter.ErrInvalidInput) {
		t.Fatalf("New() = %v, want %v", err, encounter.ErrInvalidInput)
	}
}

func TestBudgetFromPlayers(t *testing.T) {
	svc := newTestService(t, testSource())
	size, budget, err := svc.Budget(Request{Players: []string{"Ana", "Bo", "Ana", " "}, Tier: encounter.TierModerate})
	if err != nil {
		t.Fatal(err)
	}
	if size != 2 || budget != 40 {
		t.Fatalf("size %d budget %d, want 2 and 40", size, budget)
	}

	size, budget, err = svc.Budget(Request{PartySize: 6, Tier: encounter.TierModerate})
	if err != nil {
		t.Fatal(err)
	}
	if size != 6 || budget != 120 {
		t.Fatalf("size %d budget %d, want 6 and 120", size, budget)
	}
}

func TestBudgetRejectsEmptyAndNegativeParty(t *testing.T) {
	svc := newTestService(t, testSource())
	if _, _, err := svc.Budget(Request{Tier: encounter.TierLow}); !errors.Is(err, party.ErrEmptyParty) {
		t.Fatalf("empty party: %v", err)
	}
	if _, _, err := svc.Budget(Request{PartySize: -2}); !errors.Is(err, encounter.ErrInvalidInput) {
		t.Fatalf("negative party: %v", err)
	}
	if !IsInvalid(party.ErrEmptyParty) || IsInvalid(errors.New("disk on fire")) {
		t.Fatal("IsInvalid misclassifies errors")
	}
}

func TestBudgetSkipsAbsentPlayers(t *testing.T) {
	svc := newTestService(t, testSource())
	size, budget, err := svc.Budget(Request{
		Players: []string{"Ana", "Bo", "Cy", "Di", "Ed"},
		Absent:  []string{" Bo", "Zed"},
		Tier:    encounter.TierModerate,
	})
	if err != nil {
		t.Fatal(err)
	}
	if size != 4 || budget != 80 {
		t.Fatalf("size %d budget %d, want 4 and 80", size, budget)
	}

	_, _, err = svc.Budget(Request{Players: []string{"Ana"}, Absent: []string{"Ana"}})
	if !errors.Is(err, party.ErrEmptyParty) {
		t.Fatalf("everyone absent: %v", err)
	}
}

func TestSimulateRejectsOversizedParty(t *testing.T) {
	svc := newTestService(t, testSource())
	_, err := svc.Simulate(context.Background(), SimRequest{
		Request: Request{PartySize: 10000000, Tier: encounter.TierModerate, Count: 3},
	})
	if !errors.Is(err, encounter.ErrInvalidInput) {
		t.Fatalf("Simulate = %v, want %v", err, encounter.ErrInvalidInput)
	}
}

func TestGenerate(t *testing.T) {
	src := testSource()
	svc := newTestService(t, src, WithRecipients([]string{"GM Alice"}))
	lo := 0
	enc, err := svc.Generate(context.Background(), Request{
		PartySize: 4,
		Tier:      encounter.TierSevere,
		Count:     3,
		Seed:      seed(4),
		MinLevel:  &lo,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if enc.ID != "enc-1" || enc.Budget != 120 || enc.Tier != "severe" || enc.PoolSize != 4 {
		t.Fatalf("unexpected encounter header: %+v", enc)
	}
	if enc.TotalSpent+enc.RemainingBudget != enc.Budget || len(enc.Picks) == 0 {
		t.Fatalf("inconsistent result: %+v", enc.Result)
	}
	if len(enc.Recipients) != 1 || enc.Recipients[0] != "GM Alice" {
		t.Fatalf("recipients = %v", enc.Recipients)
	}
	if src.last.CreatureType != "npc" || src.last.MinLevel == nil || *src.last.MinLevel != 0 {
		t.Fatalf("filter not forwarded: %+v", src.last)
	}
	for _, p := range enc.Picks {
		if p.Candidate.ID == "core/trap" {
			t.Fatal("hazard selected")
		}
	}
}

func TestGenerateSeededIsReproducible(t *testing.T) {
	svc := newTestService(t, testSource())
	req := Request{PartySize: 5, Tier: encounter.TierExtreme, Count: 4, Seed: seed(77)}
	a, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Picks) != len(b.Picks) {
		t.Fatalf("pick counts differ: %d vs %d", len(a.Picks), len(b.Picks))
	}
	for i := range a.Picks {
		if a.Picks[i].Candidate.ID != b.Picks[i].Candidate.ID {
			t.Fatalf("pick %d differs", i)
		}
	}
}

func TestGenerateUnknownTierReportsModerate(t *testing.T) {
	svc := newTestService(t, testSource())
	enc, err := svc.Generate(context.Background(), Request{PartySize: 4, Tier: encounter.DifficultyTier(42), Count: 1, Seed: seed(1)})
	if err != nil {
		t.Fatal(err)
	}
	if enc.Tier != "moderate" || enc.Budget != 80 {
		t.Fatalf("tier %q budget %d, want moderate and 80", enc.Tier, enc.Budget)
	}
}

func TestGenerateWrapsSourceErrors(t *testing.T) {
	boom := errors.New("catalog offline")
	svc := newTestService(t, &memSource{err: boom})
	_, err := svc.Generate(context.Background(), Request{PartySize: 4, Count: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("Generate() = %v, want wrapped %v", err, boom)
	}
	if IsInvalid(err) {
		t.Fatal("source failure must not be reported as invalid input")
	}
}

func TestGenerateRejectsNegativeCount(t *testing.T) {
	svc := newTestService(t, testSource())
	_, err := svc.Generate(context.Background(), Request{PartySize: 4, Count: -1})
	if !IsInvalid(err) {
		t.Fatalf("Generate() = %v, want invalid input", err)
	}
}

func TestSimulate(t *testing.T) {
	svc := newTestService(t, testSource())
	report, err := svc.Simulate(context.Background(), SimRequest{
		Request: Request{PartySize: 4, Tier: encounter.TierSevere, Count: 3, Seed: seed(9)},
		Trials:  500,
	})
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	if report.Budget != 120 || report.Stats.Trials != 500 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Ceiling.Spent != 120 {
		t.Fatalf("ceiling = %d, want 120", report.Ceiling.Spent)
	}
	if report.Efficiency <= 0 || report.Efficiency > 1 {
		t.Fatalf("efficiency = %f", report.Efficiency)
	}
}

func TestSimulateTrialBounds(t *testing.T) {
	svc := newTestService(t, testSource(), WithMaxTrials(10))
	req := Request{PartySize: 4, Count: 1, Seed: seed(1)}
	if _, err := svc.Simulate(context.Background(), SimRequest{Request: req, Trials: 11}); !IsInvalid(err) {
		t.Fatalf("too many trials: %v", err)
	}
	if _, err := svc.Simulate(context.Background(), SimRequest{Request: req, Trials: -1}); !IsInvalid(err) {
		t.Fatalf("negative trials: %v", err)
	}
}
