package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xtding233/encounter-backend/internal/bestiary"
	"github.com/xtding233/encounter-backend/internal/encounter"
	"github.com/xtding233/encounter-backend/internal/service"
)

type fakeSource struct {
	pool []encounter.Candidate
	err  error
}

func (f fakeSource) Candidates(context.Context, bestiary.Filter) ([]encounter.Candidate, error) {
	return f.pool, f.err
}

func newTestServer(t *testing.T, src bestiary.Source) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(src, service.WithLogger(logger), service.WithMaxTrials(1000))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(New(svc, logger))
	t.Cleanup(srv.Close)
	return srv
}

func testPool() []encounter.Candidate {
	return []encounter.Candidate{
		{ID: "core/kobold", Name: "Kobold", Level: 0},
		{ID: "core/wolf", Name: "Wolf", Level: 1},
		{ID: "core/orc", Name: "Orc", Level: 2},
		{ID: "core/ogre", Name: "Ogre", Level: 3},
	}
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: status %d, want %d (body %s)", url, resp.StatusCode, wantStatus, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
}

func TestBudgetEndpoint(t *testing.T) {
	srv := newTestServer(t, fakeSource{pool: testPool()})
	tcs := []struct {
		query string
		size  int
		tier  string
		want  int
	}{
		{query: "party=4&tier=moderate", size: 4, tier: "moderate", want: 80},
		{query: "party=6&tier=3", size: 6, tier: "moderate", want: 120},
		{query: "players=Ana,Bo,Cy,Di,Ed&tier=extreme", size: 5, tier: "extreme", want: 180},
		{query: "party=1&tier=moderate", size: 1, tier: "moderate", want: 40},
		{query: "party=4&tier=deadly", size: 4, tier: "moderate", want: 80},
		{query: "party=4", size: 4, tier: "trivial", want: 40},
	}
	for _, tc := range tcs {
		var got budgetResp
		getJSON(t, srv.URL+"/budget?"+tc.query, http.StatusOK, &got)
		if got.PartySize != tc.size || got.Tier != tc.tier || got.Budget != tc.want {
			t.Fatalf("%s: got %+v, want size %d tier %s budget %d", tc.query, got, tc.size, tc.tier, tc.want)
		}
	}
}

func TestBudgetEndpointRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, fakeSource{pool: testPool()})
	for _, q := range []string{"party=abc", "tier=low", "party=-1", "party=4&count=x", "party=4&seed=-3", "party=4&min_level=z"} {
		var got errResp
		getJSON(t, srv.URL+"/budget?"+q, http.StatusBadRequest, &got)
		if got.Err == "" {
			t.Fatalf("%s: empty error message", q)
		}
	}
}

func TestEncounterEndpoint(t *testing.T) {
	srv := newTestServer(t, fakeSource{pool: testPool()})
	var got service.Encounter
	getJSON(t, srv.URL+"/encounter?party=4&tier=severe&count=3&seed=12", http.StatusOK, &got)
	if got.ID == "" || got.Budget != 120 || got.PoolSize != 4 {
		t.Fatalf("unexpected encounter: %+v", got)
	}
	if got.Seed == nil || *got.Seed != 12 {
		t.Fatalf("seed = %v", got.Seed)
	}
	if got.TotalSpent+got.RemainingBudget != 120 || len(got.Picks) == 0 || len(got.Picks) > 3 {
		t.Fatalf("inconsistent result: %+v", got.Result)
	}

	var again service.Encounter
	getJSON(t, srv.URL+"/encounter?party=4&tier=severe&count=3&seed=12", http.StatusOK, &again)
	if fmt.Sprint(again.Picks) != fmt.Sprint(got.Picks) {
		t.Fatalf("seeded requests differ: %v vs %v", got.Picks, again.Picks)
	}
}

func TestEncounterEndpointErrors(t *testing.T) {
	var got errResp
	srv := newTestServer(t, fakeSource{pool: testPool()})
	getJSON(t, srv.URL+"/encounter?tier=low", http.StatusBadRequest, &got)
	if got.Err != "add at least one player" {
		t.Fatalf("err = %q", got.Err)
	}

	down := newTestServer(t, fakeSource{err: bestiary.ErrNoPacks})
	getJSON(t, down.URL+"/encounter?party=4", http.StatusServiceUnavailable, &got)

	broken := newTestServer(t, fakeSource{err: fmt.Errorf("disk on fire")})
	getJSON(t, broken.URL+"/encounter?party=4", http.StatusInternalServerError, &got)
}

func TestSimulateEndpoint(t *testing.T) {
	srv := newTestServer(t, fakeSource{pool: testPool()})
	var got service.SimReport
	getJSON(t, srv.URL+"/simulate?party=4&tier=severe&count=3&trials=200&seed=1", http.StatusOK, &got)
	if got.Stats.Trials != 200 || got.Ceiling.Spent != 120 {
		t.Fatalf("unexpected report: %+v", got)
	}

	var bad errResp
	getJSON(t, srv.URL+"/simulate?party=4&trials=5000", http.StatusBadRequest, &bad)
	getJSON(t, srv.URL+"/simulate?party=4&trials=many", http.StatusBadRequest, &bad)
	getJSON(t, srv.URL+"/simulate?party=10000000&count=3", http.StatusBadRequest, &bad)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, fakeSource{})
	var got map[string]string
	getJSON(t, srv.URL+"/healthz", http.StatusOK, &got)
	if got["status"] != "ok" {
		t.Fatalf("status = %q", got["status"])
	}
}
