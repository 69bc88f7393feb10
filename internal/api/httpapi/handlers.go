// Package httpapi exposes the encounter service over HTTP/JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/xtding233/encounter-backend/internal/bestiary"
	"github.com/xtding233/encounter-backend/internal/encounter"
	"github.com/xtding233/encounter-backend/internal/party"
	"github.com/xtding233/encounter-backend/internal/service"
)

type budgetResp struct {
	PartySize int    `json:"party_size"`
	Tier      string `json:"tier"`
	Budget    int    `json:"budget"`
}

type errResp struct {
	Err string `json:"err"`
}

// Handler serves the encounter endpoints.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New returns the routed, request-logged HTTP handler.
func New(svc *service.Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{svc: svc, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /budget", h.handleBudget)
	mux.HandleFunc("GET /encounter", h.handleEncounter)
	mux.HandleFunc("GET /simulate", h.handleSimulate)
	return requestLogger(logger, mux)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleBudget(w http.ResponseWriter, r *http.Request) {
	req, msg := parseRequest(r)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	size, budget, err := h.svc.Budget(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tier := req.Tier
	if !tier.Known() {
		tier = encounter.TierModerate
	}
	writeJSON(w, http.StatusOK, budgetResp{PartySize: size, Tier: tier.String(), Budget: budget})
}

func (h *Handler) handleEncounter(w http.ResponseWriter, r *http.Request) {
	req, msg := parseRequest(r)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	enc, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enc)
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req, msg := parseRequest(r)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	trials, _, msg := parseInt(r, "trials")
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	report, err := h.svc.Simulate(r.Context(), service.SimRequest{Request: req, Trials: trials})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// parseRequest reads the shared query parameters. A missing tier means
// trivial and a missing count means one creature.
func parseRequest(r *http.Request) (service.Request, string) {
	q := r.URL.Query()
	req := service.Request{
		Players: party.ParseNames(q.Get("players")),
		Absent:  party.ParseNames(q.Get("absent")),
		Tier:    encounter.TierTrivial,
		Count:   1,
	}
	if s := strings.TrimSpace(q.Get("tier")); s != "" {
		req.Tier = encounter.ParseTier(s)
	}

	var (
		ok  bool
		msg string
	)
	if req.PartySize, _, msg = parseInt(r, "party"); msg != "" {
		return req, msg
	}
	var count int
	if count, ok, msg = parseInt(r, "count"); msg != "" {
		return req, msg
	} else if ok {
		req.Count = count
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return req, "invalid seed"
		}
		req.Seed = &v
	}
	if s := q.Get("pack"); s != "" {
		req.Packs = party.ParseNames(s)
	}
	for _, bound := range []struct {
		key string
		dst **int
	}{{"min_level", &req.MinLevel}, {"max_level", &req.MaxLevel}} {
		v, ok, msg := parseInt(r, bound.key)
		if msg != "" {
			return req, msg
		}
		if ok {
			*bound.dst = &v
		}
	}
	return req, ""
}

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsInvalid(err):
		status = http.StatusBadRequest
	case errors.Is(err, bestiary.ErrNoPacks):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errResp{Err: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
