package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pefman/w40k-volley/internal/config"
	"github.com/pefman/w40k-volley/internal/game"
	"github.com/pefman/w40k-volley/internal/models"
	"github.com/pefman/w40k-volley/internal/stats"
)

const defaultDistance = 12

type simRequest struct {
	Attacker config.Attacker `json:"attacker"`
	Target   config.Target   `json:"target"`
	Trials   int             `json:"trials,omitempty"`
	Seed     uint64          `json:"seed,omitempty"`
	Distance *int            `json:"distance,omitempty"` // inches; 0 is melee
	Raw      bool            `json:"raw,omitempty"`      // include per-trial sequences
}

type simResponse struct {
	ID            string           `json:"id"`
	Attacker      string           `json:"attacker"`
	Target        string           `json:"target"`
	Phase         string           `json:"phase"`
	Seed          uint64           `json:"seed"`
	Trials        int              `json:"trials"`
	Damage        stats.Summary    `json:"damage"`
	Kills         stats.Summary    `json:"kills"`
	DamageAtLeast []float64        `json:"damage_at_least"`
	KillsAtLeast  []float64        `json:"kills_at_least"`
	Totals        game.VolleyStats `json:"totals"`
	Raw           *game.Result     `json:"raw,omitempty"`
}

type matrixRequest struct {
	Attackers []config.Attacker `json:"attackers"`
	Targets   []config.Target   `json:"targets"`
	Trials    int               `json:"trials,omitempty"`
	Seed      uint64            `json:"seed,omitempty"`
	Distance  *int              `json:"distance,omitempty"`
}

func distanceOr(d *int) int {
	if d == nil {
		return defaultDistance
	}
	return *d
}

// errorStatus maps domain errors onto HTTP codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrBadStat), errors.Is(err, config.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GET /api/factions lists local factions plus those the remote data API
// serves. A failing remote only loses its part of the list.
func (s *server) handleFactions(w http.ResponseWriter, r *http.Request) {
	factions := s.cat.Factions()
	if s.remote != nil {
		remote, err := s.remote.FetchFactions(r.Context())
		if err != nil {
			s.log.Warn("remote factions unavailable", zap.Error(err))
		}
		for _, f := range remote {
			if !slices.ContainsFunc(factions, func(l string) bool { return strings.EqualFold(l, f) }) {
				factions = append(factions, f)
			}
		}
		slices.SortFunc(factions, func(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) })
	}
	writeJSON(w, factions)
}

// GET /api/factions/{faction}/units
func (s *server) handleFactionUnits(w http.ResponseWriter, r *http.Request) {
	faction := mux.Vars(r)["faction"]
	if err := s.ensureFaction(r.Context(), faction); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, s.cat.Units(faction))
}

// GET /api/units/{unit}
func (s *server) handleUnit(w http.ResponseWriter, r *http.Request) {
	p, err := s.cat.Unit(mux.Vars(r)["unit"])
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, p)
}

// POST /api/sim/run
func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req simRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	res, err := s.simulate(r.Context(), req, nil)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, res)
}

// POST /api/sim/matrix
func (s *server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	var req matrixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Attackers) == 0 || len(req.Targets) == 0 {
		writeError(w, http.StatusBadRequest, "attackers and targets are required")
		return
	}
	ctx := r.Context()
	attackers := make([]game.Attacker, 0, len(req.Attackers))
	for _, a := range req.Attackers {
		ws, err := s.volley(ctx, a)
		if err != nil {
			writeError(w, errorStatus(err), err.Error())
			return
		}
		attackers = append(attackers, game.Attacker{Name: a.Label(), Weapons: ws})
	}
	targets := make([]game.Defender, 0, len(req.Targets))
	for _, t := range req.Targets {
		def, err := s.target(ctx, t)
		if err != nil {
			writeError(w, errorStatus(err), err.Error())
			return
		}
		targets = append(targets, def)
	}
	sim := game.Simulator{
		Trials:  s.cfg.ClampTrials(req.Trials),
		Workers: s.cfg.Workers,
		Seed:    req.Seed,
		Logger:  s.log,
	}
	cells, err := sim.Matrix(ctx, attackers, targets, distanceOr(req.Distance))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, cells)
}

// simulate runs one attacker against one target and records the run.
func (s *server) simulate(ctx context.Context, req simRequest, progress func(done, total int)) (simResponse, error) {
	weapons, err := s.volley(ctx, req.Attacker)
	if err != nil {
		return simResponse{}, err
	}
	def, err := s.target(ctx, req.Target)
	if err != nil {
		return simResponse{}, err
	}
	sim := game.Simulator{
		Trials:   s.cfg.ClampTrials(req.Trials),
		Workers:  s.cfg.Workers,
		Seed:     req.Seed,
		Logger:   s.log,
		Progress: progress,
	}
	res, err := sim.Run(ctx, weapons, def, distanceOr(req.Distance))
	if err != nil {
		return simResponse{}, err
	}

	out := simResponse{
		ID:            fmt.Sprintf("run_%d", time.Now().UnixNano()),
		Attacker:      req.Attacker.Label(),
		Target:        def.Name,
		Phase:         game.Phase(weapons),
		Seed:          res.Seed,
		Trials:        len(res.Damage),
		Damage:        stats.Summarize(res.Damage),
		Kills:         stats.Summarize(res.ModelsDestroyed),
		DamageAtLeast: stats.AtLeast(res.Damage),
		KillsAtLeast:  stats.AtLeast(res.ModelsDestroyed),
		Totals:        res.Totals,
	}
	if req.Raw {
		out.Raw = &res
	}
	stats.SaveRun(stats.RunRecord{
		ID:       out.ID,
		Attacker: out.Attacker,
		Target:   out.Target,
		Seed:     out.Seed,
		Damage:   out.Damage,
		Kills:    out.Kills,
	})
	s.log.Info("simulation",
		zap.String("id", out.ID),
		zap.String("attacker", out.Attacker),
		zap.String("target", out.Target),
		zap.Int("trials", out.Trials),
		zap.Float64("mean_damage", out.Damage.Mean),
		zap.Float64("mean_kills", out.Kills.Mean))
	return out, nil
}

func (s *server) volley(ctx context.Context, a config.Attacker) ([]game.Weapon, error) {
	if err := s.ensureFaction(ctx, a.Faction); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Unit) == "" {
		return nil, fmt.Errorf("%w: attacker has no unit", config.ErrInvalid)
	}
	return s.cat.Volley(a.Loadout, a.ExtraRules...)
}

func (s *server) target(ctx context.Context, t config.Target) (game.Defender, error) {
	if err := s.ensureFaction(ctx, t.Faction); err != nil {
		return game.Defender{}, err
	}
	if strings.TrimSpace(t.Unit) == "" {
		return game.Defender{}, fmt.Errorf("%w: target has no unit", config.ErrInvalid)
	}
	return s.cat.Target(t.Unit, t.Model, t.ExtraRules...)
}

// ensureFaction pulls a faction from the remote data API when it is not in
// the local catalog yet.
func (s *server) ensureFaction(ctx context.Context, faction string) error {
	if s.remote == nil || faction == "" || len(s.cat.Units(faction)) > 0 {
		return nil
	}
	n, err := s.remote.Sync(ctx, s.cat, faction)
	if err != nil {
		return err
	}
	s.log.Info("faction synced", zap.String("faction", faction), zap.Int("units", n))
	return nil
}
