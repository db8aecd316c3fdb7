package game

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pefman/w40k-volley/internal/engine"
	"github.com/pefman/w40k-volley/internal/stats"
)

// Attacker is a named volley, usually one unit's loadout.
type Attacker struct {
	Name    string
	Weapons []Weapon
}

// MatrixCell is the outcome of one attacker against one target.
type MatrixCell struct {
	Attacker string        `json:"attacker"`
	Target   string        `json:"target"`
	Phase    string        `json:"phase"`
	Damage   stats.Summary `json:"damage"`
	Kills    stats.Summary `json:"kills"`
}

// Phase labels a volley "ranged", "melee" or "mixed".
func Phase(weapons []Weapon) string {
	var melee, ranged bool
	for _, w := range weapons {
		if w.IsMelee() {
			melee = true
		} else {
			ranged = true
		}
	}
	switch {
	case melee && ranged:
		return "mixed"
	case melee:
		return "melee"
	default:
		return "ranged"
	}
}

// Matrix runs every attacker against every target. Cells come back in
// attacker-major order. Pair i uses seed s.Seed+i, so a matrix is
// reproducible from its seed.
func (s *Simulator) Matrix(ctx context.Context, attackers []Attacker, targets []Defender, distance int) ([]MatrixCell, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	seed := s.Seed
	if seed == 0 {
		seed = engine.NewSeed()
	}
	cells := make([]MatrixCell, len(attackers)*len(targets))

	g, gctx := errgroup.WithContext(ctx)
	if s.Workers > 0 {
		g.SetLimit(s.Workers)
	}
	for ai, a := range attackers {
		for ti, t := range targets {
			i := ai*len(targets) + ti
			g.Go(func() error {
				pair := Simulator{
					Trials:    s.Trials,
					Workers:   1,
					ChunkSize: s.ChunkSize,
					Seed:      seed + uint64(i),
					Logger:    log,
				}
				res, err := pair.Run(gctx, a.Weapons, t, distance)
				if err != nil {
					return err
				}
				cells[i] = MatrixCell{
					Attacker: a.Name,
					Target:   t.Name,
					Phase:    Phase(a.Weapons),
					Damage:   stats.Summarize(res.Damage),
					Kills:    stats.Summarize(res.ModelsDestroyed),
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info("fight matrix finished",
		zap.Int("attackers", len(attackers)),
		zap.Int("targets", len(targets)),
		zap.Uint64("seed", seed))
	return cells, nil
}
