package game

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pefman/w40k-volley/internal/engine"
)

const (
	DefaultTrials    = 1000
	DefaultChunkSize = 250
)

// Simulator runs a volley against a defender many times.
type Simulator struct {
	Trials    int    // default DefaultTrials
	Workers   int    // default GOMAXPROCS
	ChunkSize int    // trials per dice stream, default DefaultChunkSize
	Seed      uint64 // 0 picks a time-based seed, reported in Result
	Logger    *zap.Logger

	// Progress, if set, is called after each chunk with the number of
	// trials finished so far. It may be called from several goroutines.
	Progress func(done, total int)
}

// Result holds one entry per trial, in trial order.
type Result struct {
	Seed            uint64      `json:"seed"`
	Damage          []int       `json:"damage"`
	ModelsDestroyed []int       `json:"models_destroyed"`
	Totals          VolleyStats `json:"totals"`
}

// Run simulates s.Trials engagements of weapons against def at the given
// distance. Trials are cut into chunks, each with its own dice stream and
// defender copy, so the result depends on the seed and chunk size but not
// on the number of workers. The only error is ctx's.
func (s *Simulator) Run(ctx context.Context, weapons []Weapon, def Defender, distance int) (Result, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	trials := s.Trials
	if trials <= 0 {
		trials = DefaultTrials
	}
	chunk := s.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	seed := s.Seed
	if seed == 0 {
		seed = engine.NewSeed()
	}

	volley := make([]Weapon, len(weapons))
	copy(volley, weapons)
	for i := range volley {
		volley[i].TargetRange = distance
	}
	template := OneUseFor(volley)
	perModel := max(1, def.Wounds)

	res := Result{
		Seed:            seed,
		Damage:          make([]int, trials),
		ModelsDestroyed: make([]int, trials),
	}
	chunks := (trials + chunk - 1) / chunk
	totals := make([]VolleyStats, chunks)
	var done atomic.Int64

	start := time.Now()
	log.Debug("simulation started",
		zap.String("target", def.Name),
		zap.Int("weapons", len(volley)),
		zap.Int("trials", trials),
		zap.Int("workers", workers),
		zap.Uint64("seed", seed),
		zap.Strings("one_use", template.Remaining()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lo, hi := c*chunk, min((c+1)*chunk, trials)
			r := NewResolver(engine.NewDice(seed, uint64(c)), log)
			target := def
			for i := lo; i < hi; i++ {
				v := r.Trial(volley, &target, template)
				res.Damage[i] = v.Damage
				res.ModelsDestroyed[i] = v.Damage / perModel
				totals[c].Add(v)
			}
			n := done.Add(int64(hi - lo))
			if s.Progress != nil {
				s.Progress(int(n), trials)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("simulation aborted", zap.Error(err), zap.Int64("done", done.Load()))
		return Result{}, err
	}
	for _, t := range totals {
		res.Totals.Add(t)
	}
	log.Debug("simulation finished",
		zap.String("target", def.Name),
		zap.Duration("took", time.Since(start)),
		zap.Int("damage", res.Totals.Damage))
	return res, nil
}
