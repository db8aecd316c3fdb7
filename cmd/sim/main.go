package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/pefman/w40k-volley/internal/catalog"
	"github.com/pefman/w40k-volley/internal/config"
	"github.com/pefman/w40k-volley/internal/game"
	"github.com/pefman/w40k-volley/internal/stats"
)

type options struct {
	scenario string
	matrix   bool
	asJSON   bool
	trials   int
	seed     uint64
	workers  int
	distance int
	verbose  bool
}

func main() {
	var opt options
	flag.StringVar(&opt.scenario, "scenario", "scenario.yaml", "scenario file")
	flag.BoolVar(&opt.matrix, "matrix", false, "run every attacker against every target and print a fight matrix")
	flag.BoolVar(&opt.asJSON, "json", false, "print JSON instead of tables")
	flag.IntVar(&opt.trials, "trials", 0, "override the scenario's trial count")
	flag.Uint64Var(&opt.seed, "seed", 0, "override the scenario's seed")
	flag.IntVar(&opt.workers, "workers", -1, "override the scenario's worker count")
	flag.IntVar(&opt.distance, "distance", -1, "override the target distance in inches")
	flag.BoolVar(&opt.verbose, "v", false, "trace every roll (slow)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opt, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "sim: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opt options, out io.Writer) error {
	sc, err := config.LoadScenario(opt.scenario)
	if err != nil {
		return err
	}
	applyOverrides(&sc, opt)
	if err := sc.Validate(); err != nil {
		return err
	}

	log, err := config.NewLogger(sc.LogLevel, true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cat, err := catalog.LoadDir(sc.CatalogDir)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	log.Debug("catalog loaded", zap.String("dir", sc.CatalogDir), zap.Int("units", cat.Len()))

	attackers, targets, err := build(cat, sc)
	if err != nil {
		return err
	}
	sim := game.Simulator{
		Trials:    sc.Trials,
		Workers:   sc.Workers,
		ChunkSize: sc.ChunkSize,
		Seed:      sc.Seed,
		Logger:    log,
	}

	if opt.matrix {
		cells, err := sim.Matrix(ctx, attackers, targets, sc.Distance)
		if err != nil {
			return err
		}
		if opt.asJSON {
			return writeJSON(out, cells)
		}
		printMatrix(out, cells)
		return nil
	}

	var reports []report
	for _, a := range attackers {
		for _, t := range targets {
			res, err := sim.Run(ctx, a.Weapons, t, sc.Distance)
			if err != nil {
				return err
			}
			reports = append(reports, newReport(a, t, res))
		}
	}
	if opt.asJSON {
		return writeJSON(out, reports)
	}
	for _, r := range reports {
		r.print(out)
	}
	return nil
}

func applyOverrides(sc *config.Scenario, opt options) {
	if opt.trials > 0 {
		sc.Trials = opt.trials
	}
	if opt.seed != 0 {
		sc.Seed = opt.seed
	}
	if opt.workers >= 0 {
		sc.Workers = opt.workers
	}
	if opt.distance >= 0 {
		sc.Distance = opt.distance
	}
	if opt.verbose {
		sc.LogLevel = "debug"
	}
}

func build(cat *catalog.Catalog, sc config.Scenario) ([]game.Attacker, []game.Defender, error) {
	attackers := make([]game.Attacker, 0, len(sc.Attackers))
	for _, a := range sc.Attackers {
		ws, err := cat.Volley(a.Loadout, a.ExtraRules...)
		if err != nil {
			return nil, nil, fmt.Errorf("attacker %s: %w", a.Label(), err)
		}
		attackers = append(attackers, game.Attacker{Name: a.Label(), Weapons: ws})
	}
	targets := make([]game.Defender, 0, len(sc.Targets))
	for _, t := range sc.Targets {
		def, err := cat.Target(t.Unit, t.Model, t.ExtraRules...)
		if err != nil {
			return nil, nil, fmt.Errorf("target %s: %w", t.Unit, err)
		}
		targets = append(targets, def)
	}
	return attackers, targets, nil
}

type report struct {
	Attacker     string           `json:"attacker"`
	Target       string           `json:"target"`
	Phase        string           `json:"phase"`
	Seed         uint64           `json:"seed"`
	Damage       stats.Summary    `json:"damage"`
	Kills        stats.Summary    `json:"kills"`
	KillsAtLeast []float64        `json:"kills_at_least"`
	Totals       game.VolleyStats `json:"totals"`
}

func newReport(a game.Attacker, t game.Defender, res game.Result) report {
	return report{
		Attacker:     a.Name,
		Target:       t.Name,
		Phase:        game.Phase(a.Weapons),
		Seed:         res.Seed,
		Damage:       stats.Summarize(res.Damage),
		Kills:        stats.Summarize(res.ModelsDestroyed),
		KillsAtLeast: stats.AtLeast(res.ModelsDestroyed),
		Totals:       res.Totals,
	}
}

func (r report) print(out io.Writer) {
	fmt.Fprintf(out, "%s -> %s (%s, %d trials, seed %d)\n", r.Attacker, r.Target, r.Phase, r.Damage.Trials, r.Seed)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tmean\tstd\tmin\tmedian\tp90\tmax")
	for _, row := range []struct {
		name string
		s    stats.Summary
	}{{"damage", r.Damage}, {"kills", r.Kills}} {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%d\t%.1f\t%d\t%d\n",
			row.name, row.s.Mean, row.s.StdDev, row.s.Min, row.s.Median, row.s.P90, row.s.Max)
	}
	_ = tw.Flush()
	for n := 1; n < len(r.KillsAtLeast); n++ {
		fmt.Fprintf(out, "  at least %d killed: %5.1f%%\n", n, 100*r.KillsAtLeast[n])
	}
	fmt.Fprintln(out)
}

func printMatrix(out io.Writer, cells []game.MatrixCell) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "attacker\ttarget\tphase\tdamage\tkills")
	for _, c := range cells {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f ± %.2f\t%.2f ± %.2f\n",
			c.Attacker, c.Target, c.Phase, c.Damage.Mean, c.Damage.StdDev, c.Kills.Mean, c.Kills.StdDev)
	}
	_ = tw.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
