package stats

import (
	"sync"
	"time"
)

// RunRecord is what the server remembers about a finished simulation.
type RunRecord struct {
	ID       string    `json:"id"`
	Attacker string    `json:"attacker"`
	Target   string    `json:"target"`
	Seed     uint64    `json:"seed"`
	Damage   Summary   `json:"damage"`
	Kills    Summary   `json:"kills"`
	At       time.Time `json:"at"`
}

// Recent runs and the biggest single volley of each day (in-memory).
var (
	statsMu  sync.Mutex
	runs     []RunRecord
	maxRuns  = 100
	dailyMax = make(map[string]RunRecord)
)

// SaveRun appends r to the history, dropping the oldest entries past the
// limit, and updates today's best volley.
func SaveRun(r RunRecord) {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	statsMu.Lock()
	defer statsMu.Unlock()
	runs = append(runs, r)
	if len(runs) > maxRuns {
		runs = append(runs[:0], runs[len(runs)-maxRuns:]...)
	}
	dateKey := r.At.UTC().Format("2006-01-02")
	cur, ok := dailyMax[dateKey]
	if !ok || r.Damage.Max > cur.Damage.Max ||
		(r.Damage.Max == cur.Damage.Max && r.Kills.Max > cur.Kills.Max) {
		dailyMax[dateKey] = r
	}
}

// GetRuns returns the history, newest first.
func GetRuns() []RunRecord {
	statsMu.Lock()
	defer statsMu.Unlock()
	out := make([]RunRecord, len(runs))
	for i, r := range runs {
		out[len(runs)-1-i] = r
	}
	return out
}

// GetRun looks a run up by id.
func GetRun(id string) (RunRecord, bool) {
	statsMu.Lock()
	defer statsMu.Unlock()
	for _, r := range runs {
		if r.ID == id {
			return r, true
		}
	}
	return RunRecord{}, false
}

// GetMaxVolleyToday returns the run with the highest single-trial damage
// recorded today (UTC).
func GetMaxVolleyToday() (RunRecord, bool) {
	dateKey := time.Now().UTC().Format("2006-01-02")
	statsMu.Lock()
	defer statsMu.Unlock()
	r, ok := dailyMax[dateKey]
	return r, ok
}
