package game

import "github.com/pefman/w40k-volley/internal/engine"

// WeaponType separates melee and ranged profiles.
type WeaponType string

const (
	Melee  WeaponType = "melee"
	Ranged WeaponType = "ranged"
)

// Defender is the model being shot at. CurrentWounds is the pool of the
// model currently taking damage, not of the whole unit.
type Defender struct {
	Name          string
	Toughness     int
	Save          int // armour save, 2..6 (7 means none)
	Wounds        int
	CurrentWounds int
	TotalModels   int
	Invulnerable  int // 0 if none
	FeelNoPain    int // 0 if none
	Keywords      Keywords
	Rules         Rules
}

// NewDefender returns a defender at full wounds with its rules parsed.
func NewDefender(name string, t, sv, w, models, inv, fnp int, keywords, rules []string) Defender {
	if models < 1 {
		models = 1
	}
	return Defender{
		Name:          name,
		Toughness:     t,
		Save:          sv,
		Wounds:        w,
		CurrentWounds: w,
		TotalModels:   models,
		Invulnerable:  inv,
		FeelNoPain:    fnp,
		Keywords:      keywords,
		Rules:         ParseRules(rules),
	}
}

// Reset restores the wound pool between trials.
func (d *Defender) Reset() { d.CurrentWounds = d.Wounds }

// Weapon is one physical weapon. A unit carrying three of them is three
// entries in the volley.
type Weapon struct {
	Name        string
	Type        WeaponType
	Range       int // inches; ignored for melee
	Attacks     engine.Expr
	Skill       int // BS or WS, 2..6
	Strength    int
	AP          int // 2 and -2 both worsen the save by 2
	Damage      engine.Expr
	Rules       Rules
	TargetRange int // distance to the target for the current run
}

func (w Weapon) IsMelee() bool  { return w.Type == Melee }
func (w Weapon) IsRanged() bool { return w.Type != Melee }

// InRange reports whether a ranged weapon reaches its target.
func (w Weapon) InRange() bool { return w.IsMelee() || w.Range >= w.TargetRange }

// HalfRange is the Rapid Fire and Melta band.
func (w Weapon) HalfRange() bool { return w.IsRanged() && 2*w.TargetRange <= w.Range }

// AttackResult is the outcome of one resolved attack.
type AttackResult struct {
	Hit           bool `json:"hit"`
	CriticalHit   bool `json:"critical_hit"`
	Wound         bool `json:"wound"`
	CriticalWound bool `json:"critical_wound"`
	Devastating   bool `json:"devastating"`
	Saved         bool `json:"saved"`
	Damage        int  `json:"damage"`
	ModelsSlain   int  `json:"models_slain"`
	SustainedHits int  `json:"sustained_hits"`
}

// VolleyStats counts what happened across the attacks of one trial, or of a
// whole run when summed.
type VolleyStats struct {
	Attacks        int `json:"attacks"`
	Hits           int `json:"hits"`
	CriticalHits   int `json:"critical_hits"`
	SustainedHits  int `json:"sustained_hits"`
	Wounds         int `json:"wounds"`
	CriticalWounds int `json:"critical_wounds"`
	Saved          int `json:"saved"`
	Unsaved        int `json:"unsaved"`
	Damage         int `json:"damage"`
	ModelsSlain    int `json:"models_slain"`
}

func (s *VolleyStats) record(r AttackResult) {
	s.Attacks++
	if r.Hit {
		s.Hits++
	}
	if r.CriticalHit {
		s.CriticalHits++
	}
	s.SustainedHits += r.SustainedHits
	if r.Wound {
		s.Wounds++
		if r.Saved {
			s.Saved++
		} else {
			s.Unsaved++
		}
	}
	if r.CriticalWound {
		s.CriticalWounds++
	}
	s.Damage += r.Damage
	s.ModelsSlain += r.ModelsSlain
}

// Add folds another set of counters into s.
func (s *VolleyStats) Add(o VolleyStats) {
	s.Attacks += o.Attacks
	s.Hits += o.Hits
	s.CriticalHits += o.CriticalHits
	s.SustainedHits += o.SustainedHits
	s.Wounds += o.Wounds
	s.CriticalWounds += o.CriticalWounds
	s.Saved += o.Saved
	s.Unsaved += o.Unsaved
	s.Damage += o.Damage
	s.ModelsSlain += o.ModelsSlain
}
