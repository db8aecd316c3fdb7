package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pefman/w40k-volley/internal/engine"
	"github.com/pefman/w40k-volley/internal/game"
)

var (
	ErrNotFound = errors.New("not found")
	ErrBadStat  = errors.New("invalid characteristic")
)

// ========================= Profile records =========================
// Shapes of the JSON produced by the data-ingestion tooling. They are
// composed into game.Defender / game.Weapon before simulation.

// Stat is a numeric characteristic. The source data writes them as numbers
// or as strings like "3+", "-2", "24\"" or "Melee"; the last means 0.
type Stat int

func (s *Stat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Stat(int(n))
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrBadStat, data)
	}
	v, err := ParseStat(str)
	if err != nil {
		return err
	}
	*s = Stat(v)
	return nil
}

// ParseStat reads one characteristic string.
func ParseStat(s string) (int, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimRight(t, "+\"”'")
	t = strings.TrimSpace(t)
	switch strings.ToLower(t) {
	case "", "-", "n/a", "melee", "none":
		return 0, nil
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadStat, s)
	}
	return n, nil
}

// ModelStats is one model line of a unit. Field matching is
// case-insensitive, so "INV" and "Inv" both land in Inv.
type ModelStats struct {
	M   Stat `json:"M"`
	T   Stat `json:"T"`
	SV  Stat `json:"SV"`
	W   Stat `json:"W"`
	LD  Stat `json:"LD"`
	OC  Stat `json:"OC"`
	Inv Stat `json:"Inv"`
	Fnp Stat `json:"Fnp"`
}

type WeaponStats struct {
	Type     string      `json:"type"`
	Range    Stat        `json:"Range"`
	A        engine.Expr `json:"A"`
	WS       Stat        `json:"WS,omitempty"`
	BS       Stat        `json:"BS,omitempty"`
	S        Stat        `json:"S"`
	AP       Stat        `json:"AP"`
	D        engine.Expr `json:"D"`
	Keywords []string    `json:"Keywords,omitempty"`
}

// Profile is a whole unit as stored in a catalog file.
type Profile struct {
	Name                string                 `json:"name"`
	Faction             string                 `json:"faction,omitempty"`
	Models              map[string]ModelStats  `json:"models"`
	Weapons             map[string]WeaponStats `json:"weapons"`
	Keywords            []string               `json:"keywords,omitempty"`
	SpecialRulesAttack  []string               `json:"special_rules_attack,omitempty"`
	SpecialRulesDefence []string               `json:"special_rules_defence,omitempty"`
	// Older exports carry a single list used on both sides.
	SpecialRules []string `json:"special_rules,omitempty"`
	TotalModels  int      `json:"total_models"`
	Points       int      `json:"points,omitempty"`
}

// ModelNames returns model names in sorted order.
func (p *Profile) ModelNames() []string {
	names := make([]string, 0, len(p.Models))
	for n := range p.Models {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// WeaponNames returns weapon names in sorted order.
func (p *Profile) WeaponNames() []string {
	names := make([]string, 0, len(p.Weapons))
	for n := range p.Weapons {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Defender builds the target profile from the unit's first model (by name).
func (p *Profile) Defender() (game.Defender, error) {
	names := p.ModelNames()
	if len(names) == 0 {
		return game.Defender{}, fmt.Errorf("unit %q has no models: %w", p.Name, ErrNotFound)
	}
	return p.DefenderModel(names[0])
}

// DefenderModel builds the target profile from a named model line.
func (p *Profile) DefenderModel(model string) (game.Defender, error) {
	m, ok := p.Models[model]
	if !ok {
		return game.Defender{}, fmt.Errorf("model %q in unit %q: %w", model, p.Name, ErrNotFound)
	}
	rules := mergeRules(p.SpecialRulesDefence, p.SpecialRules)
	return game.NewDefender(p.Name, int(m.T), int(m.SV), int(m.W), p.TotalModels,
		int(m.Inv), int(m.Fnp), p.Keywords, rules), nil
}

// Weapon builds one physical weapon. The unit's attack rules are added to
// the weapon's own keywords without duplicates.
func (p *Profile) Weapon(name string) (game.Weapon, error) {
	ws, key, ok := p.lookupWeapon(name)
	if !ok {
		return game.Weapon{}, fmt.Errorf("weapon %q in unit %q: %w", name, p.Name, ErrNotFound)
	}
	typ := game.Ranged
	if strings.EqualFold(ws.Type, string(game.Melee)) || (ws.Type == "" && ws.Range == 0) {
		typ = game.Melee
	}
	skill := ws.BS
	if typ == game.Melee || skill == 0 {
		skill = max(ws.WS, skill)
	}
	ap := int(ws.AP)
	if ap < 0 {
		ap = -ap
	}
	return game.Weapon{
		Name:     key,
		Type:     typ,
		Range:    int(ws.Range),
		Attacks:  ws.A,
		Skill:    int(skill),
		Strength: int(ws.S),
		AP:       ap,
		Damage:   ws.D,
		Rules:    game.ParseRules(mergeRules(ws.Keywords, p.SpecialRulesAttack, p.SpecialRules)),
	}, nil
}

func (p *Profile) lookupWeapon(name string) (WeaponStats, string, bool) {
	if ws, ok := p.Weapons[name]; ok {
		return ws, name, true
	}
	for k, ws := range p.Weapons {
		if strings.EqualFold(k, name) {
			return ws, k, true
		}
	}
	return WeaponStats{}, "", false
}

// mergeRules concatenates rule lists, dropping blanks and case-insensitive
// duplicates while keeping first-seen order.
func mergeRules(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range lists {
		for _, r := range l {
			k := strings.ToLower(strings.Join(strings.Fields(r), " "))
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, r)
		}
	}
	return out
}

// ========================= Loadouts =========================

type LoadoutWeapon struct {
	Name     string `json:"name" yaml:"name"`
	Quantity int    `json:"quantity,omitempty" yaml:"quantity,omitempty"` // 0 means 1
}

// Loadout selects weapons from a unit. Quantity is expanded into repeated
// entries, never used as a multiplier.
type Loadout struct {
	Faction string          `json:"faction,omitempty" yaml:"faction,omitempty"`
	Unit    string          `json:"unit" yaml:"unit"`
	Weapons []LoadoutWeapon `json:"weapons" yaml:"weapons"`
}

// Expand resolves the loadout against p. An empty weapon list takes every
// weapon of the unit once.
func (l Loadout) Expand(p *Profile) ([]game.Weapon, error) {
	picks := l.Weapons
	if len(picks) == 0 {
		for _, n := range p.WeaponNames() {
			picks = append(picks, LoadoutWeapon{Name: n, Quantity: 1})
		}
	}
	var out []game.Weapon
	for _, lw := range picks {
		w, err := p.Weapon(lw.Name)
		if err != nil {
			return nil, err
		}
		for range max(1, lw.Quantity) {
			out = append(out, w)
		}
	}
	return out, nil
}

// ========================= Wire messages =========================

// WebSocket message structure
type WsMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
