package catalog

import (
	"slices"

	"github.com/pefman/w40k-volley/internal/game"
	"github.com/pefman/w40k-volley/internal/models"
)

// Volley expands a loadout into one Weapon per physical weapon. extra rules
// are added to every weapon.
func (c *Catalog) Volley(l models.Loadout, extra ...string) ([]game.Weapon, error) {
	p, err := c.Unit(l.Unit)
	if err != nil {
		return nil, err
	}
	ws, err := l.Expand(&p)
	if err != nil {
		return nil, err
	}
	if rules := game.ParseRules(extra); len(rules) > 0 {
		for i := range ws {
			ws[i].Rules = append(slices.Clip(ws[i].Rules), rules...)
		}
	}
	return ws, nil
}

// Target builds a defender from a unit and an optional model line.
func (c *Catalog) Target(unit, model string, extra ...string) (game.Defender, error) {
	p, err := c.Unit(unit)
	if err != nil {
		return game.Defender{}, err
	}
	var def game.Defender
	if model == "" {
		def, err = p.Defender()
	} else {
		def, err = p.DefenderModel(model)
	}
	if err != nil {
		return game.Defender{}, err
	}
	def.Rules = append(slices.Clip(def.Rules), game.ParseRules(extra)...)
	return def, nil
}
