package game

import "go.uber.org/zap"

// AttackCount rolls how many attacks w makes this trial. A ranged weapon out
// of range makes none.
func (r *Resolver) AttackCount(w *Weapon, def *Defender) int {
	if !w.InRange() {
		return 0
	}
	n := w.Attacks.Value(r.dice)
	if rf, ok := w.Rules.First(RuleRapidFire); ok && w.HalfRange() {
		n += rf.Expr.Value(r.dice)
	}
	if w.Rules.Has(RuleBlast) {
		n += def.TotalModels / 5
	}
	return max(0, n)
}

// ResolveWeapon rolls w's attacks and resolves each one. Extra hits from
// Sustained Hits go on top of the pending stack so they resolve right after
// the attack that spawned them.
func (r *Resolver) ResolveWeapon(w *Weapon, def *Defender, uses *OneUse) VolleyStats {
	var stats VolleyStats
	n := r.AttackCount(w, def)
	pending := make([]bool, n) // true for a spawned attack
	for len(pending) > 0 {
		spawned := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		res := r.resolve(w, def, uses, spawned)
		stats.record(res)
		for range res.SustainedHits {
			pending = append(pending, true)
		}
	}
	r.debug("weapon resolved",
		zap.String("weapon", w.Name),
		zap.Int("attacks", n),
		zap.Int("damage", stats.Damage))
	return stats
}

// ResolveVolley fires every weapon at def in order. The wound pool carries
// over between weapons.
func (r *Resolver) ResolveVolley(weapons []Weapon, def *Defender, uses *OneUse) VolleyStats {
	var total VolleyStats
	for i := range weapons {
		total.Add(r.ResolveWeapon(&weapons[i], def, uses))
	}
	return total
}

// Trial is one independent engagement: the defender is reset and the
// one-use template is copied before the volley is fired.
func (r *Resolver) Trial(weapons []Weapon, def *Defender, template OneUse) VolleyStats {
	def.Reset()
	uses := template
	return r.ResolveVolley(weapons, def, &uses)
}
