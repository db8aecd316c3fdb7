package game

import (
	"strings"

	"go.uber.org/zap"

	"github.com/pefman/w40k-volley/internal/engine"
)

func woundTarget(S, T int) int {
	// Returns target roll (2-6) needed to wound
	switch {
	case S >= 2*T:
		return 2
	case S > T:
		return 3
	case S == T:
		return 4
	case S*2 <= T:
		return 6
	default:
		return 5
	}
}

func clampModifier(m int) int { return max(-1, min(1, m)) }

// Resolver runs attacks through hit, wound, save, damage and application.
// It owns a dice stream, so one Resolver serves one goroutine.
type Resolver struct {
	dice  engine.Dice
	log   *zap.Logger
	trace bool
}

// NewResolver wraps a dice source. A nil logger disables tracing.
func NewResolver(d engine.Dice, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{dice: d, log: log, trace: log.Core().Enabled(zap.DebugLevel)}
}

func (r *Resolver) debug(msg string, fields ...zap.Field) {
	if r.trace {
		r.log.Debug(msg, fields...)
	}
}

// ResolveAttack resolves a single attack of w against def. uses is the
// trial's one-use tracker and may be nil.
func (r *Resolver) ResolveAttack(w *Weapon, def *Defender, uses *OneUse) AttackResult {
	return r.resolve(w, def, uses, false)
}

// resolve runs one attack. Attacks spawned by Sustained Hits pass
// spawned=true and never spawn more.
func (r *Resolver) resolve(w *Weapon, def *Defender, uses *OneUse, spawned bool) AttackResult {
	var res AttackResult
	hitMod, woundMod := modifiers(w, def)

	res.Hit, res.CriticalHit = r.hitRoll(w, def, hitMod, uses)
	if !res.Hit {
		return res
	}
	if res.CriticalHit && !spawned {
		if sh, ok := w.Rules.First(RuleSustainedHits); ok {
			res.SustainedHits = max(0, sh.Expr.Value(r.dice))
			r.debug("sustained hits", zap.String("weapon", w.Name), zap.Int("extra", res.SustainedHits))
		}
	}

	res.Wound, res.CriticalWound = r.woundRoll(w, def, woundMod, res.CriticalHit, uses)
	if !res.Wound {
		return res
	}

	// Devastating wounds are resolved as mortal wounds: no save, and they
	// trigger "Mortal FNP" rules.
	res.Devastating = res.CriticalWound &&
		(w.Rules.AppliesTo(RuleDevastatingWounds, def.Keywords) || w.Rules.Has(RuleMortal))

	if r.saveRoll(w, def, res.Devastating) {
		res.Saved = true
		return res
	}

	dmg := r.damageRoll(w, def, res.CriticalWound, uses)
	dmg = reduceDamage(w, def, dmg)
	if m, ok := w.Rules.First(RuleMelta); ok && w.HalfRange() {
		dmg += m.Value
	}
	dmg = r.feelNoPain(w, def, res.Devastating, dmg)
	res.Damage, res.ModelsSlain = applyDamage(w, def, dmg)
	r.debug("attack resolved",
		zap.String("weapon", w.Name),
		zap.Int("damage", res.Damage),
		zap.Int("slain", res.ModelsSlain),
		zap.Int("wounds_left", def.CurrentWounds))
	return res
}

// modifiers returns the hit and wound modifiers for this attack, each
// clamped to [-1, +1].
func modifiers(w *Weapon, def *Defender) (hit, wound int) {
	ignoreAll := w.Rules.Has(RuleIgnoreModifiers)
	ignoreHit := ignoreAll || w.Rules.Has(RuleIgnoreHitModifiers)
	ignoreWound := ignoreAll || w.Rules.Has(RuleIgnoreWoundModifiers)
	for _, rule := range def.Rules {
		switch rule.Kind {
		case RuleMinusOneToHit, RuleSmoke:
			if !ignoreHit {
				hit--
			}
		case RuleMinusOneToHitMelee:
			if !ignoreHit && w.IsMelee() {
				hit--
			}
		case RuleStealth:
			if !ignoreHit && w.IsRanged() {
				hit--
			}
		case RuleMinusOneToWound:
			if !ignoreWound {
				wound--
			}
		case RuleMinusOneToWoundMelee:
			if !ignoreWound && w.IsMelee() {
				wound--
			}
		case RuleMinusOneToWoundHighStrength:
			if !ignoreWound && w.Strength > def.Toughness {
				wound--
			}
		}
	}
	hit, wound = clampModifier(hit), clampModifier(wound)
	if w.Rules.AppliesTo(RulePlusOneHit, def.Keywords) {
		hit++
	}
	if w.Rules.AppliesTo(RulePlusOneWound, def.Keywords) {
		wound++
	}
	return clampModifier(hit), clampModifier(wound)
}

func criticalHitThreshold(w *Weapon) int {
	if rule, ok := w.Rules.First(RuleCriticalHits); ok && rule.Value >= 2 && rule.Value <= 6 {
		return rule.Value
	}
	return 6
}

// criticalWoundThreshold prefers a matching Anti-X rule over Critical Wounds.
func criticalWoundThreshold(w *Weapon, def *Defender) int {
	for _, rule := range w.Rules {
		if rule.Kind == RuleAnti && def.Keywords.Has(rule.Keyword) && rule.Value >= 2 && rule.Value <= 6 {
			return rule.Value
		}
	}
	if rule, ok := w.Rules.First(RuleCriticalWounds); ok && rule.Value >= 2 && rule.Value <= 6 {
		return rule.Value
	}
	return 6
}

// check is a d6 test: an unmodified 1 always fails, an unmodified roll at
// or above crit always succeeds, otherwise the modified roll must reach need.
type check struct {
	need, mod, crit int
}

func (c check) passes(nat int) bool {
	return nat != 1 && (nat >= c.crit || nat+c.mod >= c.need)
}

func (r *Resolver) hitRoll(w *Weapon, def *Defender, mod int, uses *OneUse) (hit, critical bool) {
	if w.Rules.Has(RuleTorrent) {
		return true, false
	}
	c := check{need: w.Skill, mod: mod, crit: criticalHitThreshold(w)}
	nat := r.dice.Roll()
	if !c.passes(nat) {
		var reroll bool
		switch {
		case w.Rules.AppliesTo(RuleRerollHits, def.Keywords):
			reroll = true
		case nat == 1 && (w.Rules.AppliesTo(RuleRerollHitsOnes, def.Keywords) ||
			w.Rules.AppliesTo(RuleRerollHitAndWoundOnes, def.Keywords)):
			reroll = true
		default:
			_, reroll = uses.UseFirst(RerollOneHit, RerollOneHitOrWound, RerollOneHitWoundOrDamage)
		}
		if reroll {
			first := nat
			nat = r.dice.Roll()
			r.debug("hit reroll", zap.String("weapon", w.Name), zap.Int("from", first), zap.Int("to", nat))
		}
	}
	if !c.passes(nat) {
		if a, ok := uses.UseFirst(FlipHitToSix, FlipHitOrWoundToSix, FlipToSix); ok {
			r.debug("hit flipped to 6", zap.Stringer("ability", a))
			nat = 6
		}
	}
	hit = c.passes(nat)
	return hit, hit && nat >= c.crit
}

func (r *Resolver) woundRoll(w *Weapon, def *Defender, mod int, criticalHit bool, uses *OneUse) (wound, critical bool) {
	if criticalHit && w.Rules.AppliesTo(RuleLethalHits, def.Keywords) {
		return true, false
	}
	if w.Rules.Has(RuleMortal) {
		return true, true
	}
	c := check{
		need: woundTarget(w.Strength, def.Toughness),
		mod:  mod,
		crit: criticalWoundThreshold(w, def),
	}
	nat := r.dice.Roll()
	if !c.passes(nat) {
		var reroll bool
		switch {
		case w.Rules.AppliesTo(RuleRerollWounds, def.Keywords):
			reroll = true
		case nat == 1 && (w.Rules.AppliesTo(RuleRerollWoundsOnes, def.Keywords) ||
			w.Rules.AppliesTo(RuleRerollHitAndWoundOnes, def.Keywords)):
			reroll = true
		default:
			_, reroll = uses.UseFirst(RerollOneWound, RerollOneHitOrWound, RerollOneHitWoundOrDamage)
		}
		if reroll {
			first := nat
			nat = r.dice.Roll()
			r.debug("wound reroll", zap.String("weapon", w.Name), zap.Int("from", first), zap.Int("to", nat))
		}
	}
	if !c.passes(nat) {
		if a, ok := uses.UseFirst(FlipWoundToSix, FlipHitOrWoundToSix, FlipToSix); ok {
			r.debug("wound flipped to 6", zap.Stringer("ability", a))
			nat = 6
		}
	}
	wound = c.passes(nat)
	return wound, wound && nat >= c.crit
}

// saveValue is the armour save after AP, AP reduction and cover. The sign
// of the weapon's AP is ignored.
func saveValue(w *Weapon, def *Defender) int {
	ap := w.AP
	if ap < 0 {
		ap = -ap
	}
	if w.Rules.Has(RulePlusOneAP) {
		ap++
	}
	if def.Rules.Has(RuleMinusOneAP) || (w.IsMelee() && def.Rules.Has(RuleMinusOneAPMelee)) {
		ap = max(0, ap-1)
	}
	sv := def.Save + ap
	inCover := def.Rules.Has(RuleCover) || def.Rules.Has(RuleSmoke)
	if inCover && w.IsRanged() && !w.Rules.Has(RuleIgnoresCover) {
		if def.Save >= 3 {
			sv = max(3, sv-1)
		} else {
			sv = max(2, sv-1)
		}
	}
	return sv
}

// invulnerable is the best general invulnerable save, 0 if none.
func invulnerable(def *Defender) int {
	best := def.Invulnerable
	for _, rule := range def.Rules {
		if rule.Kind == RuleInvulnerable {
			best = better(best, rule.Value)
		}
	}
	return best
}

// better picks the easier of two d6 thresholds where 0 means none.
func better(a, b int) int {
	if a == 0 || (b > 0 && b < a) {
		return b
	}
	return a
}

func (r *Resolver) saveRoll(w *Weapon, def *Defender, mortal bool) bool {
	if mortal {
		return false
	}
	roll := r.dice.Roll()
	if roll == 1 {
		return false
	}
	for _, rule := range def.Rules {
		if (rule.Kind == RuleInvulnerableRanged && w.IsRanged()) ||
			(rule.Kind == RuleInvulnerableMelee && w.IsMelee()) {
			return roll >= rule.Value
		}
	}
	if inv := invulnerable(def); inv > 0 && roll >= inv {
		return true
	}
	return roll >= saveValue(w, def)
}

// lowDamage decides whether a damage result is worth rerolling.
func lowDamage(e engine.Expr, faces []int, critical bool) bool {
	if e.SingleDie() {
		if e.Sides == 3 {
			return faces[0] < 3
		}
		return faces[0] < 4
	}
	return float64(e.Eval(faces, critical)) < e.Mean()
}

// lowForOneUse is lowDamage for the one-use reroll, which also spends
// itself on a D3 from a d6 face of 3.
func lowForOneUse(e engine.Expr, faces []int, critical bool) bool {
	if e.SingleDie() {
		return faces[0] < 4
	}
	return lowDamage(e, faces, critical)
}

func (r *Resolver) damageRoll(w *Weapon, def *Defender, criticalWound bool, uses *OneUse) int {
	e := w.Damage
	res := e.Roll(r.dice, criticalWound)
	if len(res.Faces) == 0 {
		return res.Value
	}
	var reroll bool
	switch {
	case w.Rules.AppliesTo(RuleRerollDamage, def.Keywords):
		reroll = lowDamage(e, res.Faces, criticalWound)
	case w.Rules.AppliesTo(RuleRerollDamageOnes, def.Keywords):
		for _, f := range res.Faces {
			reroll = reroll || f == 1
		}
	case lowForOneUse(e, res.Faces, criticalWound):
		reroll = uses.Use(RerollOneHitWoundOrDamage)
	}
	if reroll {
		first := res.Value
		res = e.Roll(r.dice, criticalWound)
		r.debug("damage reroll", zap.String("weapon", w.Name), zap.Int("from", first), zap.Int("to", res.Value))
	}
	if e.SingleDie() && lowDamage(e, res.Faces, criticalWound) {
		if _, ok := uses.UseFirst(FlipDamageToSix, FlipToSix); ok {
			res.Faces[0] = 6
			res.Value = e.Eval(res.Faces, criticalWound)
		}
	}
	return res.Value
}

func reduceDamage(w *Weapon, def *Defender, dmg int) int {
	if w.Rules.Has(RuleIgnoreDamageModifiers) || w.Rules.Has(RuleIgnoreModifiers) {
		return dmg
	}
	for _, rule := range def.Rules {
		switch rule.Kind {
		case RuleMinusOneDamage:
			dmg = max(1, dmg-1)
		case RuleHalfDamage:
			dmg = (dmg + 1) / 2
		}
	}
	return dmg
}

// feelNoPainThreshold prefers a conditional FNP whose condition names one of
// the weapon's rules, or "Mortal" for devastating wounds, over the base value.
func feelNoPainThreshold(w *Weapon, def *Defender, mortal bool) int {
	best := 0
	for _, rule := range def.Rules {
		if rule.Kind != RuleConditionalFNP {
			continue
		}
		isMortal := strings.EqualFold(rule.Keyword, "Mortal") || strings.EqualFold(rule.Keyword, "Mortal Wounds")
		if w.Rules.HasRaw(rule.Keyword) || (mortal && isMortal) {
			best = better(best, rule.Value)
		}
	}
	if best > 0 {
		return best
	}
	best = def.FeelNoPain
	for _, rule := range def.Rules {
		if rule.Kind == RuleFeelNoPain {
			best = better(best, rule.Value)
		}
	}
	return best
}

func (r *Resolver) feelNoPain(w *Weapon, def *Defender, mortal bool, dmg int) int {
	fnp := feelNoPainThreshold(w, def, mortal)
	if fnp == 0 || dmg <= 0 {
		return dmg
	}
	ignored := 0
	for range dmg {
		if r.dice.Roll() >= fnp {
			ignored++
		}
	}
	if ignored > 0 {
		r.debug("feel no pain", zap.Int("threshold", fnp), zap.Int("ignored", ignored), zap.Int("of", dmg))
	}
	return dmg - ignored
}

// applyDamage takes dmg off the current model. When the pool reaches zero
// the model is removed and the next one starts at full wounds. Overkill
// spends the damage one point at a time so the excess carries over.
func applyDamage(w *Weapon, def *Defender, dmg int) (dealt, slain int) {
	if dmg <= 0 {
		return 0, 0
	}
	if w.Rules.Has(RuleOverkill) {
		for range dmg {
			def.CurrentWounds--
			if def.CurrentWounds <= 0 {
				def.CurrentWounds = def.Wounds
				slain++
			}
		}
		return dmg, slain
	}
	def.CurrentWounds -= dmg
	if def.CurrentWounds <= 0 {
		def.CurrentWounds = def.Wounds
		slain = 1
	}
	return dmg, slain
}
