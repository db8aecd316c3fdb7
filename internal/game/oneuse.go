package game

// Ability is a once-per-phase allowance granted to the whole attacking unit.
type Ability uint8

const (
	RerollOneHit Ability = iota
	RerollOneWound
	RerollOneHitOrWound
	RerollOneHitWoundOrDamage
	FlipToSix
	FlipHitToSix
	FlipWoundToSix
	FlipDamageToSix
	FlipHitOrWoundToSix
	numAbilities
)

var abilityRule = [numAbilities]RuleKind{
	RerollOneHit:              RuleRerollOneHit,
	RerollOneWound:            RuleRerollOneWound,
	RerollOneHitOrWound:       RuleRerollOneHitOrWound,
	RerollOneHitWoundOrDamage: RuleRerollOneHitWoundOrDamage,
	FlipToSix:                 RuleFlipToSix,
	FlipHitToSix:              RuleFlipHitToSix,
	FlipWoundToSix:            RuleFlipWoundToSix,
	FlipDamageToSix:           RuleFlipDamageToSix,
	FlipHitOrWoundToSix:       RuleFlipHitOrWoundToSix,
}

var abilityNames = [numAbilities]string{
	"reroll_1_hit",
	"reroll_1_wound",
	"reroll_1_hit_or_wound",
	"reroll_1_hit_wound_or_damage",
	"flip_a_6",
	"flip_a_6_hit",
	"flip_a_6_wound",
	"flip_a_6_damage",
	"flip_a_6_hit_wound",
}

func (a Ability) String() string {
	if a < numAbilities {
		return abilityNames[a]
	}
	return "unknown"
}

// OneUse holds which abilities are still unspent in a trial. It is a value
// type: the simulator copies the volley template at the start of each trial
// and hands a pointer to every attack of that trial.
type OneUse struct {
	avail [numAbilities]bool
}

// OneUseFor scans the whole volley. An ability carried by any weapon is
// available to every attack, once.
func OneUseFor(weapons []Weapon) OneUse {
	var o OneUse
	for _, w := range weapons {
		for a := range numAbilities {
			if w.Rules.Has(abilityRule[a]) {
				o.avail[a] = true
			}
		}
	}
	return o
}

// Available reports whether a is unspent. A nil tracker has nothing.
func (o *OneUse) Available(a Ability) bool { return o != nil && o.avail[a] }

// Use spends a if it is still available.
func (o *OneUse) Use(a Ability) bool {
	if !o.Available(a) {
		return false
	}
	o.avail[a] = false
	return true
}

// UseFirst spends the first available ability in priority order.
func (o *OneUse) UseFirst(priority ...Ability) (Ability, bool) {
	for _, a := range priority {
		if o.Use(a) {
			return a, true
		}
	}
	return 0, false
}

// Remaining lists unspent abilities, for logging.
func (o *OneUse) Remaining() []string {
	var out []string
	for a := range numAbilities {
		if o.Available(a) {
			out = append(out, a.String())
		}
	}
	return out
}
