package game

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pefman/w40k-volley/internal/engine"
)

// RuleKind enumerates the special rules the resolver understands.
type RuleKind uint8

const (
	RuleUnknown RuleKind = iota

	// weapon side
	RuleSustainedHits
	RuleLethalHits
	RuleTorrent
	RuleRerollHits
	RuleRerollHitsOnes
	RuleRerollWounds
	RuleRerollWoundsOnes
	RuleRerollDamage
	RuleRerollDamageOnes
	RuleRerollHitAndWoundOnes
	RuleRerollOneHit
	RuleRerollOneWound
	RuleRerollOneHitOrWound
	RuleRerollOneHitWoundOrDamage
	RuleFlipToSix
	RuleFlipHitToSix
	RuleFlipWoundToSix
	RuleFlipDamageToSix
	RuleFlipHitOrWoundToSix
	RuleDevastatingWounds
	RuleAnti
	RuleCriticalHits
	RuleCriticalWounds
	RuleMortal
	RuleOverkill
	RuleIgnoresCover
	RuleBlast
	RuleIgnoreHitModifiers
	RuleIgnoreWoundModifiers
	RuleIgnoreDamageModifiers
	RuleIgnoreModifiers
	RulePlusOneHit
	RulePlusOneWound
	RulePlusOneAP
	RuleMelta
	RuleRapidFire

	// defender side
	RuleMinusOneDamage
	RuleHalfDamage
	RuleMinusOneToHit
	RuleMinusOneToHitMelee
	RuleStealth
	RuleSmoke
	RuleMinusOneToWound
	RuleMinusOneToWoundMelee
	RuleMinusOneToWoundHighStrength
	RuleCover
	RuleMinusOneAP
	RuleMinusOneAPMelee
	RuleInvulnerable
	RuleInvulnerableRanged
	RuleInvulnerableMelee
	RuleFeelNoPain
	RuleConditionalFNP
)

// Rule is one parsed special rule. Value carries the numeric parameter
// (threshold, count or bonus), Keyword the optional target keyword or FNP
// condition, Expr the dice parameter of Rapid Fire and Sustained Hits D3.
type Rule struct {
	Kind    RuleKind
	Value   int
	Keyword string
	Expr    engine.Expr
	Raw     string
}

type ruleParser struct {
	re    *regexp.Regexp
	build func(m []string) Rule
}

func simple(kind RuleKind) func([]string) Rule {
	return func([]string) Rule { return Rule{Kind: kind} }
}

func withKeyword(kind RuleKind) func([]string) Rule {
	return func(m []string) Rule { return Rule{Kind: kind, Keyword: strings.TrimSpace(m[1])} }
}

func withValue(kind RuleKind) func([]string) Rule {
	return func(m []string) Rule {
		n, _ := strconv.Atoi(m[1])
		return Rule{Kind: kind, Value: n}
	}
}

func pattern(expr string, build func([]string) Rule) ruleParser {
	return ruleParser{re: regexp.MustCompile(`(?i)^` + expr + `$`), build: build}
}

// Order matters: more specific spellings come before their prefixes.
var ruleParsers = []ruleParser{
	pattern(`sustained hits d3`, func([]string) Rule {
		return Rule{Kind: RuleSustainedHits, Expr: engine.ParseExpr("D3")}
	}),
	pattern(`sustained hits (\d+)\+?`, func(m []string) Rule {
		n, _ := strconv.Atoi(m[1])
		return Rule{Kind: RuleSustainedHits, Value: n, Expr: engine.Fixed(n)}
	}),
	pattern(`lethal hits(?: (.+))?`, withKeyword(RuleLethalHits)),
	pattern(`torrent`, simple(RuleTorrent)),
	pattern(`twin[- ]linked`, simple(RuleRerollWounds)),

	pattern(`reroll hit and wound 1(?: (.+))?`, withKeyword(RuleRerollHitAndWoundOnes)),
	pattern(`reroll 1 hit or wound or damage`, simple(RuleRerollOneHitWoundOrDamage)),
	pattern(`reroll 1 hit or wound`, simple(RuleRerollOneHitOrWound)),
	pattern(`reroll 1 hit roll`, simple(RuleRerollOneHit)),
	pattern(`reroll 1 wound roll`, simple(RuleRerollOneWound)),
	pattern(`reroll hits 1(?: (.+))?`, withKeyword(RuleRerollHitsOnes)),
	pattern(`reroll wounds 1(?: (.+))?`, withKeyword(RuleRerollWoundsOnes)),
	pattern(`reroll damage 1(?: (.+))?`, withKeyword(RuleRerollDamageOnes)),
	pattern(`reroll hits(?: (.+))?`, withKeyword(RuleRerollHits)),
	pattern(`reroll wounds(?: (.+))?`, withKeyword(RuleRerollWounds)),
	pattern(`reroll damage(?: (.+))?`, withKeyword(RuleRerollDamage)),

	pattern(`flip roll to 6`, simple(RuleFlipToSix)),
	pattern(`flip hit roll to 6`, simple(RuleFlipHitToSix)),
	pattern(`flip wound roll to 6`, simple(RuleFlipWoundToSix)),
	pattern(`flip damage roll to 6`, simple(RuleFlipDamageToSix)),
	pattern(`flip hit or wound roll to 6`, simple(RuleFlipHitOrWoundToSix)),

	pattern(`devastating wounds(?: (.+))?`, withKeyword(RuleDevastatingWounds)),
	pattern(`anti-(\S+) (\d)\+`, func(m []string) Rule {
		n, _ := strconv.Atoi(m[2])
		return Rule{Kind: RuleAnti, Keyword: m[1], Value: n}
	}),
	pattern(`critical hits (\d)\+?`, withValue(RuleCriticalHits)),
	pattern(`critical wounds (\d)\+?`, withValue(RuleCriticalWounds)),
	pattern(`mortal`, simple(RuleMortal)),
	pattern(`overkill`, simple(RuleOverkill)),
	pattern(`ignores cover`, simple(RuleIgnoresCover)),
	pattern(`blast`, simple(RuleBlast)),
	pattern(`ignore hit modifiers`, simple(RuleIgnoreHitModifiers)),
	pattern(`ignore wound modifiers`, simple(RuleIgnoreWoundModifiers)),
	pattern(`ignore damage modifiers`, simple(RuleIgnoreDamageModifiers)),
	pattern(`ignore modifiers`, simple(RuleIgnoreModifiers)),
	pattern(`\+1 to hit(?: (.+))?`, withKeyword(RulePlusOneHit)),
	pattern(`\+1 to wound(?: (.+))?`, withKeyword(RulePlusOneWound)),
	pattern(`\+1 ap`, simple(RulePlusOneAP)),
	pattern(`melta (\d+)`, withValue(RuleMelta)),
	pattern(`rapid fire (.+)`, func(m []string) Rule {
		e := engine.ParseExpr(m[1])
		return Rule{Kind: RuleRapidFire, Value: e.Mod, Expr: e}
	}),

	pattern(`-1 damage`, simple(RuleMinusOneDamage)),
	pattern(`half damage`, simple(RuleHalfDamage)),
	pattern(`-1 to be hit in melee`, simple(RuleMinusOneToHitMelee)),
	pattern(`-1 to be hit`, simple(RuleMinusOneToHit)),
	pattern(`stealth`, simple(RuleStealth)),
	pattern(`smoke`, simple(RuleSmoke)),
	pattern(`-1 to be wounded in melee`, simple(RuleMinusOneToWoundMelee)),
	pattern(`-1 to be wounded by high strength`, simple(RuleMinusOneToWoundHighStrength)),
	pattern(`-1 to be wounded`, simple(RuleMinusOneToWound)),
	pattern(`cover`, simple(RuleCover)),
	pattern(`-1 ap in melee`, simple(RuleMinusOneAPMelee)),
	pattern(`(?:-1 ap|armou?r of contempt)`, simple(RuleMinusOneAP)),
	pattern(`invulnerable save ranged (\d)\+`, withValue(RuleInvulnerableRanged)),
	pattern(`invulnerable save melee (\d)\+`, withValue(RuleInvulnerableMelee)),
	pattern(`invulnerable save (\d)\+`, withValue(RuleInvulnerable)),
	pattern(`feel no pain (\d)\+`, withValue(RuleFeelNoPain)),
	pattern(`(.+?) fnp (\d)\+`, func(m []string) Rule {
		n, _ := strconv.Atoi(m[2])
		return Rule{Kind: RuleConditionalFNP, Keyword: strings.TrimSpace(m[1]), Value: n}
	}),
}

// ParseRule maps a rule string onto the vocabulary. Text it does not
// recognise becomes RuleUnknown and is ignored by the resolver.
func ParseRule(s string) Rule {
	raw := strings.Join(strings.Fields(s), " ")
	for _, rp := range ruleParsers {
		if m := rp.re.FindStringSubmatch(raw); m != nil {
			r := rp.build(m)
			r.Raw = raw
			return r
		}
	}
	return Rule{Kind: RuleUnknown, Raw: raw}
}

// Rules is an ordered set of parsed special rules.
type Rules []Rule

func ParseRules(raw []string) Rules {
	out := make(Rules, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, ParseRule(s))
	}
	return out
}

// Has reports whether any rule of the kind is present, conditional or not.
func (rs Rules) Has(kind RuleKind) bool {
	_, ok := rs.First(kind)
	return ok
}

func (rs Rules) First(kind RuleKind) (Rule, bool) {
	for _, r := range rs {
		if r.Kind == kind {
			return r, true
		}
	}
	return Rule{}, false
}

// AppliesTo reports whether a rule of the kind is unconditional or names a
// keyword the target carries.
func (rs Rules) AppliesTo(kind RuleKind, kw Keywords) bool {
	for _, r := range rs {
		if r.Kind == kind && (r.Keyword == "" || kw.Has(r.Keyword)) {
			return true
		}
	}
	return false
}

// HasRaw matches a rule by its literal text, case-insensitively.
func (rs Rules) HasRaw(text string) bool {
	for _, r := range rs {
		if strings.EqualFold(r.Raw, text) {
			return true
		}
	}
	return false
}

func (rs Rules) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Raw
	}
	return out
}

// Keywords is a unit's keyword list, matched case-insensitively.
type Keywords []string

func (k Keywords) Has(kw string) bool {
	for _, v := range k {
		if strings.EqualFold(v, kw) {
			return true
		}
	}
	return false
}
