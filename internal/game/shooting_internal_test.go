package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pefman/w40k-volley/internal/engine"
	"github.com/pefman/w40k-volley/internal/testutil"
)

func TestWoundTarget(t *testing.T) {
	tests := []struct{ s, t, want int }{
		{8, 4, 2},
		{5, 4, 3},
		{4, 4, 4},
		{4, 5, 5},
		{3, 6, 6},
		{4, 10, 6},
		{10, 4, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, woundTarget(tt.s, tt.t), "S%d vs T%d", tt.s, tt.t)
	}
}

func testWeapon(typ WeaponType, ap int, rules ...string) *Weapon {
	return &Weapon{
		Name:        "w",
		Type:        typ,
		Range:       24,
		Attacks:     engine.Fixed(1),
		Skill:       3,
		Strength:    4,
		AP:          ap,
		Damage:      engine.Fixed(1),
		Rules:       ParseRules(rules),
		TargetRange: 12,
	}
}

func TestSaveValue(t *testing.T) {
	tests := []struct {
		name   string
		w      *Weapon
		def    Defender
		expect int
	}{
		{"ap applies", testWeapon(Ranged, 2), NewDefender("d", 4, 3, 1, 1, 0, 0, nil, nil), 5},
		{"plus one ap", testWeapon(Ranged, 2, "+1 AP"), NewDefender("d", 4, 3, 1, 1, 0, 0, nil, nil), 6},
		{"armour of contempt", testWeapon(Ranged, 2), NewDefender("d", 4, 3, 1, 1, 0, 0, nil, []string{"Armour of Contempt"}), 4},
		{"ap reduction floors at zero", testWeapon(Ranged, 0), NewDefender("d", 4, 3, 1, 1, 0, 0, nil, []string{"-1 AP"}), 3},
		{"melee only ap reduction", testWeapon(Ranged, 1), NewDefender("d", 4, 3, 1, 1, 0, 0, nil, []string{"-1 AP in Melee"}), 4},
		{"cover floors at 3", testWeapon(Ranged, 0), NewDefender("d", 4, 3, 1, 1, 0, 0, nil, []string{"Cover"}), 3},
		{"cover improves", testWeapon(Ranged, 1), NewDefender("d", 4, 4, 1, 1, 0, 0, nil, []string{"Cover"}), 4},
		{"cover on a 2+", testWeapon(Ranged, 1), NewDefender("d", 4, 2, 1, 1, 0, 0, nil, []string{"Cover"}), 2},
		{"smoke is cover", testWeapon(Ranged, 1), NewDefender("d", 4, 4, 1, 1, 0, 0, nil, []string{"Smoke"}), 4},
		{"ignores cover", testWeapon(Ranged, 1, "Ignores Cover"), NewDefender("d", 4, 4, 1, 1, 0, 0, nil, []string{"Cover"}), 5},
		{"no cover in melee", testWeapon(Melee, 1), NewDefender("d", 4, 4, 1, 1, 0, 0, nil, []string{"Cover"}), 5},
		{"negative ap", testWeapon(Ranged, -2), NewDefender("d", 4, 3, 1, 1, 0, 0, nil, nil), 5},
		{"negative ap plus one", testWeapon(Ranged, -2, "+1 AP"), NewDefender("d", 4, 3, 1, 1, 0, 0, nil, nil), 6},
		{"negative ap reduced", testWeapon(Ranged, -1), NewDefender("d", 4, 3, 1, 1, 0, 0, nil, []string{"-1 AP"}), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, saveValue(tt.w, &tt.def))
		})
	}
}

func TestSaveRoll_Invulnerable(t *testing.T) {
	def := NewDefender("d", 4, 3, 1, 1, 4, 0, nil, []string{"Invulnerable Save Melee 6+"})
	ranged := testWeapon(Ranged, 4)
	melee := testWeapon(Melee, 4)

	assert.True(t, NewResolver(testutil.Dice(4), nil).saveRoll(ranged, &def, false), "4++ beats a 7+ armour save")
	assert.False(t, NewResolver(testutil.Dice(4), nil).saveRoll(melee, &def, false), "melee invulnerable decides alone")
	assert.True(t, NewResolver(testutil.Dice(6), nil).saveRoll(melee, &def, false))
	assert.False(t, NewResolver(testutil.Dice(1), nil).saveRoll(testWeapon(Ranged, 0), &def, false), "natural 1 fails")
	assert.False(t, NewResolver(testutil.Dice(), nil).saveRoll(ranged, &def, true), "mortal wounds roll no save")
}

func TestModifiers(t *testing.T) {
	tests := []struct {
		name       string
		w          *Weapon
		rules      []string
		hit, wound int
	}{
		{"none", testWeapon(Ranged, 0), nil, 0, 0},
		{"penalties clamp", testWeapon(Ranged, 0), []string{"-1 to be Hit", "Stealth", "Smoke"}, -1, 0},
		{"stealth is ranged only", testWeapon(Melee, 0), []string{"Stealth"}, 0, 0},
		{"melee penalty", testWeapon(Melee, 0), []string{"-1 to be Hit in Melee", "-1 to be Wounded in Melee"}, -1, -1},
		{"bonus cancels penalty", testWeapon(Ranged, 0, "+1 to Hit"), []string{"Stealth"}, 0, 0},
		{"ignore hit modifiers", testWeapon(Ranged, 0, "Ignore Hit Modifiers", "+1 to Hit"), []string{"Stealth"}, 1, 0},
		{"ignore modifiers", testWeapon(Ranged, 0, "Ignore Modifiers"), []string{"Stealth", "-1 to be Wounded"}, 0, 0},
		{"high strength only", testWeapon(Ranged, 0), []string{"-1 to be Wounded by High Strength"}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := NewDefender("d", 4, 3, 1, 1, 0, 0, nil, tt.rules)
			hit, wound := modifiers(tt.w, &def)
			assert.Equal(t, tt.hit, hit)
			assert.Equal(t, tt.wound, wound)
		})
	}

	strong := testWeapon(Ranged, 0)
	strong.Strength = 5
	def := NewDefender("d", 4, 3, 1, 1, 0, 0, nil, []string{"-1 to be Wounded by High Strength"})
	_, wound := modifiers(strong, &def)
	assert.Equal(t, -1, wound)
}

func TestFeelNoPainThreshold(t *testing.T) {
	def := NewDefender("d", 4, 3, 1, 1, 0, 6, nil, []string{"Psychic FNP 4+", "Mortal FNP 5+", "Feel No Pain 5+"})

	assert.Equal(t, 5, feelNoPainThreshold(testWeapon(Ranged, 0), &def, false), "best of base values")
	assert.Equal(t, 4, feelNoPainThreshold(testWeapon(Ranged, 0, "Psychic"), &def, false))
	assert.Equal(t, 5, feelNoPainThreshold(testWeapon(Ranged, 0), &def, true))

	none := NewDefender("d", 4, 3, 1, 1, 0, 0, nil, nil)
	assert.Zero(t, feelNoPainThreshold(testWeapon(Ranged, 0), &none, true))
}

func TestDamageRoll_Rerolls(t *testing.T) {
	def := NewDefender("d", 4, 3, 1, 1, 0, 0, nil, nil)

	w := testWeapon(Ranged, 0, "Reroll Damage")
	w.Damage = engine.ParseExpr("D6")
	assert.Equal(t, 5, NewResolver(testutil.Dice(3, 5), nil).damageRoll(w, &def, false, nil))
	assert.Equal(t, 4, NewResolver(testutil.Dice(4), nil).damageRoll(w, &def, false, nil), "4+ is kept")

	w = testWeapon(Ranged, 0, "Reroll Damage 1")
	w.Damage = engine.ParseExpr("2D6")
	assert.Equal(t, 4, NewResolver(testutil.Dice(1, 6, 2, 2), nil).damageRoll(w, &def, false, nil))

	w = testWeapon(Ranged, 0, "Flip Damage Roll to 6")
	w.Damage = engine.ParseExpr("D3+1")
	uses := OneUseFor([]Weapon{*w})
	assert.Equal(t, 4, NewResolver(testutil.Dice(2), nil).damageRoll(w, &def, false, &uses))
	assert.False(t, uses.Available(FlipDamageToSix))

	w = testWeapon(Ranged, 0)
	w.Damage = engine.ParseExpr("D3 or 3")
	assert.Equal(t, 3, NewResolver(testutil.Dice(), nil).damageRoll(w, &def, true, nil))
}

func TestDamageRoll_OneUseReroll(t *testing.T) {
	def := NewDefender("d", 4, 3, 1, 1, 0, 0, nil, nil)
	w := testWeapon(Ranged, 0, "Reroll 1 Hit or Wound or Damage")
	w.Damage = engine.ParseExpr("D3")

	uses := OneUseFor([]Weapon{*w})
	d := testutil.Dice(5, 3, 6)
	r := NewResolver(d, nil)
	assert.Equal(t, 3, r.damageRoll(w, &def, false, &uses), "a 5 is kept")
	assert.True(t, uses.Available(RerollOneHitWoundOrDamage))

	assert.Equal(t, 3, r.damageRoll(w, &def, false, &uses), "a face of 3 is rerolled")
	assert.False(t, uses.Available(RerollOneHitWoundOrDamage))
	assert.Zero(t, d.Remaining())

	assert.Equal(t, 1, NewResolver(testutil.Dice(1), nil).damageRoll(w, &def, false, &uses), "spent for the trial")

	w.Damage = engine.ParseExpr("D6+1")
	uses = OneUseFor([]Weapon{*w})
	assert.Equal(t, 6, NewResolver(testutil.Dice(2, 5), nil).damageRoll(w, &def, false, &uses))
	assert.False(t, uses.Available(RerollOneHitWoundOrDamage))
}

func TestCriticalThresholds(t *testing.T) {
	def := NewDefender("d", 4, 3, 1, 1, 0, 0, []string{"Infantry"}, nil)
	assert.Equal(t, 6, criticalHitThreshold(testWeapon(Ranged, 0)))
	assert.Equal(t, 5, criticalHitThreshold(testWeapon(Ranged, 0, "Critical Hits 5+")))
	assert.Equal(t, 2, criticalWoundThreshold(testWeapon(Ranged, 0, "Anti-Infantry 2+", "Critical Wounds 5+"), &def))
	assert.Equal(t, 5, criticalWoundThreshold(testWeapon(Ranged, 0, "Anti-Vehicle 2+", "Critical Wounds 5+"), &def))
}
