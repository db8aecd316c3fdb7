package engine_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pefman/w40k-volley/internal/engine"
	"github.com/pefman/w40k-volley/internal/testutil"
)

func TestParseExpr_Shapes(t *testing.T) {
	tests := []struct {
		in    string
		kind  engine.ExprKind
		count int
		sides int
		mod   int
	}{
		{"3", engine.ExprFixed, 0, 0, 3},
		{"D6", engine.ExprDice, 1, 6, 0},
		{"d3", engine.ExprDice, 1, 3, 0},
		{"D6+2", engine.ExprDice, 1, 6, 2},
		{"D3+3", engine.ExprDice, 1, 3, 3},
		{"2D6", engine.ExprDice, 2, 6, 0},
		{" 3D6 ", engine.ExprDice, 3, 6, 0},
		{"2D3 or 2D6", engine.ExprTwoD3OrTwoD6, 2, 6, 0},
		{"D3 OR 3", engine.ExprD3OrThree, 1, 3, 0},
		{"D8", engine.ExprInvalid, 0, 0, 0},
		{"D6-1", engine.ExprInvalid, 0, 0, 0},
		{"", engine.ExprInvalid, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e := engine.ParseExpr(tt.in)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.count, e.Count)
			assert.Equal(t, tt.sides, e.Sides)
			assert.Equal(t, tt.mod, e.Mod)
		})
	}
}

func TestExpr_InvalidFallsBackToOne(t *testing.T) {
	e := engine.ParseExpr("lots")
	res := e.Roll(testutil.Dice(), false)
	assert.Equal(t, 1, res.Value)
	assert.Empty(t, res.Faces)
}

func TestExpr_D3IsHalvedD6(t *testing.T) {
	e := engine.ParseExpr("D3")
	for face, want := range map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 6: 3} {
		res := e.Roll(testutil.Dice(face), false)
		assert.Equal(t, want, res.Value, "face %d", face)
		assert.Equal(t, []int{face}, res.Faces)
	}
}

func TestExpr_RollKeepsUnmodifiedFaces(t *testing.T) {
	res := engine.ParseExpr("D6+2").Roll(testutil.Dice(4), false)
	assert.Equal(t, 6, res.Value)
	assert.Equal(t, []int{4}, res.Faces)

	res = engine.ParseExpr("2D6").Roll(testutil.Dice(1, 5), false)
	assert.Equal(t, 6, res.Value)
	assert.Equal(t, []int{1, 5}, res.Faces)
}

func TestExpr_CompositesDependOnCritical(t *testing.T) {
	two := engine.ParseExpr("2D3 or 2D6")
	assert.Equal(t, 11, two.Roll(testutil.Dice(5, 6), true).Value)
	assert.Equal(t, 6, two.Roll(testutil.Dice(5, 6), false).Value)

	d3 := engine.ParseExpr("D3 or 3")
	d := testutil.Dice()
	assert.Equal(t, 3, d3.Roll(d, true).Value)
	assert.Equal(t, 0, d.Used(), "critical D3 or 3 rolls no dice")
	assert.Equal(t, 1, d3.Roll(testutil.Dice(2), false).Value)
}

func TestExpr_EvalAfterFlip(t *testing.T) {
	e := engine.ParseExpr("D6+1")
	res := e.Roll(testutil.Dice(2), false)
	res.Faces[0] = 6
	assert.Equal(t, 7, e.Eval(res.Faces, false))
}

func TestExpr_JSONAndYAML(t *testing.T) {
	var w struct {
		A engine.Expr `json:"A" yaml:"A"`
		D engine.Expr `json:"D" yaml:"D"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"A": 4, "D": "D6+1"}`), &w))
	assert.Equal(t, engine.Fixed(4), w.A)
	assert.Equal(t, engine.ExprDice, w.D.Kind)
	assert.Equal(t, 1, w.D.Mod)

	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"A": 4, "D": "D6+1"}`, string(out))

	require.NoError(t, yaml.Unmarshal([]byte("A: 2D6\nD: 3\n"), &w))
	assert.Equal(t, 2, w.A.Count)
	assert.Equal(t, 3, w.D.Value(testutil.Dice()))
}

func TestExpr_Mean(t *testing.T) {
	assert.InDelta(t, 7.0, engine.ParseExpr("2D6").Mean(), 1e-9)
	assert.InDelta(t, 5.0, engine.ParseExpr("D3+3").Mean(), 1e-9)
	assert.InDelta(t, 2.0, engine.Fixed(2).Mean(), 1e-9)
}

func TestNewDice_Deterministic(t *testing.T) {
	a, b := engine.NewDice(7, 1), engine.NewDice(7, 1)
	for range 100 {
		fa := a.Roll()
		require.Equal(t, fa, b.Roll())
		require.GreaterOrEqual(t, fa, 1)
		require.LessOrEqual(t, fa, 6)
	}
}
