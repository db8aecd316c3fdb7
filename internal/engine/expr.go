package engine

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var diceRe = regexp.MustCompile(`(?i)^\s*(\d+)?\s*d\s*([36])(?:\s*\+\s*(\d+))?\s*$`)

// ExprKind tags the shape of a roll expression.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprFixed
	ExprDice
	// ExprTwoD3OrTwoD6 is the literal "2D3 or 2D6": 2D6 on a critical, 2D3 otherwise.
	ExprTwoD3OrTwoD6
	// ExprD3OrThree is the literal "D3 or 3": 3 on a critical, D3 otherwise.
	ExprD3OrThree
)

// Expr is an attack-count or damage characteristic: a fixed integer or a
// dice formula. The zero value is invalid and evaluates to 1.
type Expr struct {
	Kind  ExprKind
	Count int // number of dice
	Sides int // 3 or 6; a D3 is still rolled on a d6
	Mod   int // flat bonus, or the value of a fixed expression
	raw   string
}

// Result is one evaluation of an Expr with the unmodified faces behind it.
type Result struct {
	Value int
	Faces []int
}

// Fixed returns an expression that always yields n.
func Fixed(n int) Expr { return Expr{Kind: ExprFixed, Mod: n} }

// ParseExpr accepts N, D6, D3, D6+N, D3+N, MD6, MD6+N, MD3 and the two
// literal composites. Anything else parses to an invalid expression rather
// than an error so malformed data never stops a batch.
func ParseExpr(s string) Expr {
	raw := strings.TrimSpace(s)
	if n, err := strconv.Atoi(raw); err == nil {
		e := Fixed(n)
		e.raw = raw
		return e
	}
	switch strings.Join(strings.Fields(strings.ToUpper(raw)), " ") {
	case "2D3 OR 2D6":
		return Expr{Kind: ExprTwoD3OrTwoD6, Count: 2, Sides: 6, raw: raw}
	case "D3 OR 3":
		return Expr{Kind: ExprD3OrThree, Count: 1, Sides: 3, raw: raw}
	}
	m := diceRe.FindStringSubmatch(raw)
	if m == nil {
		return Expr{Kind: ExprInvalid, raw: raw}
	}
	e := Expr{Kind: ExprDice, Count: 1, raw: raw}
	if m[1] != "" {
		e.Count, _ = strconv.Atoi(m[1])
	}
	e.Sides, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		e.Mod, _ = strconv.Atoi(m[3])
	}
	if e.Count == 0 {
		return Expr{Kind: ExprInvalid, raw: raw}
	}
	return e
}

// IsRandom reports whether evaluating e rolls any dice.
func (e Expr) IsRandom() bool {
	switch e.Kind {
	case ExprDice, ExprTwoD3OrTwoD6, ExprD3OrThree:
		return true
	}
	return false
}

// SingleDie reports whether e is one die plus a flat bonus, the only shape a
// "flip to 6" can act on.
func (e Expr) SingleDie() bool { return e.Kind == ExprDice && e.Count == 1 }

// NumDice is the number of d6 faces Eval consumes.
func (e Expr) NumDice(critical bool) int {
	switch e.Kind {
	case ExprDice, ExprTwoD3OrTwoD6:
		return e.Count
	case ExprD3OrThree:
		if critical {
			return 0
		}
		return 1
	}
	return 0
}

// Mean is the expected value of a non-critical evaluation.
func (e Expr) Mean() float64 {
	switch e.Kind {
	case ExprFixed:
		return float64(e.Mod)
	case ExprDice:
		per := 3.5
		if e.Sides == 3 {
			per = 2
		}
		return float64(e.Count)*per + float64(e.Mod)
	case ExprTwoD3OrTwoD6:
		return 4
	case ExprD3OrThree:
		return 2
	}
	return 1
}

// Eval computes the outcome for the given unmodified faces. Callers that
// reroll or flip dice edit the faces and evaluate again.
func (e Expr) Eval(faces []int, critical bool) int {
	switch e.Kind {
	case ExprFixed:
		return e.Mod
	case ExprDice:
		total := e.Mod
		for _, f := range faces {
			if e.Sides == 3 {
				f = D3(f)
			}
			total += f
		}
		return total
	case ExprTwoD3OrTwoD6:
		total := 0
		for _, f := range faces {
			if !critical {
				f = D3(f)
			}
			total += f
		}
		return total
	case ExprD3OrThree:
		if critical || len(faces) == 0 {
			return 3
		}
		return D3(faces[0])
	}
	return 1
}

// Roll evaluates e with fresh dice.
func (e Expr) Roll(d Dice, critical bool) Result {
	n := e.NumDice(critical)
	if n == 0 {
		return Result{Value: e.Eval(nil, critical)}
	}
	faces := make([]int, n)
	for i := range faces {
		faces[i] = d.Roll()
	}
	return Result{Value: e.Eval(faces, critical), Faces: faces}
}

// Value is a shorthand for Roll(d, false).Value.
func (e Expr) Value(d Dice) int { return e.Roll(d, false).Value }

func (e Expr) String() string {
	if e.raw != "" {
		return e.raw
	}
	switch e.Kind {
	case ExprFixed:
		return strconv.Itoa(e.Mod)
	case ExprDice:
		s := "D" + strconv.Itoa(e.Sides)
		if e.Count > 1 {
			s = strconv.Itoa(e.Count) + s
		}
		if e.Mod > 0 {
			s += "+" + strconv.Itoa(e.Mod)
		}
		return s
	case ExprTwoD3OrTwoD6:
		return "2D3 or 2D6"
	case ExprD3OrThree:
		return "D3 or 3"
	}
	return "invalid"
}

// UnmarshalJSON accepts a JSON number or string.
func (e *Expr) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*e = Fixed(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// still soft: unreadable characteristics degrade to the fallback
		*e = Expr{Kind: ExprInvalid, raw: string(data)}
		return nil
	}
	*e = ParseExpr(s)
	return nil
}

func (e Expr) MarshalJSON() ([]byte, error) {
	if e.Kind == ExprFixed {
		return []byte(strconv.Itoa(e.Mod)), nil
	}
	return json.Marshal(e.String())
}

// UnmarshalText lets YAML scalars (numbers included) decode into an Expr.
func (e *Expr) UnmarshalText(text []byte) error {
	*e = ParseExpr(string(text))
	return nil
}

func (e Expr) MarshalText() ([]byte, error) { return []byte(e.String()), nil }
