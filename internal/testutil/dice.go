package testutil

import "fmt"

// ScriptedDice returns the given faces in order and panics once they run out,
// so a test that rolls more dice than expected fails loudly.
type ScriptedDice struct {
	faces []int
	next  int
}

func Dice(faces ...int) *ScriptedDice { return &ScriptedDice{faces: faces} }

func (d *ScriptedDice) Roll() int {
	if d.next >= len(d.faces) {
		panic(fmt.Sprintf("scripted dice exhausted after %d rolls", len(d.faces)))
	}
	f := d.faces[d.next]
	d.next++
	return f
}

// Used is the number of faces consumed so far.
func (d *ScriptedDice) Used() int { return d.next }

// Remaining is the number of faces not yet rolled.
func (d *ScriptedDice) Remaining() int { return len(d.faces) - d.next }
