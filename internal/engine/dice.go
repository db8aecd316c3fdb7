package engine

import (
	"math/rand/v2"
	"time"
)

// Dice is a source of d6 results. Roll returns a value in 1..6.
type Dice interface {
	Roll() int
}

// RandDice rolls from a PCG stream. It is not safe for concurrent use; each
// worker owns its own stream.
type RandDice struct {
	r *rand.Rand
}

// NewDice returns a d6 source for the given seed and stream. The same pair
// always produces the same sequence.
func NewDice(seed, stream uint64) *RandDice {
	return &RandDice{r: rand.New(rand.NewPCG(seed, stream))}
}

func (d *RandDice) Roll() int { return 1 + d.r.IntN(6) }

// D3 is rolled on a d6 and halved, rounding up.
func D3(face int) int { return (face + 1) / 2 }

// NewSeed picks a seed when the caller did not ask for a reproducible run.
func NewSeed() uint64 { return uint64(time.Now().UnixNano()) }
