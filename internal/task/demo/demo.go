// Package demo holds small task.Iterator bodies used by this package's
// tests to exercise the executor and the rx bridges, without needing a
// real upstream job queue. Each one is
// grounded on a pure helper from the teacher's basic request handlers,
// reshaped into a step function instead of a one-shot call.
package demo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"

	"github.com/guti-foundation/stationkit/internal/exec"
	"github.com/guti-foundation/stationkit/internal/task"
)

// Status is the concrete task.Status this package's iterators all use:
// a string result, no pending payload, and the engine's own SpawnAction
// (none of these ever spawn, but the type parameter must still line up
// with rx.ConsumingIter's expectations).
type Status = task.Status[string, struct{}, exec.SpawnAction]

// Reverse reverses s rune-by-rune (UTF-8 safe) in a single step.
type Reverse struct {
	text string
	done bool
}

// NewReverse builds a one-step Reverse task.
func NewReverse(text string) *Reverse { return &Reverse{text: text} }

// Next implements task.Iterator.
func (r *Reverse) Next() (Status, bool) {
	if r.done {
		return Status{}, false
	}
	r.done = true
	rs := []rune(r.text)
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	return task.ReadyValue[string, struct{}, exec.SpawnAction](string(rs)), true
}

// ToUpper upper-cases s in a single step.
type ToUpper struct {
	text string
	done bool
}

// NewToUpper builds a one-step ToUpper task.
func NewToUpper(text string) *ToUpper { return &ToUpper{text: text} }

// Next implements task.Iterator.
func (u *ToUpper) Next() (Status, bool) {
	if u.done {
		return Status{}, false
	}
	u.done = true
	return task.ReadyValue[string, struct{}, exec.SpawnAction](strings.ToUpper(u.text)), true
}

// Hash computes the SHA-256 of text, hex-encoded, in a single step.
type Hash struct {
	text string
	done bool
}

// NewHash builds a one-step Hash task.
func NewHash(text string) *Hash { return &Hash{text: text} }

// Next implements task.Iterator.
func (h *Hash) Next() (Status, bool) {
	if h.done {
		return Status{}, false
	}
	h.done = true
	sum := sha256.Sum256([]byte(h.text))
	return task.ReadyValue[string, struct{}, exec.SpawnAction](hex.EncodeToString(sum[:])), true
}

// Random draws n uniform integers from [min, max] in a single step.
type Random struct {
	n, min, max int
	rng         *rand.Rand
	done        bool
}

// NewRandom builds a one-step Random task. rng may be nil, in which case
// Next uses a fresh source with the fixed seed 1, so the output is
// deterministic.
func NewRandom(n, min, max int, rng *rand.Rand) *Random {
	return &Random{n: n, min: min, max: max, rng: rng}
}

// Next implements task.Iterator.
func (r *Random) Next() (Status, bool) {
	if r.done {
		return Status{}, false
	}
	r.done = true
	rng := r.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	span := r.max - r.min + 1
	vals := make([]string, r.n)
	for i := range vals {
		vals[i] = fmt.Sprintf("%d", rng.Intn(span)+r.min)
	}
	return task.ReadyValue[string, struct{}, exec.SpawnAction](strings.Join(vals, ",")), true
}

// Fibonacci computes the n-th Fibonacci number, one addition per poll, so
// driving it through the executor actually exercises several Pending
// round-trips instead of resolving on the first call — unlike the
// teacher's fibonacciCore, which loops to completion inside one call.
type Fibonacci struct {
	n    int
	i    int
	a, b int
}

// NewFibonacci builds an incremental Fibonacci task for n >= 0.
func NewFibonacci(n int) *Fibonacci { return &Fibonacci{n: n, i: 0, a: 0, b: 1} }

// Next implements task.Iterator.
func (f *Fibonacci) Next() (Status, bool) {
	if f.i > f.n {
		return Status{}, false
	}
	if f.n == 0 {
		f.i = f.n + 1
		return task.ReadyValue[string, struct{}, exec.SpawnAction]("0"), true
	}
	if f.i == f.n {
		f.i++
		return task.ReadyValue[string, struct{}, exec.SpawnAction](fmt.Sprintf("%d", f.a)), true
	}
	f.a, f.b = f.b, f.a+f.b
	f.i++
	return task.PendingValue[string, struct{}, exec.SpawnAction](struct{}{}), true
}
