package exec_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guti-foundation/stationkit/internal/entrylist"
	"github.com/guti-foundation/stationkit/internal/exec"
)

// countingIter yields ReadyValue for i in [0, n) then terminates, counting
// how many times Next was called (including the terminal call), mirroring
// spec.md §8 scenario 1 ("bounded echo").
type countingIter struct {
	n      int
	i      int
	calls  int
	ready  []int
}

func (c *countingIter) Next(ctx context.Context, self entrylist.Entry, ex *exec.Executor) (exec.State, bool) {
	c.calls++
	if c.i >= c.n {
		return exec.Done(), false
	}
	c.ready = append(c.ready, c.i)
	c.i++
	return exec.ReadyValue(self), true
}

func TestBoundedEchoSixStepsFiveValues(t *testing.T) {
	engine := exec.NewEngine()
	ex := exec.NewExecutor(engine)

	iter := &countingIter{n: 5}
	_, err := ex.Schedule(iter)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		ex.RunOnce(ctx)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, iter.ready)
	assert.Equal(t, 6, iter.calls)
}

type delayOnceIter struct {
	delayed bool
	done    bool
}

func (d *delayOnceIter) Next(ctx context.Context, self entrylist.Entry, ex *exec.Executor) (exec.State, bool) {
	if !d.delayed {
		d.delayed = true
		return exec.PendingDelayed(5 * time.Millisecond), true
	}
	d.done = true
	return exec.Done(), false
}

func TestPendingDelayedRegistersSleeperThenMatures(t *testing.T) {
	engine := exec.NewEngine()
	ex := exec.NewExecutor(engine, exec.WithMaxPark(2*time.Millisecond))
	iter := &delayOnceIter{}
	_, err := ex.Schedule(iter)
	require.NoError(t, err)

	ctx := context.Background()
	ex.RunOnce(ctx) // consumes PendingDelayed, registers sleeper
	assert.Equal(t, 1, ex.PendingSleepers())

	deadline := time.Now().Add(200 * time.Millisecond)
	for !iter.done && time.Now().Before(deadline) {
		ex.RunOnce(ctx)
	}
	assert.True(t, iter.done)
}

// panicIter panics on every call and counts the calls, so the test can
// check it is polled only once.
type panicIter struct{ calls int }

func (p *panicIter) Next(ctx context.Context, self entrylist.Entry, ex *exec.Executor) (exec.State, bool) {
	p.calls++
	panic("boom")
}

func TestPanicIsolatesTaskAndInvokesHandler(t *testing.T) {
	engine := exec.NewEngine()
	ex := exec.NewExecutor(engine)

	var handled any
	iter := &panicIter{}
	entry, err := ex.ScheduleWithPanicHandler(iter, func(p any) { handled = p })
	require.NoError(t, err)

	ex.RunOnce(context.Background())
	assert.Equal(t, "boom", handled)
	assert.Equal(t, 1, iter.calls)

	// the entry must now be vacated: a sibling scheduled after it runs
	// fine, and the panicked entry is never polled again.
	_, stillThere := engine.Lookup(entry)
	assert.False(t, stillThere)
}

// orderedIter records the order in which tasks ran.
type orderedIter struct {
	name  string
	order *[]string
	done  bool
}

func (o *orderedIter) Next(ctx context.Context, self entrylist.Entry, ex *exec.Executor) (exec.State, bool) {
	*o.order = append(*o.order, o.name)
	if o.done {
		return exec.Done(), false
	}
	o.done = true
	return exec.Progressed(), true
}

func TestSequencedChildRunsAfterParentYieldsBeforeSiblings(t *testing.T) {
	engine := exec.NewEngine()
	ex := exec.NewExecutor(engine)

	var order []string
	parent := &orderedIter{name: "parent", order: &order}
	parentEntry, err := ex.Schedule(parent)
	require.NoError(t, err)

	child := &orderedIter{name: "child", order: &order}
	_, err = ex.Sequenced(child, parentEntry)
	require.NoError(t, err)

	sibling := &orderedIter{name: "sibling", order: &order}
	_, err = ex.Schedule(sibling)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		ex.RunOnce(ctx)
	}

	// parent must run before child; child must run before sibling's
	// first further poll after the parent's yield.
	parentIdx, childIdx, siblingIdx := -1, -1, -1
	for i, n := range order {
		switch n {
		case "parent":
			if parentIdx == -1 {
				parentIdx = i
			}
		case "child":
			if childIdx == -1 {
				childIdx = i
			}
		case "sibling":
			if siblingIdx == -1 {
				siblingIdx = i
			}
		}
	}
	assert.True(t, parentIdx < childIdx)
	assert.True(t, childIdx < siblingIdx)
}

func TestLiftRequiresExecutingParent(t *testing.T) {
	engine := exec.NewEngine()
	ex := exec.NewExecutor(engine)

	other := entrylistEntryForTest(ex)
	_, err := ex.Lift(&countingIter{n: 1}, other)
	assert.ErrorIs(t, err, exec.ErrParentMustBeExecutingToLift)
}

// entrylistEntryForTest returns some valid-looking but not-currently-
// executing entry by scheduling and immediately using its handle.
func entrylistEntryForTest(ex *exec.Executor) entrylist.Entry {
	e, _ := ex.Schedule(&countingIter{n: 0})
	return e
}
