package httpclient

import (
	"context"
	"time"

	"github.com/guti-foundation/stationkit/internal/connpool"
	"github.com/guti-foundation/stationkit/internal/entrylist"
	"github.com/guti-foundation/stationkit/internal/exec"
	"github.com/guti-foundation/stationkit/internal/netstream"
	"github.com/guti-foundation/stationkit/internal/rx"
)

type sendPhase uint8

const (
	phaseInit sendPhase = iota
	phaseConnecting
	phaseSkipReading
	phaseDone
)

// sendRequestTask implements exec.ExecutionIterator directly: it is the
// SendRequestState machine of spec.md §4.10, §1 (Init -> Connecting ->
// SkipReading -> Done). It lifts a redirectTask child on its own executor
// and polls the bridged receiver each step, matching "drive the
// child-task receiver" from the spec.
type sendRequestTask struct {
	dialer netstream.Dialer
	pool   *connpool.Pool
	req    PreparedRequest

	phase   sendPhase
	recv    *rx.RecvIterator[RedirectOutcome]
	outcome RedirectOutcome
	err     error
}

func newSendRequestTask(dialer netstream.Dialer, pool *connpool.Pool, req PreparedRequest) *sendRequestTask {
	return &sendRequestTask{dialer: dialer, pool: pool, req: req}
}

// Next implements exec.ExecutionIterator.
func (s *sendRequestTask) Next(ctx context.Context, self entrylist.Entry, ex *exec.Executor) (exec.State, bool) {
	switch s.phase {
	case phaseInit:
		inner := newRedirectTask(ctx, s.dialer, s.pool, s.req)
		adapter, recv := rx.NewReadyConsumingIter[RedirectOutcome, struct{}](inner, time.Millisecond)
		s.recv = recv
		if _, err := ex.Lift(adapter, self); err != nil {
			s.err = err
			s.phase = phaseDone
			return exec.Done(), false
		}
		s.phase = phaseConnecting
		return exec.Progressed(), true

	case phaseConnecting:
		outcome, ok, done := s.recv.TryNext()
		if ok {
			s.outcome = outcome
			s.phase = phaseSkipReading
			return exec.Progressed(), true
		}
		if done {
			s.err = ErrFailedExecution
			s.phase = phaseDone
			return exec.Done(), false
		}
		return exec.Pending(), true

	case phaseSkipReading:
		s.phase = phaseDone
		return exec.ReadyValue(self), true

	default:
		return exec.Done(), false
	}
}

// result returns the outcome (or error) once the task has reached
// phaseDone.
func (s *sendRequestTask) result() (RedirectOutcome, error) {
	if s.outcome.Err != nil {
		return s.outcome, s.outcome.Err
	}
	return s.outcome, s.err
}

func (s *sendRequestTask) finished() bool { return s.phase == phaseDone }
