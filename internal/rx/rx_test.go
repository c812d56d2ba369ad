package rx_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guti-foundation/stationkit/internal/exec"
	"github.com/guti-foundation/stationkit/internal/rx"
	"github.com/guti-foundation/stationkit/internal/task"
)

type countdownTask struct {
	remaining int
}

func (c *countdownTask) Next() (task.Status[int, struct{}, exec.SpawnAction], bool) {
	if c.remaining <= 0 {
		return task.Status[int, struct{}, exec.SpawnAction]{}, false
	}
	c.remaining--
	return task.ReadyValue[int, struct{}, exec.SpawnAction](c.remaining), true
}

func TestConsumingIterDeliversReadyValuesInOrder(t *testing.T) {
	engine := exec.NewEngine()
	ex := exec.NewExecutor(engine)

	adapter, recv := rx.NewConsumingIter[int, struct{}](&countdownTask{remaining: 3}, time.Millisecond)
	_, err := ex.Schedule(adapter)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		ex.RunOnce(context.Background())
	}

	items := recv.Collect()
	require.Len(t, items, 3)
	assert.Equal(t, 2, items[0].Ready)
	assert.Equal(t, 1, items[1].Ready)
	assert.Equal(t, 0, items[2].Ready)
}

func TestReadyConsumingIterSuppressesNonReadyFromChannel(t *testing.T) {
	engine := exec.NewEngine()
	ex := exec.NewExecutor(engine)

	inner := &pendingThenReady{}
	adapter, recv := rx.NewReadyConsumingIter[string, int](inner, time.Millisecond)
	_, err := ex.Schedule(adapter)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		ex.RunOnce(context.Background())
	}

	values := recv.Collect()
	assert.Equal(t, []string{"done"}, values)
}

type pendingThenReady struct{ step int }

func (p *pendingThenReady) Next() (task.Status[string, int, exec.SpawnAction], bool) {
	p.step++
	switch p.step {
	case 1:
		return task.Init[string, int, exec.SpawnAction](), true
	case 2:
		return task.PendingValue[string, int, exec.SpawnAction](7), true
	case 3:
		return task.ReadyValue[string, int, exec.SpawnAction]("done"), true
	default:
		return task.Status[string, int, exec.SpawnAction]{}, false
	}
}
