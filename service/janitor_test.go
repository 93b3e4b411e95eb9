package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEvictor struct {
	evicted int
	calls   []time.Duration
}

func (e *countingEvictor) EvictIdle(_ time.Time, ttl time.Duration) int {
	e.calls = append(e.calls, ttl)
	return e.evicted
}

func TestJanitor_SweepSumsTargets(t *testing.T) {
	a := &countingEvictor{evicted: 2}
	b := &countingEvictor{evicted: 1}
	j := NewJanitor(time.Hour, a, b)

	assert.Equal(t, 3, j.Sweep())
	assert.Equal(t, []time.Duration{time.Hour}, a.calls)
	assert.Equal(t, []time.Duration{time.Hour}, b.calls)
}

func TestJanitor_EvictsIdleWizards(t *testing.T) {
	orders := newTestOrderService(t, &fakeOrderRepository{}, &fakeStorage{})
	orders.StartWizard()
	j := NewJanitor(time.Hour, orders)
	j.now = func() time.Time { return fixedNow.Add(2 * time.Hour) }

	assert.Equal(t, 1, j.Sweep())
	assert.Equal(t, 0, j.Sweep())
}

func TestJanitor_StartValidatesTTL(t *testing.T) {
	assert.Error(t, NewJanitor(0).Start())

	j := NewJanitor(time.Minute)
	require.NoError(t, j.Start())
	j.Stop()
}
