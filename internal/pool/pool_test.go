package pool

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_SingleWorkerKeepsOrder(t *testing.T) {
	var (
		mu  sync.Mutex
		got []int
	)
	p := New(context.Background(), 1, 100, func(_ context.Context, v int) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})
	for i := 0; i < 100; i++ {
		require.True(t, p.Submit(i))
	}
	p.Drain()

	require.Len(t, got, 100)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestPool_SubmitRejectsWhenFull(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	p := New(context.Background(), 1, 1, func(_ context.Context, v int) {
		if v == 0 {
			close(started)
			<-block
		}
	})
	require.True(t, p.Submit(0))
	<-started
	require.True(t, p.Submit(1))
	require.False(t, p.Submit(2))
	require.Equal(t, 1, p.Len())
	require.Equal(t, 1, p.Cap())

	close(block)
	p.Drain()
}

func TestPool_SubmitAfterDrain(t *testing.T) {
	p := New(context.Background(), 2, 4, func(context.Context, int) {})
	p.Drain()
	p.Drain()
	require.False(t, p.Submit(1))
}
