package pnwkit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSetUnblocksWaiters(t *testing.T) {
	e := NewEvent()
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Wait(context.Background())
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	e.Set()
	wg.Wait()
	for _, err := range results {
		assert.NoError(t, err)
	}
}

func TestEventClearBlocksAgain(t *testing.T) {
	e := NewEvent()
	e.Set()
	assert.True(t, e.IsSet())
	e.Clear()
	assert.False(t, e.IsSet())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := e.Wait(ctx)
	assert.Error(t, err)
}

func TestEventIdempotent(t *testing.T) {
	e := NewEvent()
	e.Set()
	e.Set()
	assert.True(t, e.IsSet())
	e.Clear()
	e.Clear()
	assert.False(t, e.IsSet())
}

func TestEventWaitBeforeSetIsNotMissed(t *testing.T) {
	e := NewEvent()
	done := make(chan error, 1)
	go func() {
		done <- e.Wait(context.Background())
	}()
	time.Sleep(5 * time.Millisecond)
	e.Set()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after Set")
	}
}
