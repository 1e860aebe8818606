package viewmodel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SubscribeDeliversCurrentThenLatest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStore(1)

	ch := s.Subscribe(ctx)
	assert.Equal(t, 1, <-ch)

	s.Update(func(n int) int { return n + 1 })
	s.Update(func(n int) int { return n + 1 })
	s.Update(func(n int) int { return n + 1 })
	assert.Equal(t, 4, <-ch, "slow reader sees only the latest state")
	assert.Equal(t, 4, s.State())

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			_, ok = <-ch
		}
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestStore_UpdateAfterUnsubscribeDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStore("a")
	ch := s.Subscribe(ctx)
	cancel()
	for range ch {
	}
	s.Update(func(string) string { return "b" })
	require.Equal(t, "b", s.State())
}
