package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender collects deliveries and signals each one on done.
type recordingSender struct {
	mu        sync.Mutex
	delivered []string
	done      chan struct{}
}

func (s *recordingSender) SendPasswordReset(_ context.Context, email, token string) error {
	s.mu.Lock()
	s.delivered = append(s.delivered, email+":"+token)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func waitFor(t *testing.T, done chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func TestDispatcherDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &recordingSender{done: make(chan struct{}, 8)}
	d := NewDispatcher(2, sender, zerolog.Nop())
	d.Start(ctx)

	require.NoError(t, d.SendPasswordReset(ctx, "maria@email.com", "tok-1"))
	waitFor(t, sender.done, 1)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, []string{"maria@email.com:tok-1"}, sender.delivered)
}

func TestDispatcherPreservesOrderPerRecipient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &recordingSender{done: make(chan struct{}, 8)}
	d := NewDispatcher(4, sender, zerolog.Nop())
	d.Start(ctx)

	// Same recipient shards to the same worker, so order is preserved.
	for _, tok := range []string{"tok-1", "tok-2", "tok-3"} {
		require.NoError(t, d.SendPasswordReset(ctx, "maria@email.com", tok))
	}
	waitFor(t, sender.done, 3)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, []string{
		"maria@email.com:tok-1",
		"maria@email.com:tok-2",
		"maria@email.com:tok-3",
	}, sender.delivered)
}

func TestDispatcherShardIsDeterministic(t *testing.T) {
	d := NewDispatcher(4, nil, zerolog.Nop())
	a := d.shardIndex("maria@email.com")
	for i := 0; i < 10; i++ {
		assert.Equal(t, a, d.shardIndex("maria@email.com"))
	}
	assert.Less(t, a, 4)
	assert.GreaterOrEqual(t, a, 0)
}

func TestDispatcherDefaultsWorkerCount(t *testing.T) {
	d := NewDispatcher(0, nil, zerolog.Nop())
	assert.Len(t, d.workers, defaultWorkers)
}
