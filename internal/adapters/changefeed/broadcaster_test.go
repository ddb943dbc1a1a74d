package changefeed

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversUntilUnsubscribed(t *testing.T) {
	b := NewBroadcaster()
	var got atomic.Int32

	sub, err := b.Subscribe(context.Background(), func(domain.ChangeEvent) { got.Add(1) })
	require.NoError(t, err)

	b.Broadcast(domain.ChangeEvent{Entity: domain.EntityTransaction, Op: domain.OpInsert})
	assert.Equal(t, int32(1), got.Load())

	sub.Unsubscribe()
	sub.Unsubscribe()
	b.Broadcast(domain.ChangeEvent{Entity: domain.EntityTransaction, Op: domain.OpInsert})
	assert.Equal(t, int32(1), got.Load())
	assert.Equal(t, 0, b.Len())
}

func TestBroadcasterUnsubscribesOnContextDone(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())

	_, err := b.Subscribe(ctx, func(domain.ChangeEvent) {})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	cancel()
	assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestBroadcasterRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBroadcaster().Subscribe(ctx, func(domain.ChangeEvent) {})
	assert.ErrorIs(t, err, context.Canceled)
}
