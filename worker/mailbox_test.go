package worker

import (
	"context"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxIsFIFO(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.worker")
	defer teardown()
	//
	mb := newMailbox(0, Block)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, mb.push(ctx, removeRequest{id: NodeID(i)}, i%2 == 0))
	}
	assert.Equal(t, 5, mb.length())
	for i := 1; i <= 5; i++ {
		req, ok := mb.pop()
		require.True(t, ok)
		assert.Equal(t, removeRequest{id: NodeID(i)}, req)
	}
}

func TestMailboxClose(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.worker")
	defer teardown()
	//
	mb := newMailbox(2, Reject)
	ctx := context.Background()
	require.NoError(t, mb.push(ctx, removeRequest{id: 1}, false))
	require.NoError(t, mb.push(ctx, removeRequest{id: 2}, false))
	assert.ErrorIs(t, mb.push(ctx, removeRequest{id: 3}, false), ErrQueueFull)
	pending := mb.close()
	assert.Len(t, pending, 2)
	_, ok := mb.pop()
	assert.False(t, ok, "closed mailbox should not deliver requests")
	assert.ErrorIs(t, mb.push(ctx, removeRequest{id: 4}, false), ErrChannelClosed)
	assert.ErrorIs(t, mb.push(ctx, removeRequest{id: 5}, true), ErrChannelClosed)
	assert.Nil(t, mb.close())
}

func TestMailboxWakesBlockedProducer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.worker")
	defer teardown()
	//
	mb := newMailbox(1, Block)
	ctx := context.Background()
	require.NoError(t, mb.push(ctx, removeRequest{id: 1}, false))
	errc := make(chan error)
	go func() {
		errc <- mb.push(ctx, removeRequest{id: 2}, false)
	}()
	req, ok := mb.pop()
	require.True(t, ok)
	assert.Equal(t, removeRequest{id: 1}, req)
	require.NoError(t, <-errc)
	req, ok = mb.pop()
	require.True(t, ok)
	assert.Equal(t, removeRequest{id: 2}, req)
}
