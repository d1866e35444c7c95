package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

// fakeSource serves an append-only message log
type fakeSource struct {
	mu    sync.Mutex
	msgs  []*types.Message
	fails int
}

func (f *fakeSource) add(contents ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range contents {
		f.msgs = append(f.msgs, &types.Message{ID: int64(len(f.msgs) + 1), Content: c})
	}
}

func (f *fakeSource) Since(ctx context.Context, conversationID, afterID int64) ([]*types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("database is locked")
	}
	var out []*types.Message
	for _, m := range f.msgs {
		if m.ID > afterID {
			out = append(out, m)
		}
	}
	return out, nil
}

func receive(t *testing.T, w *Watcher) []*types.Message {
	t.Helper()
	select {
	case batch := <-w.Updates():
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for messages")
		return nil
	}
}

func TestWatcher_DeliversNewMessages(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &fakeSource{}
	src.add("first", "second")

	w := NewWatcher(src, 1, 1, 10*time.Millisecond, nil)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	batch := receive(t, w)
	require.Len(t, batch, 1)
	assert.Equal(t, "second", batch[0].Content)

	src.add("third", "fourth")
	batch = receive(t, w)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(4), batch[1].ID)
	assert.Eventually(t, func() bool { return w.LastID() == 4 }, time.Second, 5*time.Millisecond)
}

func TestWatcher_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWatcher(&fakeSource{}, 1, 0, 10*time.Millisecond, nil)
	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.Running())
	assert.ErrorIs(t, w.Start(context.Background()), ErrWatcherRunning)

	w.Stop()
	assert.False(t, w.Running())
	w.Stop()

	// Restartable after Stop
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
}

func TestWatcher_ContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &fakeSource{}
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(src, 1, 0, 5*time.Millisecond, nil)
	require.NoError(t, w.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !w.Running() }, time.Second, 5*time.Millisecond)
	w.Stop()
}

func TestWatcher_UnreadBatchDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &fakeSource{}
	w := NewWatcher(src, 1, 0, 5*time.Millisecond, nil)
	require.NoError(t, w.Start(context.Background()))

	// Fill the buffer and leave the next send blocked
	src.add("a")
	assert.Eventually(t, func() bool { return w.LastID() == 1 }, time.Second, 5*time.Millisecond)
	src.add("b")
	time.Sleep(20 * time.Millisecond)

	w.Stop()
	assert.Equal(t, int64(1), w.LastID())
}

func TestWatcher_RetriesAfterError(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &fakeSource{fails: 2}
	src.add("hello")
	w := NewWatcher(src, 1, 0, 5*time.Millisecond, nil)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	batch := receive(t, w)
	require.Len(t, batch, 1)
	assert.Equal(t, "hello", batch[0].Content)
}

func TestWatch_WithStorage(t *testing.T) {
	svc, store := setupMessaging(t)
	ctx := context.Background()
	customer := newAccount(t, store, "cust", types.RoleCustomer)
	staff := newAccount(t, store, "staff", types.RoleStaff)

	convID, err := svc.StartConversation(ctx, customer, "Delivery", "When will it arrive?")
	require.NoError(t, err)
	msgs, err := svc.Messages(ctx, convID)
	require.NoError(t, err)

	w := svc.Watch(convID, msgs[len(msgs)-1].ID, 10*time.Millisecond)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	_, err = svc.StaffReply(ctx, staff, convID, "Tomorrow")
	require.NoError(t, err)

	batch := receive(t, w)
	require.Len(t, batch, 1)
	assert.Equal(t, "Tomorrow", batch[0].Content)
}
