package stream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, q *FrameQueue) []string {
	t.Helper()
	clock := clockwork.NewRealClock()
	var ids []string
	for {
		task, result := q.Dequeue(context.Background(), 10*time.Millisecond, clock)
		if result != DequeueOK {
			return ids
		}
		ids = append(ids, task.ID)
	}
}

func TestFrameQueue_EnqueueWithinCapacity(t *testing.T) {
	q := NewFrameQueue(3)

	evicted, accepted := q.TryEnqueue(FrameTask{ID: "a"})
	assert.False(t, evicted)
	assert.True(t, accepted)
	assert.Equal(t, 1, q.Len())
}

func TestFrameQueue_FullQueueEvictsOldest(t *testing.T) {
	// capacity=2; enqueue A, B, C back-to-back before any dequeue.
	q := NewFrameQueue(2)

	_, _ = q.TryEnqueue(FrameTask{ID: "A"})
	_, _ = q.TryEnqueue(FrameTask{ID: "B"})
	evicted, accepted := q.TryEnqueue(FrameTask{ID: "C"})

	assert.True(t, evicted)
	assert.True(t, accepted)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []string{"B", "C"}, drain(t, q))
}

func TestFrameQueue_NewestIsNeverDiscarded(t *testing.T) {
	q := NewFrameQueue(3)

	for i := 0; i < 20; i++ {
		_, accepted := q.TryEnqueue(FrameTask{ID: fmt.Sprintf("f%d", i)})
		require.True(t, accepted)
		require.LessOrEqual(t, q.Len(), 3, "length must never exceed capacity")
	}

	assert.Equal(t, []string{"f17", "f18", "f19"}, drain(t, q))
}

func TestFrameQueue_EnqueueAfterCloseRejected(t *testing.T) {
	q := NewFrameQueue(2)
	q.Close()

	_, accepted := q.TryEnqueue(FrameTask{ID: "late"})
	assert.False(t, accepted)
}

func TestFrameQueue_CloseIsIdempotent(t *testing.T) {
	q := NewFrameQueue(2)
	q.Close()
	assert.NotPanics(t, q.Close)
}

func TestFrameQueue_DequeueBlocksUntilItem(t *testing.T) {
	q := NewFrameQueue(2)
	clock := clockwork.NewRealClock()

	got := make(chan FrameTask, 1)
	go func() {
		task, result := q.Dequeue(context.Background(), 5*time.Second, clock)
		if result == DequeueOK {
			got <- task
		}
	}()

	time.Sleep(20 * time.Millisecond)
	_, _ = q.TryEnqueue(FrameTask{ID: "x"})

	select {
	case task := <-got:
		assert.Equal(t, "x", task.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue never returned")
	}
}

func TestFrameQueue_DequeueTimesOut(t *testing.T) {
	q := NewFrameQueue(2)

	_, result := q.Dequeue(context.Background(), 10*time.Millisecond, clockwork.NewRealClock())
	assert.Equal(t, DequeueTimeout, result)
}

func TestFrameQueue_CloseWakesBlockedDequeuer(t *testing.T) {
	q := NewFrameQueue(2)

	done := make(chan DequeueResult, 1)
	go func() {
		_, result := q.Dequeue(context.Background(), 5*time.Second, clockwork.NewRealClock())
		done <- result
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case result := <-done:
		assert.Equal(t, DequeueClosed, result)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue never woke up")
	}
}

func TestFrameQueue_DequeueCancelled(t *testing.T) {
	q := NewFrameQueue(2)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan DequeueResult, 1)
	go func() {
		_, result := q.Dequeue(ctx, 5*time.Second, clockwork.NewRealClock())
		done <- result
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case result := <-done:
		assert.Equal(t, DequeueCancelled, result)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue never woke up")
	}
}

func TestFrameQueue_DefaultCapacity(t *testing.T) {
	q := NewFrameQueue(0)
	assert.Equal(t, DefaultQueueCapacity, q.Capacity())
}
