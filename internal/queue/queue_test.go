package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/queue"
)

func entryWith(uid uuid.UUID) *model.Entry {
	e := model.NewEntry("file", uid.String(), "performer", "title", "artist", "album")
	e.UUID = uid
	return e
}

func TestPeekIsStableUntilPop(t *testing.T) {
	q := queue.New()
	e := entryWith(uuid.New())
	q.Append(e)

	ctx := context.Background()
	first, err := q.Peek(ctx)
	require.NoError(t, err)
	second, err := q.Peek(ctx)
	require.NoError(t, err)
	require.Same(t, first, second)

	popped, err := q.PopFront(ctx)
	require.NoError(t, err)
	require.Same(t, e, popped)
	require.Equal(t, 0, q.Len())
}

func TestPeekBlocksUntilAppend(t *testing.T) {
	q := queue.New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result := make(chan *model.Entry, 1)
	go func() {
		e, err := q.Peek(ctx)
		require.NoError(t, err)
		result <- e
	}()

	time.Sleep(20 * time.Millisecond)
	e := entryWith(uuid.New())
	q.Append(e)

	select {
	case got := <-result:
		require.Same(t, e, got)
	case <-time.After(time.Second):
		t.Fatal("Peek did not unblock after Append")
	}
}

func TestPeekRespectsContextCancellation(t *testing.T) {
	q := queue.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Peek(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMoveUpGuardsFirstTwoPositions(t *testing.T) {
	q := queue.New()
	ids := make([]uuid.UUID, 4)
	for i := range ids {
		ids[i] = uuid.New()
		q.Append(entryWith(ids[i]))
	}

	q.MoveUp(ids[0]) // head: no-op
	require.Equal(t, ids, uuidsOf(q))

	q.MoveUp(ids[1]) // position 1: no-op
	require.Equal(t, ids, uuidsOf(q))

	q.MoveUp(ids[3]) // position 3 -> 2
	require.Equal(t, []uuid.UUID{ids[0], ids[1], ids[3], ids[2]}, uuidsOf(q))
}

func TestMoveToIsIdempotent(t *testing.T) {
	q := queue.New()
	ids := make([]uuid.UUID, 4)
	for i := range ids {
		ids[i] = uuid.New()
		q.Append(entryWith(ids[i]))
	}

	q.MoveTo(ids[3], 0)
	after := uuidsOf(q)

	q.MoveTo(ids[3], 0)
	require.Equal(t, after, uuidsOf(q))
}

func TestRemoveMissingIsSilentNoOp(t *testing.T) {
	q := queue.New()
	q.Append(entryWith(uuid.New()))
	before := q.Len()

	q.Remove(uuid.New())
	require.Equal(t, before, q.Len())
}

func uuidsOf(q *queue.Queue) []uuid.UUID {
	list := q.ToList()
	out := make([]uuid.UUID, len(list))
	for i, e := range list {
		out[i] = e.UUID
	}
	return out
}
