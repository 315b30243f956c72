package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type record struct {
	ID   int
	Kind string
}

func TestQueue_New(t *testing.T) {
	q := New[record]()
	assert.NotNil(t, q)
	assert.True(t, q.Empty())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PushAndDrain(t *testing.T) {
	q := New[record]()
	q.Push(record{ID: 1, Kind: "solve"})
	q.Push(record{ID: 2}, record{ID: 3})
	assert.Equal(t, 3, q.Len())

	items := q.Drain()
	assert.Equal(t, []int{1, 2, 3}, ids(items))
	assert.True(t, q.Empty())

	// draining leaves a usable queue
	q.Push(record{ID: 4})
	assert.Equal(t, 1, q.Len())
}

func TestQueue_PushFront_KeepsRetryOrder(t *testing.T) {
	q := New[record]()
	q.Push(record{ID: 1}, record{ID: 2})
	failed := q.Drain()

	q.Push(record{ID: 3})
	q.PushFront(failed...)
	q.PushFront()

	assert.Equal(t, []int{1, 2, 3}, ids(q.Drain()))
}

func TestQueue_DrainN(t *testing.T) {
	q := New[record]()
	q.Push(record{ID: 1}, record{ID: 2}, record{ID: 3})

	assert.Nil(t, q.DrainN(0))
	assert.Equal(t, []int{1, 2}, ids(q.DrainN(2)))
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, []int{3}, ids(q.DrainN(10)))
	assert.True(t, q.Empty())
}

func TestQueue_DrainN_DoesNotAlias(t *testing.T) {
	q := New[record]()
	q.Push(record{ID: 1}, record{ID: 2})
	head := q.DrainN(1)
	q.PushFront(record{ID: 9})
	assert.Equal(t, 1, head[0].ID)
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := New[record]()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 20 {
				q.Push(record{ID: n*100 + j})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1000, q.Len())
	assert.Len(t, q.Drain(), 1000)
}

func ids(items []record) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
