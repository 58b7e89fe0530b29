package alertqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopAllOrder(t *testing.T) {
	q := New[int](10)
	for i := 0; i < 5; i++ {
		assert.True(t, q.Push(i))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, q.PopAll())
	assert.Empty(t, q.PopAll())
	assert.Equal(t, 0, q.Len())
}

func TestDropWhenFull(t *testing.T) {
	q := New[string](2)
	assert.True(t, q.Push("a"))
	assert.True(t, q.Push("b"))
	assert.False(t, q.Push("c"))
	assert.Equal(t, int64(1), q.Dropped())
	assert.Equal(t, []string{"a", "b"}, q.PopAll())

	q.SetLimit(3)
	for _, s := range []string{"x", "y", "z", "w"} {
		q.Push(s)
	}
	assert.Equal(t, int64(2), q.Dropped())
	assert.Equal(t, 3, q.Len())
}

func TestWaitTimeout(t *testing.T) {
	q := New[int](1)
	start := time.Now()
	_, ok := q.Wait(50 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitDoesNotRemove(t *testing.T) {
	q := New[int](5)
	q.Push(7)
	v, ok := q.Wait(time.Second)
	require.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, []int{7}, q.PopAll())
}

func TestWaitWakesOnPush(t *testing.T) {
	defer leaktest.Check(t)()

	q := New[int](5)
	resultC := make(chan int, 1)
	go func() {
		v, ok := q.Wait(10 * time.Second)
		if ok {
			resultC <- v
		}
		close(resultC)
	}()
	time.Sleep(20 * time.Millisecond)
	q.Push(42)
	select {
	case v := <-resultC:
		assert.Equal(t, 42, v)
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was not woken up")
	}
}

func TestConcurrentProducers(t *testing.T) {
	defer leaktest.Check(t)()

	q := New[int](1000)
	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.PopAll(), 1000)
	assert.Equal(t, int64(0), q.Dropped())
}

func TestNotify(t *testing.T) {
	q := New[int](5)
	var calls int
	q.SetNotify(func() { calls++ })
	q.Push(1)
	q.Push(2)
	assert.Equal(t, 1, calls)
	q.PopAll()
	q.Push(3)
	assert.Equal(t, 2, calls)
}
