package notify

import (
	"reflect"
	"sync"
	"testing"
)

func TestQueue_OrderAndReentrancy(t *testing.T) {
	var q Queue
	var got []string

	q.Enqueue(func() {
		got = append(got, "a")
		// Re-entrant enqueue must not deadlock and runs after the current item.
		q.Enqueue(func() { got = append(got, "c") })
		q.Drain()
		got = append(got, "a-done")
	})
	q.Enqueue(func() { got = append(got, "b") })
	q.Drain()

	want := []string{"a", "a-done", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("delivery order = %v, want %v", got, want)
	}
}

func TestQueue_PanicDoesNotStall(t *testing.T) {
	var q Queue
	delivered := false

	q.Enqueue(func() { panic("boom") })
	q.Enqueue(func() { delivered = true })
	q.Drain()

	if !delivered {
		t.Error("delivery after a panicking listener was skipped")
	}

	// The queue must be usable again.
	again := false
	q.Enqueue(func() { again = true })
	q.Drain()
	if !again {
		t.Error("queue stuck after panic")
	}
}

func TestQueue_ConcurrentDrain(t *testing.T) {
	var q Queue
	var mu sync.Mutex
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(func() {
				mu.Lock()
				count++
				mu.Unlock()
			})
			q.Drain()
		}()
	}
	wg.Wait()
	q.Drain()

	if count != 50 {
		t.Errorf("delivered %d callbacks, want 50", count)
	}
}

func TestRegistry(t *testing.T) {
	var r Registry[int]
	var got []string

	unsubA := r.Add(func(v int) { got = append(got, "a") })
	r.Add(func(v int) { got = append(got, "b") })

	r.Broadcast(1)()
	if want := []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("first broadcast = %v, want %v", got, want)
	}

	unsubA()
	unsubA() // idempotent
	got = nil
	r.Broadcast(2)()
	if want := []string{"b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after unsubscribe = %v, want %v", got, want)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", r.Len())
	}
}
