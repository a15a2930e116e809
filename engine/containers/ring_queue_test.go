package containers

import (
	"errors"
	"testing"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](4)
	for i := 1; i <= 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("Enqueue(%d) failed: %v", i, err)
		}
	}
	if rq.Len() != 3 {
		t.Errorf("Len = %d, want 3", rq.Len())
	}
	for i := 1; i <= 3; i++ {
		v, err := rq.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if v != i {
			t.Errorf("Dequeue = %d, want %d", v, i)
		}
	}
	if !rq.IsEmpty() {
		t.Error("queue should be empty after draining")
	}
}

func TestRingQueueFull(t *testing.T) {
	rq := NewRingQueue[string](2)
	if err := rq.Enqueue("a"); err != nil {
		t.Fatal(err)
	}
	if err := rq.Enqueue("b"); err != nil {
		t.Fatal(err)
	}
	if !rq.IsFull() {
		t.Error("queue should be full")
	}
	if err := rq.Enqueue("c"); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue on full queue = %v, want ErrQueueFull", err)
	}
}

func TestRingQueueEmpty(t *testing.T) {
	rq := NewRingQueue[int](2)
	if _, err := rq.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Dequeue on empty queue = %v, want ErrQueueEmpty", err)
	}
	if _, err := rq.Peek(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Peek on empty queue = %v, want ErrQueueEmpty", err)
	}
}

func TestRingQueuePeek(t *testing.T) {
	rq := NewRingQueue[int](2)
	if err := rq.Enqueue(7); err != nil {
		t.Fatal(err)
	}
	v, err := rq.Peek()
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if v != 7 {
		t.Errorf("Peek = %d, want 7", v)
	}
	if rq.Len() != 1 {
		t.Errorf("Peek must not consume, Len = %d", rq.Len())
	}
}

func TestRingQueueWrapAround(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 0; i < 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatal(err)
		}
	}
	// Free two slots, then refill past the end of the backing array.
	for i := 0; i < 2; i++ {
		if _, err := rq.Dequeue(); err != nil {
			t.Fatal(err)
		}
	}
	for i := 3; i <= 4; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatal(err)
		}
	}
	want := []int{2, 3, 4}
	for _, w := range want {
		v, err := rq.Dequeue()
		if err != nil {
			t.Fatal(err)
		}
		if v != w {
			t.Errorf("Dequeue = %d, want %d", v, w)
		}
	}
}
