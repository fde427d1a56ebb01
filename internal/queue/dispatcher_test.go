package queue

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTasksForOneChatApplyInArrivalOrder(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	var (
		mu  sync.Mutex
		got []int
	)

	const tasks = 100
	for i := 0; i < tasks; i++ {
		i := i
		d.Dispatch(1, func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop dispatcher: %v", err)
	}

	if len(got) != tasks {
		t.Fatalf("expected %d tasks, got %d", tasks, len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order violated at %d: %v", i, got[:i+1])
		}
	}
}

func TestChatsDoNotBlockEachOther(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()

	slowStarted := make(chan struct{})
	release := make(chan struct{})
	fastDone := make(chan struct{})

	d.Dispatch(1, func() {
		close(slowStarted)
		<-release
	})
	<-slowStarted

	d.Dispatch(2, func() { close(fastDone) })

	select {
	case <-fastDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("chat 2 task was blocked behind chat 1")
	}
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop dispatcher: %v", err)
	}
}

func TestStoppedDispatcherDropsNewTasks(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop dispatcher: %v", err)
	}

	ran := false
	d.Dispatch(1, func() { ran = true })
	time.Sleep(50 * time.Millisecond)
	if ran {
		t.Fatalf("task ran after stop")
	}
}

func TestDrainedLanesLeaveNoState(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	for chatID := int64(1); chatID <= 50; chatID++ {
		d.Dispatch(chatID, func() {})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop dispatcher: %v", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) != 0 || len(d.running) != 0 {
		t.Fatalf("lane state retained: pending=%d running=%d", len(d.pending), len(d.running))
	}
}
