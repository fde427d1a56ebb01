// Package queue serializes update processing per chat: events for one chat
// apply in arrival order while unrelated chats proceed in parallel.
package queue

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

type Task func()

type Dispatcher struct {
	mu      sync.Mutex
	pending map[int64][]Task
	running map[int64]bool
	closed  bool
	wg      sync.WaitGroup
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		pending: map[int64][]Task{},
		running: map[int64]bool{},
	}
}

// Dispatch enqueues the task on the chat's lane. A lane worker exists only
// while its lane has work; the last task drained tears the worker down.
func (d *Dispatcher) Dispatch(chatID int64, task Task) {
	if task == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		log.WithField("chat_id", chatID).Warn("dispatcher closed, dropping task")
		return
	}
	d.pending[chatID] = append(d.pending[chatID], task)
	if d.running[chatID] {
		d.mu.Unlock()
		return
	}
	d.running[chatID] = true
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(chatID)
}

func (d *Dispatcher) drain(chatID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		lane := d.pending[chatID]
		if len(lane) == 0 {
			delete(d.pending, chatID)
			delete(d.running, chatID)
			d.mu.Unlock()
			return
		}
		task := lane[0]
		d.pending[chatID] = lane[1:]
		d.mu.Unlock()

		task()
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = false
	return nil
}

// Stop refuses new tasks and waits for in-flight lanes to drain.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
