package services

import (
	"context"
	"fmt"
	"sync"
)

// KeyedSerializer runs submitted functions one at a time per key. Each active key owns a
// lane goroutine fed through a channel; the lane exits once its queue drains.
type KeyedSerializer struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

type lane struct {
	jobs    chan job
	pending int
}

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

func NewKeyedSerializer() *KeyedSerializer {
	return &KeyedSerializer{lanes: make(map[string]*lane)}
}

func (s *KeyedSerializer) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	s.mu.Lock()
	l, ok := s.lanes[key]
	if !ok {
		l = &lane{jobs: make(chan job, 8)}
		s.lanes[key] = l
		go s.run(key, l)
	}
	l.pending++
	s.mu.Unlock()

	select {
	case l.jobs <- j:
	case <-ctx.Done():
		s.release(key, l)
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *KeyedSerializer) run(key string, l *lane) {
	for j := range l.jobs {
		j.done <- execute(j)
		if s.release(key, l) {
			return
		}
	}
}

// release drops one pending job and retires the lane when it was the last; it reports retirement.
func (s *KeyedSerializer) release(key string, l *lane) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.pending--
	if l.pending > 0 {
		return false
	}
	delete(s.lanes, key)
	close(l.jobs)
	return true
}

func execute(j job) (err error) {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in serialized transition: %v", rec)
		}
	}()
	return j.fn(j.ctx)
}

// ActiveKeys reports how many keys currently own a lane.
func (s *KeyedSerializer) ActiveKeys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lanes)
}
