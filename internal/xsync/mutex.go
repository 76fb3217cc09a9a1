package xsync

import (
	"context"
	"sync"
)

// Mutex is a mutual exclusion lock whose Lock can be abandoned
// through a context. The zero value is an unlocked Mutex.
type Mutex struct {
	once sync.Once
	ch   chan struct{}
}

func (m *Mutex) init() {
	m.once.Do(func() {
		m.ch = make(chan struct{}, 1)
	})
}

// Lock acquires m or returns ctx.Err() if ctx is done first.
func (m *Mutex) Lock(ctx context.Context) error {
	m.init()

	// An expired context never acquires the lock.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.ch <- struct{}{}:
		return nil
	}
}

// Unlock releases m. It must be held.
func (m *Mutex) Unlock() {
	<-m.ch
}
