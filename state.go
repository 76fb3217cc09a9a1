package nashws

import (
	"sync/atomic"
)

type connState int32

const (
	stateConnecting connState = iota
	stateOpen
	stateClosing
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateOpen:
		return "open"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// stateFlag holds the connection state shared by a Sender and its
// Receiver. Transitions only move forward.
type stateFlag struct {
	v atomic.Int32
}

func (f *stateFlag) load() connState {
	return connState(f.v.Load())
}

// transition moves the state from from to to and reports whether it did.
func (f *stateFlag) transition(from, to connState) bool {
	return f.v.CompareAndSwap(int32(from), int32(to))
}

// advance moves the state to to unless it is already at or past it.
// It returns the state it replaced.
func (f *stateFlag) advance(to connState) connState {
	for {
		cur := f.load()
		if cur >= to {
			return cur
		}
		if f.v.CompareAndSwap(int32(cur), int32(to)) {
			return cur
		}
	}
}
