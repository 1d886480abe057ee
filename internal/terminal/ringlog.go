// Package terminal supports the PTY capture mode: a bounded retention log
// for raw terminal bytes and a termemu frontend that reports activity.
package terminal

import (
	"sync"
)

// RawLog retains the most recent raw output bytes in a ring buffer, so a
// long invocation cannot grow memory without bound.
type RawLog struct {
	mu        sync.RWMutex
	buffer    []byte
	size      int
	writePos  int
	wrapped   bool
	truncated bool
}

func NewRawLog(size int) *RawLog {
	return &RawLog{
		buffer: make([]byte, size),
		size:   size,
	}
}

func (l *RawLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range p {
		l.buffer[l.writePos] = b
		l.writePos++
		if l.writePos >= l.size {
			l.writePos = 0
			l.wrapped = true
			l.truncated = true
		}
	}
	return len(p), nil
}

// Contents returns the retained bytes in write order and whether older bytes
// were dropped.
func (l *RawLog) Contents() (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.wrapped {
		return string(l.buffer[:l.writePos]), l.truncated
	}
	return string(l.buffer[l.writePos:]) + string(l.buffer[:l.writePos]), l.truncated
}

func (l *RawLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writePos = 0
	l.wrapped = false
	l.truncated = false
}
