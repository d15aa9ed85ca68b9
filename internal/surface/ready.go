package surface

import (
	"context"
	"errors"
	"sync"
)

// ErrMapNotReady is returned when a command needs a map surface that has not loaded yet
var ErrMapNotReady = errors.New("map surface not ready")

// Ready is a one-shot future signalled when the map surface has loaded.
// It is owned by the composition root and injected where needed.
type Ready struct {
	once sync.Once
	ch   chan struct{}
}

// NewReady creates an unsignalled future
func NewReady() *Ready {
	return &Ready{ch: make(chan struct{})}
}

// Signal marks the surface ready. Extra calls are ignored.
func (r *Ready) Signal() {
	r.once.Do(func() { close(r.ch) })
}

// IsReady reports whether Signal has been called
func (r *Ready) IsReady() bool {
	select {
	case <-r.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the surface is ready or ctx is done
func (r *Ready) Wait(ctx context.Context) error {
	select {
	case <-r.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
