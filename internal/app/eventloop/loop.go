// Package eventloop provides the single goroutine that serializes all
// mutations of playback state.
package eventloop

import (
	"context"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ErrStopped is returned when a task is posted after the loop has exited.
var ErrStopped = errors.New("event loop stopped")

// Loop runs posted tasks one at a time, in order.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// New creates a loop with the given task buffer.
func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	zlog.Debug().Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			zlog.Debug().Msg("event loop stopped")
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("event loop: task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}

// Post schedules fn on the loop. It is safe to call from any goroutine
// other than the loop itself. Returns false if the loop has exited.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for its result.
// It must not be called from the loop.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	ok := l.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				zlog.Error().Msgf("event loop: call panicked: %v\n%s", r, debug.Stack())
				result <- errors.Newf("internal error: %v", r)
			}
		}()
		result <- fn()
	})
	if !ok {
		return ErrStopped
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
