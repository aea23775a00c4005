// Package serverdriver implements the reference server pattern of
// spec.md §5: a dedicated acceptor goroutine feeds newly accepted Sessions
// into a mutex-guarded handoff queue, and a single driver goroutine drains
// the queue and polls every live Session's Update method in a round-robin
// loop, bounding how many Sessions are serviced concurrently with a
// counting semaphore.
package serverdriver

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/snajudev/uft/internal/listener"
	"github.com/snajudev/uft/internal/session"
)

// Driver accepts connections on a Listener and services every resulting
// Session's cooperative Update loop until Stop is called.
type Driver struct {
	ln  *listener.Listener
	log *slog.Logger

	maxConcurrent int64
	pollInterval  time.Duration

	mu      sync.Mutex
	pending []*session.Session

	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a Driver over ln. maxConcurrent bounds how many Sessions are
// actively polled at once; pollInterval is the sleep between Update sweeps
// of one Session's slot.
func New(ln *listener.Listener, maxConcurrent int64, pollInterval time.Duration, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Millisecond
	}
	return &Driver{
		ln:            ln,
		log:           log,
		maxConcurrent: maxConcurrent,
		pollInterval:  pollInterval,
		stop:          make(chan struct{}),
	}
}

// Run starts the acceptor goroutine and the driver loop, blocking until
// Stop is called.
func (d *Driver) Run() {
	d.wg.Add(1)
	go d.acceptLoop()

	d.wg.Add(1)
	go d.driveLoop()

	d.wg.Wait()
}

// Stop halts the acceptor and driver loops and closes the listener.
func (d *Driver) Stop() {
	close(d.stop)
	d.ln.Close()
}

func (d *Driver) acceptLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			return
		default:
		}
		s, err := d.ln.Accept()
		if err != nil {
			select {
			case <-d.stop:
				return
			default:
				d.log.Warn("accept failed", "err", err)
				continue
			}
		}
		d.mu.Lock()
		d.pending = append(d.pending, s)
		d.mu.Unlock()
	}
}

func (d *Driver) driveLoop() {
	defer d.wg.Done()
	sem := semaphore.NewWeighted(d.maxConcurrent)
	var live []*session.Session

	for {
		select {
		case <-d.stop:
			return
		default:
		}

		d.mu.Lock()
		if len(d.pending) > 0 {
			live = append(live, d.pending...)
			d.pending = nil
		}
		d.mu.Unlock()

		kept := live[:0]
		for _, s := range live {
			if !s.Connected() {
				continue
			}
			kept = append(kept, s)

			if !sem.TryAcquire(1) {
				continue
			}
			go func(s *session.Session) {
				defer sem.Release(1)
				if err := s.Update(); err != nil {
					d.log.Warn("session update failed", "remote", s.RemoteAddr(), "err", err)
				}
			}(s)
		}
		live = kept

		select {
		case <-d.stop:
			return
		case <-time.After(d.pollInterval):
		}
	}
}

