package exam

import (
	"context"
	"sync"
	"time"
)

// Hooks receive countdown notifications for one session. The timer never
// touches session data itself; these callbacks are its only channel back
// into the control flow.
type Hooks struct {
	OnWarning func(sessionID string, remainingSeconds int)
	OnExpired func(sessionID string)
}

type runtime struct {
	countdown *Countdown
	cancel    context.CancelFunc
}

// Registry owns the per-session runtime state that cannot live in the
// store: an operation lock serializing question/answer traffic for each
// session, and the countdown goroutine of timed sessions.
type Registry struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	runtimes map[string]*runtime
}

func NewRegistry() *Registry {
	return &Registry{
		locks:    make(map[string]*sync.Mutex),
		runtimes: make(map[string]*runtime),
	}
}

// Lock serializes operations on one session and returns the unlock func.
func (r *Registry) Lock(sessionID string) func() {
	r.mu.Lock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// StartCountdown launches the countdown goroutine for a timed session. It
// ticks once per wall-clock second, independent of any in-flight network
// calls, and stops irrevocably after expiry.
func (r *Registry) StartCountdown(sessionID string, limit time.Duration, warningMarks []int, hooks Hooks) {
	ctx, cancel := context.WithCancel(context.Background())
	cd := NewCountdown(limit, warningMarks...)

	r.mu.Lock()
	if old, ok := r.runtimes[sessionID]; ok {
		old.cancel()
	}
	r.runtimes[sessionID] = &runtime{countdown: cd, cancel: cancel}
	r.mu.Unlock()

	go r.run(ctx, sessionID, cd, hooks)
}

func (r *Registry) run(ctx context.Context, sessionID string, cd *Countdown, hooks Hooks) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t := cd.Tick()
			for _, mark := range t.Warnings {
				if hooks.OnWarning != nil {
					hooks.OnWarning(sessionID, mark)
				}
			}
			if t.Expired {
				if hooks.OnExpired != nil {
					hooks.OnExpired(sessionID)
				}
				r.Stop(sessionID)
				return
			}
		}
	}
}

// Stop cancels a session's countdown if one is running.
func (r *Registry) Stop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rt, ok := r.runtimes[sessionID]; ok {
		rt.cancel()
		delete(r.runtimes, sessionID)
	}
}

// Remaining reports the seconds left on a session's countdown, false when
// the session has no running timer.
func (r *Registry) Remaining(sessionID string) (int, bool) {
	r.mu.Lock()
	rt, ok := r.runtimes[sessionID]
	r.mu.Unlock()
	if !ok {
		return 0, false
	}
	return rt.countdown.Remaining(), true
}
