// Package supervisor keeps long-running tasks (bot pollers, the HTTP server)
// alive. A task that returns or panics before shutdown is restarted after an
// exponential backoff; each task's state is observable for health checks.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-linkbox/internal/observability"
)

// State is the lifecycle state of a supervised task.
type State string

const (
	StateStarting   State = "starting"
	StateRunning    State = "running"
	StateRestarting State = "restarting"
	StateStopped    State = "stopped"
)

// Defaults for restart backoff bounds.
const (
	DefaultMinBackoff = time.Second
	DefaultMaxBackoff = time.Minute
)

// ErrExited is recorded when a task returns nil before shutdown.
var ErrExited = errors.New("task exited")

// TaskFunc runs until ctx is done. Returning earlier counts as a failure.
type TaskFunc func(ctx context.Context) error

// Status is a point-in-time view of one task.
type Status struct {
	Name      string    `json:"name"`
	State     State     `json:"state"`
	Restarts  int       `json:"restarts"`
	LastError string    `json:"last_error,omitempty"`
	Since     time.Time `json:"since"`
}

type task struct {
	name string
	run  TaskFunc
}

// Supervisor runs a fixed set of tasks. Add every task before Run.
type Supervisor struct {
	MinBackoff time.Duration
	MaxBackoff time.Duration

	mu     sync.RWMutex
	tasks  []task
	status map[string]*Status

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New returns a Supervisor restarting tasks after min..max backoff.
func New(minBackoff, maxBackoff time.Duration) *Supervisor {
	if minBackoff <= 0 {
		minBackoff = DefaultMinBackoff
	}
	if maxBackoff < minBackoff {
		maxBackoff = minBackoff
	}
	return &Supervisor{
		MinBackoff: minBackoff,
		MaxBackoff: maxBackoff,
		status:     map[string]*Status{},
		sleep:      sleepCtx,
		now:        time.Now,
	}
}

// Add registers a task. Names must be unique.
func (s *Supervisor) Add(name string, run TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.status[name]; dup {
		panic(fmt.Sprintf("supervisor: duplicate task %q", name))
	}
	s.tasks = append(s.tasks, task{name: name, run: run})
	s.status[name] = &Status{Name: name, State: StateStarting, Since: s.now()}
}

// Run starts all tasks and blocks until ctx is done and every task has
// returned. It always returns ctx.Err().
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.RLock()
	tasks := append([]task(nil), s.tasks...)
	s.mu.RUnlock()

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			s.supervise(ctx, t)
		}(t)
	}
	wg.Wait()
	return ctx.Err()
}

func (s *Supervisor) supervise(ctx context.Context, t task) {
	lg := log.With().Str("task", t.name).Logger()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.MinBackoff
	b.MaxInterval = s.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		s.set(t.name, StateRunning, nil)
		started := s.now()
		err := runGuarded(ctx, t.run)

		if ctx.Err() != nil {
			s.set(t.name, StateStopped, nil)
			lg.Info().Msg("task stopped")
			return
		}
		if err == nil {
			err = ErrExited
		}

		// A task that stayed up longer than the max backoff starts over
		// from the min delay.
		if s.now().Sub(started) > s.MaxBackoff {
			b.Reset()
		}
		wait := clamp(b.NextBackOff(), s.MinBackoff, s.MaxBackoff)

		s.set(t.name, StateRestarting, err)
		observability.TaskRestarts.WithLabelValues(t.name).Inc()
		lg.Error().Err(err).Dur("backoff", wait).Msg("task failed; restarting")

		if err := s.sleep(ctx, wait); err != nil {
			s.set(t.name, StateStopped, nil)
			lg.Info().Msg("task stopped")
			return
		}
	}
}

// runGuarded converts a panic in run into an error.
func runGuarded(ctx context.Context, run TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Bytes("stack", debug.Stack()).Msg("task panic")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return run(ctx)
}

func (s *Supervisor) set(name string, st State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.status[name]
	if st == StateRestarting {
		cur.Restarts++
	}
	if err != nil {
		cur.LastError = err.Error()
	}
	if cur.State != st {
		cur.State = st
		cur.Since = s.now()
	}
	up := 0.0
	if st == StateRunning {
		up = 1
	}
	observability.TaskUp.WithLabelValues(name).Set(up)
}

// Snapshot returns the status of every task, sorted by name.
func (s *Supervisor) Snapshot() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Status, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Healthy reports whether every task is running. A supervisor without tasks
// is healthy.
func (s *Supervisor) Healthy() bool {
	for _, st := range s.Snapshot() {
		if st.State != StateRunning {
			return false
		}
	}
	return true
}

// clamp keeps the jittered delay inside [lo, hi].
func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
