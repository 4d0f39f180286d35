package engine

import (
	"sync"

	"github.com/salvego/salve/salveerr"
)

// Deferrer runs fn at some later point, off the caller's stack, so the
// scheduler's cycle loop can yield between cycles instead of recursing
// (spec.md §4.4). A trivial implementation is `func(fn func()) { go fn() }`;
// time.AfterFunc-based and channel-based deferrers are equally valid.
type Deferrer func(fn func())

// GoDeferrer runs fn in a new goroutine. It is the default Deferrer.
func GoDeferrer(fn func()) { go fn() }

// scheduler drives traversal forward in bounded cycles, yielding control
// between cycles via a Deferrer, and guards against reentrant cycle
// invocation (spec.md §4.4, §5, §7).
type scheduler struct {
	mu          sync.Mutex
	running     bool
	entered     bool
	maxTimespan int
	deferrer    Deferrer
	fatal       error

	step func() (finished bool, err error)
	onDone func()
}

func newScheduler(maxTimespan int, deferrer Deferrer, step func() (bool, error), onDone func()) *scheduler {
	if deferrer == nil {
		deferrer = GoDeferrer
	}
	return &scheduler{maxTimespan: maxTimespan, deferrer: deferrer, step: step, onDone: onDone}
}

// start begins (or resumes) cycling. It is idempotent while already running.
func (s *scheduler) start() {
	s.mu.Lock()
	if s.running || s.fatal != nil {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()
	s.scheduleCycle()
}

// stop halts cycling after the current cycle returns; it does not
// interrupt a cycle already in progress (there is only one logical thread
// of control, per spec.md §5).
func (s *scheduler) stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *scheduler) scheduleCycle() {
	s.deferrer(s.runCycle)
}

// runCycle performs up to maxTimespan steps, calls onDone, then either
// yields (more work remains and the scheduler is still running) or stops
// (finished, a step failed, or the caller called stop() meanwhile).
func (s *scheduler) runCycle() {
	s.mu.Lock()
	if s.entered {
		s.fatal = &salveerr.ReentrancyError{Operation: "cycle"}
		s.running = false
		s.mu.Unlock()
		return
	}
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.entered = true
	s.mu.Unlock()

	finished := false
	var err error
	for i := 0; i < s.maxTimespan; i++ {
		finished, err = s.step()
		if err != nil || finished {
			break
		}
	}

	s.mu.Lock()
	s.entered = false
	if err != nil {
		s.fatal = err
		s.running = false
	}
	stillRunning := s.running && !finished
	if finished || err != nil {
		s.running = false
	}
	s.mu.Unlock()

	if s.onDone != nil {
		s.onDone()
	}
	if stillRunning {
		s.scheduleCycle()
	}
}

// Err returns the fatal engine error that halted the scheduler, if any.
// Once set, it stays set until the Validator is reconstructed (spec.md §7):
// start refuses to run, Validator.SchedulerErr returns it, and
// Validator.WorkingState reports Invalid. Other Validator methods do not
// return it.
func (s *scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatal
}

// IsRunning reports whether a cycle is scheduled or in flight.
func (s *scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
