// Package bridge exposes one reference machine through a flat,
// C-shaped boundary for lockstep co-simulation. The whole package is
// a single machine slot behind a mutex: lifecycle calls build and
// tear it down, snapshot calls read architectural state out of it,
// and every call maps failure to a sentinel value instead of an
// error. Panics inside the engine never cross the boundary.
package bridge

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/lockstep/model"
)

// StepFailure is returned by Step when no machine is live or the
// engine faults mid-unit.
const StepFailure = -1

// RunLogPath is where the live machine writes its run log.
const RunLogPath = "lockstep_model.log"

var (
	mu  sync.Mutex
	sim *model.Simulator
	ovr overrides
)

// recoverTo converts a panic inside a boundary call into the call's
// sentinel value. The slot lock is still held when it runs.
func recoverTo[T any](op string, out *T, sentinel T) {
	if r := recover(); r != nil {
		logrus.Errorf("%s: engine fault: %v", op, r)
		*out = sentinel
	}
}

// recoverOnly absorbs a panic inside a boundary call that returns
// nothing.
func recoverOnly(op string) {
	if r := recover(); r != nil {
		logrus.Errorf("%s: engine fault: %v", op, r)
	}
}

// Create builds and starts the machine, loading the program image at
// filename. The staged overrides resolve against the defaults here.
// When a machine is already live the call is ignored; on any failure
// every partially built resource is torn down and the slot stays
// empty.
func Create(filename string) {
	mu.Lock()
	defer mu.Unlock()

	var s *model.Simulator
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("create: engine fault: %v", r)
			if s != nil && sim == nil {
				_ = s.Close()
			}
		}
	}()

	if sim != nil {
		logrus.Warnf("create: machine already live, ignoring %q", filename)
		return
	}
	if filename == "" {
		logrus.Errorf("create: empty image path")
		return
	}

	cfg, base, size, pc := ovr.resolve()

	mem, err := model.NewMemory(base, size)
	if err != nil {
		logrus.Errorf("create: memory [%#x, %#x): %v", base, base+size, err)
		return
	}

	s, err = model.NewSimulator(cfg,
		model.WithMemory(mem),
		model.WithImagePath(filename),
		model.WithLogPath(RunLogPath))
	if err != nil {
		logrus.Errorf("create: %v", err)
		return
	}
	s.SetDebug(false)

	if err := s.Start(); err != nil {
		logrus.Errorf("create: %v", err)
		_ = s.Close()
		return
	}
	s.Reset()
	s.SetPC(pc)

	logrus.Infof("create: machine %s live: image %q, pc %#x", s.ID(), filename, pc)
	sim = s
}

// Delete tears down the live machine. Deleting an empty slot is a
// no-op.
func Delete() {
	mu.Lock()
	defer mu.Unlock()
	defer recoverOnly("delete")

	if sim == nil {
		return
	}

	// Empty the slot first so a faulting teardown cannot wedge it.
	s := sim
	sim = nil
	if err := s.Close(); err != nil {
		logrus.Errorf("delete: %v", err)
	}
}

// Step runs one unit on every hart of the live machine and returns
// the units completed: 1, or 0 when a hart halted, or StepFailure
// when no machine is live or the engine faulted.
func Step() (ret int) {
	mu.Lock()
	defer mu.Unlock()
	defer recoverTo("step", &ret, StepFailure)

	if sim == nil {
		return StepFailure
	}

	done, err := sim.Step(1)
	if err != nil {
		logrus.Errorf("step: %v", err)
		return StepFailure
	}
	return done
}

// Reset returns every hart of the live machine to its power-on state.
// Memory contents and the staged overrides are untouched.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	defer recoverOnly("reset")

	if sim == nil {
		return
	}
	sim.Reset()
}

// SetPC points every hart of the live machine at pc. Before Create it
// stages pc as the initial-PC override instead.
func SetPC(pc uint64) {
	mu.Lock()
	defer mu.Unlock()
	defer recoverOnly("set pc")

	if sim == nil {
		ovr.initialPC = &pc
		logrus.Debugf("set pc: staged initial pc %#x", pc)
		return
	}
	sim.SetPC(pc)
}
