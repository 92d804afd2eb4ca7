package model

import (
	"github.com/juju/errors"
)

// ErrHalted is returned by an Executor when the hart has stopped
// cleanly; the step loop reports the units completed so far without
// surfacing an error.
const ErrHalted = errors.ConstError("hart halted")

// Executor supplies the per-unit instruction semantics a machine
// steps with. Each unit the machine fetches the 32-bit word at the
// hart's PC and hands it to Execute.
type Executor interface {
	Execute(core *Core, raw uint32) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(core *Core, raw uint32) error

// Execute calls f.
func (f ExecutorFunc) Execute(core *Core, raw uint32) error { return f(core, raw) }

// AdvanceExecutor is the default executor: each unit advances the PC
// by one standard instruction width and touches nothing else.
type AdvanceExecutor struct{}

// Execute advances the hart's PC by 4.
func (AdvanceExecutor) Execute(core *Core, raw uint32) error {
	core.SetPC(core.PC() + 4)
	return nil
}
