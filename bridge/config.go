package bridge

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/lockstep/model"
)

// Boundary defaults applied at Create for every field the driver
// never staged.
const (
	DefaultMemoryBase uint64 = 0x80000000
	DefaultMemorySize uint64 = 512 * 1024 * 1024
	DefaultInitialPC  uint64 = 0x80000000
)

// overrides holds the configuration staged by the setter calls before
// Create. Nil fields fall back to the defaults.
type overrides struct {
	isa        *string
	memoryBase *uint64
	memorySize *uint64
	initialPC  *uint64
}

// resolve folds the staged overrides over the defaults into the
// machine configuration Create builds from.
func (o *overrides) resolve() (cfg model.Config, base, size, pc uint64) {
	cfg = model.DefaultConfig()
	if o.isa != nil {
		cfg.ISA = *o.isa
	}

	base, size, pc = DefaultMemoryBase, DefaultMemorySize, DefaultInitialPC
	if o.memoryBase != nil {
		base = *o.memoryBase
	}
	if o.memorySize != nil {
		size = *o.memorySize
	}
	if o.initialPC != nil {
		pc = *o.initialPC
	}
	return cfg, base, size, pc
}

// SetISA stages the ISA string for the next Create. The empty string
// clears the override.
func SetISA(isa string) {
	mu.Lock()
	defer mu.Unlock()

	if isa == "" {
		ovr.isa = nil
		logrus.Debugf("set isa: override cleared")
		return
	}
	ovr.isa = &isa
	logrus.Debugf("set isa: staged %q", isa)
}

// SetMemoryBase stages the physical memory base for the next Create.
func SetMemoryBase(base uint64) {
	mu.Lock()
	defer mu.Unlock()

	ovr.memoryBase = &base
	logrus.Debugf("set memory base: staged %#x", base)
}

// SetMemorySize stages the physical memory size for the next Create.
func SetMemorySize(size uint64) {
	mu.Lock()
	defer mu.Unlock()

	ovr.memorySize = &size
	logrus.Debugf("set memory size: staged %#x", size)
}

// ResetOverrides clears every staged override back to the defaults.
// The live machine, if any, is untouched.
func ResetOverrides() {
	mu.Lock()
	defer mu.Unlock()

	ovr = overrides{}
	logrus.Debugf("overrides cleared")
}
