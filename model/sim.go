// Package model implements a small RISC-V reference machine: harts
// with integer, floating-point, vector and CSR state, a flat physical
// memory, and a step loop with pluggable instruction semantics.
package model

import (
	stderrors "errors"
	"io"
	"math/bits"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/lockstep/loader"
)

// Simulator is one reference machine: a set of lockstepped harts over
// a shared flat memory, with a per-machine run log.
type Simulator struct {
	id  string
	cfg Config
	isa *ISA
	dm  DebugModuleConfig

	mem   *Memory
	cores []*Core

	executor  Executor
	imagePath string
	entry     uint64

	logPath string
	logFile *os.File
	log     *logrus.Logger

	started bool
	closed  bool
}

// SimulatorOption is a functional option for configuring the Simulator.
type SimulatorOption func(*Simulator)

// WithMemory supplies the machine's physical memory. Every machine
// needs one; NewSimulator rejects a configuration without it.
func WithMemory(mem *Memory) SimulatorOption {
	return func(s *Simulator) {
		s.mem = mem
	}
}

// WithImagePath sets the program image Start loads.
func WithImagePath(path string) SimulatorOption {
	return func(s *Simulator) {
		s.imagePath = path
	}
}

// WithLogPath sets where the machine writes its run log.
func WithLogPath(path string) SimulatorOption {
	return func(s *Simulator) {
		s.logPath = path
	}
}

// WithExecutor sets the per-unit instruction semantics.
func WithExecutor(executor Executor) SimulatorOption {
	return func(s *Simulator) {
		s.executor = executor
	}
}

// WithDebugModule overrides the debug-module feature set.
func WithDebugModule(dm DebugModuleConfig) SimulatorOption {
	return func(s *Simulator) {
		s.dm = dm
	}
}

// NewSimulator builds a machine from cfg. Zero-valued fields fall back
// to the defaults; an unusable ISA string, privilege set, hart list
// or vector geometry is rejected up front. Construction touches no
// files: the run log opens when Start is called.
func NewSimulator(cfg Config, opts ...SimulatorOption) (*Simulator, error) {
	isa, err := ParseISA(cfg.ISA)
	if err != nil {
		return nil, errors.Trace(err)
	}

	cfg.Priv = strings.ToUpper(cfg.Priv)
	if cfg.Priv == "" {
		cfg.Priv = DefaultPriv
	}
	switch cfg.Priv {
	case "M", "MU", "MSU":
	default:
		return nil, errors.NotValidf("privilege modes %q", cfg.Priv)
	}

	if len(cfg.HartIDs) == 0 {
		cfg.HartIDs = []int{0}
	}
	seen := make(map[int]bool, len(cfg.HartIDs))
	for _, id := range cfg.HartIDs {
		if id < 0 {
			return nil, errors.NotValidf("hart id %d", id)
		}
		if seen[id] {
			return nil, errors.NotValidf("duplicate hart id %d", id)
		}
		seen[id] = true
	}

	if cfg.VLen == 0 {
		cfg.VLen = DefaultVLen
	}
	if cfg.ELen == 0 {
		cfg.ELen = DefaultELen
	}
	if isa.Has('v') {
		if err := validateVectorGeometry(cfg.VLen, cfg.ELen); err != nil {
			return nil, errors.Trace(err)
		}
	}

	s := &Simulator{
		id:       xid.New().String(),
		cfg:      cfg,
		isa:      isa,
		dm:       DefaultDebugModuleConfig(),
		executor: AdvanceExecutor{},
		logPath:  DefaultLogPath,
		log:      logrus.New(),
	}
	s.log.SetOutput(io.Discard)
	s.log.SetLevel(logrus.InfoLevel)

	for _, opt := range opts {
		opt(s)
	}

	if s.mem == nil {
		return nil, errors.NotValidf("machine without memory")
	}

	for _, id := range cfg.HartIDs {
		s.cores = append(s.cores, newCore(id, isa, cfg.VLen, cfg.ELen, s.mem))
	}

	return s, nil
}

func validateVectorGeometry(vlen, elen int) error {
	if vlen < 8 || vlen > 4096 || bits.OnesCount(uint(vlen)) != 1 {
		return errors.NotValidf("vlen %d", vlen)
	}
	if elen < 8 || elen > vlen || bits.OnesCount(uint(elen)) != 1 {
		return errors.NotValidf("elen %d with vlen %d", elen, vlen)
	}
	return nil
}

// Start opens the run log, loads the program image if one was
// configured, and marks the machine runnable. Without an image,
// execution starts at the base of memory.
func (s *Simulator) Start() error {
	if s.closed {
		return errors.NotProvisionedf("machine %s", s.id)
	}

	logFile, err := os.Create(s.logPath)
	if err != nil {
		return errors.Annotatef(err, "run log %q", s.logPath)
	}
	s.logFile = logFile
	s.log.SetOutput(logFile)

	s.log.Infof(
		"machine %s: isa %s, priv %s, harts %v, memory [%#x, %#x), vlen %d, elen %d",
		s.id, s.isa.Name(), s.cfg.Priv, s.cfg.HartIDs,
		s.mem.Base(), s.mem.Base()+s.mem.Size(),
		s.cfg.VLen, s.cfg.ELen)
	s.log.Infof(
		"machine %s debug module: progbuf %d, sba %d, rti %d, auth %t, haltgroups %t, hasel %t, abstract csr %t, abstract fpr %t, impebreak %t",
		s.id, s.dm.ProgBufSize, s.dm.MaxSBADataWidth, s.dm.AbstractRTI,
		s.dm.RequireAuthentication, s.dm.SupportHaltGroups, s.dm.SupportHaSelect,
		s.dm.SupportAbstractCSRAccess, s.dm.SupportAbstractFPRAccess,
		s.dm.SupportImplicitEBreak)

	if s.imagePath != "" {
		img, err := loader.Load(s.imagePath)
		if err != nil {
			return errors.Trace(err)
		}
		if err := s.loadImage(img); err != nil {
			return errors.Trace(err)
		}
	} else {
		s.entry = s.mem.Base()
	}

	s.started = true
	s.log.Infof("machine %s started: image %q, entry %#x", s.id, s.imagePath, s.entry)
	return nil
}

func (s *Simulator) loadImage(img *loader.Image) error {
	if img.Raw {
		seg := img.Segments[0]
		if err := s.mem.Write(s.mem.Base(), seg.Data); err != nil {
			return errors.Annotatef(err, "raw image %q", s.imagePath)
		}
		s.entry = s.mem.Base()
		return nil
	}

	if img.Class != s.isa.XLen() {
		return errors.NotValidf("ELF%d image %q on an XLEN-%d machine",
			img.Class, s.imagePath, s.isa.XLen())
	}

	for _, seg := range img.Segments {
		if err := s.mem.Write(seg.VirtAddr, seg.Data); err != nil {
			return errors.Annotatef(err, "segment at %#x", seg.VirtAddr)
		}
		// Zero the BSS tail beyond the file-backed bytes.
		if seg.MemSize > uint64(len(seg.Data)) {
			zeros := make([]byte, seg.MemSize-uint64(len(seg.Data)))
			if err := s.mem.Write(seg.VirtAddr+uint64(len(seg.Data)), zeros); err != nil {
				return errors.Annotatef(err, "segment at %#x", seg.VirtAddr)
			}
		}
	}
	s.entry = img.EntryPoint
	return nil
}

// Step runs up to n units on every hart in lockstep and returns the
// number of units completed. Each unit fetches the word at the hart's
// PC and hands it to the executor. A hart halting cleanly stops the
// run early without an error; a fetch fault or any other executor
// fault stops it with one.
func (s *Simulator) Step(n int) (int, error) {
	if s.closed {
		return 0, errors.NotProvisionedf("machine %s", s.id)
	}

	for unit := 0; unit < n; unit++ {
		for _, c := range s.cores {
			raw, err := s.mem.Read32(c.PC())
			if err != nil {
				return unit, errors.Annotatef(err, "hart %d: fetch at %#x", c.ID(), c.PC())
			}
			if err := s.executor.Execute(c, raw); err != nil {
				if stderrors.Is(err, ErrHalted) {
					s.log.Debugf("hart %d halted after %d units", c.ID(), unit)
					return unit, nil
				}
				return unit, errors.Annotatef(err, "hart %d", c.ID())
			}
			c.State().retire()
		}
	}
	return n, nil
}

// Reset returns every hart to its power-on state. Memory contents are
// untouched.
func (s *Simulator) Reset() {
	for _, c := range s.cores {
		c.Reset()
	}
	s.log.Infof("machine %s reset", s.id)
}

// Core returns the hart with the given id.
func (s *Simulator) Core(id int) (*Core, error) {
	for _, c := range s.cores {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, errors.NotFoundf("hart %d", id)
}

// Harts returns the number of harts in the machine.
func (s *Simulator) Harts() int { return len(s.cores) }

// SetPC points every hart at pc.
func (s *Simulator) SetPC(pc uint64) {
	for _, c := range s.cores {
		c.SetPC(pc)
	}
}

// ID returns the machine's unique identifier.
func (s *Simulator) ID() string { return s.id }

// EntryPoint returns where execution starts, established by Start.
func (s *Simulator) EntryPoint() uint64 { return s.entry }

// Memory returns the machine's physical memory, nil once closed.
func (s *Simulator) Memory() *Memory { return s.mem }

// Config returns the configuration the machine was built from, with
// defaults filled in.
func (s *Simulator) Config() Config { return s.cfg }

// DebugModule returns the debug-module feature set the machine
// advertises.
func (s *Simulator) DebugModule() DebugModuleConfig { return s.dm }

// ISA returns the machine's instruction set description.
func (s *Simulator) ISA() *ISA { return s.isa }

// SetDebug raises the run log to debug verbosity, or restores the
// default level.
func (s *Simulator) SetDebug(on bool) {
	if on {
		s.log.SetLevel(logrus.DebugLevel)
	} else {
		s.log.SetLevel(logrus.InfoLevel)
	}
}

// Close releases the harts, the memory and the run log. Closing twice
// is harmless.
func (s *Simulator) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cores = nil
	s.mem = nil
	s.log.Infof("machine %s closed", s.id)
	s.log.SetOutput(io.Discard)
	if s.logFile == nil {
		return nil
	}
	return s.logFile.Close()
}
