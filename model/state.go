package model

import (
	"github.com/juju/errors"
)

// Architectural register file sizes.
const (
	NXPR = 32
	NFPR = 32
)

// State is the scalar architectural state of one hart: the program
// counter, integer and floating-point register files, the CSR map,
// and the retirement counters.
type State struct {
	hartID int
	isa    *ISA

	pc  uint64
	xpr [NXPR]uint64
	fpr []byte

	csrs map[uint64]CSR

	cycle   uint64
	instret uint64
}

func newState(hartID int, isa *ISA) *State {
	return &State{hartID: hartID, isa: isa}
}

// Reset returns the hart to its power-on state: PC at the reset
// vector, registers and counters zeroed, and the CSR map rebuilt for
// the configured ISA.
func (s *State) Reset() {
	s.pc = DefaultResetVector
	s.xpr = [NXPR]uint64{}
	s.fpr = nil
	s.cycle = 0
	s.instret = 0

	s.csrs = map[uint64]CSR{
		CSRMISA:      constCSR{s.isa.MISA()},
		CSRMVendorID: constCSR{0},
		CSRMArchID:   constCSR{0},
		CSRMImpID:    constCSR{0},
		CSRMHartID:   constCSR{uint64(s.hartID)},

		// Plain read/write storage; legalisation of the machine-mode
		// registers is the executor's concern.
		CSRMStatus:  newMaskedCSR(^uint64(0), 0),
		CSRMTVec:    newMaskedCSR(^uint64(0), 0),
		CSRMScratch: newMaskedCSR(^uint64(0), 0),
		CSRMEPC:     newMaskedCSR(^uint64(0)&^1, 0),
		CSRMCause:   newMaskedCSR(^uint64(0), 0),
		CSRMTVal:    newMaskedCSR(^uint64(0), 0),
		CSRMIE:      newMaskedCSR(^uint64(0), 0),
		CSRMIP:      newMaskedCSR(^uint64(0), 0),

		CSRMCycle:   &counterCSR{counter: &s.cycle},
		CSRMInstret: &counterCSR{counter: &s.instret},
		CSRCycle:    &counterCSR{counter: &s.cycle, readOnly: true},
		CSRInstret:  &counterCSR{counter: &s.instret, readOnly: true},
	}

	if s.isa.FLen() > 0 {
		s.fpr = make([]byte, NFPR*s.isa.FLen()/8)

		fflags := newMaskedCSR(0x1F, 0)
		frm := newMaskedCSR(0x7, 0)
		s.csrs[CSRFflags] = fflags
		s.csrs[CSRFrm] = frm
		s.csrs[CSRFcsr] = compositeCSR{lo: fflags, hi: frm, loBits: 5}
	}
}

func (s *State) addCSR(addr uint64, c CSR) {
	s.csrs[addr] = c
}

// CSR reads the CSR at addr. The CSR address space is 12 bits wide;
// anything beyond it is rejected before the map lookup.
func (s *State) CSR(addr uint64) (uint64, error) {
	if addr > 0xFFF {
		return 0, errors.NotValidf("csr address %#x", addr)
	}
	c, ok := s.csrs[addr]
	if !ok {
		return 0, errors.NotFoundf("csr %#05x", addr)
	}
	return c.Read(), nil
}

// PutCSR writes the CSR at addr.
func (s *State) PutCSR(addr, value uint64) error {
	if addr > 0xFFF {
		return errors.NotValidf("csr address %#x", addr)
	}
	c, ok := s.csrs[addr]
	if !ok {
		return errors.NotFoundf("csr %#05x", addr)
	}
	if err := c.Write(value); err != nil {
		return errors.Annotatef(err, "csr %#05x", addr)
	}
	return nil
}

// XPR returns integer register i.
func (s *State) XPR(i int) uint64 { return s.xpr[i] }

// SetXPR writes integer register i. Writes to x0 are dropped.
func (s *State) SetXPR(i int, value uint64) {
	if i == 0 {
		return
	}
	s.xpr[i] = value
}

// FPR returns a mutable view of floating-point register i, FLEN/8
// bytes wide, or nil when the ISA carries no floating-point state.
func (s *State) FPR(i int) []byte {
	w := s.FLenB()
	if w == 0 {
		return nil
	}
	return s.fpr[i*w : (i+1)*w]
}

// FLenB returns the width of one floating-point register in bytes, 0
// when the ISA carries no floating-point state.
func (s *State) FLenB() int { return s.isa.FLen() / 8 }

// PC returns the program counter.
func (s *State) PC() uint64 { return s.pc }

// SetPC writes the program counter.
func (s *State) SetPC(pc uint64) { s.pc = pc }

// HartID returns the hart's index.
func (s *State) HartID() int { return s.hartID }

// ISA returns the hart's instruction set description.
func (s *State) ISA() *ISA { return s.isa }

func (s *State) retire() {
	s.cycle++
	s.instret++
}
