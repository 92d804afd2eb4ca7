package bridge

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/lockstep/model"
)

// liveCore returns the hart to snapshot, nil when no machine is live
// or the hart id is unknown. The slot lock must be held.
func liveCore(op string, hart int) *model.Core {
	if sim == nil {
		return nil
	}
	core, err := sim.Core(hart)
	if err != nil {
		logrus.Debugf("%s: %v", op, err)
		return nil
	}
	return core
}

// PC returns the hart's program counter, 0 when it cannot be read.
func PC(hart int) (ret uint64) {
	mu.Lock()
	defer mu.Unlock()
	defer recoverTo("pc", &ret, 0)

	core := liveCore("pc", hart)
	if core == nil {
		return 0
	}
	return core.PC()
}

// GPRs copies the hart's integer register file into out and returns
// the register count, 0 when nothing could be read.
func GPRs(hart int, out *[32]uint64) (ret int) {
	mu.Lock()
	defer mu.Unlock()
	defer recoverTo("gprs", &ret, 0)

	if out == nil {
		return 0
	}
	core := liveCore("gprs", hart)
	if core == nil {
		return 0
	}

	*out = core.XPRs()
	return model.NXPR
}

// FPRs copies the hart's floating-point register file into out, each
// register truncated or zero-extended to 64 bits, and returns the
// register count; 0 when the hart carries no floating-point state.
func FPRs(hart int, out *[32]uint64) (ret int) {
	mu.Lock()
	defer mu.Unlock()
	defer recoverTo("fprs", &ret, 0)

	if out == nil {
		return 0
	}
	core := liveCore("fprs", hart)
	if core == nil {
		return 0
	}
	flenb := core.FLenB()
	if flenb == 0 {
		return 0
	}

	file := core.FPRBytes()
	width := min(flenb, 8)
	for i := range out {
		var buf [8]byte
		copy(buf[:width], file[i*flenb:])
		out[i] = binary.LittleEndian.Uint64(buf[:])
	}
	return model.NFPR
}

// VLen returns the hart's vector register width in bits, 0 without a
// vector unit.
func VLen(hart int) (ret int) {
	mu.Lock()
	defer mu.Unlock()
	defer recoverTo("vlen", &ret, 0)

	core := liveCore("vlen", hart)
	if core == nil || core.Vector() == nil {
		return 0
	}
	return core.Vector().VLen()
}

// VLenB returns the width of one vector register in bytes, 0 without
// a vector unit.
func VLenB(hart int) (ret uint64) {
	mu.Lock()
	defer mu.Unlock()
	defer recoverTo("vlenb", &ret, 0)

	core := liveCore("vlenb", hart)
	if core == nil || core.Vector() == nil {
		return 0
	}
	return uint64(core.Vector().BytesPerReg())
}

// VRegs packs the hart's whole vector register file into out as
// little-endian 64-bit words, register 0 first, and returns the words
// written. A short out truncates the file; the tail of the last word
// is zero-padded. Returns 0 when out is empty or the hart carries no
// vector state.
func VRegs(hart int, out []uint64) (ret int) {
	mu.Lock()
	defer mu.Unlock()
	defer recoverTo("vregs", &ret, 0)

	if len(out) == 0 {
		return 0
	}
	core := liveCore("vregs", hart)
	if core == nil {
		return 0
	}
	vu := core.Vector()
	if vu == nil || vu.VLen() == 0 {
		return 0
	}

	file := vu.RegBytes()
	total := (len(file) + 7) / 8
	words := min(len(out), total)
	for q := 0; q < words; q++ {
		var buf [8]byte
		copy(buf[:], file[q*8:])
		out[q] = binary.LittleEndian.Uint64(buf[:])
	}
	return words
}

// readCSR reads a CSR with the slot lock held, mapping every failure
// to 0.
func readCSR(op string, hart int, addr uint32) (ret uint64) {
	defer recoverTo(op, &ret, 0)

	core := liveCore(op, hart)
	if core == nil {
		return 0
	}
	value, err := core.CSR(uint64(addr))
	if err != nil {
		logrus.Debugf("%s %#05x: %v", op, addr, err)
		return 0
	}
	return value
}

// CSR reads the hart's CSR at addr, 0 when it is absent or cannot be
// read.
func CSR(hart int, addr uint32) uint64 {
	mu.Lock()
	defer mu.Unlock()
	return readCSR("csr", hart, addr)
}

// VCSR reads the hart's CSR at addr through the vector-flavoured
// entry point drivers use for the vector namespace. The semantics
// match CSR.
func VCSR(hart int, addr uint32) uint64 {
	mu.Lock()
	defer mu.Unlock()
	return readCSR("vcsr", hart, addr)
}

// readVector reads one vector-unit field with the slot lock held,
// mapping every failure to 0.
func readVector(op string, hart int, read func(*model.VectorUnit) uint64) (ret uint64) {
	defer recoverTo(op, &ret, 0)

	core := liveCore(op, hart)
	if core == nil || core.Vector() == nil {
		return 0
	}
	return read(core.Vector())
}

// Vxsat returns the hart's fixed-point saturation flag, 0 when it
// cannot be read.
func Vxsat(hart int) uint64 {
	mu.Lock()
	defer mu.Unlock()
	return readVector("vxsat", hart, (*model.VectorUnit).Vxsat)
}

// Vxrm returns the hart's fixed-point rounding mode, 0 when it cannot
// be read.
func Vxrm(hart int) uint64 {
	mu.Lock()
	defer mu.Unlock()
	return readVector("vxrm", hart, (*model.VectorUnit).Vxrm)
}

// Vstart returns the hart's vector resumption index, 0 when it cannot
// be read.
func Vstart(hart int) uint64 {
	mu.Lock()
	defer mu.Unlock()
	return readVector("vstart", hart, (*model.VectorUnit).Vstart)
}

// VL returns the hart's current vector length, 0 when it cannot be
// read.
func VL(hart int) uint64 {
	mu.Lock()
	defer mu.Unlock()
	return readVector("vl", hart, (*model.VectorUnit).VL)
}

// VType returns the hart's current vtype encoding, 0 when it cannot
// be read.
func VType(hart int) uint64 {
	mu.Lock()
	defer mu.Unlock()
	return readVector("vtype", hart, (*model.VectorUnit).VType)
}
