package model

import (
	"math/bits"
)

// NVPR is the number of architectural vector registers.
const NVPR = 32

// VectorUnit holds one hart's vector register file and configuration
// state. The register file is a flat byte array, NVPR registers of
// VLEN/8 bytes each; vl, vtype and the fixed-point CSRs live in the
// hart's CSR map and are re-registered on every reset.
type VectorUnit struct {
	vlen int
	elen int
	xlen int

	regFile []byte

	vsew   uint64
	vflmul float64
	vlmax  uint64
	vta    bool
	vma    bool
	vill   bool

	vstart *maskedCSR
	vxsat  *maskedCSR
	vxrm   *maskedCSR
	vl     *maskedCSR
	vtype  *maskedCSR
}

func newVectorUnit(vlen, elen, xlen int) *VectorUnit {
	return &VectorUnit{vlen: vlen, elen: elen, xlen: xlen}
}

// Reset reallocates the register file, registers the vector CSRs with
// the hart state, and forces the illegal configuration a hart wakes
// up in.
func (vu *VectorUnit) Reset(state *State) {
	vu.regFile = make([]byte, NVPR*vu.BytesPerReg())

	vu.vxsat = newMaskedCSR(0x1, 0)
	vu.vstart = newMaskedCSR(uint64(vu.vlen-1), 0)
	vu.vxrm = newMaskedCSR(0x3, 0)
	vu.vl = newMaskedCSR(0, 0)
	vu.vtype = newMaskedCSR(0, 0)

	state.addCSR(CSRVXSat, vu.vxsat)
	state.addCSR(CSRVStart, vu.vstart)
	state.addCSR(CSRVXRM, vu.vxrm)
	state.addCSR(CSRVL, vu.vl)
	state.addCSR(CSRVType, vu.vtype)
	state.addCSR(CSRVLenB, newMaskedCSR(0, uint64(vu.BytesPerReg())))
	state.addCSR(CSRVCSR, compositeCSR{lo: vu.vxsat, hi: vu.vxrm, loBits: 1})

	vu.SetVL(0, 0, 0, ^uint64(0))
}

// SetVL applies a vsetvl-style configuration request and returns the
// resulting vl. rd and rs1 identify the operand form the request
// used: both zero keeps the current vl, rs1 zero with rd live asks
// for vlmax, and a live rs1 asks for reqVL clamped to vlmax.
//
// An unsupportable newType (LMUL outside [1/8, 8], SEW above what the
// LMUL and ELEN allow, reserved bits set, or a keep-vl request whose
// vlmax would change) marks the configuration illegal: vtype reads as
// just its top bit, vl and vlmax read as zero. vstart clears on every
// request.
func (vu *VectorUnit) SetVL(rd, rs1 int, reqVL, newType uint64) uint64 {
	if vu.vtype.Read() != newType {
		newVLMul := int(int8((newType&0x7)<<5) >> 5)
		oldVLMax := vu.vlmax

		vu.vsew = 1 << ((newType>>3)&0x7 + 3)
		if newVLMul >= 0 {
			vu.vflmul = float64(uint64(1) << newVLMul)
		} else {
			vu.vflmul = 1.0 / float64(uint64(1)<<-newVLMul)
		}
		vu.vlmax = uint64(float64(uint64(vu.vlen)/vu.vsew) * vu.vflmul)
		vu.vta = newType>>6&1 == 1
		vu.vma = newType>>7&1 == 1

		vu.vill = !(vu.vflmul >= 0.125 && vu.vflmul <= 8) ||
			float64(vu.vsew) > min(vu.vflmul, 1)*float64(vu.elen) ||
			newType>>8 != 0 ||
			(rd == 0 && rs1 == 0 && oldVLMax != vu.vlmax)

		if vu.vill {
			vu.vlmax = 0
			vu.vtype.set(^uint64(0) << (vu.xlen - 1))
		} else {
			vu.vtype.set(newType)
		}
	}

	switch {
	case vu.vlmax == 0:
		vu.vl.set(0)
	case rd == 0 && rs1 == 0:
		// keep the current vl
	case rd != 0 && rs1 == 0:
		vu.vl.set(vu.vlmax)
	default:
		vu.vl.set(min(reqVL, vu.vlmax))
	}

	vu.vstart.set(0)
	return vu.vl.Read()
}

// VLen returns the vector register width in bits.
func (vu *VectorUnit) VLen() int { return vu.vlen }

// ELen returns the widest supported element width in bits.
func (vu *VectorUnit) ELen() int { return vu.elen }

// BytesPerReg returns the width of one vector register in bytes.
func (vu *VectorUnit) BytesPerReg() int { return vu.vlen / 8 }

// TotalBytes returns the size of the whole register file in bytes.
func (vu *VectorUnit) TotalBytes() int { return NVPR * vu.BytesPerReg() }

// VLMax returns the element capacity of the current configuration, 0
// while the configuration is illegal.
func (vu *VectorUnit) VLMax() uint64 { return vu.vlmax }

// SEW returns the selected element width in bits.
func (vu *VectorUnit) SEW() uint64 { return vu.vsew }

// Ill reports whether the current configuration is illegal.
func (vu *VectorUnit) Ill() bool { return vu.vill }

// VL returns the current vl, falling back to vlmax when the vl
// register has not been materialised yet.
func (vu *VectorUnit) VL() uint64 {
	if vu.vl != nil {
		return vu.vl.Read()
	}
	return vu.vlmax
}

// VType returns the current vtype encoding. Before the vtype register
// is materialised only the element-width field can be reconstructed
// from vsew; the rest reads as zero.
func (vu *VectorUnit) VType() uint64 {
	if vu.vtype != nil {
		return vu.vtype.Read()
	}
	if vu.vsew == 0 {
		return 0
	}
	return uint64(bits.Len64(vu.vsew)-1-3) << 3
}

// Vxsat returns the saturation flag, 0 when the register has not been
// materialised yet.
func (vu *VectorUnit) Vxsat() uint64 {
	if vu.vxsat == nil {
		return 0
	}
	return vu.vxsat.Read()
}

// Vxrm returns the fixed-point rounding mode, 0 when the register has
// not been materialised yet.
func (vu *VectorUnit) Vxrm() uint64 {
	if vu.vxrm == nil {
		return 0
	}
	return vu.vxrm.Read()
}

// Vstart returns the resumption element index, 0 when the register
// has not been materialised yet.
func (vu *VectorUnit) Vstart() uint64 {
	if vu.vstart == nil {
		return 0
	}
	return vu.vstart.Read()
}

// RegBytes returns the whole register file as one mutable byte slice,
// register 0 first.
func (vu *VectorUnit) RegBytes() []byte { return vu.regFile }

// Reg returns a mutable view of vector register i.
func (vu *VectorUnit) Reg(i int) []byte {
	w := vu.BytesPerReg()
	return vu.regFile[i*w : (i+1)*w]
}
