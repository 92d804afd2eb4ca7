package model

import (
	"strings"

	"github.com/juju/errors"
)

// ISA is a parsed RISC-V ISA description string such as "RV64GC" or
// "rv64imafdcv_zicsr_zifencei".
type ISA struct {
	name string
	xlen int
	flen int
	exts map[byte]bool
	subs map[string]bool
}

// singleExts lists the single-letter extensions accepted in the base
// part of an ISA string. G is handled separately: it expands to IMAFD
// plus Zicsr and Zifencei during parsing.
const singleExts = "iemafdqcvhbp"

// ParseISA parses an ISA description string. The string must start
// with "rv32" or "rv64" (case-insensitive), followed by single-letter
// extensions and optional underscore-separated multi-letter
// extensions (Z*, S*, X*). The base extension must be I, E, or G.
func ParseISA(name string) (*ISA, error) {
	lower := strings.ToLower(name)

	isa := &ISA{
		name: name,
		exts: make(map[byte]bool),
		subs: make(map[string]bool),
	}

	switch {
	case strings.HasPrefix(lower, "rv32"):
		isa.xlen = 32
	case strings.HasPrefix(lower, "rv64"):
		isa.xlen = 64
	default:
		return nil, errors.NotValidf("isa string %q", name)
	}

	parts := strings.Split(lower[4:], "_")
	if parts[0] == "" {
		return nil, errors.NotValidf("isa string %q: no base extension", name)
	}
	if c := parts[0][0]; c != 'i' && c != 'e' && c != 'g' {
		return nil, errors.NotValidf("isa string %q: base must be I, E, or G", name)
	}

	for i := 0; i < len(parts[0]); i++ {
		c := parts[0][i]
		switch {
		case c == 'g':
			for _, e := range []byte("imafd") {
				isa.exts[e] = true
			}
			isa.subs["zicsr"] = true
			isa.subs["zifencei"] = true
		case strings.IndexByte(singleExts, c) >= 0:
			isa.exts[c] = true
		default:
			return nil, errors.NotValidf("isa string %q: extension %q", name, string(c))
		}
	}

	for _, sub := range parts[1:] {
		if sub == "" || (sub[0] != 'z' && sub[0] != 's' && sub[0] != 'x') {
			return nil, errors.NotValidf("isa string %q: extension %q", name, sub)
		}
		isa.subs[sub] = true
	}

	// Implied extensions: Q needs D, D needs F, and hardware float or
	// vector state needs Zicsr for its CSR group.
	if isa.exts['q'] {
		isa.exts['d'] = true
	}
	if isa.exts['d'] {
		isa.exts['f'] = true
	}
	if isa.exts['f'] || isa.exts['v'] {
		isa.subs["zicsr"] = true
	}

	switch {
	case isa.exts['q']:
		isa.flen = 128
	case isa.exts['d']:
		isa.flen = 64
	case isa.exts['f']:
		isa.flen = 32
	}

	return isa, nil
}

// Name returns the string the ISA was parsed from.
func (isa *ISA) Name() string { return isa.name }

// XLen returns the integer register width in bits.
func (isa *ISA) XLen() int { return isa.xlen }

// FLen returns the floating register width in bits, 0 when the
// configuration has no hardware floating point.
func (isa *ISA) FLen() int { return isa.flen }

// Has reports whether a single-letter extension is present. The
// letter is case-insensitive.
func (isa *ISA) Has(ext byte) bool {
	if ext >= 'A' && ext <= 'Z' {
		ext += 'a' - 'A'
	}
	return isa.exts[ext]
}

// HasSub reports whether a multi-letter extension such as "zicsr" is
// present.
func (isa *ISA) HasSub(name string) bool {
	return isa.subs[strings.ToLower(name)]
}

// MISA returns the misa CSR encoding of this ISA: MXL in the top two
// bits, one bit per single-letter extension in the low 26.
func (isa *ISA) MISA() uint64 {
	var v uint64
	for e := range isa.exts {
		v |= 1 << (e - 'a')
	}
	mxl := uint64(1)
	if isa.xlen == 64 {
		mxl = 2
	}
	return v | mxl<<(isa.xlen-2)
}
