package model

import "github.com/juju/errors"

// Control and status register addresses the machine maps by default.
const (
	CSRFflags = 0x001
	CSRFrm    = 0x002
	CSRFcsr   = 0x003

	CSRVStart = 0x008
	CSRVXSat  = 0x009
	CSRVXRM   = 0x00A
	CSRVCSR   = 0x00F

	CSRMStatus  = 0x300
	CSRMISA     = 0x301
	CSRMIE      = 0x304
	CSRMTVec    = 0x305
	CSRMScratch = 0x340
	CSRMEPC     = 0x341
	CSRMCause   = 0x342
	CSRMTVal    = 0x343
	CSRMIP      = 0x344

	CSRMCycle   = 0xB00
	CSRMInstret = 0xB02

	CSRCycle   = 0xC00
	CSRInstret = 0xC02

	CSRVL    = 0xC20
	CSRVType = 0xC21
	CSRVLenB = 0xC22

	CSRMVendorID = 0xF11
	CSRMArchID   = 0xF12
	CSRMImpID    = 0xF13
	CSRMHartID   = 0xF14
)

// CSR is one control and status register. Write applies software
// write semantics (WARL masking, read-only rejection); the engine
// updates registers it owns through the concrete types.
type CSR interface {
	Read() uint64
	Write(value uint64) error
}

// maskedCSR is backed storage with a WARL write mask. A zero mask
// makes the register read-only from software; the engine still
// updates it through set.
type maskedCSR struct {
	value     uint64
	writeMask uint64
}

func newMaskedCSR(writeMask, init uint64) *maskedCSR {
	return &maskedCSR{value: init, writeMask: writeMask}
}

func (c *maskedCSR) Read() uint64 { return c.value }

func (c *maskedCSR) Write(value uint64) error {
	if c.writeMask == 0 {
		return errors.NotSupportedf("read-only CSR")
	}
	c.value = value & c.writeMask
	return nil
}

func (c *maskedCSR) set(value uint64) { c.value = value }

// constCSR is hardwired, like the machine identity registers.
type constCSR struct {
	value uint64
}

func (c constCSR) Read() uint64 { return c.value }

func (c constCSR) Write(uint64) error {
	return errors.NotSupportedf("read-only CSR")
}

// counterCSR exposes one of the hart's event counters. The machine
// alias is writable so a driver can seed counters; the user alias is
// read-only.
type counterCSR struct {
	counter  *uint64
	readOnly bool
}

func (c counterCSR) Read() uint64 { return *c.counter }

func (c counterCSR) Write(value uint64) error {
	if c.readOnly {
		return errors.NotSupportedf("read-only CSR")
	}
	*c.counter = value
	return nil
}

// compositeCSR splices two registers into one view, the way fcsr
// aggregates fflags and frm and vcsr aggregates vxsat and vxrm.
type compositeCSR struct {
	lo, hi CSR
	loBits uint
}

func (c compositeCSR) Read() uint64 {
	loMask := uint64(1)<<c.loBits - 1
	return c.lo.Read()&loMask | c.hi.Read()<<c.loBits
}

func (c compositeCSR) Write(value uint64) error {
	loMask := uint64(1)<<c.loBits - 1
	if err := c.lo.Write(value & loMask); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.hi.Write(value >> c.loBits))
}
