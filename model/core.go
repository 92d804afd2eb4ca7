package model

// Core is one hart: scalar state, an optional vector unit, and a view
// of the machine's memory.
type Core struct {
	id    int
	state *State
	vu    *VectorUnit
	mem   *Memory
}

func newCore(id int, isa *ISA, vlen, elen int, mem *Memory) *Core {
	c := &Core{
		id:    id,
		state: newState(id, isa),
		mem:   mem,
	}
	if isa.Has('v') {
		c.vu = newVectorUnit(vlen, elen, isa.XLen())
	}
	c.Reset()
	return c
}

// Reset returns the hart to its power-on state.
func (c *Core) Reset() {
	c.state.Reset()
	if c.vu != nil {
		c.vu.Reset(c.state)
	}
}

// ID returns the hart's index.
func (c *Core) ID() int { return c.id }

// State returns the hart's scalar state.
func (c *Core) State() *State { return c.state }

// Vector returns the hart's vector unit, nil when the ISA carries no
// vector extension.
func (c *Core) Vector() *VectorUnit { return c.vu }

// Memory returns the machine memory the hart executes against.
func (c *Core) Memory() *Memory { return c.mem }

// PC returns the hart's program counter.
func (c *Core) PC() uint64 { return c.state.PC() }

// SetPC writes the hart's program counter.
func (c *Core) SetPC(pc uint64) { c.state.SetPC(pc) }

// XPRs returns a copy of the hart's integer register file.
func (c *Core) XPRs() [NXPR]uint64 { return c.state.xpr }

// FPRBytes returns the hart's flat floating-point register file, nil
// when the ISA carries no floating-point extension.
func (c *Core) FPRBytes() []byte { return c.state.fpr }

// FLenB returns the width of one floating-point register in bytes, 0
// when the ISA carries no floating-point extension.
func (c *Core) FLenB() int { return c.state.FLenB() }

// CSR reads the hart's CSR at addr.
func (c *Core) CSR(addr uint64) (uint64, error) { return c.state.CSR(addr) }

// PutCSR writes the hart's CSR at addr.
func (c *Core) PutCSR(addr, value uint64) error { return c.state.PutCSR(addr, value) }
