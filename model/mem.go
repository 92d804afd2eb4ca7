package model

import (
	"encoding/binary"

	"github.com/juju/errors"
	"github.com/sarchlab/akita/v4/mem/mem"
)

// Memory is the machine's physical memory: one contiguous region
// [base, base+size) backed by akita storage. Accesses outside the
// region fail; they never wrap or grow the region.
type Memory struct {
	base    uint64
	size    uint64
	storage *mem.Storage
}

// NewMemory allocates a memory region of size bytes starting at base.
func NewMemory(base, size uint64) (*Memory, error) {
	if size == 0 {
		return nil, errors.NotValidf("memory size 0")
	}
	if base+size < base {
		return nil, errors.NotValidf(
			"memory region at %#x of %#x bytes: wraps the address space", base, size)
	}
	return &Memory{
		base:    base,
		size:    size,
		storage: mem.NewStorage(size),
	}, nil
}

// Base returns the first address of the region.
func (m *Memory) Base() uint64 { return m.base }

// Size returns the region size in bytes.
func (m *Memory) Size() uint64 { return m.size }

// Contains reports whether [addr, addr+n) lies entirely inside the
// region.
func (m *Memory) Contains(addr, n uint64) bool {
	return addr >= m.base && addr+n >= addr && addr+n <= m.base+m.size
}

// Read copies n bytes starting at addr.
func (m *Memory) Read(addr, n uint64) ([]byte, error) {
	if !m.Contains(addr, n) {
		return nil, errors.NotValidf(
			"read of %d bytes at %#x: outside [%#x, %#x)", n, addr, m.base, m.base+m.size)
	}
	data, err := m.storage.Read(addr-m.base, n)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}

// Write stores data starting at addr.
func (m *Memory) Write(addr uint64, data []byte) error {
	if !m.Contains(addr, uint64(len(data))) {
		return errors.NotValidf(
			"write of %d bytes at %#x: outside [%#x, %#x)", len(data), addr, m.base, m.base+m.size)
	}
	return errors.Trace(m.storage.Write(addr-m.base, data))
}

// Read32 loads a little-endian 32-bit value, the fetch width.
func (m *Memory) Read32(addr uint64) (uint32, error) {
	data, err := m.Read(addr, 4)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return binary.LittleEndian.Uint32(data), nil
}

// Read64 loads a little-endian 64-bit value.
func (m *Memory) Read64(addr uint64) (uint64, error) {
	data, err := m.Read(addr, 8)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return binary.LittleEndian.Uint64(data), nil
}

// Write32 stores a little-endian 32-bit value.
func (m *Memory) Write32(addr uint64, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return errors.Trace(m.Write(addr, buf[:]))
}

// Write64 stores a little-endian 64-bit value.
func (m *Memory) Write64(addr, value uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	return errors.Trace(m.Write(addr, buf[:]))
}
