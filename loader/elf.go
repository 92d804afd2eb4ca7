// Package loader reads RISC-V program images: ELF executables and raw
// binary dumps.
package loader

import (
	"bytes"
	"debug/elf"
	"io"
	"os"

	"github.com/juju/errors"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents one loadable piece of a program image.
type Segment struct {
	// VirtAddr is the address where this segment should be loaded. It
	// is zero for a raw image; the machine places those at its base.
	VirtAddr uint64
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint64
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Image represents a program ready for loading into machine memory.
type Image struct {
	// EntryPoint is the address where execution should begin. It is
	// zero for a raw image.
	EntryPoint uint64
	// Segments contains all loadable segments.
	Segments []Segment
	// Class is the ELF word width, 32 or 64. It is zero for a raw
	// image.
	Class int
	// Raw is true when the file carried no ELF header and was taken
	// verbatim as a single segment.
	Raw bool
}

var elfMagic = []byte{0x7F, 'E', 'L', 'F'}

// Load reads a program image from path. Files starting with the ELF
// magic are parsed as RISC-V executables; anything else is returned
// verbatim as a single raw segment.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "image %q", path)
	}

	if bytes.HasPrefix(data, elfMagic) {
		img, err := parseELF(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Annotatef(err, "image %q", path)
		}
		return img, nil
	}

	return &Image{
		Segments: []Segment{{
			Data:    data,
			MemSize: uint64(len(data)),
			Flags:   SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
		}},
		Raw: true,
	}, nil
}

func parseELF(r io.ReaderAt) (*Image, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Annotatef(err, "ELF header")
	}
	defer func() { _ = f.Close() }()

	if f.Machine != elf.EM_RISCV {
		return nil, errors.NotValidf("machine %v: not a RISC-V executable", f.Machine)
	}

	img := &Image{EntryPoint: f.Entry}
	switch f.Class {
	case elf.ELFCLASS32:
		img.Class = 32
	case elf.ELFCLASS64:
		img.Class = 64
	default:
		return nil, errors.NotValidf("ELF class %v", f.Class)
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, errors.Annotatef(err, "segment at %#x", phdr.Vaddr)
			}
			if uint64(n) != phdr.Filesz {
				return nil, errors.Errorf("short read for segment at %#x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		img.Segments = append(img.Segments, Segment{
			VirtAddr: phdr.Vaddr,
			Data:     data,
			MemSize:  phdr.Memsz,
			Flags:    flags,
		})
	}

	return img, nil
}
