// Package main provides the entry point for lockstep, a standalone
// driver for the reference machine: it stages configuration
// overrides, brings the machine up over a program image, steps it,
// and prints the architectural state a co-simulation harness would
// compare against.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/lockstep/bridge"
	"github.com/sarchlab/lockstep/model"
)

var (
	isa       = flag.String("isa", model.DefaultISA, "ISA string for the machine")
	memBase   = flag.Uint64("mem-base", bridge.DefaultMemoryBase, "Physical memory base")
	memSize   = flag.Uint64("mem-size", bridge.DefaultMemorySize, "Physical memory size in bytes")
	pc        = flag.Uint64("pc", bridge.DefaultInitialPC, "Initial program counter")
	steps     = flag.Int("steps", 16, "Units to run")
	logLevel  = flag.String("log-level", "info", "Log level: trace, debug, info, warn, error, critical, off")
	overrides = flag.String("overrides", "", "Path to a JSON override file")
	regs      = flag.Bool("regs", false, "Dump the register state after the run")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: lockstep [options] <image>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	bridge.SetLogLevel(*logLevel)

	if *overrides != "" {
		if err := applyOverrideFile(*overrides); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading overrides: %v\n", err)
			os.Exit(1)
		}
	}
	// Flags given on the command line win over the file.
	applyFlagOverrides()

	os.Exit(run(flag.Arg(0)))
}

// fileOverrides is the JSON shape of an override file. Absent fields
// leave the boundary defaults in place.
type fileOverrides struct {
	ISA        *string `json:"isa"`
	MemoryBase *uint64 `json:"memory_base"`
	MemorySize *uint64 `json:"memory_size"`
	InitialPC  *uint64 `json:"initial_pc"`
}

func applyOverrideFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var ovr fileOverrides
	if err := json.Unmarshal(data, &ovr); err != nil {
		return err
	}

	if ovr.ISA != nil {
		bridge.SetISA(*ovr.ISA)
	}
	if ovr.MemoryBase != nil {
		bridge.SetMemoryBase(*ovr.MemoryBase)
	}
	if ovr.MemorySize != nil {
		bridge.SetMemorySize(*ovr.MemorySize)
	}
	if ovr.InitialPC != nil {
		bridge.SetPC(*ovr.InitialPC)
	}
	return nil
}

// applyFlagOverrides stages only the flags the user actually set, so
// an untouched flag never shadows the override file.
func applyFlagOverrides() {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "isa":
			bridge.SetISA(*isa)
		case "mem-base":
			bridge.SetMemoryBase(*memBase)
		case "mem-size":
			bridge.SetMemorySize(*memSize)
		case "pc":
			bridge.SetPC(*pc)
		}
	})
}

// run drives one machine over the image and returns the process exit
// code.
func run(imagePath string) int {
	bridge.Create(imagePath)
	defer bridge.Delete()

	var gprs [32]uint64
	if bridge.GPRs(0, &gprs) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no machine came up for %s\n", imagePath)
		return 1
	}

	for i := 0; i < *steps; i++ {
		n := bridge.Step()
		if n == bridge.StepFailure {
			fmt.Fprintf(os.Stderr, "Error: step failed after %d units\n", i)
			return 1
		}
		if n == 0 {
			fmt.Printf("halted after %d units\n", i)
			break
		}
		fmt.Printf("unit %4d: pc=%#x instret=%d\n",
			i+1, bridge.PC(0), bridge.CSR(0, model.CSRMInstret))
	}

	if *regs {
		dumpState()
	}
	return 0
}

// dumpState prints the architectural state a comparison harness would
// read through the boundary.
func dumpState() {
	fmt.Printf("\npc = %#018x\n", bridge.PC(0))

	var gprs [32]uint64
	if bridge.GPRs(0, &gprs) == 32 {
		for i := 0; i < 32; i += 2 {
			fmt.Printf("x%-2d = %#018x    x%-2d = %#018x\n",
				i, gprs[i], i+1, gprs[i+1])
		}
	}

	var fprs [32]uint64
	if bridge.FPRs(0, &fprs) == 32 {
		for i := 0; i < 32; i += 2 {
			fmt.Printf("f%-2d = %#018x    f%-2d = %#018x\n",
				i, fprs[i], i+1, fprs[i+1])
		}
	}

	if vlen := bridge.VLen(0); vlen > 0 {
		fmt.Printf("vlen=%d vlenb=%d vl=%d vtype=%#x vstart=%d vxsat=%d vxrm=%d\n",
			vlen, bridge.VLenB(0), bridge.VL(0), bridge.VType(0),
			bridge.Vstart(0), bridge.Vxsat(0), bridge.Vxrm(0))

		wordsPerReg := int(bridge.VLenB(0)) / 8
		out := make([]uint64, 32*wordsPerReg)
		if wordsPerReg > 0 && bridge.VRegs(0, out) == len(out) {
			for r := 0; r < 32; r++ {
				fmt.Printf("v%-2d =", r)
				for w := wordsPerReg - 1; w >= 0; w-- {
					fmt.Printf(" %016x", out[r*wordsPerReg+w])
				}
				fmt.Println()
			}
		}
	}

	fmt.Printf("mcycle=%d minstret=%d mstatus=%#x\n",
		bridge.CSR(0, model.CSRMCycle),
		bridge.CSR(0, model.CSRMInstret),
		bridge.CSR(0, model.CSRMStatus))
}
