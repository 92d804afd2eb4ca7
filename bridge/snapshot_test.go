package bridge_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lockstep/bridge"
	"github.com/sarchlab/lockstep/model"
)

var _ = Describe("Snapshot", func() {
	Context("with an empty slot", func() {
		It("should return the sentinel from every getter", func() {
			var regs [32]uint64
			out := make([]uint64, 4)

			Expect(bridge.PC(0)).To(BeZero())
			Expect(bridge.GPRs(0, &regs)).To(BeZero())
			Expect(bridge.FPRs(0, &regs)).To(BeZero())
			Expect(bridge.VLen(0)).To(BeZero())
			Expect(bridge.VLenB(0)).To(BeZero())
			Expect(bridge.VRegs(0, out)).To(BeZero())
			Expect(bridge.CSR(0, model.CSRMISA)).To(BeZero())
			Expect(bridge.VCSR(0, model.CSRVL)).To(BeZero())
			Expect(bridge.Vxsat(0)).To(BeZero())
			Expect(bridge.Vxrm(0)).To(BeZero())
			Expect(bridge.Vstart(0)).To(BeZero())
			Expect(bridge.VL(0)).To(BeZero())
			Expect(bridge.VType(0)).To(BeZero())

			bridge.PutCSR(0, model.CSRMScratch, 1)
		})
	})

	Context("with a live machine", func() {
		BeforeEach(func() {
			bridge.Create(writeBootImage(8))
			Expect(gprCount()).To(Equal(32))
		})

		liveCore := func() *model.Core {
			core, err := bridge.LiveSim().Core(0)
			ExpectWithOffset(1, err).NotTo(HaveOccurred())
			return core
		}

		It("should reject unknown harts and leave the buffer alone", func() {
			regs := [32]uint64{0: 0xFFFFFFFF}
			for _, hart := range []int{1, -1, 7} {
				Expect(bridge.GPRs(hart, &regs)).To(BeZero())
				Expect(bridge.PC(hart)).To(BeZero())
				Expect(bridge.CSR(hart, model.CSRMISA)).To(BeZero())
			}
			Expect(regs[0]).To(Equal(uint64(0xFFFFFFFF)))
		})

		It("should tolerate nil output buffers", func() {
			Expect(bridge.GPRs(0, nil)).To(BeZero())
			Expect(bridge.FPRs(0, nil)).To(BeZero())
			Expect(bridge.VRegs(0, nil)).To(BeZero())
		})

		It("should read the integer registers", func() {
			state := liveCore().State()
			state.SetXPR(5, 42)
			state.SetXPR(31, 0xDEADBEEF)

			var regs [32]uint64
			Expect(bridge.GPRs(0, &regs)).To(Equal(32))
			Expect(regs[0]).To(BeZero())
			Expect(regs[5]).To(Equal(uint64(42)))
			Expect(regs[31]).To(Equal(uint64(0xDEADBEEF)))
		})

		It("should read and write CSRs through the gateway", func() {
			bridge.PutCSR(0, model.CSRMScratch, 0xABCD)
			Expect(bridge.CSR(0, model.CSRMScratch)).To(Equal(uint64(0xABCD)))
		})

		It("should drop writes to read-only CSRs", func() {
			misa := bridge.CSR(0, model.CSRMISA)
			Expect(misa).NotTo(BeZero())

			bridge.PutCSR(0, model.CSRMISA, 0)
			Expect(bridge.CSR(0, model.CSRMISA)).To(Equal(misa))
		})

		It("should read absent CSRs as zero and drop their writes", func() {
			Expect(bridge.CSR(0, 0x123)).To(BeZero())
			bridge.PutCSR(0, 0x123, 5)
			Expect(bridge.CSR(0, 0x123)).To(BeZero())
		})
	})

	Describe("FPRs", func() {
		seedFPR := func(i int, data []byte) {
			core, err := bridge.LiveSim().Core(0)
			ExpectWithOffset(1, err).NotTo(HaveOccurred())
			copy(core.State().FPR(i), data)
		}

		It("should copy 64-bit registers verbatim", func() {
			bridge.Create(writeBootImage(8))
			seedFPR(3, []byte{1, 2, 3, 4, 5, 6, 7, 8})

			var fprs [32]uint64
			Expect(bridge.FPRs(0, &fprs)).To(Equal(32))
			Expect(fprs[3]).To(Equal(uint64(0x0807060504030201)))
		})

		It("should zero-extend 32-bit registers", func() {
			bridge.SetISA("RV64IMAFC")
			bridge.Create(writeBootImage(8))
			seedFPR(1, []byte{0xAA, 0xBB, 0xCC, 0xDD})

			var fprs [32]uint64
			Expect(bridge.FPRs(0, &fprs)).To(Equal(32))
			Expect(fprs[1]).To(Equal(uint64(0xDDCCBBAA)))
		})

		It("should truncate 128-bit registers to their low half", func() {
			bridge.SetISA("RV64GQC")
			bridge.Create(writeBootImage(8))
			seed := make([]byte, 16)
			for i := range seed {
				seed[i] = byte(i + 1)
			}
			seedFPR(2, seed)

			var fprs [32]uint64
			Expect(bridge.FPRs(0, &fprs)).To(Equal(32))
			Expect(fprs[2]).To(Equal(uint64(0x0807060504030201)))
		})
	})

	Describe("vector state", func() {
		Context("with the V extension", func() {
			BeforeEach(func() {
				bridge.SetISA("RV64GCV")
				bridge.Create(writeBootImage(8))
				Expect(gprCount()).To(Equal(32))
			})

			vectorUnit := func() *model.VectorUnit {
				core, err := bridge.LiveSim().Core(0)
				ExpectWithOffset(1, err).NotTo(HaveOccurred())
				vu := core.Vector()
				ExpectWithOffset(1, vu).NotTo(BeNil())
				return vu
			}

			It("should report the geometry", func() {
				Expect(bridge.VLen(0)).To(Equal(128))
				Expect(bridge.VLenB(0)).To(Equal(uint64(16)))
				Expect(bridge.VCSR(0, model.CSRVLenB)).To(Equal(uint64(16)))
			})

			It("should pack the whole register file", func() {
				out := make([]uint64, 1000)
				Expect(bridge.VRegs(0, out)).To(Equal(64))
			})

			It("should truncate to a short buffer", func() {
				out := make([]uint64, 10)
				Expect(bridge.VRegs(0, out)).To(Equal(10))
			})

			It("should pack registers little-endian, register 0 first", func() {
				vu := vectorUnit()
				copy(vu.Reg(0), []byte{
					1, 2, 3, 4, 5, 6, 7, 8,
					9, 10, 11, 12, 13, 14, 15, 16,
				})
				vu.Reg(1)[0] = 0xEE

				out := make([]uint64, 64)
				Expect(bridge.VRegs(0, out)).To(Equal(64))
				Expect(out[0]).To(Equal(uint64(0x0807060504030201)))
				Expect(out[1]).To(Equal(uint64(0x100F0E0D0C0B0A09)))
				Expect(out[2]).To(Equal(uint64(0xEE)))
			})

			It("should expose the boot fixed-point and configuration state", func() {
				bridge.PutCSR(0, model.CSRVXRM, 2)
				bridge.PutCSR(0, model.CSRVXSat, 1)

				Expect(bridge.Vxrm(0)).To(Equal(uint64(2)))
				Expect(bridge.Vxsat(0)).To(Equal(uint64(1)))
				Expect(bridge.VCSR(0, model.CSRVCSR)).To(Equal(uint64(0b101)))
				Expect(bridge.Vstart(0)).To(BeZero())

				// The configuration comes up illegal.
				Expect(bridge.VL(0)).To(BeZero())
				Expect(bridge.VType(0)).To(Equal(uint64(1) << 63))
			})

			It("should follow a configuration request", func() {
				vu := vectorUnit()
				Expect(vu.SetVL(1, 0, 0, 3<<3)).To(Equal(uint64(2)))

				Expect(bridge.VL(0)).To(Equal(uint64(2)))
				Expect(bridge.VType(0)).To(Equal(uint64(3 << 3)))
				Expect(bridge.VCSR(0, model.CSRVL)).To(Equal(uint64(2)))
			})
		})

		Context("without the V extension", func() {
			BeforeEach(func() {
				bridge.Create(writeBootImage(8))
			})

			It("should return zero for every vector getter", func() {
				Expect(bridge.VLen(0)).To(BeZero())
				Expect(bridge.VLenB(0)).To(BeZero())
				Expect(bridge.VL(0)).To(BeZero())
				Expect(bridge.VType(0)).To(BeZero())
				Expect(bridge.Vxsat(0)).To(BeZero())
				Expect(bridge.Vxrm(0)).To(BeZero())
				Expect(bridge.Vstart(0)).To(BeZero())

				out := make([]uint64, 8)
				Expect(bridge.VRegs(0, out)).To(BeZero())
			})
		})
	})
})
