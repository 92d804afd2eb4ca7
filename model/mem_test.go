package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/juju/errors"

	"github.com/sarchlab/lockstep/model"
)

var _ = Describe("Memory", func() {
	var mem *model.Memory

	BeforeEach(func() {
		var err error
		mem, err = model.NewMemory(0x80000000, 0x1000)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should round-trip byte slices", func() {
		data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
		Expect(mem.Write(0x80000010, data)).To(Succeed())

		got, err := mem.Read(0x80000010, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(data))
	})

	It("should read zeros from untouched addresses", func() {
		got, err := mem.Read(0x80000F00, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(make([]byte, 8)))
	})

	It("should reject reads outside the region", func() {
		_, err := mem.Read(0x7FFFFFFF, 4)
		Expect(errors.IsNotValid(err)).To(BeTrue())

		_, err = mem.Read(0x80001000, 1)
		Expect(errors.IsNotValid(err)).To(BeTrue())
	})

	It("should reject writes crossing the top of the region", func() {
		err := mem.Write(0x80000FFE, []byte{1, 2, 3, 4})
		Expect(errors.IsNotValid(err)).To(BeTrue())
	})

	It("should store 32-bit values little-endian", func() {
		Expect(mem.Write32(0x80000020, 0x12345678)).To(Succeed())

		got, err := mem.Read(0x80000020, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte{0x78, 0x56, 0x34, 0x12}))

		word, err := mem.Read32(0x80000020)
		Expect(err).NotTo(HaveOccurred())
		Expect(word).To(Equal(uint32(0x12345678)))
	})

	It("should store 64-bit values little-endian", func() {
		Expect(mem.Write64(0x80000040, 0x0102030405060708)).To(Succeed())

		got, err := mem.Read(0x80000040, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte{8, 7, 6, 5, 4, 3, 2, 1}))

		value, err := mem.Read64(0x80000040)
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(uint64(0x0102030405060708)))
	})

	It("should report containment", func() {
		Expect(mem.Contains(0x80000000, 0x1000)).To(BeTrue())
		Expect(mem.Contains(0x80000000, 0x1001)).To(BeFalse())
		Expect(mem.Contains(0x7FFFFFFF, 1)).To(BeFalse())
	})

	Describe("NewMemory", func() {
		It("should reject a zero-sized region", func() {
			_, err := model.NewMemory(0x80000000, 0)
			Expect(errors.IsNotValid(err)).To(BeTrue())
		})

		It("should reject a region wrapping the address space", func() {
			_, err := model.NewMemory(^uint64(0)-0xFF, 0x1000)
			Expect(errors.IsNotValid(err)).To(BeTrue())
		})
	})
})
