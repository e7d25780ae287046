package ecall_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/frv/bus"
	"github.com/sarchlab/frv/ecall"
	"github.com/sarchlab/frv/memory"
)

type regFile [32]uint64

func (r *regFile) Reg(index int) uint64 {
	return r[index]
}

func (r *regFile) call(code ecall.Code, a1, a2 uint64) {
	r[ecall.RegA0] = uint64(code)
	r[ecall.RegA1] = a1
	r[ecall.RegA2] = a2
}

var _ = Describe("Handler", func() {
	var (
		regs *regFile
		b    *bus.Bus
		out  *bytes.Buffer
		h    *ecall.Handler
	)

	storeString := func(addr uint64, s string) {
		for i := 0; i < len(s); i++ {
			Expect(b.Store(addr+uint64(i), 1, uint64(s[i]))).To(Succeed())
		}
		Expect(b.Store(addr+uint64(len(s)), 1, 0)).To(Succeed())
	}

	loadString := func(addr uint64) string {
		var sb strings.Builder
		for {
			c, err := b.Load(addr, 1)
			Expect(err).NotTo(HaveOccurred())
			if c == 0 {
				return sb.String()
			}
			sb.WriteByte(byte(c))
			addr++
		}
	}

	BeforeEach(func() {
		regs = &regFile{}
		b = bus.New(memory.New(256))
		out = &bytes.Buffer{}
		h = ecall.NewHandler(strings.NewReader(""), out)
	})

	It("should print a signed decimal", func() {
		regs.call(ecall.PrintD, uint64(0xFFFFFFFFFFFFFFF4), 0)

		outcome, err := h.Execute(regs, b)

		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(ecall.Continue))
		Expect(out.String()).To(Equal("-12\n"))
	})

	It("should print a character", func() {
		regs.call(ecall.PrintC, 0x141, 0)

		_, err := h.Execute(regs, b)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(Equal("A\n"))
	})

	It("should print the raw low byte", func() {
		regs.call(ecall.PrintC, 0x1E9, 0)

		_, err := h.Execute(regs, b)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Bytes()).To(Equal([]byte{0xE9, '\n'}))
	})

	It("should print unsigned hex", func() {
		regs.call(ecall.PrintX, ^uint64(0), 0)

		_, err := h.Execute(regs, b)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(Equal("0xFFFFFFFFFFFFFFFF\n"))
	})

	Context("PRINT_S", func() {
		It("should print the string up to the zero byte", func() {
			storeString(memory.Base+16, "hello, hart")
			regs.call(ecall.PrintS, memory.Base+16, 0)

			outcome, err := h.Execute(regs, b)

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome).To(Equal(ecall.Continue))
			Expect(out.String()).To(Equal("hello, hart\n"))
		})

		It("should fail when the string runs off the end of RAM", func() {
			Expect(b.Store(memory.Base+254, 1, 'o')).To(Succeed())
			Expect(b.Store(memory.Base+255, 1, 'k')).To(Succeed())
			regs.call(ecall.PrintS, memory.Base+254, 0)

			outcome, err := h.Execute(regs, b)

			Expect(err).To(MatchError(memory.ErrOutOfRange))
			Expect(outcome).To(Equal(ecall.Terminate))
			Expect(out.String()).To(Equal("ok"))
		})

		It("should fail on an unmapped address", func() {
			regs.call(ecall.PrintS, 0x1000, 0)

			_, err := h.Execute(regs, b)

			Expect(err).To(MatchError(bus.ErrIllegalAddress))
		})
	})

	Context("SCAN_S", func() {
		BeforeEach(func() {
			h = ecall.NewHandler(strings.NewReader("frv rocks\nsecond\n"), out)
		})

		It("should read a line and terminate it", func() {
			regs.call(ecall.ScanS, memory.Base, 64)

			outcome, err := h.Execute(regs, b)

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome).To(Equal(ecall.Continue))
			Expect(loadString(memory.Base)).To(Equal("frv rocks"))
		})

		It("should truncate to the buffer and drop the rest of the line", func() {
			regs.call(ecall.ScanS, memory.Base, 4)

			_, err := h.Execute(regs, b)
			Expect(err).NotTo(HaveOccurred())
			Expect(loadString(memory.Base)).To(Equal("frv"))

			regs.call(ecall.ScanS, memory.Base+32, 64)

			_, err = h.Execute(regs, b)
			Expect(err).NotTo(HaveOccurred())
			Expect(loadString(memory.Base + 32)).To(Equal("second"))
		})

		It("should store an empty string at end of input", func() {
			h = ecall.NewHandler(strings.NewReader(""), out)
			storeString(memory.Base, "stale")
			regs.call(ecall.ScanS, memory.Base, 8)

			_, err := h.Execute(regs, b)

			Expect(err).NotTo(HaveOccurred())
			Expect(loadString(memory.Base)).To(Equal(""))
		})

		It("should accept a last line without a newline", func() {
			h = ecall.NewHandler(strings.NewReader("tail"), out)
			regs.call(ecall.ScanS, memory.Base, 8)

			_, err := h.Execute(regs, b)

			Expect(err).NotTo(HaveOccurred())
			Expect(loadString(memory.Base)).To(Equal("tail"))
		})

		It("should fail when the buffer is outside RAM", func() {
			regs.call(ecall.ScanS, memory.Base+250, 64)

			_, err := h.Execute(regs, b)

			Expect(err).To(MatchError(memory.ErrOutOfRange))
		})
	})

	It("should terminate on END without output", func() {
		regs.call(ecall.End, 0, 0)

		outcome, err := h.Execute(regs, b)

		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(ecall.Terminate))
		Expect(out.Len()).To(BeZero())
	})

	DescribeTable("should reject unknown calls",
		func(code ecall.Code) {
			regs.call(code, 0, 0)

			outcome, err := h.Execute(regs, b)

			Expect(err).To(MatchError(ecall.ErrInvalidEnvironmentCall))
			Expect(outcome).To(Equal(ecall.Terminate))
		},
		Entry("4", ecall.Code(4)),
		Entry("6", ecall.Code(6)),
		Entry("8", ecall.Code(8)),
		Entry("huge", ecall.Code(1<<40)),
	)

	It("should name the calls", func() {
		Expect(ecall.PrintD.Name()).To(Equal("PRINT_D"))
		Expect(ecall.End.Name()).To(Equal("END"))
		Expect(ecall.Code(9).Name()).To(Equal("ECALL(9)"))
	})
})
