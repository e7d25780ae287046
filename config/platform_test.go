package config_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/frv/config"
	"github.com/sarchlab/frv/hart"
	"github.com/sarchlab/frv/loader"
	"github.com/sarchlab/frv/memory"
)

func writeProgram(dir string, words ...uint32) string {
	image := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(image[4*i:], w)
	}

	path := filepath.Join(dir, "prog.bin")
	Expect(os.WriteFile(path, image, 0o644)).To(Succeed())

	return path
}

var _ = Describe("Platform", func() {
	var (
		dir string
		out *bytes.Buffer
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
	})

	build := func(ramSize uint64) *config.Platform {
		return config.MakePlatformBuilder().
			WithEngine(sim.NewSerialEngine()).
			WithRAMSize(ramSize).
			WithConsole(strings.NewReader(""), out).
			Build("Platform")
	}

	It("should wire the hart to the RAM", func() {
		p := build(1 << 16)

		Expect(p.RAM.Size()).To(Equal(uint64(1 << 16)))
		Expect(p.Bus.RAM()).To(BeIdenticalTo(p.RAM))
		Expect(p.Hart.PC()).To(Equal(memory.Base))
		Expect(p.Hart.Reg(2)).To(Equal(memory.Base + 1<<16))
		Expect(p.Hart.Name()).To(Equal("Platform.Hart"))
	})

	It("should run a program to END", func() {
		p := build(1 << 16)
		path := writeProgram(dir,
			0x00500093, // addi x1, x0, 5
			0x00700113, // addi x2, x0, 7
			0x002081B3, // add x3, x1, x2
			0x00000513, // addi a0, x0, 0
			0x00018593, // addi a1, x3, 0
			0x00000073, // ecall
			0x00700513, // addi a0, x0, 7
			0x00000073, // ecall
		)

		n, err := p.LoadProgram(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(32))

		Expect(p.Run()).To(Succeed())
		Expect(out.String()).To(Equal("12\n"))
		Expect(p.Hart.Halted()).To(BeTrue())
		Expect(p.Hart.PC()).To(Equal(memory.Base + 32))
	})

	It("should stop with the fault that halted the hart", func() {
		p := build(1 << 16)
		path := writeProgram(dir, 0xFFFFFFFF)

		_, err := p.LoadProgram(path)
		Expect(err).NotTo(HaveOccurred())

		Expect(p.Run()).To(MatchError(hart.ErrUnknownInstruction))
	})

	It("should refuse a program that does not fit", func() {
		p := build(4)
		path := writeProgram(dir, 0x00000013, 0x00000013)

		_, err := p.LoadProgram(path)

		Expect(err).To(MatchError(loader.ErrProgramTooLarge))
	})

	It("should take the RAM size and frequency from a config", func() {
		c := config.DefaultConfig()
		c.RAMSizeMB = 2

		p := config.MakePlatformBuilder().
			WithConfig(c).
			WithConsole(strings.NewReader(""), out).
			Build("Platform")

		Expect(p.RAM.Size()).To(Equal(uint64(2 << 20)))
		Expect(p.Engine).NotTo(BeNil())
	})
})
