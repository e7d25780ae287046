package main

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/frv/config"
)

var _ = Describe("loadConfig", func() {
	var dir string

	writeConfig := func(text string) string {
		path := filepath.Join(dir, "frv.yaml")
		Expect(os.WriteFile(path, []byte(text), 0o644)).To(Succeed())

		return path
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should use the defaults without a config file", func() {
		c, err := loadConfig("", false, "", []string{"prog.bin"})

		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(config.DefaultConfig()))
	})

	It("should let flags override the config file", func() {
		path := writeConfig("ram_size_mb: 8\nlog_file: file.log\n")

		c, err := loadConfig(path, true, "flag.log", []string{"prog.bin"})

		Expect(err).NotTo(HaveOccurred())
		Expect(c.RAMSizeMB).To(Equal(uint64(8)))
		Expect(c.Trace).To(BeTrue())
		Expect(c.LogFile).To(Equal("flag.log"))
	})

	It("should keep the config file when flags are unset", func() {
		path := writeConfig("trace: true\nlog_file: file.log\n")

		c, err := loadConfig(path, false, "", []string{"prog.bin"})

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Trace).To(BeTrue())
		Expect(c.LogFile).To(Equal("file.log"))
	})

	It("should let the positional size override the config file", func() {
		path := writeConfig("ram_size_mb: 8\n")

		c, err := loadConfig(path, false, "", []string{"prog.bin", "64"})

		Expect(err).NotTo(HaveOccurred())
		Expect(c.RAMSizeMB).To(Equal(uint64(64)))
		Expect(c.RAMSize()).To(Equal(uint64(64 << 20)))
	})

	DescribeTable("should reject an invalid RAM size",
		func(size string) {
			_, err := loadConfig("", false, "", []string{"prog.bin", size})

			Expect(err).To(MatchError(ContainSubstring("invalid RAM size")))
		},
		Entry("zero", "0"),
		Entry("negative", "-4"),
		Entry("not a number", "lots"),
		Entry("past the address space", "17592186044416"),
		Entry("past uint64", "18446744073709551616"),
	)

	It("should fail on a missing config file", func() {
		_, err := loadConfig(filepath.Join(dir, "missing.yaml"), false, "",
			[]string{"prog.bin"})

		Expect(err).To(MatchError(os.ErrNotExist))
	})
})
