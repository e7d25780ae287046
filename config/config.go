// Package config assembles a simulated platform from a configuration.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/frv/memory"
)

// MaxRAMSizeMB is the largest RAM whose last byte is still addressable above
// memory.Base.
const MaxRAMSizeMB = (math.MaxUint64 - memory.Base) >> 20

// Config describes a platform.
type Config struct {
	RAMSizeMB uint64 `yaml:"ram_size_mb"`
	FreqMHz   uint64 `yaml:"freq_mhz"`
	Trace     bool   `yaml:"trace"`
	LogFile   string `yaml:"log_file"`
}

// DefaultConfig returns 32 MiB of RAM and a 1 GHz hart.
func DefaultConfig() Config {
	return Config{
		RAMSizeMB: 32,
		FreqMHz:   1000,
	}
}

// RAMSize returns the RAM size in bytes.
func (c Config) RAMSize() uint64 {
	return c.RAMSizeMB << 20
}

// LoadFile reads a YAML configuration. Keys missing from the file keep their
// default values.
func LoadFile(path string) (Config, error) {
	c := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}

	return c, nil
}

// Validate checks that the RAM size and the frequency are usable.
func (c Config) Validate() error {
	switch {
	case c.RAMSizeMB == 0:
		return fmt.Errorf("ram_size_mb must be positive")
	case c.RAMSizeMB > MaxRAMSizeMB:
		return fmt.Errorf("ram_size_mb %d exceeds %d", c.RAMSizeMB, MaxRAMSizeMB)
	case c.FreqMHz == 0:
		return fmt.Errorf("freq_mhz must be positive")
	}

	return nil
}
