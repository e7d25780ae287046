// Package bus routes the hart's flat address space to its devices.
package bus

import (
	"errors"
	"fmt"

	"github.com/sarchlab/frv/memory"
)

// ErrIllegalAddress is returned for addresses that no device decodes.
var ErrIllegalAddress = errors.New("illegal access")

// Bus sits between the hart and the RAM. Only the RAM is attached today, so
// everything below memory.Base is unmapped.
type Bus struct {
	ram *memory.Memory
}

// New creates a bus in front of ram.
func New(ram *memory.Memory) *Bus {
	return &Bus{ram: ram}
}

// RAM returns the memory attached to the bus.
func (b *Bus) RAM() *memory.Memory {
	return b.ram
}

// Load reads width bytes at addr.
func (b *Bus) Load(addr, width uint64) (uint64, error) {
	if addr < memory.Base {
		return 0, fmt.Errorf("load at 0x%x: %w", addr, ErrIllegalAddress)
	}

	return b.ram.Load(addr, width)
}

// LoadInstruction fetches the instruction word at addr.
func (b *Bus) LoadInstruction(addr uint64) (uint32, error) {
	if addr < memory.Base {
		return 0, fmt.Errorf("fetch at 0x%x: %w", addr, ErrIllegalAddress)
	}

	return b.ram.LoadInstruction(addr)
}

// Store writes the low width bytes of value at addr.
func (b *Bus) Store(addr, width, value uint64) error {
	if addr < memory.Base {
		return fmt.Errorf("store at 0x%x: %w", addr, ErrIllegalAddress)
	}

	return b.ram.Store(addr, width, value)
}
