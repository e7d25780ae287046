// Package memory provides the RAM device that backs the hart's address space.
package memory

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// Base is the address at which byte 0 of the RAM appears to the hart.
const Base uint64 = 0x8000_0000

// InstSize is the number of bytes in one instruction word.
const InstSize = 4

var (
	// ErrOutOfRange is returned when an access runs past the end of the RAM.
	ErrOutOfRange = errors.New("out-of-range address")

	// ErrInvalidWidth is returned for access widths other than 1, 2, 4 or 8.
	ErrInvalidWidth = errors.New("invalid access width")
)

// Memory is a fixed-size, little-endian RAM.
type Memory struct {
	size    uint64
	storage *mem.Storage
}

// New allocates a RAM of size bytes.
func New(size uint64) *Memory {
	if size == 0 {
		panic("memory size must be positive")
	}

	return &Memory{
		size:    size,
		storage: mem.NewStorage(size),
	}
}

// Size returns the capacity of the RAM in bytes.
func (m *Memory) Size() uint64 {
	return m.size
}

// Load reads width bytes at the flat address addr and returns them
// zero-extended.
func (m *Memory) Load(addr, width uint64) (uint64, error) {
	if !validWidth(width) {
		return 0, fmt.Errorf("load %d bytes at 0x%x: %w", width, addr, ErrInvalidWidth)
	}

	offset, err := m.translate(addr, width)
	if err != nil {
		return 0, fmt.Errorf("load %d bytes: %w", width, err)
	}

	data, err := m.storage.Read(offset, width)
	if err != nil {
		return 0, fmt.Errorf("load %d bytes at 0x%x: %w", width, addr, err)
	}

	var buf [8]byte
	copy(buf[:], data)

	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Store writes the low width bytes of value at the flat address addr. Nothing
// is written when the access is rejected.
func (m *Memory) Store(addr, width, value uint64) error {
	if !validWidth(width) {
		return fmt.Errorf("store %d bytes at 0x%x: %w", width, addr, ErrInvalidWidth)
	}

	offset, err := m.translate(addr, width)
	if err != nil {
		return fmt.Errorf("store %d bytes: %w", width, err)
	}

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)

	if err := m.storage.Write(offset, buf[:width]); err != nil {
		return fmt.Errorf("store %d bytes at 0x%x: %w", width, addr, err)
	}

	return nil
}

// LoadInstruction fetches the 32-bit instruction word at the flat address
// addr.
func (m *Memory) LoadInstruction(addr uint64) (uint32, error) {
	offset, err := m.translate(addr, InstSize)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}

	data, err := m.storage.Read(offset, InstSize)
	if err != nil {
		return 0, fmt.Errorf("fetch at 0x%x: %w", addr, err)
	}

	return binary.LittleEndian.Uint32(data), nil
}

// LoadImage copies a program image to the start of the RAM.
func (m *Memory) LoadImage(image []byte) error {
	if uint64(len(image)) > m.size {
		return fmt.Errorf("image of %d bytes in %d bytes of RAM: %w",
			len(image), m.size, ErrOutOfRange)
	}

	if len(image) == 0 {
		return nil
	}

	return m.storage.Write(0, image)
}

// translate turns a flat address into a RAM offset, checking that width bytes
// are available there. Addresses below Base wrap to huge offsets and fail the
// same check.
func (m *Memory) translate(addr, width uint64) (uint64, error) {
	offset := addr - Base
	if offset >= m.size || width > m.size-offset {
		return 0, fmt.Errorf("0x%x: %w", addr, ErrOutOfRange)
	}

	return offset, nil
}

func validWidth(width uint64) bool {
	switch width {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}
