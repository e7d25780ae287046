// Package loader places program images in RAM.
package loader

import (
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/frv/memory"
)

// ErrProgramTooLarge is returned when an image does not fit in the RAM.
var ErrProgramTooLarge = errors.New("program too large")

// LoadFile copies the raw binary at path to the start of ram and returns the
// number of bytes loaded.
func LoadFile(path string, ram *memory.Memory) (int, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read program: %w", err)
	}

	if uint64(len(image)) > ram.Size() {
		return 0, fmt.Errorf("%s is %d bytes, RAM is %d: %w",
			path, len(image), ram.Size(), ErrProgramTooLarge)
	}

	if err := ram.LoadImage(image); err != nil {
		return 0, fmt.Errorf("load %s: %w", path, err)
	}

	return len(image), nil
}
