// Package ecall services the environment calls a program makes with ECALL.
package ecall

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Code selects the service requested by an ECALL. It is passed in a0.
type Code uint64

// The recognized environment calls.
const (
	PrintD Code = 0 // print a1 as a signed decimal
	PrintS Code = 1 // print the string at a1
	PrintC Code = 2 // print a1 as a character
	PrintX Code = 3 // print a1 as unsigned hex
	ScanS  Code = 5 // read a line into the buffer at a1 of a2 bytes
	End    Code = 7 // terminate the program
)

// ABI register indices.
const (
	RegA0 = 10
	RegA1 = 11
	RegA2 = 12
)

// Name returns the name of the call.
func (c Code) Name() string {
	switch c {
	case PrintD:
		return "PRINT_D"
	case PrintS:
		return "PRINT_S"
	case PrintC:
		return "PRINT_C"
	case PrintX:
		return "PRINT_X"
	case ScanS:
		return "SCAN_S"
	case End:
		return "END"
	default:
		return fmt.Sprintf("ECALL(%d)", uint64(c))
	}
}

// ErrInvalidEnvironmentCall is returned for a0 values that name no call.
var ErrInvalidEnvironmentCall = errors.New("invalid environment call")

// Outcome tells the hart whether to keep running after a call.
type Outcome int

const (
	Continue Outcome = iota
	Terminate
)

// Registers gives read access to the caller's general registers.
type Registers interface {
	Reg(index int) uint64
}

// Bus is the part of the memory system the calls need.
type Bus interface {
	Load(addr, width uint64) (uint64, error)
	Store(addr, width, value uint64) error
}

// Handler performs environment calls against a console.
type Handler struct {
	in  *bufio.Reader
	out io.Writer
}

// NewHandler creates a handler reading from in and printing to out.
func NewHandler(in io.Reader, out io.Writer) *Handler {
	return &Handler{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Execute services the call described by regs.
func (h *Handler) Execute(regs Registers, b Bus) (Outcome, error) {
	code := Code(regs.Reg(RegA0))
	a1 := regs.Reg(RegA1)

	switch code {
	case PrintD:
		fmt.Fprintf(h.out, "%d\n", int64(a1))
	case PrintS:
		if err := h.printString(a1, b); err != nil {
			return Terminate, fmt.Errorf("%s: %w", code.Name(), err)
		}
	case PrintC:
		h.out.Write([]byte{byte(a1), '\n'})
	case PrintX:
		fmt.Fprintf(h.out, "0x%X\n", a1)
	case ScanS:
		if err := h.scanString(a1, regs.Reg(RegA2), b); err != nil {
			return Terminate, fmt.Errorf("%s: %w", code.Name(), err)
		}
	case End:
		return Terminate, nil
	default:
		return Terminate, fmt.Errorf("a0=%d: %w", uint64(code), ErrInvalidEnvironmentCall)
	}

	return Continue, nil
}

// printString prints bytes from addr up to the first zero byte. Whatever was
// read before a bus failure is still printed.
func (h *Handler) printString(addr uint64, b Bus) error {
	var s []byte

	for {
		c, err := b.Load(addr, 1)
		if err != nil {
			h.out.Write(s)
			return err
		}

		if c == 0 {
			break
		}

		s = append(s, byte(c))
		addr++
	}

	s = append(s, '\n')
	_, err := h.out.Write(s)

	return err
}

// scanString reads one line of input into the size-byte buffer at addr. At
// most size-1 bytes are stored, followed by a zero byte. The rest of the line
// is consumed and dropped. A zero size stores nothing.
func (h *Handler) scanString(addr, size uint64, b Bus) error {
	line, err := h.readLine()
	if err != nil {
		return err
	}

	if size == 0 {
		return nil
	}

	if uint64(len(line)) > size-1 {
		line = line[:size-1]
	}

	for i, c := range line {
		if err := b.Store(addr+uint64(i), 1, uint64(c)); err != nil {
			return err
		}
	}

	return b.Store(addr+uint64(len(line)), 1, 0)
}

// readLine returns the next input line without its terminator. End of input
// ends the line.
func (h *Handler) readLine() ([]byte, error) {
	line, err := h.in.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}

	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}

	return line, nil
}
