// Package hart implements a single RV64IM hardware thread with a CSR file.
package hart

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/frv/ecall"
)

var (
	// ErrUnknownInstruction is returned for words that decode to no
	// supported operation.
	ErrUnknownInstruction = errors.New("unknown instruction")

	// ErrNullJump is returned when control reaches address 0.
	ErrNullJump = errors.New("jump to address 0")
)

// Bus is the memory system seen by the hart.
type Bus interface {
	Load(addr, width uint64) (uint64, error)
	LoadInstruction(addr uint64) (uint32, error)
	Store(addr, width, value uint64) error
}

// EnvironmentCaller services ECALL instructions.
type EnvironmentCaller interface {
	Execute(regs ecall.Registers, b ecall.Bus) (ecall.Outcome, error)
}

// Hart fetches, decodes and executes one instruction per tick until it halts.
type Hart struct {
	*sim.TickingComponent

	bus   Bus
	state hartState
	emu   *instEmulator
	err   error
}

// Tick runs one instruction.
func (h *Hart) Tick() (madeProgress bool) {
	return h.Step()
}

// Run schedules the hart and runs the engine until the hart halts. It returns
// the reason for the halt, which is nil when the program ended normally.
func (h *Hart) Run() error {
	if h.state.halted {
		return h.err
	}

	h.TickNow()

	if err := h.Engine.Run(); err != nil {
		return err
	}

	return h.err
}

// Step executes a single instruction and reports whether the hart is still
// running afterwards.
func (h *Hart) Step() bool {
	if h.state.halted {
		return false
	}

	pc := h.state.PC

	word, err := h.bus.LoadInstruction(pc)
	if err != nil {
		h.halt(fmt.Errorf("fetch fault at 0x%x: %w", pc, err))
		return false
	}

	h.state.PC += 4
	h.state.Regs[0] = 0

	op, err := h.emu.RunInst(word, &h.state)

	if TraceEnabled() {
		Trace("Inst",
			"Time", float64(h.Engine.CurrentTime()*1e9),
			"PC", fmt.Sprintf("0x%x", pc),
			"Inst", fmt.Sprintf("0x%08x", word),
			"Op", op.String(),
		)
	}

	switch {
	case err != nil:
		h.halt(fmt.Errorf("pc 0x%x: %w", pc, err))
	case h.state.halted:
		h.halt(nil)
	case h.state.PC == 0:
		h.halt(fmt.Errorf("pc 0x%x: %w", pc, ErrNullJump))
	}

	return !h.state.halted
}

func (h *Hart) halt(err error) {
	h.state.halted = true
	h.err = err

	Trace("Halt",
		"Time", float64(h.Engine.CurrentTime()*1e9),
		"PC", fmt.Sprintf("0x%x", h.state.PC),
		"Error", err,
	)
}

// PC returns the address of the next instruction to fetch.
func (h *Hart) PC() uint64 {
	return h.state.PC
}

// SetPC moves the hart to addr.
func (h *Hart) SetPC(addr uint64) {
	h.state.PC = addr
}

// Reg returns general register i.
func (h *Hart) Reg(i int) uint64 {
	return h.state.Regs[i]
}

// SetReg sets general register i. Writes to x0 are dropped.
func (h *Hart) SetReg(i int, value uint64) {
	h.state.setReg(i, value)
}

// CSR returns the CSR at addr.
func (h *Hart) CSR(addr uint32) uint64 {
	return h.state.readCSR(addr)
}

// SetCSR sets the CSR at addr.
func (h *Hart) SetCSR(addr uint32, value uint64) {
	h.state.writeCSR(addr, value)
}

// Halted tells whether the hart has stopped.
func (h *Hart) Halted() bool {
	return h.state.halted
}

// Err returns the reason the hart halted, or nil.
func (h *Hart) Err() error {
	return h.err
}
