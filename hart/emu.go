package hart

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/frv/ecall"
	"github.com/sarchlab/frv/memory"
)

type hartState struct {
	PC     uint64
	Regs   [32]uint64
	CSRs   [numCSRs]uint64
	halted bool
}

// Reg returns general register index. It lets the state serve as the
// register view of an environment call.
func (s *hartState) Reg(index int) uint64 {
	return s.Regs[index]
}

func (s *hartState) setReg(index int, value uint64) {
	if index == 0 {
		return
	}

	s.Regs[index] = value
}

type instHandler func(i inst, s *hartState) error

type instEmulator struct {
	bus      Bus
	env      EnvironmentCaller
	handlers map[Op]instHandler
}

func newInstEmulator(bus Bus, env EnvironmentCaller) *instEmulator {
	e := &instEmulator{
		bus: bus,
		env: env,
	}

	e.handlers = map[Op]instHandler{
		OpADD:  regReg(func(a, b uint64) uint64 { return a + b }),
		OpSUB:  regReg(func(a, b uint64) uint64 { return a - b }),
		OpSLL:  regReg(func(a, b uint64) uint64 { return a << (b & 63) }),
		OpSLT:  regReg(func(a, b uint64) uint64 { return boolToReg(int64(a) < int64(b)) }),
		OpSLTU: regReg(func(a, b uint64) uint64 { return boolToReg(a < b) }),
		OpXOR:  regReg(func(a, b uint64) uint64 { return a ^ b }),
		OpSRL:  regReg(func(a, b uint64) uint64 { return a >> (b & 63) }),
		OpSRA:  regReg(func(a, b uint64) uint64 { return uint64(int64(a) >> (b & 63)) }),
		OpOR:   regReg(func(a, b uint64) uint64 { return a | b }),
		OpAND:  regReg(func(a, b uint64) uint64 { return a & b }),

		OpADDI:  regImm(func(a, imm uint64) uint64 { return a + imm }),
		OpSLTI:  regImm(func(a, imm uint64) uint64 { return boolToReg(int64(a) < int64(imm)) }),
		OpSLTIU: regImm(func(a, imm uint64) uint64 { return boolToReg(a < imm) }),
		OpXORI:  regImm(func(a, imm uint64) uint64 { return a ^ imm }),
		OpORI:   regImm(func(a, imm uint64) uint64 { return a | imm }),
		OpANDI:  regImm(func(a, imm uint64) uint64 { return a & imm }),
		OpSLLI:  regImm(func(a, imm uint64) uint64 { return a << (imm & 63) }),
		OpSRLI:  regImm(func(a, imm uint64) uint64 { return a >> (imm & 63) }),
		OpSRAI:  regImm(func(a, imm uint64) uint64 { return uint64(int64(a) >> (imm & 63)) }),

		OpADDW: regReg(func(a, b uint64) uint64 { return sext32(uint32(a) + uint32(b)) }),
		OpSUBW: regReg(func(a, b uint64) uint64 { return sext32(uint32(a) - uint32(b)) }),
		OpSLLW: regReg(func(a, b uint64) uint64 { return sext32(uint32(a) << (b & 31)) }),
		OpSRLW: regReg(func(a, b uint64) uint64 { return sext32(uint32(a) >> (b & 31)) }),
		OpSRAW: regReg(func(a, b uint64) uint64 { return sext32(uint32(int32(a) >> (b & 31))) }),

		OpADDIW: regImm(func(a, imm uint64) uint64 { return sext32(uint32(a) + uint32(imm)) }),
		OpSLLIW: regImm(func(a, imm uint64) uint64 { return sext32(uint32(a) << (imm & 31)) }),
		OpSRLIW: regImm(func(a, imm uint64) uint64 { return sext32(uint32(a) >> (imm & 31)) }),
		OpSRAIW: regImm(func(a, imm uint64) uint64 { return sext32(uint32(int32(a) >> (imm & 31))) }),

		OpLB:  e.load(1, sext8),
		OpLH:  e.load(2, sext16),
		OpLW:  e.load(4, func(v uint64) uint64 { return sext32(uint32(v)) }),
		OpLD:  e.load(8, nil),
		OpLBU: e.load(1, nil),
		OpLHU: e.load(2, nil),
		OpLWU: e.load(4, nil),

		OpSB: e.store(1),
		OpSH: e.store(2),
		OpSW: e.store(4),
		OpSD: e.store(8),

		OpLUI:   e.runLUI,
		OpAUIPC: e.runAUIPC,
		OpJAL:   e.runJAL,
		OpJALR:  e.runJALR,

		OpBEQ:  branch(func(a, b uint64) bool { return a == b }),
		OpBNE:  branch(func(a, b uint64) bool { return a != b }),
		OpBLT:  branch(func(a, b uint64) bool { return int64(a) < int64(b) }),
		OpBGE:  branch(func(a, b uint64) bool { return int64(a) >= int64(b) }),
		OpBLTU: branch(func(a, b uint64) bool { return a < b }),
		OpBGEU: branch(func(a, b uint64) bool { return a >= b }),

		OpCSRRW:  csrOp(false, func(_, src uint64) uint64 { return src }),
		OpCSRRS:  csrOp(false, func(old, src uint64) uint64 { return old | src }),
		OpCSRRC:  csrOp(false, func(old, src uint64) uint64 { return old &^ src }),
		OpCSRRWI: csrOp(true, func(_, src uint64) uint64 { return src }),
		OpCSRRSI: csrOp(true, func(old, src uint64) uint64 { return old | src }),
		OpCSRRCI: csrOp(true, func(old, src uint64) uint64 { return old &^ src }),

		OpECALL: e.runECALL,

		OpMUL:    regReg(func(a, b uint64) uint64 { return a * b }),
		OpMULH:   regReg(mulh),
		OpMULHSU: regReg(mulhsu),
		OpMULHU:  regReg(mulhu),
		OpMULW:   regReg(func(a, b uint64) uint64 { return sext32(uint32(a) * uint32(b)) }),
		OpDIV:    regReg(div),
		OpDIVU:   regReg(divu),
		OpDIVW:   regReg(divw),
		OpDIVUW:  regReg(divuw),
		OpREM:    regReg(rem),
		OpREMU:   regReg(remu),
		OpREMW:   regReg(remw),
		OpREMUW:  regReg(remuw),

		OpFENCE:  func(inst, *hartState) error { return nil },
		OpFENCEI: func(inst, *hartState) error { return nil },
	}

	return e
}

// RunInst executes one instruction word. The PC in s already points past the
// instruction.
func (e *instEmulator) RunInst(word uint32, s *hartState) (Op, error) {
	op := Decode(word)

	handler, ok := e.handlers[op]
	if !ok {
		return op, fmt.Errorf("0x%08x: %w", word, ErrUnknownInstruction)
	}

	if err := handler(inst(word), s); err != nil {
		return op, fmt.Errorf("%s: %w", op, err)
	}

	return op, nil
}

func regReg(f func(a, b uint64) uint64) instHandler {
	return func(i inst, s *hartState) error {
		s.setReg(i.rd(), f(s.Regs[i.rs1()], s.Regs[i.rs2()]))
		return nil
	}
}

func regImm(f func(a, imm uint64) uint64) instHandler {
	return func(i inst, s *hartState) error {
		s.setReg(i.rd(), f(s.Regs[i.rs1()], i.immI()))
		return nil
	}
}

func branch(taken func(a, b uint64) bool) instHandler {
	return func(i inst, s *hartState) error {
		if taken(s.Regs[i.rs1()], s.Regs[i.rs2()]) {
			s.PC = s.PC - memory.InstSize + i.immB()
		}

		return nil
	}
}

// csrOp builds a CSR read-modify-write. The immediate forms take the rs1
// field as a zero-extended 5-bit value.
func csrOp(imm bool, update func(old, src uint64) uint64) instHandler {
	return func(i inst, s *hartState) error {
		src := uint64(i.rs1())
		if !imm {
			src = s.Regs[i.rs1()]
		}

		addr := i.funct12()
		old := s.readCSR(addr)
		s.writeCSR(addr, update(old, src))
		s.setReg(i.rd(), old)

		return nil
	}
}

func (e *instEmulator) load(width uint64, extend func(uint64) uint64) instHandler {
	return func(i inst, s *hartState) error {
		addr := s.Regs[i.rs1()] + i.immI()

		v, err := e.bus.Load(addr, width)
		if err != nil {
			return err
		}

		if extend != nil {
			v = extend(v)
		}

		s.setReg(i.rd(), v)

		return nil
	}
}

func (e *instEmulator) store(width uint64) instHandler {
	return func(i inst, s *hartState) error {
		addr := s.Regs[i.rs1()] + i.immS()
		return e.bus.Store(addr, width, s.Regs[i.rs2()])
	}
}

func (e *instEmulator) runLUI(i inst, s *hartState) error {
	s.setReg(i.rd(), i.immU())
	return nil
}

func (e *instEmulator) runAUIPC(i inst, s *hartState) error {
	s.setReg(i.rd(), s.PC-memory.InstSize+i.immU())
	return nil
}

func (e *instEmulator) runJAL(i inst, s *hartState) error {
	s.setReg(i.rd(), s.PC)
	s.PC = s.PC - memory.InstSize + i.immJ()

	return nil
}

func (e *instEmulator) runJALR(i inst, s *hartState) error {
	target := (s.Regs[i.rs1()] + i.immI()) &^ 1
	s.setReg(i.rd(), s.PC)
	s.PC = target

	return nil
}

func (e *instEmulator) runECALL(_ inst, s *hartState) error {
	outcome, err := e.env.Execute(s, e.bus)
	if err != nil {
		return err
	}

	if outcome == ecall.Terminate {
		s.halted = true
	}

	return nil
}

func boolToReg(b bool) uint64 {
	if b {
		return 1
	}

	return 0
}

func sext8(v uint64) uint64  { return uint64(int64(int8(v))) }
func sext16(v uint64) uint64 { return uint64(int64(int16(v))) }
func sext32(v uint32) uint64 { return uint64(int64(int32(v))) }

func mulhu(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	return hi
}

// mulh corrects the unsigned high word for each negative operand.
func mulh(a, b uint64) uint64 {
	hi := mulhu(a, b)

	if int64(a) < 0 {
		hi -= b
	}

	if int64(b) < 0 {
		hi -= a
	}

	return hi
}

func mulhsu(a, b uint64) uint64 {
	hi := mulhu(a, b)

	if int64(a) < 0 {
		hi -= b
	}

	return hi
}

// Division never traps. Go already defines MinInt / -1 as MinInt with a zero
// remainder, so only the zero divisor needs a case.

func div(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}

	return uint64(int64(a) / int64(b))
}

func divu(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}

	return a / b
}

func rem(a, b uint64) uint64 {
	if b == 0 {
		return a
	}

	return uint64(int64(a) % int64(b))
}

func remu(a, b uint64) uint64 {
	if b == 0 {
		return a
	}

	return a % b
}

func divw(a, b uint64) uint64 {
	if uint32(b) == 0 {
		return ^uint64(0)
	}

	return sext32(uint32(int32(a) / int32(b)))
}

func divuw(a, b uint64) uint64 {
	if uint32(b) == 0 {
		return ^uint64(0)
	}

	return sext32(uint32(a) / uint32(b))
}

func remw(a, b uint64) uint64 {
	if uint32(b) == 0 {
		return sext32(uint32(a))
	}

	return sext32(uint32(int32(a) % int32(b)))
}

func remuw(a, b uint64) uint64 {
	if uint32(b) == 0 {
		return sext32(uint32(a))
	}

	return sext32(uint32(a) % uint32(b))
}
