package hart

import "fmt"

// Major opcodes of the supported instruction formats.
const (
	opLoad    = 0x03
	opMiscMem = 0x0F
	opOpImm   = 0x13
	opAuipc   = 0x17
	opOpImm32 = 0x1B
	opStore   = 0x23
	opOp      = 0x33
	opLui     = 0x37
	opOp32    = 0x3B
	opBranch  = 0x63
	opJalr    = 0x67
	opJal     = 0x6F
	opSystem  = 0x73
)

// InstUnknown is the instruction code of words that match no format.
const InstUnknown uint32 = 0xFFFFFFFF

// Op is a decoded operation.
type Op int

const (
	OpUnknown Op = iota

	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW

	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW

	OpLB
	OpLH
	OpLW
	OpLD
	OpLBU
	OpLHU
	OpLWU

	OpSB
	OpSH
	OpSW
	OpSD

	OpLUI
	OpAUIPC
	OpJAL
	OpJALR

	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI

	OpECALL

	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpMULW
	OpDIV
	OpDIVU
	OpDIVW
	OpDIVUW
	OpREM
	OpREMU
	OpREMW
	OpREMUW

	OpFENCE
	OpFENCEI

	numOps
)

var opNames = [numOps]string{
	OpUnknown: "UNKNOWN",
	OpADD:     "ADD",
	OpSUB:     "SUB",
	OpSLL:     "SLL",
	OpSLT:     "SLT",
	OpSLTU:    "SLTU",
	OpXOR:     "XOR",
	OpSRL:     "SRL",
	OpSRA:     "SRA",
	OpOR:      "OR",
	OpAND:     "AND",
	OpADDI:    "ADDI",
	OpSLTI:    "SLTI",
	OpSLTIU:   "SLTIU",
	OpXORI:    "XORI",
	OpORI:     "ORI",
	OpANDI:    "ANDI",
	OpSLLI:    "SLLI",
	OpSRLI:    "SRLI",
	OpSRAI:    "SRAI",
	OpADDW:    "ADDW",
	OpSUBW:    "SUBW",
	OpSLLW:    "SLLW",
	OpSRLW:    "SRLW",
	OpSRAW:    "SRAW",
	OpADDIW:   "ADDIW",
	OpSLLIW:   "SLLIW",
	OpSRLIW:   "SRLIW",
	OpSRAIW:   "SRAIW",
	OpLB:      "LB",
	OpLH:      "LH",
	OpLW:      "LW",
	OpLD:      "LD",
	OpLBU:     "LBU",
	OpLHU:     "LHU",
	OpLWU:     "LWU",
	OpSB:      "SB",
	OpSH:      "SH",
	OpSW:      "SW",
	OpSD:      "SD",
	OpLUI:     "LUI",
	OpAUIPC:   "AUIPC",
	OpJAL:     "JAL",
	OpJALR:    "JALR",
	OpBEQ:     "BEQ",
	OpBNE:     "BNE",
	OpBLT:     "BLT",
	OpBGE:     "BGE",
	OpBLTU:    "BLTU",
	OpBGEU:    "BGEU",
	OpCSRRW:   "CSRRW",
	OpCSRRS:   "CSRRS",
	OpCSRRC:   "CSRRC",
	OpCSRRWI:  "CSRRWI",
	OpCSRRSI:  "CSRRSI",
	OpCSRRCI:  "CSRRCI",
	OpECALL:   "ECALL",
	OpMUL:     "MUL",
	OpMULH:    "MULH",
	OpMULHSU:  "MULHSU",
	OpMULHU:   "MULHU",
	OpMULW:    "MULW",
	OpDIV:     "DIV",
	OpDIVU:    "DIVU",
	OpDIVW:    "DIVW",
	OpDIVUW:   "DIVUW",
	OpREM:     "REM",
	OpREMU:    "REMU",
	OpREMW:    "REMW",
	OpREMUW:   "REMUW",
	OpFENCE:   "FENCE",
	OpFENCEI:  "FENCE.I",
}

// String returns the assembler mnemonic.
func (o Op) String() string {
	if o < 0 || o >= numOps {
		return fmt.Sprintf("Op(%d)", int(o))
	}

	return opNames[o]
}

func key(opcode, funct3, funct uint32) uint32 {
	return funct<<10 | funct3<<7 | opcode
}

// opTable maps instruction codes to operations. It is never written after
// initialization.
var opTable = map[uint32]Op{
	key(opOp, 0, 0x00): OpADD,
	key(opOp, 0, 0x20): OpSUB,
	key(opOp, 1, 0x00): OpSLL,
	key(opOp, 2, 0x00): OpSLT,
	key(opOp, 3, 0x00): OpSLTU,
	key(opOp, 4, 0x00): OpXOR,
	key(opOp, 5, 0x00): OpSRL,
	key(opOp, 5, 0x20): OpSRA,
	key(opOp, 6, 0x00): OpOR,
	key(opOp, 7, 0x00): OpAND,

	key(opOp, 0, 0x01): OpMUL,
	key(opOp, 1, 0x01): OpMULH,
	key(opOp, 2, 0x01): OpMULHSU,
	key(opOp, 3, 0x01): OpMULHU,
	key(opOp, 4, 0x01): OpDIV,
	key(opOp, 5, 0x01): OpDIVU,
	key(opOp, 6, 0x01): OpREM,
	key(opOp, 7, 0x01): OpREMU,

	key(opOp32, 0, 0x00): OpADDW,
	key(opOp32, 0, 0x20): OpSUBW,
	key(opOp32, 1, 0x00): OpSLLW,
	key(opOp32, 5, 0x00): OpSRLW,
	key(opOp32, 5, 0x20): OpSRAW,
	key(opOp32, 0, 0x01): OpMULW,
	key(opOp32, 4, 0x01): OpDIVW,
	key(opOp32, 5, 0x01): OpDIVUW,
	key(opOp32, 6, 0x01): OpREMW,
	key(opOp32, 7, 0x01): OpREMUW,

	key(opOpImm, 0, 0):    OpADDI,
	key(opOpImm, 2, 0):    OpSLTI,
	key(opOpImm, 3, 0):    OpSLTIU,
	key(opOpImm, 4, 0):    OpXORI,
	key(opOpImm, 6, 0):    OpORI,
	key(opOpImm, 7, 0):    OpANDI,
	key(opOpImm, 1, 0x00): OpSLLI,
	key(opOpImm, 5, 0x00): OpSRLI,
	key(opOpImm, 5, 0x10): OpSRAI,

	key(opOpImm32, 0, 0):    OpADDIW,
	key(opOpImm32, 1, 0x00): OpSLLIW,
	key(opOpImm32, 5, 0x00): OpSRLIW,
	key(opOpImm32, 5, 0x20): OpSRAIW,

	key(opLoad, 0, 0): OpLB,
	key(opLoad, 1, 0): OpLH,
	key(opLoad, 2, 0): OpLW,
	key(opLoad, 3, 0): OpLD,
	key(opLoad, 4, 0): OpLBU,
	key(opLoad, 5, 0): OpLHU,
	key(opLoad, 6, 0): OpLWU,

	key(opStore, 0, 0): OpSB,
	key(opStore, 1, 0): OpSH,
	key(opStore, 2, 0): OpSW,
	key(opStore, 3, 0): OpSD,

	key(opLui, 0, 0):   OpLUI,
	key(opAuipc, 0, 0): OpAUIPC,
	key(opJal, 0, 0):   OpJAL,
	key(opJalr, 0, 0):  OpJALR,

	key(opBranch, 0, 0): OpBEQ,
	key(opBranch, 1, 0): OpBNE,
	key(opBranch, 4, 0): OpBLT,
	key(opBranch, 5, 0): OpBGE,
	key(opBranch, 6, 0): OpBLTU,
	key(opBranch, 7, 0): OpBGEU,

	key(opSystem, 0, 0): OpECALL,
	key(opSystem, 1, 0): OpCSRRW,
	key(opSystem, 2, 0): OpCSRRS,
	key(opSystem, 3, 0): OpCSRRC,
	key(opSystem, 5, 0): OpCSRRWI,
	key(opSystem, 6, 0): OpCSRRSI,
	key(opSystem, 7, 0): OpCSRRCI,

	key(opMiscMem, 0, 0): OpFENCE,
	key(opMiscMem, 1, 0): OpFENCEI,
}

// inst is a raw 32-bit instruction word.
type inst uint32

func (i inst) opcode() uint32  { return uint32(i) & 0x7F }
func (i inst) rd() int         { return int(i>>7) & 0x1F }
func (i inst) funct3() uint32  { return uint32(i>>12) & 0x7 }
func (i inst) rs1() int        { return int(i>>15) & 0x1F }
func (i inst) rs2() int        { return int(i>>20) & 0x1F }
func (i inst) funct6() uint32  { return uint32(i >> 26) }
func (i inst) funct7() uint32  { return uint32(i >> 25) }
func (i inst) funct12() uint32 { return uint32(i >> 20) }

func (i inst) immI() uint64 {
	return uint64(int64(int32(i) >> 20))
}

func (i inst) immS() uint64 {
	v := int32(i)>>25<<5 | int32(i>>7)&0x1F
	return uint64(int64(v))
}

func (i inst) immB() uint64 {
	v := int32(i)>>31<<12 |
		int32(i>>7)&0x1<<11 |
		int32(i>>25)&0x3F<<5 |
		int32(i>>8)&0xF<<1

	return uint64(int64(v))
}

func (i inst) immU() uint64 {
	return uint64(int64(int32(i) &^ 0xFFF))
}

func (i inst) immJ() uint64 {
	v := int32(i)>>31<<20 |
		int32(i>>12)&0xFF<<12 |
		int32(i>>20)&0x1<<11 |
		int32(i>>21)&0x3FF<<1

	return uint64(int64(v))
}

// code computes the table key of the instruction. The function field that
// takes part in the key depends on the format.
func (i inst) code() uint32 {
	opcode := i.opcode()
	funct3 := i.funct3()

	switch opcode {
	case opOp, opOp32:
		return key(opcode, funct3, i.funct7())
	case opOpImm:
		if funct3 == 1 || funct3 == 5 {
			return key(opcode, funct3, i.funct6())
		}

		return key(opcode, funct3, 0)
	case opOpImm32:
		if funct3 == 1 || funct3 == 5 {
			return key(opcode, funct3, i.funct7())
		}

		return key(opcode, funct3, 0)
	case opLoad, opStore, opBranch, opJalr, opMiscMem:
		return key(opcode, funct3, 0)
	case opSystem:
		if funct3 == 0 {
			return key(opcode, 0, i.funct12())
		}

		return key(opcode, funct3, 0)
	case opLui, opAuipc, opJal:
		return opcode
	default:
		return InstUnknown
	}
}

// Decode classifies an instruction word.
func Decode(word uint32) Op {
	if op, ok := opTable[inst(word).code()]; ok {
		return op
	}

	return OpUnknown
}
