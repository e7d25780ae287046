package hart

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
)

// LevelTrace is the level of per-instruction records.
const LevelTrace slog.Level = slog.LevelInfo + 1

func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceEnabled tells whether the default logger keeps trace records.
func TraceEnabled() bool {
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var dumpedCSRs = []struct {
	name string
	addr uint32
}{
	{"mstatus", CSRMstatus},
	{"mtvec", CSRMtvec},
	{"mepc", CSRMepc},
	{"mcause", CSRMcause},
	{"sstatus", CSRSstatus},
	{"stvec", CSRStvec},
	{"sepc", CSRSepc},
	{"scause", CSRScause},
}

// PrintState writes the PC, the general registers and the trap CSRs of h.
func PrintState(w io.Writer, h *Hart) {
	regTable := table.NewWriter()
	regTable.SetTitle(fmt.Sprintf("%s @ PC 0x%016x", h.Name(), h.PC()))
	regTable.AppendHeader(table.Row{"Reg", "ABI", "Hex", "Dec"})

	for i := 0; i < 32; i++ {
		v := h.Reg(i)
		regTable.AppendRow(table.Row{
			fmt.Sprintf("x%d", i),
			abiNames[i],
			fmt.Sprintf("0x%016x", v),
			int64(v),
		})
	}

	fmt.Fprintln(w, regTable.Render())

	csrTable := table.NewWriter()
	csrTable.SetTitle("CSRs")
	csrTable.AppendHeader(table.Row{"CSR", "Addr", "Value"})

	for _, c := range dumpedCSRs {
		csrTable.AppendRow(table.Row{
			c.name,
			fmt.Sprintf("0x%03x", c.addr),
			fmt.Sprintf("0x%016x", h.CSR(c.addr)),
		})
	}

	fmt.Fprintln(w, csrTable.Render())
}
