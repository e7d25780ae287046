package config

import (
	"io"
	"os"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/frv/bus"
	"github.com/sarchlab/frv/ecall"
	"github.com/sarchlab/frv/hart"
	"github.com/sarchlab/frv/loader"
	"github.com/sarchlab/frv/memory"
)

// PlatformBuilder can build platforms.
type PlatformBuilder struct {
	engine  sim.Engine
	freq    sim.Freq
	ramSize uint64
	in      io.Reader
	out     io.Writer
	monitor *monitoring.Monitor
}

// MakePlatformBuilder returns a builder for the default configuration wired to
// the process console.
func MakePlatformBuilder() PlatformBuilder {
	c := DefaultConfig()

	return PlatformBuilder{
		freq:    sim.Freq(c.FreqMHz) * sim.MHz,
		ramSize: c.RAMSize(),
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// WithEngine sets the engine that drives the simulation.
func (b PlatformBuilder) WithEngine(engine sim.Engine) PlatformBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the hart.
func (b PlatformBuilder) WithFreq(freq sim.Freq) PlatformBuilder {
	b.freq = freq
	return b
}

// WithRAMSize sets the RAM size in bytes.
func (b PlatformBuilder) WithRAMSize(size uint64) PlatformBuilder {
	if size == 0 {
		panic("RAM size must be positive")
	}

	b.ramSize = size

	return b
}

// WithConsole sets where environment calls read and print.
func (b PlatformBuilder) WithConsole(in io.Reader, out io.Writer) PlatformBuilder {
	b.in = in
	b.out = out

	return b
}

// WithMonitor registers the engine and the hart with a monitor.
func (b PlatformBuilder) WithMonitor(monitor *monitoring.Monitor) PlatformBuilder {
	b.monitor = monitor
	return b
}

// WithConfig applies the RAM size and frequency of c.
func (b PlatformBuilder) WithConfig(c Config) PlatformBuilder {
	return b.
		WithRAMSize(c.RAMSize()).
		WithFreq(sim.Freq(c.FreqMHz) * sim.MHz)
}

// Build creates a platform. A serial engine is created when none is given.
func (b PlatformBuilder) Build(name string) *Platform {
	engine := b.engine
	if engine == nil {
		engine = sim.NewSerialEngine()
	}

	ram := memory.New(b.ramSize)
	sysBus := bus.New(ram)

	h := hart.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.freq).
		WithBus(sysBus).
		WithEnvironment(ecall.NewHandler(b.in, b.out)).
		WithRAMSize(b.ramSize).
		Build(name + ".Hart")

	if b.monitor != nil {
		b.monitor.RegisterEngine(engine)
		b.monitor.RegisterComponent(h)
	}

	return &Platform{
		Engine: engine,
		RAM:    ram,
		Bus:    sysBus,
		Hart:   h,
	}
}

// Platform is a hart with its RAM and bus.
type Platform struct {
	Engine sim.Engine
	RAM    *memory.Memory
	Bus    *bus.Bus
	Hart   *hart.Hart
}

// LoadProgram copies the raw binary at path to the base of the RAM.
func (p *Platform) LoadProgram(path string) (int, error) {
	return loader.LoadFile(path, p.RAM)
}

// Run runs the hart until it halts.
func (p *Platform) Run() error {
	return p.Hart.Run()
}
