package hart

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/frv/memory"
)

// Builder can create new harts.
type Builder struct {
	engine  sim.Engine
	freq    sim.Freq
	bus     Bus
	env     EnvironmentCaller
	ramSize uint64
}

// MakeBuilder returns a builder with a 1 GHz clock.
func MakeBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the hart.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithBus sets the bus that serves fetches, loads and stores.
func (b Builder) WithBus(bus Bus) Builder {
	b.bus = bus
	return b
}

// WithEnvironment sets the handler of environment calls.
func (b Builder) WithEnvironment(env EnvironmentCaller) Builder {
	b.env = env
	return b
}

// WithRAMSize sets the size of the RAM. The stack pointer starts at its end.
func (b Builder) WithRAMSize(size uint64) Builder {
	b.ramSize = size
	return b
}

// Build creates a hart.
func (b Builder) Build(name string) *Hart {
	if b.engine == nil {
		panic("hart needs an engine")
	}

	if b.bus == nil {
		panic("hart needs a bus")
	}

	if b.env == nil {
		panic("hart needs an environment")
	}

	h := &Hart{
		bus: b.bus,
		emu: newInstEmulator(b.bus, b.env),
	}

	h.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, h)
	h.state.PC = memory.Base
	h.state.Regs[2] = memory.Base + b.ramSize

	return h
}
