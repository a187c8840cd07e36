// Package bus wires the CPU, PPU, APU, cartridge, and input ports together
// and implements the NES driver: the cycle/instruction/frame clocking loop
// that keeps them in sync.
package bus

import (
	"fmt"

	"github.com/golang/glog"

	"nescore/internal/apu"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/input"
	"nescore/internal/memory"
	"nescore/internal/ppu"
)

// Driver owns every NES component and mediates access between them so that
// no two components hold a direct, mutually-owning reference to each other.
type Driver struct {
	cart *cartridge.Cartridge

	cpuBus *memory.CPUBus
	ppuBus *memory.PPUBus

	CPU   *cpu.CPU
	PPU   *ppu.PPU
	APU   *apu.APU
	Input *input.InputState

	tick uint64 // PPU-dot counter; CPU clocks on every third tick

	dmaStallCycles int
	dmaInProgress  bool
}

// New creates a driver with no cartridge loaded. LoadCartridge must be
// called before clocking it.
func New() *Driver {
	d := &Driver{
		PPU:   ppu.New(),
		APU:   apu.New(),
		Input: input.NewInputState(),
	}
	return d
}

// LoadCartridge installs cart and (re)builds the buses and CPU bound to it,
// then runs power-on and reset.
func (d *Driver) LoadCartridge(cart *cartridge.Cartridge) {
	d.cart = cart

	d.cpuBus = memory.NewCPUBus(d.PPU, d.APU, cart)
	d.cpuBus.SetInput(d.Input)
	d.cpuBus.SetDMAHook(d.startOAMDMA)

	d.ppuBus = memory.NewPPUBus(cart)
	d.PPU.SetBus(d.ppuBus)
	d.PPU.SetNMICallback(d.CPU_RequestNMI)

	d.CPU = cpu.New(d.cpuBus)
	d.CPU.PowerOn()
	d.CPU.Reset()
	d.PPU.Reset()
	d.APU.Reset()
	d.Input.Reset()

	d.tick = 0
	d.dmaStallCycles = 0
	d.dmaInProgress = false

	glog.Infof("bus: cartridge loaded, entry point $%04X", d.CPU.PC)
}

// CPU_RequestNMI is the PPU's NMI callback; exported under this name so it
// reads clearly at the call site in LoadCartridge.
func (d *Driver) CPU_RequestNMI() {
	if d.CPU != nil {
		d.CPU.RequestNMI()
	}
}

// startOAMDMA performs the 256-byte OAM copy and arms the CPU stall that
// accompanies it: 513 cycles, or 514 if DMA starts on an odd CPU cycle.
func (d *Driver) startOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		d.PPU.WriteOAM(uint8(i), d.cpuBus.Read(base+i))
	}

	cpuCycle := d.tick / 3
	stall := 513
	if cpuCycle%2 == 1 {
		stall = 514
	}
	d.dmaStallCycles = stall
	d.dmaInProgress = true
}

// Cycle advances the system by one PPU dot. The PPU clocks every tick; the
// CPU clocks every third tick, unless it is stalled for OAM DMA. Reports the
// CPU's signal for this tick (MidInstruction on ticks the CPU didn't clock).
func (d *Driver) Cycle() cpu.Signal {
	d.PPU.Clock()
	d.tick++

	if d.tick%3 != 0 {
		return cpu.MidInstruction
	}

	if d.dmaStallCycles > 0 {
		d.dmaStallCycles--
		if d.dmaStallCycles == 0 {
			d.dmaInProgress = false
		}
		return cpu.MidInstruction
	}

	return d.CPU.Clock()
}

// Instruction clocks the system until the CPU reports an instruction
// boundary.
func (d *Driver) Instruction() {
	for d.Cycle() != cpu.InstructionComplete {
	}
}

// Frame clocks the system through one full frame: from the current point up
// to and including the pre-render scanline's first dot of the next frame.
func (d *Driver) Frame() {
	startFrame := d.PPU.GetFrameCount()
	for d.PPU.GetFrameCount() == startFrame {
		d.Cycle()
	}
}

// IsDMAInProgress reports whether an OAM DMA stall is currently in effect.
func (d *Driver) IsDMAInProgress() bool { return d.dmaInProgress }

// GetFrameBuffer returns the current RGB frame buffer as a flat slice.
func (d *Driver) GetFrameBuffer() []uint32 {
	fb := d.PPU.GetFrameBuffer()
	return fb[:]
}

// SetControllerButtons sets a full button snapshot for controller 1 or 2
// (1-indexed, matching standard NES port numbering).
func (d *Driver) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 1:
		d.Input.SetButtons1(buttons)
	case 2:
		d.Input.SetButtons2(buttons)
	default:
		glog.Warningf("bus: ignoring button update for unknown controller %d", controller)
	}
}

// SetControllerButton sets or clears a single button on controller 1 or 2,
// leaving the rest of that controller's held buttons untouched.
func (d *Driver) SetControllerButton(controller int, button input.Button, pressed bool) {
	switch controller {
	case 1:
		d.Input.Controller1.SetButton(button, pressed)
	case 2:
		d.Input.Controller2.SetButton(button, pressed)
	default:
		glog.Warningf("bus: ignoring button update for unknown controller %d", controller)
	}
}

// CPUState is a diagnostic snapshot of the CPU's registers and flags.
type CPUState struct {
	PC      uint16
	A, X, Y uint8
	SP      uint8
	Cycles  uint64
	Status  uint8
}

// GetCPUState snapshots the CPU for diagnostics and tests.
func (d *Driver) GetCPUState() CPUState {
	return CPUState{
		PC:     d.CPU.PC,
		A:      d.CPU.A,
		X:      d.CPU.X,
		Y:      d.CPU.Y,
		SP:     d.CPU.SP,
		Cycles: d.CPU.Cycles(),
		Status: d.CPU.GetStatusByte(),
	}
}

// PPUState is a diagnostic snapshot of PPU dot-level timing state.
type PPUState struct {
	Scanline   int
	Cycle      int
	FrameCount uint64
	VBlank     bool
}

// GetPPUState snapshots the PPU for diagnostics and tests.
func (d *Driver) GetPPUState() PPUState {
	return PPUState{
		Scanline:   d.PPU.GetScanline(),
		Cycle:      d.PPU.GetCycle(),
		FrameCount: d.PPU.GetFrameCount(),
		VBlank:     d.PPU.IsVBlank(),
	}
}

// String renders a short diagnostic summary, useful in logs and tests.
func (d *Driver) String() string {
	c := d.GetCPUState()
	p := d.GetPPUState()
	return fmt.Sprintf("PC=$%04X A=$%02X X=$%02X Y=$%02X SP=$%02X | scanline=%d cycle=%d frame=%d",
		c.PC, c.A, c.X, c.Y, c.SP, p.Scanline, p.Cycle, p.FrameCount)
}
