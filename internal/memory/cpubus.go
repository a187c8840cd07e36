// Package memory implements the CPU and PPU address-space routers: the
// 16-bit CPU bus and the 14-bit PPU bus described by the driver.
package memory

import "github.com/golang/glog"

// PPURegisters is the register-file surface the CPU bus dispatches
// $2000-$3FFF accesses to.
type PPURegisters interface {
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
}

// APURegisters is the register-file surface the CPU bus dispatches
// $4000-$4017 accesses to. This core does not synthesize audio; the
// interface exists so the bus has somewhere to route the writes real
// software performs.
type APURegisters interface {
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
}

// InputPorts is the register-file surface the CPU bus dispatches
// $4016-$4017 accesses to.
type InputPorts interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// CPUCartridge is the subset of the cartridge contract the CPU bus needs:
// byte access to the $4020-$FFFF window, reporting whether the mapper
// claimed the address.
type CPUCartridge interface {
	CPURead(addr uint16) (value uint8, claimed bool)
	CPUWrite(addr uint16, value uint8) (claimed bool)
}

// CPUBus is the 16-bit address-space router: 2 KiB of work RAM plus
// borrowed access to the PPU's register file and the cartridge.
type CPUBus struct {
	ram [0x800]uint8

	ppu   PPURegisters
	apu   APURegisters
	input InputPorts
	cart  CPUCartridge

	openBus uint8

	// dmaHook is invoked on a $4014 write so the driver can apply the
	// 513/514-cycle CPU stall; if nil, DMA runs synchronously.
	dmaHook func(page uint8)
}

// NewCPUBus creates a CPU bus wired to the given PPU register file, APU
// stub, and cartridge. Input ports and the DMA hook are set afterward via
// SetInput/SetDMAHook since the driver typically wires them after
// construction.
func NewCPUBus(ppu PPURegisters, apu APURegisters, cart CPUCartridge) *CPUBus {
	return &CPUBus{
		ppu:  ppu,
		apu:  apu,
		cart: cart,
	}
}

// SetInput wires the controller ports.
func (b *CPUBus) SetInput(input InputPorts) {
	b.input = input
}

// SetDMAHook installs the callback invoked on OAMDMA writes.
func (b *CPUBus) SetDMAHook(hook func(page uint8)) {
	b.dmaHook = hook
}

// Read performs a synchronous CPU-bus read. Unmapped ranges return the
// open-bus approximation: the last value that moved across the bus.
func (b *CPUBus) Read(addr uint16) uint8 {
	var value uint8

	switch {
	case addr < 0x2000:
		value = b.ram[addr&0x07FF]

	case addr < 0x4000:
		value = b.ppu.ReadRegister(0x2000 | (addr & 0x0007))

	case addr == 0x4016 || addr == 0x4017:
		if b.input != nil {
			value = b.input.Read(addr)
		} else {
			value = b.openBus
		}

	case addr < 0x4020:
		// $4000-$4015 and $4018-$401F (the controller ports are handled
		// above): routed to the APU, whose write-only registers read as 0.
		if b.apu != nil {
			value = b.apu.ReadRegister(addr)
		} else {
			value = b.openBus
		}

	default:
		if b.cart != nil {
			if v, claimed := b.cart.CPURead(addr); claimed {
				value = v
			} else {
				glog.V(2).Infof("cpubus: unclaimed read at $%04X, returning open bus", addr)
				value = b.openBus
			}
		} else {
			value = b.openBus
		}
	}

	b.openBus = value
	return value
}

// Write performs a synchronous CPU-bus write. Unmapped ranges are dropped.
func (b *CPUBus) Write(addr uint16, value uint8) {
	b.openBus = value

	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = value

	case addr < 0x4000:
		b.ppu.WriteRegister(0x2000|(addr&0x0007), value)

	case addr == 0x4014:
		if b.dmaHook != nil {
			b.dmaHook(value)
		} else {
			b.oamDMA(value)
		}

	case addr == 0x4016:
		if b.input != nil {
			b.input.Write(addr, value)
		}

	case addr < 0x4020:
		if b.apu != nil {
			b.apu.WriteRegister(addr, value)
		}

	default:
		if b.cart != nil {
			if claimed := b.cart.CPUWrite(addr, value); !claimed {
				glog.V(2).Infof("cpubus: unclaimed write at $%04X", addr)
			}
		}
	}
}

// oamDMA performs the 256-byte OAM DMA copy synchronously; used only when
// the driver has not installed a stall-aware hook (e.g. in unit tests).
func (b *CPUBus) oamDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		b.ppu.WriteRegister(0x2004, b.Read(base+i))
	}
}
