package memory

import "testing"

type stubPPUCartridge struct {
	chr        [0x2000]uint8
	mirrorMode func(addr uint16) (uint8, uint16)
}

func (c *stubPPUCartridge) PPURead(addr uint16) uint8 { return c.chr[addr] }
func (c *stubPPUCartridge) PPUWrite(addr uint16, value uint8) {
	c.chr[addr] = value
}
func (c *stubPPUCartridge) MirrorNametable(addr uint16) (uint8, uint16) {
	return c.mirrorMode(addr)
}

func horizontalMirror(addr uint16) (uint8, uint16) {
	addr &= 0x0FFF
	quadrant := (addr >> 10) & 3
	offset := addr & 0x3FF
	if quadrant >= 2 {
		return 1, offset
	}
	return 0, offset
}

func TestPPUBusPatternTables(t *testing.T) {
	cart := &stubPPUCartridge{mirrorMode: horizontalMirror}
	bus := NewPPUBus(cart)
	bus.Write(0x0123, 0x9A)
	if got := bus.Read(0x0123); got != 0x9A {
		t.Errorf("Read(0x0123) = 0x%02X, want 0x9A", got)
	}
}

func TestPPUBusNametableMirror3000(t *testing.T) {
	cart := &stubPPUCartridge{mirrorMode: horizontalMirror}
	bus := NewPPUBus(cart)
	bus.Write(0x2000, 0x55)
	if got := bus.Read(0x3000); got != 0x55 {
		t.Errorf("Read(0x3000) = 0x%02X, want mirror of 0x2000 (0x55)", got)
	}
}

func TestPPUBusPaletteMirroring(t *testing.T) {
	cart := &stubPPUCartridge{mirrorMode: horizontalMirror}
	bus := NewPPUBus(cart)
	bus.Write(0x3F00, 0x0F)
	if got := bus.Read(0x3F10); got != 0x0F {
		t.Errorf("Read(0x3F10) = 0x%02X, want mirror of 0x3F00 (0x0F)", got)
	}
	bus.Write(0x3F04, 0x12)
	if got := bus.Read(0x3F14); got != 0x12 {
		t.Errorf("Read(0x3F14) = 0x%02X, want mirror of 0x3F04 (0x12)", got)
	}
	if got := bus.Read(0x3F20); got != 0x0F {
		t.Errorf("Read(0x3F20) = 0x%02X, want repeat of 0x3F00 (0x0F)", got)
	}
}

func TestPPUBusNametableHorizontalMirroring(t *testing.T) {
	cart := &stubPPUCartridge{mirrorMode: horizontalMirror}
	bus := NewPPUBus(cart)
	bus.Write(0x2000, 0xAA)
	if got := bus.Read(0x2400); got != 0xAA {
		t.Errorf("horizontal mirroring: Read(0x2400) = 0x%02X, want 0xAA", got)
	}
	bus.Write(0x2800, 0xBB)
	if got := bus.Read(0x2000); got == 0xBB {
		t.Errorf("0x2800 should not alias 0x2000 under horizontal mirroring")
	}
}
