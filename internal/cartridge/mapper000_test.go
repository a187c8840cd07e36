package cartridge

import "testing"

func newTestCartridge(prgBanks int) *Cartridge {
	cart := &Cartridge{
		prgROM: make([]uint8, prgBanks*0x4000),
		chrROM: make([]uint8, 0x2000),
	}
	cart.mapper = NewMapper000(cart)
	return cart
}

func TestMapper000CPUReadUnclaimedBelowSRAM(t *testing.T) {
	cart := newTestCartridge(1)
	if _, claimed := cart.CPURead(0x4020); claimed {
		t.Fatal("expected $4020 to be unclaimed by NROM")
	}
}

func TestMapper000SRAMReadWrite(t *testing.T) {
	cart := newTestCartridge(1)
	if claimed := cart.CPUWrite(0x6010, 0x99); !claimed {
		t.Fatal("expected SRAM write to be claimed")
	}
	v, claimed := cart.CPURead(0x6010)
	if !claimed || v != 0x99 {
		t.Fatalf("CPURead(0x6010) = (0x%02X, %v), want (0x99, true)", v, claimed)
	}
}

func TestMapper000PRGMirroring16KB(t *testing.T) {
	cart := newTestCartridge(1)
	cart.prgROM[0] = 0xAA
	cart.prgROM[0x3FFF] = 0xBB

	low, claimed := cart.CPURead(0x8000)
	if !claimed || low != 0xAA {
		t.Fatalf("CPURead(0x8000) = (0x%02X, %v), want (0xAA, true)", low, claimed)
	}
	mirrored, _ := cart.CPURead(0xC000)
	if mirrored != 0xAA {
		t.Fatalf("CPURead(0xC000) = 0x%02X, want mirror of 0x8000 (0xAA)", mirrored)
	}
	high, _ := cart.CPURead(0xFFFF)
	if high != 0xBB {
		t.Fatalf("CPURead(0xFFFF) = 0x%02X, want 0xBB", high)
	}
}

func TestMapper000PRGNoMirror32KB(t *testing.T) {
	cart := newTestCartridge(2)
	cart.prgROM[0] = 0x11
	cart.prgROM[0x4000] = 0x22

	low, _ := cart.CPURead(0x8000)
	high, _ := cart.CPURead(0xC000)
	if low != 0x11 || high != 0x22 {
		t.Fatalf("32KB PRG reads = (0x%02X, 0x%02X), want (0x11, 0x22)", low, high)
	}
}

func TestMapper000CHRRAMWriteProtection(t *testing.T) {
	cart := newTestCartridge(1)
	cart.hasCHRRAM = false
	cart.PPUWrite(0x0000, 0x55)
	if got := cart.PPURead(0x0000); got != 0 {
		t.Errorf("write to CHR ROM should be ignored, got 0x%02X", got)
	}

	cart.hasCHRRAM = true
	cart.PPUWrite(0x0000, 0x55)
	if got := cart.PPURead(0x0000); got != 0x55 {
		t.Errorf("write to CHR RAM should stick, got 0x%02X, want 0x55", got)
	}
}
