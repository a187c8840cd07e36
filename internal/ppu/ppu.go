// Package ppu implements the 2C02 Picture Processing Unit: the scanline/dot
// state machine, background shift-register pipeline, sprite evaluation, and
// the CPU-visible register file at $2000-$2007.
package ppu

import "github.com/golang/glog"

// Bus is the PPU's view of its 14-bit address space.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// PPU is the NES 2C02.
type PPU struct {
	ppuCtrl   uint8
	ppuMask   uint8
	ppuStatus uint8
	oamAddr   uint8

	v uint16 // current VRAM address
	t uint16 // temporary VRAM address / scroll latch
	x uint8  // fine X scroll
	w bool   // write-toggle latch

	bus Bus

	scanline int
	cycle    int
	oddFrame bool

	readBuffer uint8

	oam          [256]uint8
	secondaryOAM [32]uint8
	spriteIndex  [8]uint8
	spriteCount  int

	spritePatternLo [8]uint8
	spritePatternHi [8]uint8
	spriteX         [8]uint8
	spriteAttr      [8]uint8
	sprite0OnLine   bool
	sprite0Rendered bool

	// background fetch pipeline
	nametableByte    uint8
	attributeByte    uint8
	patternLowByte   uint8
	patternHighByte  uint8
	bgShiftPatternLo uint16
	bgShiftPatternHi uint16
	bgShiftAttrLo    uint16
	bgShiftAttrHi    uint16

	frameBuffer [256 * 240]uint32
	frameCount  uint64

	nmiCallback           func()
	frameCompleteCallback func()
}

// New creates a PPU with the pre-render scanline selected, matching
// power-up behavior.
func New() *PPU {
	return &PPU{scanline: -1, cycle: 0}
}

// SetBus wires the PPU's address space.
func (p *PPU) SetBus(bus Bus) { p.bus = bus }

// SetNMICallback installs the function invoked when PPUCTRL.V and the VBlank
// flag are both set (at VBlank start, or by a PPUCTRL write that enables NMI
// while VBlank is already active).
func (p *PPU) SetNMICallback(callback func()) { p.nmiCallback = callback }

// SetFrameCompleteCallback installs the function invoked once per frame, at
// the scanline 261->-1 (pre-render) wraparound.
func (p *PPU) SetFrameCompleteCallback(callback func()) { p.frameCompleteCallback = callback }

// Reset restores the power-up register state without clearing OAM or the
// frame buffer.
func (p *PPU) Reset() {
	p.ppuCtrl = 0
	p.ppuMask = 0
	p.w = false
	p.x = 0
	p.readBuffer = 0
	p.scanline = -1
	p.cycle = 0
	p.oddFrame = false
}

// ReadRegister reads a CPU-visible register at $2000-$2007.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002:
		status := p.ppuStatus
		p.ppuStatus &^= 0x80
		p.w = false
		return status
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		return p.readData()
	default:
		return p.ppuStatus & 0x1F // write-only registers read back as open bus
	}
}

// WriteRegister writes a CPU-visible register at $2000-$2007.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x2000:
		nmiWasEnabled := p.ppuCtrl&0x80 != 0
		p.ppuCtrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & 0x03) << 10)
		if !nmiWasEnabled {
			p.checkNMI()
		}
	case 0x2001:
		p.ppuMask = value
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writeScroll(value)
	case 0x2006:
		p.writeAddr(value)
	case 0x2007:
		p.writeData(value)
	}
}

// WriteOAM writes one OAM byte, used by the driver's OAM DMA.
func (p *PPU) WriteOAM(address uint8, value uint8) { p.oam[address] = value }

func (p *PPU) backgroundEnabled() bool { return p.ppuMask&0x08 != 0 }
func (p *PPU) spritesEnabled() bool    { return p.ppuMask&0x10 != 0 }
func (p *PPU) renderingEnabled() bool  { return p.backgroundEnabled() || p.spritesEnabled() }

func (p *PPU) checkNMI() {
	if p.ppuCtrl&0x80 != 0 && p.ppuStatus&0x80 != 0 && p.nmiCallback != nil {
		p.nmiCallback()
	}
}

func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | (uint16(value) >> 3)
		p.x = value & 0x07
	} else {
		p.t = (p.t & 0x8FFF) | ((uint16(value) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(value) & 0xF8) << 2)
	}
	p.w = !p.w
}

func (p *PPU) writeAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(value) & 0x3F) << 8)
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
	}
	p.w = !p.w
}

func (p *PPU) readData() uint8 {
	var data uint8
	if p.bus == nil {
		return 0
	}
	if p.v >= 0x3F00 {
		data = p.bus.Read(p.v)
		p.readBuffer = p.bus.Read(p.v - 0x1000)
	} else {
		data = p.readBuffer
		p.readBuffer = p.bus.Read(p.v)
	}
	p.advanceAddr()
	return data
}

func (p *PPU) writeData(value uint8) {
	if p.bus != nil {
		p.bus.Write(p.v, value)
	}
	p.advanceAddr()
}

func (p *PPU) advanceAddr() {
	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x3FFF
}

// getCoarseX, getFineY, incrementX/Y, and copyX/Y implement the PPU's
// scroll-address arithmetic exactly per the documented v/t/x/w protocol.

func (p *PPU) getCoarseX() int { return int(p.v & 0x001F) }
func (p *PPU) getFineY() int   { return int((p.v >> 12) & 0x0007) }

func (p *PPU) incrementX() {
	if (p.v & 0x001F) == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if (p.v & 0x7000) != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

func (p *PPU) copyX() { p.v = (p.v & 0xFBE0) | (p.t & 0x041F) }
func (p *PPU) copyY() { p.v = (p.v & 0x841F) | (p.t & 0x7BE0) }

// Clock advances the PPU by one dot: a 341-dot scanline counter over 262
// scanlines (-1, the pre-render line, through 260).
func (p *PPU) Clock() {
	if p.scanline >= -1 && p.scanline < 240 {
		p.renderScanline()
	}

	p.cycle++
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1
			p.frameCount++
			p.oddFrame = !p.oddFrame
			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}

	if p.scanline == 241 && p.cycle == 1 {
		p.ppuStatus |= 0x80
		p.checkNMI()
	}
	if p.scanline == -1 && p.cycle == 1 {
		p.ppuStatus &^= 0xE0 // clear VBlank, sprite 0 hit, sprite overflow
	}
}

// renderScanline runs the background fetch pipeline and, on visible
// scanlines, emits a pixel. Sprite evaluation for the next scanline happens
// at dot 257, matching real 2C02 timing.
func (p *PPU) renderScanline() {
	if !p.renderingEnabled() {
		return
	}

	preRender := p.scanline == -1
	fetchPhase := (p.cycle >= 1 && p.cycle <= 256) || (p.cycle >= 321 && p.cycle <= 340)

	if fetchPhase {
		p.runBackgroundFetch()
	}

	if p.cycle == 256 {
		p.incrementY()
	}
	if p.cycle == 257 {
		p.copyX()
		if p.scanline >= 0 {
			p.evaluateSprites()
		}
	}
	if preRender && p.cycle >= 280 && p.cycle <= 304 {
		p.copyY()
	}

	if p.scanline >= 0 && p.cycle >= 1 && p.cycle <= 256 {
		p.emitPixel(p.cycle-1, p.scanline)
	}
}

// runBackgroundFetch drives the 8-cycle nametable/attribute/pattern fetch
// sequence and shifts the background registers every dot.
func (p *PPU) runBackgroundFetch() {
	switch p.cycle % 8 {
	case 1:
		p.loadBackgroundShifters()
		p.nametableByte = p.bus.Read(0x2000 | (p.v & 0x0FFF))
	case 3:
		address := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
		attr := p.bus.Read(address)
		shift := ((p.v >> 4) & 4) | (p.v & 2)
		p.attributeByte = (attr >> shift) & 0x03
	case 5:
		base := uint16(0)
		if p.ppuCtrl&0x10 != 0 {
			base = 0x1000
		}
		address := base + uint16(p.nametableByte)*16 + uint16(p.getFineY())
		p.patternLowByte = p.bus.Read(address)
	case 7:
		base := uint16(0)
		if p.ppuCtrl&0x10 != 0 {
			base = 0x1000
		}
		address := base + uint16(p.nametableByte)*16 + uint16(p.getFineY()) + 8
		p.patternHighByte = p.bus.Read(address)
	case 0:
		p.incrementX()
	}

	p.shiftBackgroundRegisters()
}

func (p *PPU) loadBackgroundShifters() {
	p.bgShiftPatternLo = (p.bgShiftPatternLo &^ 0x00FF) | uint16(p.patternLowByte)
	p.bgShiftPatternHi = (p.bgShiftPatternHi &^ 0x00FF) | uint16(p.patternHighByte)
	attrLo, attrHi := uint16(0), uint16(0)
	if p.attributeByte&0x01 != 0 {
		attrLo = 0x00FF
	}
	if p.attributeByte&0x02 != 0 {
		attrHi = 0x00FF
	}
	p.bgShiftAttrLo = (p.bgShiftAttrLo &^ 0x00FF) | attrLo
	p.bgShiftAttrHi = (p.bgShiftAttrHi &^ 0x00FF) | attrHi
}

func (p *PPU) shiftBackgroundRegisters() {
	if !p.backgroundEnabled() {
		return
	}
	p.bgShiftPatternLo <<= 1
	p.bgShiftPatternHi <<= 1
	p.bgShiftAttrLo <<= 1
	p.bgShiftAttrHi <<= 1
}

// evaluateSprites selects up to 8 sprites visible on the next scanline and
// fetches their pattern bytes, matching the real PPU's secondary-OAM pass.
func (p *PPU) evaluateSprites() {
	for i := range p.secondaryOAM {
		p.secondaryOAM[i] = 0xFF
	}
	height := 8
	if p.ppuCtrl&0x20 != 0 {
		height = 16
	}

	p.spriteCount = 0
	p.sprite0OnLine = false
	overflow := false

	for i := 0; i < 64; i++ {
		y := int(p.oam[i*4])
		if p.scanline < y || p.scanline >= y+height {
			continue
		}
		if p.spriteCount == 8 {
			overflow = true
			break
		}
		base := p.spriteCount * 4
		copy(p.secondaryOAM[base:base+4], p.oam[i*4:i*4+4])
		p.spriteIndex[p.spriteCount] = uint8(i)
		if i == 0 {
			p.sprite0OnLine = true
		}
		p.spriteCount++
	}
	if overflow {
		p.ppuStatus |= 0x20
		glog.V(3).Infof("ppu: sprite overflow on scanline %d", p.scanline)
	}

	for i := 0; i < p.spriteCount; i++ {
		y := int(p.secondaryOAM[i*4])
		tile := p.secondaryOAM[i*4+1]
		attr := p.secondaryOAM[i*4+2]
		x := p.secondaryOAM[i*4+3]

		row := p.scanline - y
		if attr&0x80 != 0 { // vertical flip
			row = height - 1 - row
		}

		var base, index uint16
		if height == 16 {
			base = uint16(tile&0x01) * 0x1000
			index = uint16(tile &^ 0x01)
			if row >= 8 {
				index++
				row -= 8
			}
		} else {
			if p.ppuCtrl&0x08 != 0 {
				base = 0x1000
			}
			index = uint16(tile)
		}

		address := base + index*16 + uint16(row)
		lo := p.bus.Read(address)
		hi := p.bus.Read(address + 8)
		if attr&0x40 != 0 { // horizontal flip
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}

		p.spritePatternLo[i] = lo
		p.spritePatternHi[i] = hi
		p.spriteX[i] = x
		p.spriteAttr[i] = attr
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// emitPixel resolves the background and sprite shift registers into a final
// color for (x, y) and applies sprite-0-hit detection.
func (p *PPU) emitPixel(x, y int) {
	bgPixel, bgPalette := p.backgroundPixel()
	spritePixel, spritePalette, spritePriority, spriteIsZero := p.spritePixel(x)

	var colorAddr uint16
	switch {
	case bgPixel == 0 && spritePixel == 0:
		colorAddr = 0x3F00
	case bgPixel == 0:
		colorAddr = 0x3F10 + uint16(spritePalette)*4 + uint16(spritePixel)
	case spritePixel == 0:
		colorAddr = 0x3F00 + uint16(bgPalette)*4 + uint16(bgPixel)
	case !spritePriority:
		colorAddr = 0x3F10 + uint16(spritePalette)*4 + uint16(spritePixel)
	default:
		colorAddr = 0x3F00 + uint16(bgPalette)*4 + uint16(bgPixel)
	}

	if bgPixel != 0 && spritePixel != 0 && spriteIsZero && x != 255 {
		p.ppuStatus |= 0x40
	}

	index := p.bus.Read(colorAddr)
	p.frameBuffer[y*256+x] = NESColorToRGB(index)
}

func (p *PPU) backgroundPixel() (uint8, uint8) {
	if !p.backgroundEnabled() {
		return 0, 0
	}
	mask := uint16(0x8000) >> p.x
	lo := uint8(0)
	if p.bgShiftPatternLo&mask != 0 {
		lo = 1
	}
	hi := uint8(0)
	if p.bgShiftPatternHi&mask != 0 {
		hi = 1
	}
	pixel := (hi << 1) | lo

	paletteLo := uint8(0)
	if p.bgShiftAttrLo&mask != 0 {
		paletteLo = 1
	}
	paletteHi := uint8(0)
	if p.bgShiftAttrHi&mask != 0 {
		paletteHi = 1
	}
	palette := (paletteHi << 1) | paletteLo
	return pixel, palette
}

func (p *PPU) spritePixel(x int) (pixel, palette uint8, behindBackground, isZero bool) {
	if !p.spritesEnabled() {
		return 0, 0, false, false
	}
	for i := 0; i < p.spriteCount; i++ {
		offset := x - int(p.spriteX[i])
		if offset < 0 || offset > 7 {
			continue
		}
		lo := (p.spritePatternLo[i] >> (7 - offset)) & 1
		hi := (p.spritePatternHi[i] >> (7 - offset)) & 1
		value := (hi << 1) | lo
		if value == 0 {
			continue
		}
		return value, p.spriteAttr[i] & 0x03, p.spriteAttr[i]&0x20 != 0, p.spriteIndex[i] == 0 && p.sprite0OnLine
	}
	return 0, 0, false, false
}

// GetFrameBuffer returns the current RGB frame buffer.
func (p *PPU) GetFrameBuffer() [256 * 240]uint32 { return p.frameBuffer }

// GetFrameCount reports how many frames have completed.
func (p *PPU) GetFrameCount() uint64 { return p.frameCount }

// GetScanline and GetCycle expose dot-level state for diagnostics and tests.
func (p *PPU) GetScanline() int { return p.scanline }
func (p *PPU) GetCycle() int    { return p.cycle }

// IsVBlank reports the current state of the VBlank status flag.
func (p *PPU) IsVBlank() bool { return p.ppuStatus&0x80 != 0 }

// nesColorPalette is the NTSC 2C02 palette in 0xAARRGGBB form.
var nesColorPalette = [64]uint32{
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFF29B, 0xFFBEFBB3, 0xFFB8F8D8, 0xFFB8F8F8, 0xFF000000, 0xFF000000, 0xFF000000,
}

// NESColorToRGB converts a 2C02 color index to an opaque 0xAARRGGBB value.
func NESColorToRGB(colorIndex uint8) uint32 {
	if colorIndex >= 64 {
		return 0xFF000000
	}
	return nesColorPalette[colorIndex]
}
