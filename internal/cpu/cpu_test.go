package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// flatMemory is a flat 64KB address space used to exercise the CPU in
// isolation from the real bus.
type flatMemory struct {
	data [0x10000]uint8
}

func (m *flatMemory) Read(address uint16) uint8  { return m.data[address] }
func (m *flatMemory) Write(address uint16, value uint8) { m.data[address] = value }

func (m *flatMemory) setResetVector(addr uint16) {
	m.data[resetVector] = uint8(addr)
	m.data[resetVector+1] = uint8(addr >> 8)
}

func newTestCPU() (*CPU, *flatMemory) {
	mem := &flatMemory{}
	mem.setResetVector(0x8000)
	c := New(mem)
	c.PowerOn()
	c.Reset()
	return c, mem
}

func TestPowerOnState(t *testing.T) {
	mem := &flatMemory{}
	c := New(mem)
	c.PowerOn()

	assert.Equal(t, uint8(0), c.A)
	assert.Equal(t, uint8(0), c.X)
	assert.Equal(t, uint8(0), c.Y)
	assert.Equal(t, uint8(0xFD), c.SP)
	assert.Equal(t, uint8(0x34), c.GetStatusByte())
}

func TestResetLoadsVectorAndDecrementsSP(t *testing.T) {
	mem := &flatMemory{}
	mem.setResetVector(0x1234)
	c := New(mem)
	c.PowerOn()
	sp := c.SP
	c.Reset()

	assert.Equal(t, uint16(0x1234), c.PC)
	assert.Equal(t, sp-3, c.SP)
	assert.True(t, c.I)
}

func TestClockGatesMidInstruction(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0x8000] = 0xEA // NOP, 2 cycles

	first := c.Clock()
	assert.Equal(t, InstructionComplete, first)
	assert.Equal(t, 1, c.cyclesRemaining)

	second := c.Clock()
	assert.Equal(t, MidInstruction, second)
	assert.Equal(t, 0, c.cyclesRemaining)

	third := c.Clock()
	assert.Equal(t, InstructionComplete, third)
}

func TestLDAImmediateSetsFlags(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0x8000] = 0xA9 // LDA #$00
	mem.data[0x8001] = 0x00
	c.Clock()

	assert.Equal(t, uint8(0), c.A)
	assert.True(t, c.Z)
	assert.False(t, c.N)
}

func TestStatusByteRoundTrip(t *testing.T) {
	c, _ := newTestCPU()
	c.N, c.V, c.B, c.D, c.I, c.Z, c.C = true, false, true, false, true, false, true
	status := c.GetStatusByte()
	assert.Equal(t, uint8(0x20), status&unusedMask)

	c2, _ := newTestCPU()
	c2.SetStatusByte(status)
	assert.Equal(t, c.N, c2.N)
	assert.Equal(t, c.V, c2.V)
	assert.Equal(t, c.D, c2.D)
	assert.Equal(t, c.I, c2.I)
	assert.Equal(t, c.Z, c2.Z)
	assert.Equal(t, c.C, c2.C)
}
