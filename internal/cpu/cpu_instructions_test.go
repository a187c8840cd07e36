package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func runOp(c *CPU, mem *flatMemory, bytes ...uint8) {
	for i, b := range bytes {
		mem.data[0x8000+uint16(i)] = b
	}
	c.PC = 0x8000
	c.stepInstruction()
}

func TestADCOverflowFlag(t *testing.T) {
	c, mem := newTestCPU()
	c.A = 0x7F
	c.C = false
	runOp(c, mem, 0x69, 0x01) // ADC #$01

	assert.Equal(t, uint8(0x80), c.A)
	assert.True(t, c.V, "signed overflow: 127 + 1 should set V")
	assert.True(t, c.N)
	assert.False(t, c.C)
}

func TestSBCIsAdcOfComplement(t *testing.T) {
	c1, mem1 := newTestCPU()
	c1.A, c1.C = 0x50, true
	runOp(c1, mem1, 0xE9, 0x10) // SBC #$10

	c2, mem2 := newTestCPU()
	c2.A, c2.C = 0x50, true
	runOp(c2, mem2, 0x69, 0xEF) // ADC #$EF  (~0x10)

	assert.Equal(t, c2.A, c1.A)
	assert.Equal(t, c2.C, c1.C)
	assert.Equal(t, c2.V, c1.V)
}

func TestASLAccumulatorVsMemory(t *testing.T) {
	c, mem := newTestCPU()
	c.A = 0x81
	runOp(c, mem, 0x0A) // ASL A
	assert.Equal(t, uint8(0x02), c.A)
	assert.True(t, c.C)

	c2, mem2 := newTestCPU()
	mem2.data[0x0010] = 0x81
	runOp(c2, mem2, 0x06, 0x10) // ASL $10
	assert.Equal(t, uint8(0x02), mem2.data[0x0010])
	assert.True(t, c2.C)
	assert.Equal(t, uint8(0), c2.A, "ASL on memory must not touch the accumulator")
}

func TestRORAccumulatorCarryIn(t *testing.T) {
	c, mem := newTestCPU()
	c.A = 0x01
	c.C = true
	runOp(c, mem, 0x6A) // ROR A
	assert.Equal(t, uint8(0x80), c.A)
	assert.True(t, c.N)
	assert.True(t, c.C)
}

func TestRTSAddsOne(t *testing.T) {
	c, mem := newTestCPU()
	c.pushWord(0x1000)
	runOp(c, mem, 0x60) // RTS
	assert.Equal(t, uint16(0x1001), c.PC)
}

func TestRTIDoesNotAddOne(t *testing.T) {
	c, mem := newTestCPU()
	c.pushWord(0x1000)
	c.push(0x00)
	runOp(c, mem, 0x40) // RTI
	assert.Equal(t, uint16(0x1000), c.PC)
}

func TestBITSetsNVFromMemoryNotA(t *testing.T) {
	c, mem := newTestCPU()
	c.A = 0xFF
	mem.data[0x0010] = 0x00
	runOp(c, mem, 0x24, 0x10) // BIT $10
	assert.True(t, c.Z)
	assert.False(t, c.N)
	assert.False(t, c.V)
}

func TestCompareSetsCarryOnGreaterOrEqual(t *testing.T) {
	c, mem := newTestCPU()
	c.A = 0x10
	runOp(c, mem, 0xC9, 0x10) // CMP #$10
	assert.True(t, c.C)
	assert.True(t, c.Z)
}
