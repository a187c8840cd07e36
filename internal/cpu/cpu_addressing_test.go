package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndirectJMPPageBoundaryBug(t *testing.T) {
	c, mem := newTestCPU()
	// JMP ($30FF) with the hardware bug: the high byte is fetched from
	// $3000, not $3100.
	mem.data[0x8000] = 0x6C
	mem.data[0x8001] = 0xFF
	mem.data[0x8002] = 0x30
	mem.data[0x30FF] = 0x40
	mem.data[0x3000] = 0x80
	mem.data[0x3100] = 0xFF // must NOT be used

	c.stepInstruction()

	assert.Equal(t, uint16(0x8040), c.PC)
}

func TestAbsoluteXPageCrossPenalty(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0x8000] = 0xBD // LDA $20FF,X
	mem.data[0x8001] = 0xFF
	mem.data[0x8002] = 0x20
	c.X = 0x01
	mem.data[0x2100] = 0x77

	total := c.stepInstruction()
	assert.Equal(t, uint64(5), total) // base 4 + 1 for page cross
	assert.Equal(t, uint8(0x77), c.A)
}

func TestStoreIndexedNoPageCrossPenalty(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0x8000] = 0x9D // STA $20FF,X
	mem.data[0x8001] = 0xFF
	mem.data[0x8002] = 0x20
	c.X = 0x01
	c.A = 0x55

	total := c.stepInstruction()
	assert.Equal(t, uint64(5), total) // store instructions pay no page-cross penalty
	assert.Equal(t, uint8(0x55), mem.data[0x2100])
}

func TestIndexedIndirectWrapsZeroPage(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0x8000] = 0xA1 // LDA ($FE,X)
	mem.data[0x8001] = 0xFE
	c.X = 0x02
	// pointer at $00 (wrapped from $100)
	mem.data[0x0000] = 0x34
	mem.data[0x0001] = 0x12
	mem.data[0x1234] = 0x99

	c.stepInstruction()
	assert.Equal(t, uint8(0x99), c.A)
}

func TestZeroPageXWraps(t *testing.T) {
	c, mem := newTestCPU()
	mem.data[0x8000] = 0xB5 // LDA $FF,X
	mem.data[0x8001] = 0xFF
	c.X = 0x02
	mem.data[0x0001] = 0x55

	c.stepInstruction()
	assert.Equal(t, uint8(0x55), c.A)
}
