package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewControllerDefaultState(t *testing.T) {
	c := New()
	assert.Equal(t, uint8(0), c.buttons)
	assert.False(t, c.strobe)
}

func TestSetButtonIsolatesBits(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.SetButton(ButtonStart, true)

	assert.True(t, c.IsPressed(ButtonA))
	assert.True(t, c.IsPressed(ButtonStart))
	assert.False(t, c.IsPressed(ButtonB))

	c.SetButton(ButtonA, false)
	assert.False(t, c.IsPressed(ButtonA))
	assert.True(t, c.IsPressed(ButtonStart))
}

func TestSetButtonsOrdering(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{true, false, false, false, false, false, false, true})
	assert.True(t, c.IsPressed(ButtonA))
	assert.True(t, c.IsPressed(ButtonRight))
	assert.False(t, c.IsPressed(ButtonB))
}

func TestStrobeHighAlwaysReadsButtonA(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{true, true, false, false, false, false, false, false})
	c.Write(0x01) // strobe high

	assert.Equal(t, uint8(1), c.Read())
	assert.Equal(t, uint8(1), c.Read(), "strobe high keeps returning button A")
}

func TestShiftsOutEightBitsThenOnes(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{true, false, true, false, false, false, false, false}) // A, Select
	c.Write(0x01)
	c.Write(0x00) // falling edge freezes the shift register

	var bits []uint8
	for i := 0; i < 8; i++ {
		bits = append(bits, c.Read())
	}
	assert.Equal(t, []uint8{1, 0, 1, 0, 0, 0, 0, 0}, bits)

	for i := 0; i < 3; i++ {
		assert.Equal(t, uint8(1), c.Read())
	}
}

func TestInputStateDispatchesStrobeToBothControllers(t *testing.T) {
	is := NewInputState()
	is.Controller1.SetButton(ButtonA, true)
	is.Controller2.SetButton(ButtonB, true)

	is.Write(0x4016, 0x01)
	is.Write(0x4016, 0x00)

	assert.Equal(t, uint8(1), is.Read(0x4016)&0x01)
	assert.Equal(t, uint8(0x40), is.Read(0x4017), "port 2 shifts out its own A bit (clear) and ORs in bit 6")
}

func TestResetClearsState(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(0x01)
	c.Reset()
	assert.Equal(t, uint8(0), c.buttons)
	assert.False(t, c.strobe)
}
