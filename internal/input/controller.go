// Package input implements the two standard NES controller ports at
// $4016/$4017: an 8-bit parallel-to-serial shift register latched on strobe.
package input

import "github.com/golang/glog"

// Button identifies one of the eight buttons on a standard controller.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller is one standard NES controller: a button-state latch and an
// 8-bit shift register that serializes it out over successive reads.
type Controller struct {
	buttons uint8

	shiftRegister uint8
	strobe        bool
	bitPosition   uint8
}

// New creates a controller with no buttons pressed.
func New() *Controller { return &Controller{} }

// SetButton sets or clears a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all eight buttons at once, in A,B,Select,Start,Up,Down,Left,Right order.
func (c *Controller) SetButtons(buttons [8]bool) {
	var b Button
	for i, pressed := range buttons {
		if pressed {
			b |= 1 << uint(i)
		}
	}
	c.buttons = uint8(b)
}

// IsPressed reports whether button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// Write latches the strobe bit. While strobe is high the shift register is
// continuously reloaded with the live button state; the falling edge freezes
// it for serial readout.
func (c *Controller) Write(value uint8) {
	c.strobe = value&1 != 0
	if c.strobe {
		c.shiftRegister = c.buttons
		c.bitPosition = 0
	}
}

// Read shifts out the next button bit. While strobe is held high, every read
// returns the A button's live state and the shift register never advances.
func (c *Controller) Read() uint8 {
	if c.strobe {
		c.shiftRegister = c.buttons
		return c.shiftRegister & 1
	}
	if c.bitPosition >= 8 {
		return 1 // open-bus convention: bit 8+ reads as 1 on real hardware
	}
	bit := c.shiftRegister & 1
	c.shiftRegister >>= 1
	c.bitPosition++
	return bit
}

// Reset clears the controller's latched state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
	c.bitPosition = 0
}

// InputState owns both controller ports and dispatches the CPU bus's
// $4016/$4017 accesses to them.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates both controller ports.
func NewInputState() *InputState {
	return &InputState{Controller1: New(), Controller2: New()}
}

// Reset resets both controllers.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// SetButtons1 sets controller 1's full button state.
func (is *InputState) SetButtons1(buttons [8]bool) { is.Controller1.SetButtons(buttons) }

// SetButtons2 sets controller 2's full button state.
func (is *InputState) SetButtons2(buttons [8]bool) { is.Controller2.SetButtons(buttons) }

// Read dispatches a CPU read of $4016 or $4017. $4017 ORs in bit 6, the
// open-bus convention real NES hardware exhibits on the second port.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		glog.V(3).Infof("input: read of unmapped port $%04X", address)
		return 0
	}
}

// Write dispatches a CPU write of $4016; both controllers share the strobe
// line on real hardware.
func (is *InputState) Write(address uint16, value uint8) {
	if address != 0x4016 {
		return
	}
	is.Controller1.Write(value)
	is.Controller2.Write(value)
}
