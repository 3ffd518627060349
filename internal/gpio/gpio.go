// Package gpio provides button input and load switch output with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import "github.com/sweeney/atx-psu-tester/internal/logic"

// ButtonReader samples the three operator buttons.
type ButtonReader interface {
	// Read returns the current levels. Buttons are active-high:
	// a raw 1 means pressed.
	Read() (logic.Buttons, error)

	// Close releases GPIO resources.
	Close() error
}

// SwitchBank drives the three load MOSFET gates as one unit.
type SwitchBank interface {
	logic.LoadSwitch

	// Close drives the gates low and releases GPIO resources.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultChip = "gpiochip0"

	DefaultPinMenu  = 17
	DefaultPinLoad  = 27
	DefaultPinSpare = 22

	DefaultPinFET12V = 23
	DefaultPinFET5V  = 24
	DefaultPinFET3V3 = 25
)

// ButtonPins maps the operator buttons to line offsets.
type ButtonPins struct {
	Menu  int
	Load  int
	Spare int
}

// SwitchPins maps the load MOSFET gates to line offsets.
type SwitchPins struct {
	FET12V int
	FET5V  int
	FET3V3 int
}

func (p ButtonPins) offsets() []int {
	return []int{p.Menu, p.Load, p.Spare}
}

func (p SwitchPins) offsets() []int {
	return []int{p.FET12V, p.FET5V, p.FET3V3}
}
