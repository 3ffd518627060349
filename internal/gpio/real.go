//go:build linux

package gpio

import (
	"fmt"

	"github.com/sweeney/atx-psu-tester/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

const consumer = "atx-psu-tester"

// RealButtons reads the buttons from actual hardware using the Linux GPIO character device.
type RealButtons struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	vals  []int
}

// NewRealButtons requests the three button lines as inputs with pull-down,
// so an open switch reads as not pressed.
func NewRealButtons(chipName string, pins ButtonPins) (*RealButtons, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	lines, err := chip.RequestLines(pins.offsets(), gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pins %v: %w", pins.offsets(), err)
	}

	return &RealButtons{
		chip:  chip,
		lines: lines,
		vals:  make([]int, 3),
	}, nil
}

// Read returns the current button levels in a single read.
func (b *RealButtons) Read() (logic.Buttons, error) {
	if err := b.lines.Values(b.vals); err != nil {
		return logic.Buttons{}, fmt.Errorf("read button pins: %w", err)
	}
	return logic.Buttons{
		Menu:  b.vals[0] == 1,
		Load:  b.vals[1] == 1,
		Spare: b.vals[2] == 1,
	}, nil
}

// Close releases the button lines and the chip.
func (b *RealButtons) Close() error {
	var errs []error
	if b.lines != nil {
		if err := b.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pins: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealSwitches drives the load MOSFET gates. All three lines belong to one
// request and are written with a single SetValues call.
type RealSwitches struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewRealSwitches requests the gate lines as outputs, initially low.
func NewRealSwitches(chipName string, pins SwitchPins) (*RealSwitches, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	lines, err := chip.RequestLines(pins.offsets(), gpiocdev.AsOutput(0, 0, 0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request FET pins %v: %w", pins.offsets(), err)
	}

	return &RealSwitches{chip: chip, lines: lines}, nil
}

// SetLoad drives all three gates to the same level.
func (s *RealSwitches) SetLoad(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := s.lines.SetValues([]int{v, v, v}); err != nil {
		return fmt.Errorf("write FET pins: %w", err)
	}
	return nil
}

// Close drives the gates low, then reconfigures the lines as inputs with
// pull-down so the MOSFETs stay off while nothing owns the pins.
func (s *RealSwitches) Close() error {
	var errs []error

	if s.lines != nil {
		if err := s.lines.SetValues([]int{0, 0, 0}); err != nil {
			errs = append(errs, fmt.Errorf("drive FET pins low: %w", err))
		}
		if err := s.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure FET pins: %w", err))
		}
		if err := s.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close FET pins: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
