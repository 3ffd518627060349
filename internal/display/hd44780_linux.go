//go:build linux

package display

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// chipLines owns the chip alongside its line request.
type chipLines struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

func (c *chipLines) SetValues(values []int) error {
	return c.lines.SetValues(values)
}

func (c *chipLines) Close() error {
	var errs []error
	if err := c.lines.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close lcd pins: %w", err))
	}
	if err := c.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// OpenHD44780 requests the LCD lines on the chip and initialises the display.
func OpenHD44780(chipName string, pins LCDPins) (*HD44780, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("atx-psu-tester-lcd"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	lines, err := chip.RequestLines(pins.offsets(), gpiocdev.AsOutput(0, 0, 0, 0, 0, 0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request lcd pins %v: %w", pins.offsets(), err)
	}

	cl := &chipLines{chip: chip, lines: lines}
	d, err := newHD44780(cl, time.Sleep)
	if err != nil {
		cl.Close()
		return nil, err
	}
	return d, nil
}
