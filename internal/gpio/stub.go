//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/atx-psu-tester/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealButtons is not available on non-Linux platforms.
type RealButtons struct{}

// NewRealButtons returns an error on non-Linux platforms.
func NewRealButtons(chipName string, pins ButtonPins) (*RealButtons, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (b *RealButtons) Read() (logic.Buttons, error) {
	return logic.Buttons{}, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *RealButtons) Close() error {
	return nil
}

// RealSwitches is not available on non-Linux platforms.
type RealSwitches struct{}

// NewRealSwitches returns an error on non-Linux platforms.
func NewRealSwitches(chipName string, pins SwitchPins) (*RealSwitches, error) {
	return nil, errUnsupported
}

// SetLoad is not implemented on non-Linux platforms.
func (s *RealSwitches) SetLoad(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *RealSwitches) Close() error {
	return nil
}
