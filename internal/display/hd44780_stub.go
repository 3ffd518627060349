//go:build !linux

package display

import "errors"

// OpenHD44780 returns an error on non-Linux platforms.
func OpenHD44780(chipName string, pins LCDPins) (*HD44780, error) {
	return nil, errors.New("display: hd44780 not supported on this platform (requires Linux)")
}
