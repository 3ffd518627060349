// Package adc provides the analog input collaborator: raw conversion codes
// for the three divider channels.
//
// Two hardware sources are supported: the Linux IIO sysfs interface of an
// on-board or HAT converter, and a microcontroller bridge on a serial port.
package adc

import (
	"fmt"

	"github.com/sweeney/atx-psu-tester/internal/logic"
)

// Source is a sampler that holds hardware resources.
type Source interface {
	logic.Sampler

	// Close releases the underlying device.
	Close() error
}

// Source kinds accepted by Open.
const (
	KindIIO    = "iio"
	KindSerial = "serial"
)

// Options selects and configures a Source.
type Options struct {
	Kind string

	// IIODevice is the sysfs directory of the converter, e.g.
	// /sys/bus/iio/devices/iio:device0.
	IIODevice string

	SerialPort string
	BaudRate   int
}

// Open creates the Source described by opts.
func Open(opts Options) (Source, error) {
	switch opts.Kind {
	case KindIIO:
		return NewIIO(opts.IIODevice), nil
	case KindSerial:
		b, err := OpenSerial(opts.SerialPort, opts.BaudRate)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown adc source %q", opts.Kind)
}
