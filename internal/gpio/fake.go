package gpio

import (
	"errors"

	"github.com/sweeney/atx-psu-tester/internal/logic"
)

// FakeButtons is a test double that returns scripted button levels.
type FakeButtons struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []logic.Buttons

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeButtons creates a FakeButtons with the given samples.
func NewFakeButtons(samples []logic.Buttons) *FakeButtons {
	return &FakeButtons{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButtons) Read() (logic.Buttons, error) {
	if f.ReadError != nil {
		return logic.Buttons{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return logic.Buttons{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeButtons) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeButtons) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeSwitches records the gate levels written to it.
type FakeSwitches struct {
	// Levels holds the current level of each gate: 12V, 5V, 3.3V.
	Levels [3]bool

	// Writes contains every SetLoad argument in order.
	Writes []bool

	// WriteError, if set, will be returned by SetLoad and nothing is written.
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeSwitches creates a FakeSwitches with all gates low.
func NewFakeSwitches() *FakeSwitches {
	return &FakeSwitches{}
}

// SetLoad sets all three gates to the same level.
func (f *FakeSwitches) SetLoad(on bool) error {
	f.Writes = append(f.Writes, on)
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Levels = [3]bool{on, on, on}
	return nil
}

// On reports whether every gate is high.
func (f *FakeSwitches) On() bool {
	return f.Levels[0] && f.Levels[1] && f.Levels[2]
}

// Close drives the gates low and marks the bank as closed.
func (f *FakeSwitches) Close() error {
	f.Levels = [3]bool{}
	f.Closed = true
	return nil
}
