package logic

import "fmt"

// DefaultPresenceThreshold is the 12V level above which the supply counts as on.
const DefaultPresenceThreshold = 1.0

// IsPresent reports whether the supply is switched on. No hysteresis.
func IsPresent(v12, threshold float64) bool {
	return v12 > threshold
}

// LoadSwitch drives the three load MOSFET gates together.
type LoadSwitch interface {
	// SetLoad drives every gate to the same level.
	SetLoad(on bool) error
}

// Interlock owns the load-enable state. LoadState is only ever true after an
// explicit Toggle while the supply is present.
type Interlock struct {
	sw LoadSwitch
	on bool
}

// NewInterlock creates an Interlock with the load assumed off. Call Set(false)
// once before the first cycle to bring the outputs in line.
func NewInterlock(sw LoadSwitch) *Interlock {
	return &Interlock{sw: sw}
}

// On returns the current LoadState.
func (i *Interlock) On() bool {
	return i.on
}

// Set records the desired state and drives the switches. If enabling fails
// the state falls back to off and the outputs are driven low again.
func (i *Interlock) Set(on bool) error {
	i.on = on
	err := i.sw.SetLoad(on)
	if err == nil {
		return nil
	}
	if on {
		i.on = false
		if offErr := i.sw.SetLoad(false); offErr != nil {
			return fmt.Errorf("enable load: %w (disable: %v)", err, offErr)
		}
		return fmt.Errorf("enable load: %w", err)
	}
	return fmt.Errorf("disable load: %w", err)
}

// Enforce forces the load off when the supply is absent. It reports whether it
// had to act. Must run before any button handling in a cycle.
func (i *Interlock) Enforce(present bool) (bool, error) {
	if present || !i.on {
		return false, nil
	}
	return true, i.Set(false)
}

// Toggle handles a debounced load-button press. With the supply present the
// load flips; otherwise off is re-asserted.
func (i *Interlock) Toggle(present bool) error {
	if present {
		return i.Set(!i.on)
	}
	return i.Set(false)
}
