// Package logic contains the rail-monitoring and load-safety decision engine.
// This package has NO external dependencies (no GPIO, ADC, display, OS, or time.Sleep).
// Hardware is reached through the small interfaces declared here and time is
// always injectable via time.Time parameters.
package logic

import "time"

// Rail identifies one DC output of the supply under test.
type Rail int

const (
	Rail12V Rail = iota
	Rail5V
	Rail3V3

	// RailCount is the number of monitored rails.
	RailCount = 3
)

// Rails lists the monitored rails in display order.
var Rails = [RailCount]Rail{Rail12V, Rail5V, Rail3V3}

// String returns the rail's nominal name.
func (r Rail) String() string {
	switch r {
	case Rail12V:
		return "12V"
	case Rail5V:
		return "5V"
	case Rail3V3:
		return "3.3V"
	}
	return "UNKNOWN"
}

// Label returns the short name used on the 16-column display.
func (r Rail) Label() string {
	switch r {
	case Rail12V:
		return "12"
	case Rail5V:
		return "5"
	case Rail3V3:
		return "3.3"
	}
	return "?"
}

// Divider is the resistive divider between a rail and its ADC input.
// Both resistances are in ohms and must be positive.
type Divider struct {
	Top    float64
	Bottom float64
}

// ToleranceBand is the inclusive acceptable voltage range of a rail.
type ToleranceBand struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in the band, inclusive on both ends.
func (b ToleranceBand) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// RailConfig is the immutable measurement configuration of one rail.
type RailConfig struct {
	Rail        Rail
	Channel     int // ADC channel the divider output is wired to
	Divider     Divider
	Calibration float64 // multiplier applied after divider reconstruction
	Band        ToleranceBand
}

// ADC describes the converter behind the analog input collaborator.
type ADC struct {
	ReferenceVoltage float64 // volts at full-scale code
	FullScale        int     // maximum representable code, e.g. 1023 for 10-bit
}

// Reading is one cycle's measurement of a rail. Never persisted.
type Reading struct {
	Rail        Rail
	Raw         float64 // averaged ADC code
	PinVoltage  float64 // voltage at the ADC input
	RailVoltage float64 // reconstructed through the divider, before calibration
	Calibrated  float64
}

// Readings holds one reading per rail, indexed by Rail.
type Readings [RailCount]Reading

// Classification is the per-rail and aggregate pass/fail verdict.
type Classification struct {
	OK      [RailCount]bool
	Overall bool
}

// Failed returns the rails that are out of band, in display order.
func (c Classification) Failed() []Rail {
	var out []Rail
	for _, r := range Rails {
		if !c.OK[r] {
			out = append(out, r)
		}
	}
	return out
}

// Buttons is one cycle's sampled button levels (true = pressed, active-high).
type Buttons struct {
	Menu  bool
	Load  bool
	Spare bool
}

// EventType represents a decision the engine made during a cycle.
type EventType string

const (
	EventPSUOn         EventType = "PSU_ON"
	EventPSUOff        EventType = "PSU_OFF"
	EventLoadOn        EventType = "LOAD_ON"
	EventLoadOff       EventType = "LOAD_OFF"
	EventLoadForcedOff EventType = "LOAD_FORCED_OFF"
	EventLoadRefused   EventType = "LOAD_REFUSED"
	EventSpecPass      EventType = "SPEC_PASS"
	EventSpecFail      EventType = "SPEC_FAIL"
	EventPage          EventType = "PAGE"
	EventSensorFault   EventType = "SENSOR_FAULT"
	EventSensorRange   EventType = "SENSOR_RANGE"
)

// Event is a single engine decision, for logging and counting.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Detail    string // e.g. failing rails, new page name, offending rail
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	PSUOn         int
	PSUOff        int
	LoadOn        int
	LoadOff       int
	LoadForcedOff int
	LoadRefused   int
	SpecPass      int
	SpecFail      int
	SensorFault   int
}

func (c *EventCounts) add(t EventType) {
	switch t {
	case EventPSUOn:
		c.PSUOn++
	case EventPSUOff:
		c.PSUOff++
	case EventLoadOn:
		c.LoadOn++
	case EventLoadOff:
		c.LoadOff++
	case EventLoadForcedOff:
		c.LoadForcedOff++
	case EventLoadRefused:
		c.LoadRefused++
	case EventSpecPass:
		c.SpecPass++
	case EventSpecFail:
		c.SpecFail++
	case EventSensorFault:
		c.SensorFault++
	}
}

// HeartbeatData contains information for a heartbeat log line.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
	State     State
}
