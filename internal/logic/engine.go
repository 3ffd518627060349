package logic

import (
	"errors"
	"strings"
	"time"
)

// Config is the immutable configuration of the decision engine.
type Config struct {
	Bands             [RailCount]ToleranceBand
	PresenceThreshold float64
	ADC               ADC
	// Diagnostics enables SENSOR_RANGE events for implausible readings.
	Diagnostics bool
}

// State is everything the engine knows after a cycle.
type State struct {
	PSU            bool
	Load           bool
	Page           Page
	Readings       Readings
	Classification Classification
	// Measured is false until a cycle has read all rails successfully,
	// and false again after a sensor fault cycle.
	Measured bool
}

// Input is one cycle's fresh readings and button levels.
type Input struct {
	Readings Readings
	Buttons  Buttons
	Time     time.Time
}

// Output is the result of one cycle.
type Output struct {
	Screen Screen
	State  State
	Events []Event
}

// FaultScreen is shown for a cycle whose rails could not be read.
var FaultScreen = Screen{"Sensor fault", "Load off"}

// Engine runs the per-cycle decisions in a fixed order: presence, interlock,
// buttons, classification, render. It holds all mutable state explicitly.
// Not safe for concurrent use.
type Engine struct {
	cfg       Config
	interlock *Interlock

	menu  Edge
	load  Edge
	spare Edge

	state     State
	specKnown bool

	startTime     time.Time
	lastHeartbeat time.Time
	counts        EventCounts
}

// NewEngine creates an engine on the Voltages page with the supply assumed absent.
func NewEngine(cfg Config, interlock *Interlock, startTime time.Time) *Engine {
	return &Engine{
		cfg:           cfg,
		interlock:     interlock,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Step runs one control cycle. The returned error reports switch write
// failures; the cycle's decisions are still complete and the output valid.
func (e *Engine) Step(in Input) (Output, error) {
	return e.step(in.Readings, true, in.Buttons, in.Time, "")
}

// StepFault runs a cycle in which the rails could not be read. The supply is
// treated as absent so the interlock drops the load.
func (e *Engine) StepFault(buttons Buttons, now time.Time, cause error) (Output, error) {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return e.step(Readings{}, false, buttons, now, detail)
}

func (e *Engine) step(r Readings, measured bool, b Buttons, now time.Time, fault string) (Output, error) {
	var events []Event
	var errs []error
	emit := func(t EventType, detail string) {
		events = append(events, Event{Timestamp: now, Type: t, Detail: detail})
		e.counts.add(t)
	}

	if !measured {
		emit(EventSensorFault, fault)
	}

	// Presence uses the reconstructed voltage before calibration.
	psu := measured && IsPresent(r[Rail12V].RailVoltage, e.cfg.PresenceThreshold)
	if psu != e.state.PSU {
		if psu {
			emit(EventPSUOn, "")
		} else {
			emit(EventPSUOff, "")
		}
	}

	forced, err := e.interlock.Enforce(psu)
	if err != nil {
		errs = append(errs, err)
	}
	if forced {
		emit(EventLoadForcedOff, "")
	}

	if e.menu.Pressed(b.Menu) {
		e.state.Page = e.state.Page.Next()
		emit(EventPage, e.state.Page.String())
	}

	if e.load.Pressed(b.Load) {
		if err := e.interlock.Toggle(psu); err != nil {
			errs = append(errs, err)
		}
		switch {
		case !psu:
			emit(EventLoadRefused, "")
		case e.interlock.On():
			emit(EventLoadOn, "")
		default:
			emit(EventLoadOff, "")
		}
	}

	e.spare.Pressed(b.Spare)

	var c Classification
	if measured {
		var v [RailCount]float64
		for _, rail := range Rails {
			v[rail] = r[rail].Calibrated
		}
		c = Classify(v, e.cfg.Bands)
	}

	if psu {
		if !e.specKnown || c.Overall != e.state.Classification.Overall {
			if c.Overall {
				emit(EventSpecPass, "")
			} else {
				emit(EventSpecFail, railList(c.Failed()))
			}
		}
		e.specKnown = true
	} else {
		e.specKnown = false
	}

	if measured && e.cfg.Diagnostics {
		for _, rail := range Rails {
			if !InRange(r[rail], e.cfg.ADC) {
				emit(EventSensorRange, rail.String())
			}
		}
	}

	e.state.PSU = psu
	e.state.Load = e.interlock.On()
	e.state.Readings = r
	e.state.Classification = c
	e.state.Measured = measured

	screen := FaultScreen
	if measured {
		screen = Render(e.state.Page, r, c, psu, e.state.Load)
	}

	return Output{Screen: screen, State: e.state, Events: events}, errors.Join(errs...)
}

// State returns the state after the most recent cycle.
func (e *Engine) State() State {
	return e.state
}

// EventCountsSnapshot returns a copy of the event counters.
func (e *Engine) EventCountsSnapshot() EventCounts {
	return e.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed or
// if interval is <= 0 (disabled).
func (e *Engine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(e.lastHeartbeat) < interval {
		return nil
	}

	e.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(e.startTime),
		Counts:    e.counts,
		State:     e.state,
	}
}

func railList(rails []Rail) string {
	names := make([]string, len(rails))
	for i, r := range rails {
		names[i] = r.String()
	}
	return strings.Join(names, ",")
}
