package status

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/atx-psu-tester/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	PSU           string     `json:"psu"`
	Load          string     `json:"load"`
	Page          string     `json:"page"`
	Result        string     `json:"result"`
	Failed        []string   `json:"failed,omitempty"`
	Rails         []RailJSON `json:"rails,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// RailJSON is one rail's reading and verdict.
type RailJSON struct {
	Name        string  `json:"name"`
	Raw         float64 `json:"raw"`
	PinVoltage  float64 `json:"pin_voltage"`
	RailVoltage float64 `json:"rail_voltage"`
	Voltage     float64 `json:"voltage"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	OK          bool    `json:"ok"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	PSUOn         int `json:"psu_on"`
	PSUOff        int `json:"psu_off"`
	LoadOn        int `json:"load_on"`
	LoadOff       int `json:"load_off"`
	LoadForcedOff int `json:"load_forced_off"`
	LoadRefused   int `json:"load_refused"`
	SpecPass      int `json:"spec_pass"`
	SpecFail      int `json:"spec_fail"`
	SensorFault   int `json:"sensor_fault"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	CycleMs     int64  `json:"cycle_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Samples     int    `json:"samples"`
	ADCSource   string `json:"adc_source"`
	Display     string `json:"display"`
	Diagnostics bool   `json:"diagnostics"`
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func result(st logic.State) string {
	switch {
	case !st.Measured:
		return "UNKNOWN"
	case st.Classification.Overall:
		return "PASS"
	}
	return "FAIL"
}

func buildInner(snap Snapshot) StatusInner {
	st := snap.State
	c := snap.Counts

	inner := StatusInner{
		PSU:           onOff(st.PSU),
		Load:          onOff(st.Load),
		Page:          st.Page.String(),
		Result:        result(st),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			PSUOn:         c.PSUOn,
			PSUOff:        c.PSUOff,
			LoadOn:        c.LoadOn,
			LoadOff:       c.LoadOff,
			LoadForcedOff: c.LoadForcedOff,
			LoadRefused:   c.LoadRefused,
			SpecPass:      c.SpecPass,
			SpecFail:      c.SpecFail,
			SensorFault:   c.SensorFault,
		},
		Config: ConfigJSON{
			CycleMs:     snap.Config.CycleMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Samples:     snap.Config.Samples,
			ADCSource:   snap.Config.ADCSource,
			Display:     snap.Config.Display,
			Diagnostics: snap.Config.Diagnostics,
		},
	}

	if st.Measured {
		for _, r := range logic.Rails {
			rd := st.Readings[r]
			band := snap.Config.Bands[r]
			inner.Rails = append(inner.Rails, RailJSON{
				Name:        r.String(),
				Raw:         rd.Raw,
				PinVoltage:  rd.PinVoltage,
				RailVoltage: rd.RailVoltage,
				Voltage:     rd.Calibrated,
				Min:         band.Min,
				Max:         band.Max,
				OK:          st.Classification.OK[r],
			})
		}
		for _, r := range st.Classification.Failed() {
			inner.Failed = append(inner.Failed, r.String())
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status for --print-state --json.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact JSON status for a lifecycle log line.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatText returns a human readable multi-line report.
func FormatText(snap Snapshot) string {
	st := snap.State
	var b strings.Builder

	if st.Measured {
		for _, r := range logic.Rails {
			rd := st.Readings[r]
			band := snap.Config.Bands[r]
			verdict := "ok"
			if !st.Classification.OK[r] {
				verdict = "OUT OF RANGE"
			}
			fmt.Fprintf(&b, "%-5s %6.3f V  (raw %.1f, pin %.3f V, divider %.3f V)  [%.3f, %.3f] %s\n",
				r.String()+":", rd.Calibrated, rd.Raw, rd.PinVoltage, rd.RailVoltage, band.Min, band.Max, verdict)
		}
	} else {
		b.WriteString("rails: not measured\n")
	}
	fmt.Fprintf(&b, "PSU: %s, Load: %s, Result: %s\n", onOff(st.PSU), onOff(st.Load), result(st))
	return b.String()
}
