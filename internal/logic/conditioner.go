package logic

import "fmt"

// DefaultSamples is the number of raw conversions averaged per rail reading.
const DefaultSamples = 10

// Sampler is the analog input collaborator.
type Sampler interface {
	// ReadRaw returns one conversion code in [0, full scale] for the channel.
	ReadRaw(channel int) (int, error)
}

// Conditioner turns averaged ADC samples into calibrated rail voltages.
type Conditioner struct {
	sampler Sampler
	adc     ADC
	samples int
}

// NewConditioner creates a Conditioner averaging n samples per reading.
// n <= 0 selects DefaultSamples.
func NewConditioner(sampler Sampler, adc ADC, n int) *Conditioner {
	if n <= 0 {
		n = DefaultSamples
	}
	return &Conditioner{sampler: sampler, adc: adc, samples: n}
}

// Measure averages the configured number of samples from the rail's channel
// and converts the average to a Reading.
func (c *Conditioner) Measure(rc RailConfig) (Reading, error) {
	var sum int64
	for i := 0; i < c.samples; i++ {
		code, err := c.sampler.ReadRaw(rc.Channel)
		if err != nil {
			return Reading{Rail: rc.Rail}, fmt.Errorf("read %s channel %d: %w", rc.Rail, rc.Channel, err)
		}
		sum += int64(code)
	}
	return Convert(float64(sum)/float64(c.samples), c.adc, rc), nil
}

// MeasureAll measures every rail. The first failing rail aborts the cycle.
func (c *Conditioner) MeasureAll(rails [RailCount]RailConfig) (Readings, error) {
	var out Readings
	for _, rc := range rails {
		r, err := c.Measure(rc)
		if err != nil {
			return out, err
		}
		out[rc.Rail] = r
	}
	return out, nil
}

// Convert reconstructs the rail voltage from an averaged code.
// Results are not clamped: out-of-range inputs produce out-of-range volts.
func Convert(avg float64, adc ADC, rc RailConfig) Reading {
	pin := avg * adc.ReferenceVoltage / float64(adc.FullScale)
	rail := pin * (rc.Divider.Top + rc.Divider.Bottom) / rc.Divider.Bottom
	return Reading{
		Rail:        rc.Rail,
		Raw:         avg,
		PinVoltage:  pin,
		RailVoltage: rail,
		Calibrated:  rail * rc.Calibration,
	}
}

// InRange reports whether a reading is physically plausible: the averaged
// code is below full scale and the calibrated voltage is not negative.
func InRange(r Reading, adc ADC) bool {
	return r.Raw < float64(adc.FullScale) && r.Calibrated >= 0
}
