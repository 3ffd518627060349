package logic

// ATX tolerance bands (±5%).
var (
	Band12V = ToleranceBand{Min: 11.40, Max: 12.60}
	Band5V  = ToleranceBand{Min: 4.75, Max: 5.25}
	Band3V3 = ToleranceBand{Min: 3.135, Max: 3.465}
)

// DefaultBands lists the ATX bands indexed by Rail.
var DefaultBands = [RailCount]ToleranceBand{Band12V, Band5V, Band3V3}

// Classify compares each voltage to its band. Voltages and bands are indexed by Rail.
func Classify(v [RailCount]float64, bands [RailCount]ToleranceBand) Classification {
	var c Classification
	c.Overall = true
	for _, r := range Rails {
		c.OK[r] = bands[r].Contains(v[r])
		c.Overall = c.Overall && c.OK[r]
	}
	return c
}

// ClassifyATX classifies the three rails against the fixed ATX bands.
func ClassifyATX(v12, v5, v3 float64) Classification {
	return Classify([RailCount]float64{v12, v5, v3}, DefaultBands)
}
