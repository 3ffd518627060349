package logic

import (
	"fmt"
	"strings"
)

// Page is the UI page currently shown.
type Page int

const (
	PageVoltages Page = iota
	PageStatus

	pageCount = 2
)

// Next returns the page after p, wrapping modulo the page count.
func (p Page) Next() Page {
	return (p + 1) % pageCount
}

func (p Page) String() string {
	switch p {
	case PageVoltages:
		return "VOLTAGES"
	case PageStatus:
		return "STATUS"
	}
	return "UNKNOWN"
}

// Screen is the text of a 16x2 display, one string per row.
type Screen [2]string

// Fixed screens.
var (
	SplashScreen  = Screen{"ATX PSU Tester", "Flip PSU switch"}
	StoppedScreen = Screen{"Stopped", "Load off"}
)

// Render composes the display text for the given page.
func Render(page Page, r Readings, c Classification, psu, load bool) Screen {
	if page == PageStatus {
		return RenderStatus(c)
	}
	return RenderVoltages(r, psu, load)
}

// RenderVoltages shows the three calibrated voltages and the P/L indicators.
func RenderVoltages(r Readings, psu, load bool) Screen {
	return Screen{
		fmt.Sprintf("12:%.2f 5:%.2f", r[Rail12V].Calibrated, r[Rail5V].Calibrated),
		fmt.Sprintf("3:%.2f %s %s", r[Rail3V3].Calibrated, indicator("P", psu), indicator("L", load)),
	}
}

// RenderStatus shows PASS/FAIL and the failing rails, or "all ok".
func RenderStatus(c Classification) Screen {
	if c.Overall {
		return Screen{"ATX: PASS", "all ok"}
	}
	var names []string
	for _, r := range c.Failed() {
		names = append(names, r.Label())
	}
	return Screen{"ATX: FAIL", strings.Join(names, " ")}
}

func indicator(name string, on bool) string {
	if on {
		return name + ":Y"
	}
	return name + ":N"
}
