// Package display provides the 16x2 character display the tester reports on.
//
// Drawing calls do not return errors. Implementations that can fail keep the
// first error of the current frame and report it from Err. Clear starts a
// new frame and forgets the previous error.
package display

import (
	"strconv"

	"github.com/sweeney/atx-psu-tester/internal/logic"
)

// Display geometry.
const (
	Cols = 16
	Rows = 2
)

// Display is a character display surface.
type Display interface {
	Clear()
	SetCursor(col, row int)
	Print(s string)

	// PrintNumber is the LCD driver's numeric print. Screens arrive
	// pre-rendered from logic.Render, so the loop itself never calls it.
	PrintNumber(n float64, decimals int)

	// Err returns the first error a drawing call hit since Clear, if any.
	Err() error

	Close() error
}

// flusher is implemented by displays that buffer a frame before output.
type flusher interface {
	Flush()
}

// Show draws a full screen.
func Show(d Display, s logic.Screen) error {
	d.Clear()
	for row, text := range s {
		d.SetCursor(0, row)
		d.Print(text)
	}
	if f, ok := d.(flusher); ok {
		f.Flush()
	}
	return d.Err()
}

func formatNumber(n float64, decimals int) string {
	return strconv.FormatFloat(n, 'f', decimals, 64)
}
