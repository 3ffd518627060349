package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/sweeney/atx-psu-tester/internal/logic"
)

// grid is an in-memory 16x2 character surface with display-like clipping:
// text past the last column is dropped.
type grid struct {
	cells [Rows][Cols]byte
	col   int
	row   int
}

func (g *grid) clear() {
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = ' '
		}
	}
	g.col, g.row = 0, 0
}

func (g *grid) setCursor(col, row int) {
	g.col, g.row = col, row
}

func (g *grid) print(s string) {
	for i := 0; i < len(s); i++ {
		if g.row >= 0 && g.row < Rows && g.col >= 0 && g.col < Cols {
			g.cells[g.row][g.col] = s[i]
		}
		g.col++
	}
}

func (g *grid) screen() logic.Screen {
	var s logic.Screen
	for r := range g.cells {
		s[r] = strings.TrimRight(string(g.cells[r][:]), " ")
	}
	return s
}

// Fake is an in-memory display for tests.
type Fake struct {
	g grid

	// Clears counts Clear calls.
	Clears int
	Closed bool
}

// NewFake creates a blank Fake display.
func NewFake() *Fake {
	f := &Fake{}
	f.g.clear()
	return f
}

// Clear blanks the grid and counts the call.
func (f *Fake) Clear() {
	f.Clears++
	f.g.clear()
}

// SetCursor moves the write position.
func (f *Fake) SetCursor(col, row int) { f.g.setCursor(col, row) }

// Print writes s at the cursor, clipped to the grid.
func (f *Fake) Print(s string) { f.g.print(s) }

// PrintNumber prints n with the given number of decimals.
func (f *Fake) PrintNumber(n float64, decimals int) {
	f.g.print(formatNumber(n, decimals))
}

// Err always returns nil.
func (f *Fake) Err() error { return nil }

// Close marks the display closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Screen returns the current contents with trailing blanks removed.
func (f *Fake) Screen() logic.Screen {
	return f.g.screen()
}

// Terminal renders frames as a boxed 16x2 panel on a writer, for benches
// without an LCD attached.
type Terminal struct {
	g   grid
	w   io.Writer
	err error
}

// NewTerminal creates a Terminal writing frames to w.
func NewTerminal(w io.Writer) *Terminal {
	t := &Terminal{w: w}
	t.g.clear()
	return t
}

// Clear starts a new frame and forgets the last write error.
func (t *Terminal) Clear() {
	t.err = nil
	t.g.clear()
}

// SetCursor moves the write position.
func (t *Terminal) SetCursor(col, row int) { t.g.setCursor(col, row) }

// Print writes s at the cursor, clipped to the panel.
func (t *Terminal) Print(s string) { t.g.print(s) }

// PrintNumber prints n with the given number of decimals.
func (t *Terminal) PrintNumber(n float64, decimals int) {
	t.g.print(formatNumber(n, decimals))
}

// Err returns the error from the last Flush, if any.
func (t *Terminal) Err() error { return t.err }

// Close is a no-op; the writer belongs to the caller.
func (t *Terminal) Close() error { return nil }

// Flush writes the current frame.
func (t *Terminal) Flush() {
	if t.err != nil {
		return
	}
	border := "+" + strings.Repeat("-", Cols) + "+\n"
	var b strings.Builder
	b.WriteString(border)
	for r := range t.g.cells {
		b.WriteString("|")
		b.Write(t.g.cells[r][:])
		b.WriteString("|\n")
	}
	b.WriteString(border)
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		t.err = fmt.Errorf("write frame: %w", err)
	}
}
