package display

import (
	"fmt"
	"time"
)

// HD44780 drives a 16x2 HD44780-compatible LCD in 4-bit mode.
type HD44780 struct {
	pins  pinWriter
	sleep func(time.Duration)
	col   int
	row   int
	err   error
}

// pinWriter sets RS, E, D4, D5, D6, D7 in that order with one call.
type pinWriter interface {
	SetValues(values []int) error
	Close() error
}

// LCDPins maps the LCD control and data lines to GPIO line offsets.
type LCDPins struct {
	RS int
	E  int
	D4 int
	D5 int
	D6 int
	D7 int
}

// DefaultLCDPins is the LCD wiring (BCM numbering).
var DefaultLCDPins = LCDPins{RS: 5, E: 6, D4: 13, D5: 19, D6: 26, D7: 21}

func (p LCDPins) offsets() []int {
	return []int{p.RS, p.E, p.D4, p.D5, p.D6, p.D7}
}

// HD44780 instruction set subset.
const (
	lcdClear       = 0x01
	lcdEntryMode   = 0x06 // increment, no shift
	lcdDisplayOn   = 0x0C // display on, cursor off, blink off
	lcdFunctionSet = 0x28 // 4-bit, 2 lines, 5x8 font
	lcdSetDDRAM    = 0x80
)

var rowOffsets = [Rows]int{0x00, 0x40}

func newHD44780(pins pinWriter, sleep func(time.Duration)) (*HD44780, error) {
	d := &HD44780{pins: pins, sleep: sleep}
	d.init()
	if d.err != nil {
		return nil, fmt.Errorf("init lcd: %w", d.err)
	}
	return d, nil
}

// init runs the 4-bit initialisation by instruction sequence.
func (d *HD44780) init() {
	d.sleep(50 * time.Millisecond)
	d.write4(0, 0x3)
	d.sleep(4500 * time.Microsecond)
	d.write4(0, 0x3)
	d.sleep(4500 * time.Microsecond)
	d.write4(0, 0x3)
	d.sleep(150 * time.Microsecond)
	d.write4(0, 0x2)

	d.command(lcdFunctionSet)
	d.command(lcdDisplayOn)
	d.clear()
	d.command(lcdEntryMode)
}

func (d *HD44780) write4(rs int, nibble byte) {
	if d.err != nil {
		return
	}
	v := []int{rs, 1, bit(nibble, 0), bit(nibble, 1), bit(nibble, 2), bit(nibble, 3)}
	if err := d.pins.SetValues(v); err != nil {
		d.err = err
		return
	}
	d.sleep(time.Microsecond)
	v[1] = 0
	if err := d.pins.SetValues(v); err != nil {
		d.err = err
		return
	}
	d.sleep(50 * time.Microsecond)
}

func bit(b byte, n uint) int {
	return int(b>>n) & 1
}

func (d *HD44780) send(rs int, b byte) {
	d.write4(rs, b>>4)
	d.write4(rs, b&0x0F)
}

func (d *HD44780) command(b byte) {
	d.send(0, b)
}

// Clear blanks the display and homes the cursor. It starts a new frame, so
// an error from the previous frame is dropped and the lines are tried again.
func (d *HD44780) Clear() {
	d.err = nil
	d.clear()
}

func (d *HD44780) clear() {
	d.command(lcdClear)
	d.sleep(2 * time.Millisecond)
	d.col, d.row = 0, 0
}

// SetCursor moves the cursor. Out of range positions are ignored.
func (d *HD44780) SetCursor(col, row int) {
	if row < 0 || row >= Rows || col < 0 || col >= Cols {
		return
	}
	d.command(lcdSetDDRAM | byte(col+rowOffsets[row]))
	d.col, d.row = col, row
}

// Print writes ASCII text at the cursor, dropping characters past the last column.
func (d *HD44780) Print(s string) {
	for i := 0; i < len(s) && d.col < Cols; i++ {
		d.send(1, s[i])
		d.col++
	}
}

// PrintNumber prints n with the given number of decimals.
func (d *HD44780) PrintNumber(n float64, decimals int) {
	d.Print(formatNumber(n, decimals))
}

// Err returns the first line write error since the last Clear.
func (d *HD44780) Err() error {
	if d.err != nil {
		return fmt.Errorf("lcd write: %w", d.err)
	}
	return nil
}

// Close blanks the display and releases the lines.
func (d *HD44780) Close() error {
	d.Clear()
	return d.pins.Close()
}
