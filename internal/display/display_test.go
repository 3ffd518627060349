package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/atx-psu-tester/internal/logic"
)

func TestShowOnFake(t *testing.T) {
	f := NewFake()

	require.NoError(t, Show(f, logic.Screen{"ATX: PASS", "all ok"}))
	assert.Equal(t, logic.Screen{"ATX: PASS", "all ok"}, f.Screen())
	assert.Equal(t, 1, f.Clears)

	// A shorter frame must not leave the old text behind.
	require.NoError(t, Show(f, logic.Screen{"12:12.00", ""}))
	assert.Equal(t, logic.Screen{"12:12.00", ""}, f.Screen())
}

func TestFakeClipsAtLastColumn(t *testing.T) {
	f := NewFake()
	f.SetCursor(10, 0)
	f.Print("0123456789")
	f.SetCursor(0, 5)
	f.Print("off screen")

	assert.Equal(t, "          012345", f.Screen()[0])
	assert.Equal(t, "", f.Screen()[1])
}

func TestFakePrintNumber(t *testing.T) {
	f := NewFake()
	f.Print("12:")
	f.PrintNumber(12.006, 2)
	f.Print(" 5:")
	f.PrintNumber(5.0486, 2)

	assert.Equal(t, "12:12.01 5:5.05", f.Screen()[0])
}

func TestTerminalFlush(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	require.NoError(t, Show(term, logic.SplashScreen))

	want := strings.Join([]string{
		"+----------------+",
		"|ATX PSU Tester  |",
		"|Flip PSU switch |",
		"+----------------+",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("closed pipe") }

func TestTerminalWriteError(t *testing.T) {
	term := NewTerminal(failingWriter{})

	err := Show(term, logic.SplashScreen)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed pipe")
}

// flakyWriter fails its first write.
type flakyWriter struct {
	bytes.Buffer
	failed bool
}

func (w *flakyWriter) Write(p []byte) (int, error) {
	if !w.failed {
		w.failed = true
		return 0, errors.New("pty gone")
	}
	return w.Buffer.Write(p)
}

func TestTerminalRecoversOnNextFrame(t *testing.T) {
	w := &flakyWriter{}
	term := NewTerminal(w)

	require.Error(t, Show(term, logic.SplashScreen))
	require.NoError(t, Show(term, logic.SplashScreen))
	assert.Contains(t, w.String(), "|ATX PSU Tester  |")
}

// recordingPins records every SetValues call.
type recordingPins struct {
	writes [][]int
	failAt int // 1-based call number that fails; 0 never
	closed bool
}

func (p *recordingPins) SetValues(v []int) error {
	p.writes = append(p.writes, append([]int(nil), v...))
	if p.failAt != 0 && len(p.writes) == p.failAt {
		return errors.New("line busy")
	}
	return nil
}

func (p *recordingPins) Close() error {
	p.closed = true
	return nil
}

// nibbles decodes the nibbles latched on falling E edges, with their RS level.
func (p *recordingPins) nibbles() (rs []int, n []byte) {
	for _, w := range p.writes {
		if w[1] != 0 {
			continue
		}
		rs = append(rs, w[0])
		n = append(n, byte(w[2]|w[3]<<1|w[4]<<2|w[5]<<3))
	}
	return rs, n
}

func noSleep(time.Duration) {}

func TestHD44780InitSequence(t *testing.T) {
	pins := &recordingPins{}
	_, err := newHD44780(pins, noSleep)
	require.NoError(t, err)

	_, n := pins.nibbles()
	want := []byte{
		0x3, 0x3, 0x3, 0x2, // 4-bit entry
		0x2, 0x8, // function set
		0x0, 0xC, // display on
		0x0, 0x1, // clear
		0x0, 0x6, // entry mode
	}
	assert.Equal(t, want, n)
}

func TestHD44780PrintAndCursor(t *testing.T) {
	pins := &recordingPins{}
	d, err := newHD44780(pins, noSleep)
	require.NoError(t, err)
	pins.writes = nil

	d.SetCursor(0, 1)
	d.Print("A")

	rs, n := pins.nibbles()
	assert.Equal(t, []int{0, 0, 1, 1}, rs)
	assert.Equal(t, []byte{0xC, 0x0, 0x4, 0x1}, n) // 0xC0 then 'A' (0x41)
	assert.NoError(t, d.Err())
}

func TestHD44780ClipsLongText(t *testing.T) {
	pins := &recordingPins{}
	d, err := newHD44780(pins, noSleep)
	require.NoError(t, err)
	pins.writes = nil

	d.SetCursor(14, 0)
	d.Print("xyz")

	rs, _ := pins.nibbles()
	data := 0
	for _, v := range rs {
		data += v
	}
	assert.Equal(t, 4, data, "two characters, two nibbles each")
}

func TestHD44780IgnoresBadCursor(t *testing.T) {
	pins := &recordingPins{}
	d, err := newHD44780(pins, noSleep)
	require.NoError(t, err)
	pins.writes = nil

	d.SetCursor(0, 2)
	d.SetCursor(16, 0)
	assert.Empty(t, pins.writes)
}

func TestHD44780ErrorIsPerFrame(t *testing.T) {
	pins := &recordingPins{}
	d, err := newHD44780(pins, noSleep)
	require.NoError(t, err)
	pins.writes = nil
	pins.failAt = 1

	require.Error(t, Show(d, logic.SplashScreen))
	assert.Len(t, pins.writes, 1, "no writes after the first failure in a frame")

	// The next frame drives the lines again and draws in full.
	pins.writes = nil
	pins.failAt = 0
	require.NoError(t, Show(d, logic.SplashScreen))
	rs, _ := pins.nibbles()
	data := 0
	for _, v := range rs {
		data += v
	}
	assert.Equal(t, 2*len("ATX PSU Tester")+2*len("Flip PSU switch"), data)
}

func TestHD44780InitFailure(t *testing.T) {
	_, err := newHD44780(&recordingPins{failAt: 1}, noSleep)
	assert.Error(t, err)
}

func TestHD44780Close(t *testing.T) {
	pins := &recordingPins{}
	d, err := newHD44780(pins, noSleep)
	require.NoError(t, err)

	require.NoError(t, d.Close())
	assert.True(t, pins.closed)
}

func TestDisplaysSatisfyInterface(t *testing.T) {
	var _ Display = NewFake()
	var _ Display = NewTerminal(&bytes.Buffer{})
	var _ Display = &HD44780{}
}
