package adc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/atx-psu-tester/internal/logic"
)

func writeRaw(t *testing.T, dir string, channel int, content string) {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("in_voltage%d_raw", channel))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIIOReadRaw(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, 0, "796\n")
	writeRaw(t, dir, 2, "337")

	d := NewIIO(dir)

	code, err := d.ReadRaw(0)
	require.NoError(t, err)
	assert.Equal(t, 796, code)

	code, err = d.ReadRaw(2)
	require.NoError(t, err)
	assert.Equal(t, 337, code)

	assert.NoError(t, d.Close())
}

func TestIIOMissingChannel(t *testing.T) {
	d := NewIIO(t.TempDir())

	_, err := d.ReadRaw(5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestIIOGarbage(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, 1, "not-a-number\n")

	_, err := NewIIO(dir).ReadRaw(1)
	assert.Error(t, err)
}

// scriptedBridge answers requests from a per-channel reply table.
// A channel without a reply stays silent, which looks like a timeout.
type scriptedBridge struct {
	replies  map[int]string
	requests []string
	out      bytes.Buffer
}

func (s *scriptedBridge) Write(p []byte) (int, error) {
	req := strings.TrimSpace(string(p))
	s.requests = append(s.requests, req)
	ch, err := strconv.Atoi(strings.TrimPrefix(req, "R"))
	if err != nil {
		return 0, err
	}
	if reply, ok := s.replies[ch]; ok {
		s.out.WriteString(reply)
	}
	return len(p), nil
}

func (s *scriptedBridge) Read(p []byte) (int, error) {
	if s.out.Len() == 0 {
		return 0, nil
	}
	return s.out.Read(p)
}

func TestBridgeReadRaw(t *testing.T) {
	sb := &scriptedBridge{replies: map[int]string{0: "0 796\r\n", 1: "1 511\n"}}
	b := NewBridge(sb)

	code, err := b.ReadRaw(0)
	require.NoError(t, err)
	assert.Equal(t, 796, code)

	code, err = b.ReadRaw(1)
	require.NoError(t, err)
	assert.Equal(t, 511, code)

	assert.Equal(t, []string{"R0", "R1"}, sb.requests)
	assert.NoError(t, b.Close())
}

func TestBridgeErrorReply(t *testing.T) {
	sb := &scriptedBridge{replies: map[int]string{4: "4 ERR no such channel\n"}}

	_, err := NewBridge(sb).ReadRaw(4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such channel")
}

func TestBridgeTimeout(t *testing.T) {
	sb := &scriptedBridge{replies: map[int]string{}}

	_, err := NewBridge(sb).ReadRaw(2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errTimeout))
}

func TestBridgeRecoversAfterPartialLine(t *testing.T) {
	sb := &scriptedBridge{replies: map[int]string{0: "0 79", 1: "1 511\n"}}
	b := NewBridge(sb)

	_, err := b.ReadRaw(0)
	require.Error(t, err)

	code, err := b.ReadRaw(1)
	require.NoError(t, err)
	assert.Equal(t, 511, code)
}

func TestBridgeMalformedReply(t *testing.T) {
	sb := &scriptedBridge{replies: map[int]string{0: "796\n", 1: "1 511\n"}}
	b := NewBridge(sb)

	_, err := b.ReadRaw(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response")

	code, err := b.ReadRaw(1)
	require.NoError(t, err)
	assert.Equal(t, 511, code)
}

// lateBridge delays the reply to channels listed in late by one exchange:
// the host times out first and the reply lands in the stream afterwards.
type lateBridge struct {
	codes   map[int]int
	late    map[int]bool
	pending bytes.Buffer
	out     bytes.Buffer

	// resets counts ResetInputBuffer calls made through resettingLateBridge.
	resets int
}

func (l *lateBridge) Write(p []byte) (int, error) {
	ch, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(string(p)), "R"))
	if err != nil {
		return 0, err
	}
	reply := fmt.Sprintf("%d %d\n", ch, l.codes[ch])
	if l.late[ch] {
		delete(l.late, ch)
		l.pending.WriteString(reply)
	} else {
		l.out.WriteString(reply)
	}
	return len(p), nil
}

func (l *lateBridge) Read(p []byte) (int, error) {
	if l.out.Len() == 0 {
		// Timed out; the delayed reply arrives now.
		l.out.Write(l.pending.Bytes())
		l.pending.Reset()
		return 0, nil
	}
	return l.out.Read(p)
}

// resettingLateBridge also supports dropping unread input, like a serial port.
type resettingLateBridge struct {
	*lateBridge
}

func (r resettingLateBridge) ResetInputBuffer() error {
	r.resets++
	r.out.Reset()
	return nil
}

func TestBridgeIgnoresLateReply(t *testing.T) {
	lb := &lateBridge{codes: map[int]int{0: 100, 1: 900}, late: map[int]bool{0: true}}
	b := NewBridge(lb)

	_, err := b.ReadRaw(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errTimeout))

	// The stale "0 100" is in the stream ahead of channel 1's reply.
	code, err := b.ReadRaw(1)
	require.NoError(t, err)
	assert.Equal(t, 900, code, "channel 1 must not take channel 0's late reply")

	code, err = b.ReadRaw(0)
	require.NoError(t, err)
	assert.Equal(t, 100, code)
}

func TestBridgeResetsInputAfterFailure(t *testing.T) {
	lb := &lateBridge{codes: map[int]int{0: 100, 1: 900}, late: map[int]bool{0: true}}
	port := resettingLateBridge{lb}
	b := NewBridge(port)

	_, err := b.ReadRaw(0)
	require.Error(t, err)

	code, err := b.ReadRaw(1)
	require.NoError(t, err)
	assert.Equal(t, 900, code)
	assert.Equal(t, 1, lb.resets)

	// Healthy exchanges do not reset.
	_, err = b.ReadRaw(1)
	require.NoError(t, err)
	assert.Equal(t, 1, lb.resets)
}

func TestBridgeGivesUpOnOtherChannels(t *testing.T) {
	var noise strings.Builder
	for i := 0; i <= maxStaleReplies; i++ {
		noise.WriteString("2 337\n")
	}
	sb := &scriptedBridge{replies: map[int]string{0: noise.String()}}

	_, err := NewBridge(sb).ReadRaw(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "other channels")
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open(Options{Kind: "spi"})
	assert.Error(t, err)
}

func TestOpenIIO(t *testing.T) {
	src, err := Open(Options{Kind: KindIIO, IIODevice: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &IIO{}, src)
}

func TestFakeSampler(t *testing.T) {
	f := NewFakeSampler()
	f.Script(0, 100, 200)
	f.Set(1, 511)

	for _, want := range []int{100, 200, 200} {
		got, err := f.ReadRaw(0)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := f.ReadRaw(1)
	require.NoError(t, err)
	assert.Equal(t, 511, got)

	_, err = f.ReadRaw(9)
	assert.Error(t, err)

	f.ReadError = errors.New("simulated")
	_, err = f.ReadRaw(0)
	assert.EqualError(t, err, "simulated")
	assert.Equal(t, 4, f.Reads[0])
}

func TestSourcesFeedConditioner(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, 1, "511\n")

	c := logic.NewConditioner(NewIIO(dir), logic.ADC{ReferenceVoltage: 5.0, FullScale: 1023}, 10)
	r, err := c.Measure(logic.RailConfig{
		Rail:        logic.Rail5V,
		Channel:     1,
		Divider:     logic.Divider{Top: 9890, Bottom: 10000},
		Calibration: 1.0163,
	})
	require.NoError(t, err)
	assert.InDelta(t, 5.05, r.Calibrated, 0.01)
}
