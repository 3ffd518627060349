package adc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the bridge firmware.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds one request/response exchange.
	DefaultReadTimeout = 100 * time.Millisecond
)

// errTimeout is returned when the bridge does not answer in time.
var errTimeout = errors.New("bridge read timeout")

// Bridge talks to a microcontroller that performs the conversions.
//
// Protocol, one exchange per conversion:
//
//	-> R<channel>\n
//	<- <channel> <code>\n      or  <channel> ERR <message>\n
//
// Replies echo the channel so a reply that arrives after its exchange timed
// out is never credited to a later request.
type Bridge struct {
	rw     io.ReadWriter
	r      *bufio.Reader
	closer io.Closer

	// resync is set after a failed exchange; pending input is dropped
	// before the next request.
	resync bool
}

// maxStaleReplies bounds how many replies for other channels one exchange
// skips before giving up.
const maxStaleReplies = 8

// resetter is implemented by ports that can drop unread input.
type resetter interface {
	ResetInputBuffer() error
}

// NewBridge creates a Bridge over an already open stream.
func NewBridge(rw io.ReadWriter) *Bridge {
	return &Bridge{rw: rw, r: bufio.NewReader(timeoutReader{rw})}
}

// OpenSerial opens the serial port and returns a Bridge on it.
func OpenSerial(port string, baudRate int) (*Bridge, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	p, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	if err := p.SetReadTimeout(DefaultReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", port, err)
	}
	// Discard anything the bridge printed while booting.
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, fmt.Errorf("reset input buffer on %s: %w", port, err)
	}

	b := NewBridge(p)
	b.closer = p
	return b, nil
}

// ReadRaw requests one conversion for the channel.
func (b *Bridge) ReadRaw(channel int) (int, error) {
	if b.resync {
		b.discardInput()
	}

	if _, err := fmt.Fprintf(b.rw, "R%d\n", channel); err != nil {
		b.resync = true
		return 0, fmt.Errorf("write request: %w", err)
	}

	for stale := 0; stale <= maxStaleReplies; stale++ {
		line, err := b.r.ReadString('\n')
		if err != nil {
			b.resync = true
			return 0, fmt.Errorf("read response for channel %d: %w", channel, err)
		}

		ch, body, err := splitReply(line)
		if err != nil {
			b.resync = true
			return 0, err
		}
		if ch != channel {
			// Late answer to an earlier request.
			continue
		}

		if strings.HasPrefix(body, "ERR") {
			return 0, fmt.Errorf("bridge channel %d: %s", channel, strings.TrimSpace(strings.TrimPrefix(body, "ERR")))
		}
		code, err := strconv.Atoi(body)
		if err != nil {
			return 0, fmt.Errorf("parse response %q: %w", strings.TrimSpace(line), err)
		}
		return code, nil
	}

	b.resync = true
	return 0, fmt.Errorf("read response for channel %d: more than %d replies for other channels", channel, maxStaleReplies)
}

// splitReply splits "<channel> <body>".
func splitReply(line string) (int, string, error) {
	line = strings.TrimSpace(line)
	head, body, ok := strings.Cut(line, " ")
	if !ok {
		return 0, "", fmt.Errorf("malformed response %q", line)
	}
	ch, err := strconv.Atoi(head)
	if err != nil {
		return 0, "", fmt.Errorf("malformed response %q: %w", line, err)
	}
	return ch, strings.TrimSpace(body), nil
}

// discardInput drops buffered bytes and, when the port supports it, input
// the driver has received but not yet delivered.
func (b *Bridge) discardInput() {
	b.r.Reset(timeoutReader{b.rw})
	if r, ok := b.rw.(resetter); ok {
		_ = r.ResetInputBuffer()
	}
	b.resync = false
}

// Close closes the serial port, if the Bridge owns one.
func (b *Bridge) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// timeoutReader turns the serial driver's (0, nil) timeout result into an error,
// so a silent bridge fails the read instead of spinning in bufio.
type timeoutReader struct {
	r io.Reader
}

func (t timeoutReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n == 0 && err == nil {
		return 0, errTimeout
	}
	return n, err
}
