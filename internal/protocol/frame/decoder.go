package frame

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrIncomplete means the buffered bytes do not yet hold a whole frame.
var ErrIncomplete = errors.New("frame: incomplete")

// Limits constrains decode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 64 * 1024 * 1024,
	}
}

// Decoder assembles frames from an arbitrarily chunked byte stream.
// It is not safe for concurrent use.
type Decoder struct {
	limits Limits
	buf    []byte
}

func NewDecoder(limits Limits) *Decoder {
	if limits.MaxPayloadBytes == 0 {
		limits = DefaultLimits()
	}
	return &Decoder{limits: limits}
}

// Write appends p to the pending bytes. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Buffered reports how many bytes are waiting for a complete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Next returns the next complete frame in arrival order.
//
// ErrIncomplete is returned when more bytes are needed. An *InvalidHeaderError
// is returned after a malformed prefix has been discarded; the caller should
// keep calling Next.
func (d *Decoder) Next() (Frame, error) {
	if len(d.buf) == 0 {
		return Frame{}, ErrIncomplete
	}

	n := min(len(d.buf), MagicLen)
	if !bytes.Equal(d.buf[:n], Magic[:n]) {
		return Frame{}, d.skip(fmt.Sprintf("magic mismatch: %q", d.buf[:n]))
	}
	if len(d.buf) < HeaderLen {
		return Frame{}, ErrIncomplete
	}

	h, err := DecodeHeader(d.buf[:HeaderLen])
	if err != nil {
		return Frame{}, d.skip(err.Error())
	}
	if h.PayloadLen > d.limits.MaxPayloadBytes {
		return Frame{}, d.skip(fmt.Sprintf("payload length %d over limit %d", h.PayloadLen, d.limits.MaxPayloadBytes))
	}

	total := HeaderLen + int(h.PayloadLen)
	if len(d.buf) < total {
		return Frame{}, ErrIncomplete
	}

	var payload []byte
	if h.PayloadLen > 0 {
		payload = make([]byte, h.PayloadLen)
		copy(payload, d.buf[HeaderLen:total])
	}
	d.consume(total)
	return Frame{Header: h, Payload: payload}, nil
}

// skip drops the byte at the head of the buffer plus everything up to the next
// position that could start a magic literal.
func (d *Decoder) skip(reason string) error {
	n := resyncOffset(d.buf)
	d.consume(n)
	return &InvalidHeaderError{Reason: reason, Skipped: n}
}

func (d *Decoder) consume(n int) {
	if n >= len(d.buf) {
		d.buf = d.buf[:0]
		return
	}
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
}

// resyncOffset returns the smallest offset >= 1 at which b holds a (possibly
// partial) magic literal, or len(b).
func resyncOffset(b []byte) int {
	for i := 1; i < len(b); i++ {
		if b[i] != Magic[0] {
			continue
		}
		n := min(len(b)-i, MagicLen)
		if bytes.Equal(b[i:i+n], Magic[:n]) {
			return i
		}
	}
	return len(b)
}
