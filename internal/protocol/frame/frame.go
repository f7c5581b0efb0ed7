package frame

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

// Wire layout, little-endian:
//
//	0  6  magic "i3-ipc"
//	6  4  payload length (u32)
//	10 2  type (u16)
//	12 2  flags (u16), FlagEvent marks a pushed event
//	14 n  payload
//
// The type and flags words together form the u32 type field of the i3 wire
// format; FlagEvent is bit 31 of that field.
const (
	MagicLen  = 6
	HeaderLen = MagicLen + 8

	FlagEvent uint16 = 0x8000
)

var Magic = [MagicLen]byte{'i', '3', '-', 'i', 'p', 'c'}

var ErrInvalidHeader = errors.New("frame: invalid header")

// InvalidHeaderError reports a header that could not be decoded. Skipped is
// the number of bytes a Decoder discarded to resynchronise.
type InvalidHeaderError struct {
	Reason  string
	Skipped int
}

func (e *InvalidHeaderError) Error() string {
	if e.Skipped > 0 {
		return fmt.Sprintf("frame: invalid header: %s (skipped %d bytes)", e.Reason, e.Skipped)
	}
	return fmt.Sprintf("frame: invalid header: %s", e.Reason)
}

func (e *InvalidHeaderError) Unwrap() error {
	return ErrInvalidHeader
}

// Header is the fixed wire header.
type Header struct {
	PayloadLen uint32
	Type       uint16
	Flags      uint16
}

func (h Header) IsEvent() bool {
	return h.Flags&FlagEvent != 0
}

// Frame is one complete wire message.
type Frame struct {
	Header  Header
	Payload []byte
}

// Text returns the payload as a string, empty when absent.
func (f Frame) Text() string {
	return string(f.Payload)
}

// Encode serializes payload as JSON and frames it as a command of type typ.
// []byte and json.RawMessage are taken as already serialized; nil produces an
// empty body.
func Encode(typ uint16, payload any) ([]byte, error) {
	text, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	return EncodeRaw(typ, 0, text), nil
}

// EncodeRaw frames an already serialized payload.
func EncodeRaw(typ uint16, flags uint16, payload []byte) []byte {
	buf := make([]byte, HeaderLen+len(payload))
	putHeader(buf, Header{PayloadLen: uint32(len(payload)), Type: typ, Flags: flags})
	copy(buf[HeaderLen:], payload)
	return buf
}

// DecodeHeader decodes the first HeaderLen bytes of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, &InvalidHeaderError{Reason: fmt.Sprintf("short header: %d bytes", len(b))}
	}
	if !bytes.Equal(b[:MagicLen], Magic[:]) {
		return Header{}, &InvalidHeaderError{Reason: fmt.Sprintf("magic mismatch: %q", b[:MagicLen])}
	}
	return Header{
		PayloadLen: binary.LittleEndian.Uint32(b[6:10]),
		Type:       binary.LittleEndian.Uint16(b[10:12]),
		Flags:      binary.LittleEndian.Uint16(b[12:14]),
	}, nil
}

func putHeader(buf []byte, h Header) {
	copy(buf[0:MagicLen], Magic[:])
	binary.LittleEndian.PutUint32(buf[6:10], h.PayloadLen)
	binary.LittleEndian.PutUint16(buf[10:12], h.Type)
	binary.LittleEndian.PutUint16(buf[12:14], h.Flags)
}

func marshalPayload(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	}
	text, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("frame: encode payload: %w", err)
	}
	return text, nil
}
