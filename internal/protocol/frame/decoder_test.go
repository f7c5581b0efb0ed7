package frame

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func sampleStream() ([]byte, []Frame) {
	frames := []Frame{
		{Header: Header{Type: 2}, Payload: []byte(`{"success":true}`)},
		{Header: Header{Type: 3, Flags: FlagEvent}, Payload: []byte(`{"change":"focus","container":{"id":7}}`)},
		{Header: Header{Type: 4}},
		{Header: Header{Type: 0, Flags: FlagEvent}, Payload: []byte(`{"change":"init"}`)},
	}
	var stream []byte
	for i := range frames {
		frames[i].Header.PayloadLen = uint32(len(frames[i].Payload))
		stream = append(stream, EncodeRaw(frames[i].Header.Type, frames[i].Header.Flags, frames[i].Payload)...)
	}
	return stream, frames
}

func drain(t *testing.T, d *Decoder) ([]Frame, int) {
	t.Helper()
	var out []Frame
	var headerErrs int
	for {
		f, err := d.Next()
		if errors.Is(err, ErrIncomplete) {
			return out, headerErrs
		}
		if errors.Is(err, ErrInvalidHeader) {
			headerErrs++
			continue
		}
		if err != nil {
			t.Fatalf("unexpected decode error: %v", err)
		}
		out = append(out, f)
	}
}

func assertFrames(t *testing.T, got, want []Frame) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("frame count got=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if got[i].Header != want[i].Header {
			t.Fatalf("frame %d header got=%+v want=%+v", i, got[i].Header, want[i].Header)
		}
		if !bytes.Equal(got[i].Payload, want[i].Payload) {
			t.Fatalf("frame %d payload got=%q want=%q", i, got[i].Payload, want[i].Payload)
		}
	}
}

func TestDecoderWholeStream(t *testing.T) {
	stream, want := sampleStream()
	d := NewDecoder(DefaultLimits())
	_, _ = d.Write(stream)
	got, errs := drain(t, d)
	if errs != 0 {
		t.Fatalf("unexpected header errors=%d", errs)
	}
	assertFrames(t, got, want)
	if d.Buffered() != 0 {
		t.Fatalf("expected empty buffer, got=%d", d.Buffered())
	}
}

func TestDecoderArbitraryChunkingMatchesWholeStream(t *testing.T) {
	stream, want := sampleStream()
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 200; round++ {
		d := NewDecoder(DefaultLimits())
		var got []Frame
		for off := 0; off < len(stream); {
			n := 1 + rng.Intn(24)
			if off+n > len(stream) {
				n = len(stream) - off
			}
			_, _ = d.Write(stream[off : off+n])
			frames, errs := drain(t, d)
			if errs != 0 {
				t.Fatalf("round %d: unexpected header errors=%d", round, errs)
			}
			got = append(got, frames...)
			off += n
		}
		assertFrames(t, got, want)
	}
}

func TestDecoderByteAtATime(t *testing.T) {
	stream, want := sampleStream()
	d := NewDecoder(DefaultLimits())
	var got []Frame
	for i := range stream {
		_, _ = d.Write(stream[i : i+1])
		frames, _ := drain(t, d)
		got = append(got, frames...)
	}
	assertFrames(t, got, want)
}

func TestDecoderWithholdsTruncatedPayload(t *testing.T) {
	full := EncodeRaw(3, FlagEvent, []byte(`{"change":"focus"}`))
	d := NewDecoder(DefaultLimits())
	_, _ = d.Write(full[:len(full)-3])
	if _, err := d.Next(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete for truncated payload, got %v", err)
	}
	if d.Buffered() != len(full)-3 {
		t.Fatalf("partial bytes not retained: %d", d.Buffered())
	}
	_, _ = d.Write(full[len(full)-3:])
	f, err := d.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if f.Text() != `{"change":"focus"}` {
		t.Fatalf("payload got=%q", f.Text())
	}
}

func TestDecoderSkipsGarbageAndContinues(t *testing.T) {
	stream, want := sampleStream()
	garbage := append([]byte("xxi3-zz"), stream...)
	d := NewDecoder(DefaultLimits())
	_, _ = d.Write(garbage)

	_, err := d.Next()
	var invalid *InvalidHeaderError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidHeaderError, got %v", err)
	}
	got, _ := drain(t, d)
	assertFrames(t, got, want)
}

func TestDecoderBadMagicMidStream(t *testing.T) {
	good := EncodeRaw(3, FlagEvent, []byte(`{}`))
	bad := EncodeRaw(3, FlagEvent, []byte(`{}`))
	bad[2] = '4'
	stream := append(append(append([]byte{}, good...), bad...), good...)

	d := NewDecoder(DefaultLimits())
	_, _ = d.Write(stream)
	got, errs := drain(t, d)
	if errs == 0 {
		t.Fatalf("expected at least one header error")
	}
	if len(got) != 2 {
		t.Fatalf("expected both good frames, got=%d", len(got))
	}
}

func TestDecoderRejectsOversizedPayload(t *testing.T) {
	d := NewDecoder(Limits{MaxPayloadBytes: 4})
	_, _ = d.Write(EncodeRaw(3, FlagEvent, []byte(`{"a":1}`)))
	_, err := d.Next()
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader for oversized payload, got %v", err)
	}
}
