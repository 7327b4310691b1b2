package codec

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestDecodeEmptyPayload(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("0:"))
	got, err := Decode(r)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty payload, got %q", got)
	}
}

func TestDecodeExactLength(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("9:123456789"))
	got, err := Decode(r)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if string(got) != "123456789" {
		t.Errorf("expected %q, got %q", "123456789", got)
	}
}

func TestDecodeShortBodyIsUnexpectedEnd(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("9:12345678"))
	_, err := Decode(r)
	fe, ok := err.(*FramingError)
	if !ok || fe.Kind != "UnexpectedEnd" {
		t.Fatalf("expected UnexpectedEnd, got %v", err)
	}
}

func TestDecodeNonDigitIsUnexpectedByte(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("9x:123456789"))
	_, err := Decode(r)
	fe, ok := err.(*FramingError)
	if !ok || fe.Kind != "UnexpectedByte" {
		t.Fatalf("expected UnexpectedByte, got %v", err)
	}
}

func TestDecodeMissingColonIsUnexpectedEnd(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("123"))
	_, err := Decode(r)
	fe, ok := err.(*FramingError)
	if !ok || fe.Kind != "UnexpectedEnd" {
		t.Fatalf("expected UnexpectedEnd, got %v", err)
	}
}

func TestDecodeInvalidUTF8(t *testing.T) {
	body := []byte{0xff, 0xfe, 0xfd}
	var buf bytes.Buffer
	if err := Encode(&buf, body); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	r := bufio.NewReader(&buf)
	_, err := Decode(r)
	fe, ok := err.(*FramingError)
	if !ok || fe.Kind != "ResponseToString" {
		t.Fatalf("expected ResponseToString, got %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte(`{"marionetteProtocol":3,"applicationType":"gecko"}`),
		bytes.Repeat([]byte("x"), 4096),
	}

	for _, payload := range cases {
		var buf bytes.Buffer
		if err := Encode(&buf, payload); err != nil {
			t.Fatalf("Encode(%d bytes): %v", len(payload), err)
		}
		got, err := Decode(bufio.NewReader(&buf))
		if err != nil {
			t.Fatalf("Decode(%d bytes): %v", len(payload), err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("round trip mismatch: got %q, want %q", got, payload)
		}
	}
}

func TestBackToBackFrames(t *testing.T) {
	var buf bytes.Buffer
	_ = Encode(&buf, []byte("first"))
	_ = Encode(&buf, []byte("second"))

	r := bufio.NewReader(&buf)

	first, err := Decode(r)
	if err != nil || string(first) != "first" {
		t.Fatalf("first frame: got %q, err %v", first, err)
	}

	second, err := Decode(r)
	if err != nil || string(second) != "second" {
		t.Fatalf("second frame: got %q, err %v", second, err)
	}
}

type shortWriter struct{ n int }

func (s *shortWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	s.n++
	return 1, nil // always short, never errors — exercises the writeAll loop
}

func TestEncodeLoopsUntilComplete(t *testing.T) {
	w := &shortWriter{}
	if err := Encode(w, []byte("abc")); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if w.n == 0 {
		t.Errorf("expected multiple short writes to be absorbed by writeAll")
	}
}
