package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func TestWriteReadRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"hello", `<?xml version="1.0" encoding="UTF-8"?><epp xmlns="urn:ietf:params:xml:ns:epp-1.0"><hello/></epp>`},
		{"utf8", "<msg>Zürich ✓</msg>"},
		{"large", string(bytes.Repeat([]byte("a"), 70000))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, []byte(tt.payload)); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			declared := binary.BigEndian.Uint32(buf.Bytes()[:HeaderLen])
			if want := uint32(len(tt.payload) + 6); declared != want {
				t.Errorf("declared length = %d, want %d", declared, want)
			}
			if buf.Len() != int(declared) {
				t.Errorf("written bytes = %d, want %d", buf.Len(), declared)
			}

			got, err := Read(&buf, DefaultMaxSize)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if string(got) != tt.payload {
				t.Errorf("payload mismatch: got %d bytes, want %d", len(got), len(tt.payload))
			}
		})
	}
}

func TestReadChunkedPayload(t *testing.T) {
	var buf bytes.Buffer
	payload := bytes.Repeat([]byte("<x/>"), 1000)
	if err := Write(&buf, payload); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(iotest.OneByteReader(&buf), 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("payload mismatch after chunked read")
	}
}

func TestReadWithoutTrailer(t *testing.T) {
	payload := []byte("<greeting/>")
	raw := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(raw, uint32(len(payload)+HeaderLen))
	raw = append(raw, payload...)

	got, err := Read(bytes.NewReader(raw), DefaultMaxSize)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Read = %q, want %q", got, payload)
	}
}

func TestReadNoFrame(t *testing.T) {
	_, err := Read(bytes.NewReader(nil), DefaultMaxSize)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadErrors(t *testing.T) {
	lengthOnly := func(n uint32) []byte {
		b := make([]byte, HeaderLen)
		binary.BigEndian.PutUint32(b, n)
		return b
	}

	tests := []struct {
		name    string
		input   []byte
		maxSize uint32
		want    error
	}{
		{"partial header", []byte{0, 0}, DefaultMaxSize, ErrShortHeader},
		{"length below header", lengthOnly(3), DefaultMaxSize, ErrInvalidLength},
		{"too large", lengthOnly(1 << 20), 1024, ErrFrameTooLarge},
		{"truncated payload", append(lengthOnly(20), []byte("<epp>")...), DefaultMaxSize, ErrShortPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.input), tt.maxSize)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Read error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadTruncatedPayloadKeepsCause(t *testing.T) {
	raw := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(raw, 50)
	raw = append(raw, []byte("<epp>")...)

	_, err := Read(bytes.NewReader(raw), DefaultMaxSize)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected wrapped io.ErrUnexpectedEOF, got %v", err)
	}
}

type shortWriter struct {
	buf bytes.Buffer
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > 3 {
		p = p[:3]
	}
	return w.buf.Write(p)
}

func TestWriteLoopsOnShortWrites(t *testing.T) {
	w := &shortWriter{}
	if err := Write(w, []byte("<logout/>")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got, want := w.buf.Len(), len("<logout/>")+6; got != want {
		t.Errorf("written = %d, want %d", got, want)
	}
}
