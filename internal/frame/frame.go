// Package frame implements the EPP over TCP data unit framing (RFC 5734):
// a 4-byte big-endian total length followed by the XML payload.
package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderLen is the size of the length prefix. The declared length
	// includes these bytes.
	HeaderLen = 4

	// DefaultMaxSize bounds the declared length of an inbound frame.
	DefaultMaxSize uint32 = 16 * 1024 * 1024
)

var trailer = []byte("\r\n")

var (
	ErrShortHeader   = errors.New("frame: short length header")
	ErrInvalidLength = errors.New("frame: declared length smaller than header")
	ErrFrameTooLarge = errors.New("frame: declared length exceeds limit")
	ErrShortPayload  = errors.New("frame: short payload")
)

// Write sends payload as a single frame terminated by CRLF. The declared
// length covers the header, the payload and the trailer.
func Write(w io.Writer, payload []byte) error {
	total := HeaderLen + len(payload) + len(trailer)
	buf := make([]byte, HeaderLen, total)
	binary.BigEndian.PutUint32(buf, uint32(total))
	buf = append(buf, payload...)
	buf = append(buf, trailer...)

	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

// Read receives one frame and returns its payload with a single trailing
// CRLF removed. It returns io.EOF, unwrapped, when the peer closed the
// stream before sending any byte of a new frame.
func Read(r io.Reader, maxSize uint32) ([]byte, error) {
	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortHeader
		}
		return nil, err
	}

	total := binary.BigEndian.Uint32(hdr[:])
	if total < HeaderLen {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, total)
	}
	if maxSize > 0 && total > maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, total, maxSize)
	}

	payload := make([]byte, total-HeaderLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShortPayload, err)
	}

	return bytes.TrimSuffix(payload, trailer), nil
}
