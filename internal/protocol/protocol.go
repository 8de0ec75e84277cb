// Package protocol implements the one-byte monitor switch wire format.
//
// Each event is a single unsigned byte in [0, MaxIndex] meaning "switch to
// target index N". There is no framing, length prefix or acknowledgment.
package protocol

import (
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultPort is the TCP port the broadcast server listens on by default.
	DefaultPort = 9876

	// MaxIndex is the largest encodable target index (F1..F11 on the client).
	MaxIndex = 10
)

// ErrInvalidIndex is returned for indices outside [0, MaxIndex].
var ErrInvalidIndex = errors.New("invalid monitor index")

// Encode returns the wire message for a target index.
func Encode(index int) ([]byte, error) {
	if index < 0 || index > MaxIndex {
		return nil, fmt.Errorf("%w: %d (want 0-%d)", ErrInvalidIndex, index, MaxIndex)
	}
	return []byte{byte(index)}, nil
}

// Decode validates a received byte and returns its target index.
func Decode(b byte) (int, error) {
	if int(b) > MaxIndex {
		return 0, fmt.Errorf("%w: %d (want 0-%d)", ErrInvalidIndex, b, MaxIndex)
	}
	return int(b), nil
}

// ReadIndex reads exactly one event from r.
func ReadIndex(r io.Reader) (int, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return Decode(buf[0])
}
