// Package codec frames JSON payloads for the message queue. Large payloads
// (query results travelling to the recommender) are snappy-compressed; small
// ones go out as plain JSON behind a one-byte header.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// Algorithm identifies how a frame body is encoded.
type Algorithm uint8

const (
	None   Algorithm = 0
	Snappy Algorithm = 1
)

// DefaultThreshold is the body size above which frames are compressed.
const DefaultThreshold = 1024

// ErrEmptyFrame is returned when decoding a zero-length frame.
var ErrEmptyFrame = errors.New("empty frame")

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// Codec marshals values to frames and back.
type Codec struct {
	// Threshold is the minimum body size that gets compressed. Zero
	// compresses everything; negative disables compression.
	Threshold int
}

// New returns a codec using DefaultThreshold.
func New() *Codec {
	return &Codec{Threshold: DefaultThreshold}
}

// Encode marshals v to JSON and frames it.
func (c *Codec) Encode(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return c.Frame(body), nil
}

// Frame prefixes body with its algorithm byte, compressing when the body is
// at least Threshold bytes.
func (c *Codec) Frame(body []byte) []byte {
	if c.Threshold < 0 || len(body) < c.Threshold {
		out := make([]byte, 0, len(body)+1)
		out = append(out, byte(None))
		return append(out, body...)
	}
	compressed := snappy.Encode(nil, body)
	out := make([]byte, 0, len(compressed)+1)
	out = append(out, byte(Snappy))
	return append(out, compressed...)
}

// Unframe returns the decoded frame body.
func Unframe(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	algo, body := Algorithm(frame[0]), frame[1:]
	switch algo {
	case None:
		return body, nil
	case Snappy:
		out, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("snappy decompress failed: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported frame algorithm: %s", algo)
	}
}

// Decode unframes and unmarshals into v.
func Decode(frame []byte, v any) error {
	body, err := Unframe(frame)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return nil
}

// AlgorithmOf reports the algorithm of a frame.
func AlgorithmOf(frame []byte) (Algorithm, bool) {
	if len(frame) == 0 {
		return None, false
	}
	return Algorithm(frame[0]), true
}
