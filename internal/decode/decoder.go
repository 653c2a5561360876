// Package decode turns raw response bodies into text, tolerating encoding mismatches.
package decode

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/JakeFAU/contact-harvester/internal/metrics"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Fallback is a named alternate encoding tried after UTF-8 decoding fails.
type Fallback struct {
	Name     string
	Encoding encoding.Encoding
}

// DefaultFallbacks are tried in order: ISO-8859-1, then Windows-1252.
var DefaultFallbacks = []Fallback{
	{Name: "iso-8859-1", Encoding: charmap.ISO8859_1},
	{Name: "windows-1252", Encoding: charmap.Windows1252},
}

// Decoder decodes bodies as UTF-8 with single-byte fallbacks.
type Decoder struct {
	fallbacks []Fallback
	logger    *zap.Logger
}

// New builds a Decoder. A nil fallbacks slice selects DefaultFallbacks.
func New(fallbacks []Fallback, logger *zap.Logger) *Decoder {
	if fallbacks == nil {
		fallbacks = DefaultFallbacks
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{fallbacks: fallbacks, logger: logger}
}

// Decode returns the body as text. The second result is false when no encoding could
// decode it. Decode never panics on malformed input.
func (d *Decoder) Decode(body []byte) (string, bool) {
	text, err := decodeUTF8(body)
	if err == nil {
		return text, true
	}
	d.logger.Warn("utf-8 decode failed, trying fallback encodings", zap.Error(err))
	for _, fb := range d.fallbacks {
		text, err := decodeWith(fb.Encoding, body)
		if err != nil {
			d.logger.Debug("fallback decode failed", zap.String("encoding", fb.Name), zap.Error(err))
			continue
		}
		metrics.ObserveDecodeFallback(fb.Name)
		return text, true
	}
	metrics.ObserveDecodeFallback("none")
	d.logger.Error("failed to decode response with fallback encodings")
	return "", false
}

func decodeUTF8(body []byte) (string, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	if !utf8.Valid(body) {
		return "", fmt.Errorf("invalid utf-8 sequence")
	}
	return string(body), nil
}

func decodeWith(enc encoding.Encoding, body []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return string(out), nil
}
