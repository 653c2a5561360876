package decode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type failingTransformer struct{ transform.NopResetter }

func (failingTransformer) Transform(_, _ []byte, _ bool) (int, int, error) {
	return 0, 0, errors.New("undecodable")
}

type failingEncoding struct{}

func (failingEncoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: failingTransformer{}}
}

func (failingEncoding) NewEncoder() *encoding.Encoder {
	return encoding.Nop.NewEncoder()
}

func TestDecodeUTF8(t *testing.T) {
	t.Parallel()

	text, ok := New(nil, nil).Decode([]byte("<p>Grüße</p>"))
	require.True(t, ok)
	require.Equal(t, "<p>Grüße</p>", text)
}

func TestDecodeStripsBOM(t *testing.T) {
	t.Parallel()

	text, ok := New(nil, nil).Decode(append([]byte{0xEF, 0xBB, 0xBF}, "hello"...))
	require.True(t, ok)
	require.Equal(t, "hello", text)
}

func TestDecodeFallsBackToFirstAlternateEncoding(t *testing.T) {
	t.Parallel()

	raw := []byte("caf\xe9 \x80") // invalid UTF-8
	text, ok := New(nil, nil).Decode(raw)
	require.True(t, ok)
	require.Equal(t, "café \u0080", text, "ISO-8859-1 wins over Windows-1252")
}

func TestDecodeTriesFallbacksInOrder(t *testing.T) {
	t.Parallel()

	dec := New([]Fallback{
		{Name: "broken", Encoding: failingEncoding{}},
		{Name: "windows-1252", Encoding: charmap.Windows1252},
	}, nil)
	text, ok := dec.Decode([]byte("\x93quoted\x94"))
	require.True(t, ok)
	require.Equal(t, "“quoted”", text)
}

func TestDecodeAllFallbacksFailReturnsAbsent(t *testing.T) {
	t.Parallel()

	dec := New([]Fallback{
		{Name: "broken-a", Encoding: failingEncoding{}},
		{Name: "broken-b", Encoding: failingEncoding{}},
	}, nil)
	require.NotPanics(t, func() {
		text, ok := dec.Decode([]byte{0xff, 0xfe, 0xfd})
		require.False(t, ok)
		require.Empty(t, text)
	})
}
