package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhoneNumbersDeduplicatedAndStable(t *testing.T) {
	t.Parallel()

	page := `<html><head><style>.x{}</style><script>var tel = "999-999-9999";</script></head>
<body><p>Call 123-456-7890 or 123-456-7890.</p><p>Intl: +44 207 123 4567</p>
<p>Toll free 1-800-555-0100</p></body></html>`

	ex := New(nil)
	first := ex.Extract(page).PhoneNumbers
	second := ex.Extract(page).PhoneNumbers

	require.Equal(t, first, second)
	require.Contains(t, first, "123-456-7890")
	require.Contains(t, first, "+44 207 123 4567")
	require.Contains(t, first, "1-800-555-0100")
	require.NotContains(t, first, "999-999-9999", "script content is not visible text")

	seen := map[string]bool{}
	for _, p := range first {
		require.False(t, seen[p], "duplicate %q", p)
		seen[p] = true
	}
}

func TestPhoneNumbersOverlappingPatternsAllKept(t *testing.T) {
	t.Parallel()

	got := New(nil).Extract(`<p>(11) 91234-5678 and 5551234567</p>`).PhoneNumbers
	require.Contains(t, got, "(11) 91234-5678")
	require.Contains(t, got, "5551234567")
}

func TestSocialLinks(t *testing.T) {
	t.Parallel()

	page := `<body>
<a href="https://example.com">home</a>
<a href="https://facebook.com/x">fb</a>
<a href="https://facebook.com/x">fb again</a>
<a href="https://www.linkedin.com/company/acme">li</a>
<a>no href</a>
</body>`
	got := New(nil).Extract(page).SocialLinks
	require.Equal(t, []string{"https://facebook.com/x", "https://www.linkedin.com/company/acme"}, got)
}

func TestAddressTagBeatsClass(t *testing.T) {
	t.Parallel()

	page := `<body>
<div class="footer-Address">500 Other Rd, Springfield, IL 62701</div>
<address>1 Main St, Boston, MA 02110</address>
</body>`
	sig := New(nil).Extract(page)
	require.True(t, sig.HasAddress)
	require.Equal(t, "1 Main St, Boston, MA 02110", sig.Address)
}

func TestAddressClassWhenTagHoldsEmail(t *testing.T) {
	t.Parallel()

	page := `<body>
<address>Write to info@acme.com</address>
<span class="company ADDRESS-line">42 Elm Street, Austin, TX 73301</span>
</body>`
	sig := New(nil).Extract(page)
	require.True(t, sig.HasAddress)
	require.Equal(t, "42 Elm Street, Austin, TX 73301", sig.Address)
}

func TestAddressRegexFallback(t *testing.T) {
	t.Parallel()

	sig := New(nil).Extract(`<p>Visit us at 221 Baker Street, NY 10001 today</p>`)
	require.True(t, sig.HasAddress)
	require.Equal(t, "221 Baker Street, NY 10001", sig.Address)
}

func TestAddressAbsent(t *testing.T) {
	t.Parallel()

	sig := New(nil).Extract("No address here")
	require.False(t, sig.HasAddress)
	require.Empty(t, sig.Address)
}

func TestExtractEmptyDocument(t *testing.T) {
	t.Parallel()

	sig := New(nil).Extract("")
	require.Empty(t, sig.PhoneNumbers)
	require.Empty(t, sig.SocialLinks)
	require.False(t, sig.HasAddress)
}
