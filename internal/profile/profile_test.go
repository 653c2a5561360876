package profile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://www.a.com":        "a.com",
		"http://a.com":             "a.com",
		"https://www.a.com/path?q": "a.com",
		"http://shop.b.com:8080":   "shop.b.com:8080",
		"www.c.com":                "c.com",
		"":                         "",
		"https://wwwx.com":         "wwwx.com",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeDomain(in), "input %q", in)
	}
}

func TestOptionalAndValue(t *testing.T) {
	t.Parallel()

	require.Nil(t, Optional(""))
	require.Nil(t, Optional("   "))
	require.Equal(t, "x", Value(Optional("x")))
	require.Equal(t, "", Value(nil))
}

func TestJSONLNullsAndOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, []Profile{{
		Domain:                "a.com",
		PhoneNumbers:          Optional("123-456-7890"),
		CompanyCommercialName: Optional("A & Co"),
	}}))
	require.Equal(t,
		`{"domain":"a.com","phone_numbers":"123-456-7890","social_links":null,"address":null,`+
			`"company_commercial_name":"A & Co","company_legal_name":null,"company_all_available_names":null}`+"\n",
		buf.String())

	var got []Profile
	require.NoError(t, ReadJSONL(&buf, func(_ int, p Profile) error {
		got = append(got, p)
		return nil
	}))
	require.Len(t, got, 1)
	require.Equal(t, []string{"123-456-7890"}, got[0].Phones())
	require.Nil(t, got[0].SocialLinks)
}

func TestReadJSONLErrors(t *testing.T) {
	t.Parallel()

	err := ReadJSONL(strings.NewReader("{\"domain\":\"a.com\"}\n\nnot json\n"), func(int, Profile) error { return nil })
	require.ErrorContains(t, err, "line 3")

	stop := errors.New("stop")
	err = ReadJSONL(strings.NewReader("{}\n{}\n"), func(int, Profile) error { return stop })
	require.ErrorIs(t, err, stop)
}
