package link_test

import (
	"strings"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []link.Link{
		{ActionID: 1},
		{ActionID: 42, ContactID: 7},
		{ActionID: 42, ContactID: 7, CustomURI: "landing/spring-sale"},
		{ActionID: 2147483647, ContactID: 2147483647},
		{ActionID: 9, CustomURI: "promo"},
		{ActionID: 3, ContactID: 5, CustomURI: "a%20b/c"},
	}

	for _, want := range cases {
		token := link.Encode(want)
		got, err := link.Decode(token, "")
		require.NoError(t, err, "token %q", token)
		assert.Equal(t, want, got, "token %q", token)
	}
}

func TestEncode_Format(t *testing.T) {
	l := link.Link{ActionID: 12, ContactID: 34, CustomURI: " /welcome/ "}
	token := link.Encode(l)

	head, uri, found := strings.Cut(token, "/")
	require.True(t, found)
	assert.Equal(t, "welcome", uri, "custom uri must be normalized")

	parts := strings.Split(head, ".")
	require.Len(t, parts, 3)
	assert.Equal(t, "12", parts[1])
	assert.Equal(t, "34", parts[2])

	noContact := link.Encode(link.Link{ActionID: 12})
	assert.Len(t, strings.Split(noContact, "."), 2, "contact id must be omitted when absent")
	assert.NotContains(t, noContact, "/")
}

func TestChecksum_CoversEveryField(t *testing.T) {
	base := link.Checksum(10, 20, "x")
	assert.NotEqual(t, base, link.Checksum(11, 20, "x"))
	assert.NotEqual(t, base, link.Checksum(10, 21, "x"))
	assert.NotEqual(t, base, link.Checksum(10, 20, "y"))
	assert.NotEqual(t, base, link.Checksum(10, 0, "x"))
	assert.Equal(t, base, link.Checksum(10, 20, "x"), "checksum must be deterministic")
}

func TestDecode_TamperDetection(t *testing.T) {
	token := link.Encode(link.Link{ActionID: 4821, ContactID: 77, CustomURI: "offer"})
	parts := strings.SplitN(token, ".", 3)
	checksumLen, actionLen := len(parts[0]), len(parts[1])

	// Positions of the checksum and action id digits within the token.
	var positions []int
	for i := 0; i < checksumLen; i++ {
		positions = append(positions, i)
	}
	for i := 0; i < actionLen; i++ {
		positions = append(positions, checksumLen+1+i)
	}

	for _, pos := range positions {
		b := []byte(token)
		b[pos] = '0' + (b[pos]-'0'+1)%10
		_, err := link.Decode(string(b), "")
		assert.ErrorIs(t, err, domain.ErrInvalidLinkParameter, "flipping position %d of %q must be detected", pos, token)

		b = []byte(token)
		b[pos] = 'x'
		_, err = link.Decode(string(b), "")
		assert.ErrorIs(t, err, domain.ErrInvalidLinkParameter)
	}
}

func TestDecode_Malformed(t *testing.T) {
	valid := link.Encode(link.Link{ActionID: 3, ContactID: 4})

	for _, token := range []string{
		"",
		"123",
		"abc.3",
		"123.abc",
		"123.3.abc",
		"99999999999.3",
		strings.Replace(valid, ".4", ".5", 1),
		valid + "/injected",
	} {
		_, err := link.Decode(token, "")
		assert.ErrorIs(t, err, domain.ErrInvalidLinkParameter, "token %q", token)
	}
}

func TestDecode_CustomURIOverride(t *testing.T) {
	want := link.Link{ActionID: 5, CustomURI: "landing"}
	token := link.Encode(want)
	head, _, _ := strings.Cut(token, "/")

	got, err := link.Decode(head, "/landing/")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = link.Decode(head, "other")
	assert.ErrorIs(t, err, domain.ErrInvalidLinkParameter)
}
