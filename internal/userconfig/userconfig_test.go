package userconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	d := Default()
	assert.Equal(t, []string{"clearnet", "https", "ipv4"}, d.RequiredTags)
	assert.Equal(t, SelectRandom, d.SelectMethod)
	assert.False(t, d.IgnoreFallbackWarning)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := Config{
		RequiredTags:          []string{"clearnet"},
		ForbiddenTags:         []string{"tor"},
		SelectMethod:          SelectLowPing,
		IgnoreFallbackWarning: true,
	}
	encoded, err := Encode(c)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}

func TestDecode_InvalidBase64(t *testing.T) {
	_, err := Decode("not valid base64!!!")
	assert.Error(t, err)
}

func TestFromCookie_DegradesToDefaultOnBadInput(t *testing.T) {
	got := FromCookie("garbage")
	assert.Equal(t, Default(), got)
}

func TestRequiredTagSet(t *testing.T) {
	c := Config{RequiredTags: []string{"a", "b"}}
	set := c.RequiredTagSet()
	assert.Len(t, set, 2)
	_, ok := set["a"]
	assert.True(t, ok)
}
