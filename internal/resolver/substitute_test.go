package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute_VerbatimCapture(t *testing.T) {
	got, err := Substitute("/search?q=$1", []string{"all", "hello world"})
	require.NoError(t, err)
	assert.Equal(t, "/search?q=hello world", got)
}

func TestSubstitute_EncodedCapture(t *testing.T) {
	got, err := Substitute("/search?q=?$1", []string{"all", "hello world"})
	require.NoError(t, err)
	assert.Equal(t, "/search?q=hello%20world", got)
}

func TestSubstitute_EscapeLiteral(t *testing.T) {
	got, err := Substitute(`\$1 literal`, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "$1 literal", got)
}

func TestSubstitute_EndOfInputFlushesDigits(t *testing.T) {
	got, err := Substitute("/search?q=$1", []string{"all", "trailing"})
	require.NoError(t, err)
	assert.Equal(t, "/search?q=trailing", got)
}

func TestSubstitute_QuestionMarkNotFollowedByDollarIsLiteral(t *testing.T) {
	got, err := Substitute("/search?q=1", nil)
	require.NoError(t, err)
	assert.Equal(t, "/search?q=1", got)
}

func TestSubstitute_InvalidCaptureGroup(t *testing.T) {
	_, err := Substitute("/search?q=$5", []string{"all"})
	require.Error(t, err)
	rErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidCaptureGroup, rErr.Kind)
}

func TestSubstitute_DollarNotFollowedByDigitIsLiteral(t *testing.T) {
	got, err := Substitute("price: $ $1", []string{"all", "9.99"})
	require.NoError(t, err)
	assert.Equal(t, "price: $ 9.99", got)
}

func TestSubstitute_MultipleCaptures(t *testing.T) {
	got, err := Substitute("/$1/$2", []string{"all", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "/a/b", got)
}
