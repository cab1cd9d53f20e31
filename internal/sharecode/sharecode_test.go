package sharecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	codec, err := NewCodec("test-salt", 8)
	require.NoError(t, err)

	for _, id := range []int64{1, 42, 1<<40 + 7} {
		code, err := codec.Encode(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(code), 8)

		got, err := codec.Decode(code)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec, err := NewCodec("test-salt", 8)
	require.NoError(t, err)

	_, err = codec.Decode("!!!not-a-code!!!")
	assert.Error(t, err)
}

func TestDifferentSaltsProduceDifferentCodes(t *testing.T) {
	a, err := NewCodec("salt-a", 8)
	require.NoError(t, err)
	b, err := NewCodec("salt-b", 8)
	require.NoError(t, err)

	codeA, err := a.Encode(99)
	require.NoError(t, err)
	codeB, err := b.Encode(99)
	require.NoError(t, err)

	assert.NotEqual(t, codeA, codeB)
}
