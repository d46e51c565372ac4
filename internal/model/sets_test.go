package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCountsRoundTrip(t *testing.T) {
	cases := []SetCounts{
		{},
		{"set_vampire": 2, "set_speed": 1},
		{"set_att": 4, "set_crit": 2, "set_torrent": 0},
		{"name with spaces": 3, "quote\"key": 1, "ünïcode": 2},
	}

	for _, in := range cases {
		raw, err := in.Encode()
		require.NoError(t, err)

		out, err := DecodeSetCounts(raw)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestSetCountsNilEncodesAsEmptyObject(t *testing.T) {
	var s SetCounts
	raw, err := s.Encode()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestDecodeSetCounts(t *testing.T) {
	t.Run("null and empty", func(t *testing.T) {
		for _, raw := range []string{"", "null"} {
			got, err := DecodeSetCounts([]byte(raw))
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		for _, raw := range []string{"{not json", `["set_vampire"]`, `{"set_vampire":"two"}`, `{"set_vampire":1.5}`} {
			_, err := DecodeSetCounts([]byte(raw))
			assert.Error(t, err, raw)
		}
	})

	t.Run("lenient", func(t *testing.T) {
		got, err := DecodeSetCountsLenient([]byte("{garbage"))
		assert.Error(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)

		got, err = DecodeSetCountsLenient([]byte(`{"set_speed":4}`))
		require.NoError(t, err)
		assert.Equal(t, SetCounts{"set_speed": 4}, got)
	})
}

func TestSetCountsValidate(t *testing.T) {
	assert.NoError(t, SetCounts{"set_vampire": 2, "set_speed": 0}.Validate())
	assert.Error(t, SetCounts{"": 1}.Validate())
	assert.Error(t, SetCounts{"set_vampire": -1}.Validate())
}
