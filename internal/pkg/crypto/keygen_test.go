package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateHexKey(t *testing.T) {
	a, err := GenerateHexKey(HashKeySize)
	require.NoError(t, err)
	b, err := GenerateHexKey(HashKeySize)
	require.NoError(t, err)

	assert.Len(t, a, HashKeySize*2)
	assert.NotEqual(t, a, b)

	key, err := ParseHexKey(a, HashKeySize)
	require.NoError(t, err)
	assert.Len(t, key, HashKeySize)
}

func TestParseHexKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		sizes   []int
		wantLen int
		wantErr bool
	}{
		{name: "any size", input: "abcd", wantLen: 2},
		{name: "trims whitespace", input: " 00ff \n", sizes: []int{2}, wantLen: 2},
		{name: "accepts one of sizes", input: "00112233", sizes: []int{2, 4}, wantLen: 4},
		{name: "wrong size", input: "0011", sizes: []int{16, 32}, wantErr: true},
		{name: "not hex", input: "zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseHexKey(tt.input, tt.sizes...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidHexKey)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, tt.wantLen)
		})
	}
}
