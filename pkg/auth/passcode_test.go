package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPasscode_Deterministic(t *testing.T) {
	h1 := HashPasscode("4477")
	h2 := HashPasscode("4477")

	assert.Equal(t, h1, h2)
}

func TestHashPasscode_Format(t *testing.T) {
	h := HashPasscode("4477")

	// 256-bit digest as lowercase hex
	assert.Len(t, h, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", h)
	assert.NotEqual(t, "4477", h)
}

func TestHashPasscode_KnownVector(t *testing.T) {
	// SHA-256("4477")
	assert.Equal(t,
		"6da3125ed2a5bc8715fd17db4bade4cd98194d271bbdb278cb1131021f6ade81",
		HashPasscode("4477"))
}

func TestVerifyPasscode(t *testing.T) {
	stored := HashPasscode("4477")

	assert.True(t, VerifyPasscode(stored, "4477"))
	assert.False(t, VerifyPasscode(stored, "4478"))
	assert.False(t, VerifyPasscode(stored, ""))
}
