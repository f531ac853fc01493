package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "*****", MaskSecret(""))
	assert.Equal(t, "*****", MaskSecret("short"))
	assert.Equal(t, "eyJh*****", MaskSecret("eyJhbGciOiJIUzI1NiJ9"))
}

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"alice@example.com": "al***@example.com",
		"ab@example.com":    "***@example.com",
		"no-at":             "***",
		"a@b@c":             "***",
	}
	for in, want := range tests {
		assert.Equal(t, want, MaskEmail(in), in)
	}
}
