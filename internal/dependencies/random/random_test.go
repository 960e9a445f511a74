package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCryptoRandomString(t *testing.T) {
	r := New()
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	s := r.String(6, alphabet)
	assert.Len(t, s, 6)
	for _, ch := range s {
		assert.True(t, strings.ContainsRune(alphabet, ch), "unexpected rune %q", ch)
	}

	assert.Empty(t, r.String(0, alphabet))
	assert.Empty(t, r.String(4, ""))
}
