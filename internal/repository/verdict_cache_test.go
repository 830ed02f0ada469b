package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyDeterministic(t *testing.T) {
	first := CacheKey("тема", "текст письма")
	second := CacheKey("тема", "текст письма")

	assert.Equal(t, first, second)
	assert.Contains(t, first, "verdict:")
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	base := CacheKey("тема", "текст")

	assert.NotEqual(t, base, CacheKey("другая тема", "текст"))
	assert.NotEqual(t, base, CacheKey("тема", "другой текст"))
	// Subject and body feed the hash separately; shuffling text across the
	// boundary must produce a different key.
	assert.NotEqual(t, CacheKey("ab", "c"), CacheKey("a", "bc"))
}
