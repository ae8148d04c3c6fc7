package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomString(t *testing.T) {
	t.Run("generates requested length", func(t *testing.T) {
		assert.Len(t, RandomString(4), 4)
		assert.Len(t, RandomString(32), 32)
	})

	t.Run("uses only allowed characters", func(t *testing.T) {
		pattern := regexp.MustCompile(`^[A-Z2-9]+$`)
		for i := 0; i < 50; i++ {
			code := RandomString(4)
			assert.True(t, pattern.MatchString(code), "unexpected characters in %q", code)
		}
	})

	t.Run("excludes ambiguous characters", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code := RandomString(8)
			assert.NotContains(t, code, "0")
			assert.NotContains(t, code, "1")
			assert.NotContains(t, code, "I")
			assert.NotContains(t, code, "L")
			assert.NotContains(t, code, "O")
		}
	})

	t.Run("token-length strings do not repeat", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			token := RandomString(32)
			assert.False(t, seen[token], "duplicate token generated: %s", token)
			seen[token] = true
		}
	})
}

func TestCodeAlphabet(t *testing.T) {
	t.Run("contains no ambiguous characters", func(t *testing.T) {
		for _, c := range "01ILO" {
			assert.NotContains(t, codeAlphabet, string(c))
		}
	})

	t.Run("contains expected symbol count", func(t *testing.T) {
		// 26 letters - I, L, O = 23 letters; 10 digits - 0, 1 = 8 digits
		assert.Len(t, codeAlphabet, 31)
	})
}

func TestHmacSHA256(t *testing.T) {
	t.Run("is deterministic per secret", func(t *testing.T) {
		assert.Equal(t, HmacSHA256("s1", "data"), HmacSHA256("s1", "data"))
		assert.NotEqual(t, HmacSHA256("s1", "data"), HmacSHA256("s2", "data"))
	})
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "abcd"))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", MaskToken("A9BC"))
	assert.Equal(t, "A9BC****", MaskToken("A9BC2DEF"))
}
