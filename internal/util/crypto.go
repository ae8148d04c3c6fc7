package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
)

// codeAlphabet drops 0, 1, I, L and O so a code read off a TV across the
// room cannot be mistyped into a lookalike character.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// RandomString draws length characters uniformly from codeAlphabet.
// Collision avoidance is the caller's concern; only one link code is
// ever live at a time.
func RandomString(length int) string {
	out := make([]byte, length)
	for i := range out {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		out[i] = codeAlphabet[n.Int64()]
	}
	return string(out)
}

func HmacSHA256(secret, data string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func MaskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
