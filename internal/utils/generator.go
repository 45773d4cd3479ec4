package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	DefaultShortCodeLength = 6
	MaxShortCodeLength     = 32
	alphabet               = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var alphabetLen = big.NewInt(int64(len(alphabet)))

// GenerateShortCodeWithLength draws each character uniformly from the
// alphanumeric alphabet.
func GenerateShortCodeWithLength(length int) (string, error) {
	code := make([]byte, length)

	for i := range code {
		randomIndex, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		code[i] = alphabet[randomIndex.Int64()]
	}

	return string(code), nil
}

// IsValidShortCode reports whether code could have been produced by the
// generator at any supported length.
func IsValidShortCode(code string) bool {
	if code == "" || len(code) > MaxShortCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
