package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// RandomDigits returns n uniformly random decimal digits, zero padded.
// "000000" through "999999" for n = 6.
func RandomDigits(n int) (string, error) {
	if n <= 0 || n > 18 {
		return "", fmt.Errorf("digit count must be between 1 and 18, got %d", n)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}

// RandomCode returns an n digit numeric code without a leading zero, drawn
// uniformly from [10^(n-1), 10^n). For n = 6 that is 900,000 values.
func RandomCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("digit count must be positive, got %d", n)
	}
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	high := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	span := new(big.Int).Sub(high, low)

	v, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return v.Add(v, low).String(), nil
}

// HashToken returns the hex SHA-256 digest used to store tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MaskPhone hides all but the last three digits of a phone number for logs.
func MaskPhone(phone string) string {
	if len(phone) <= 3 {
		return "***"
	}
	masked := make([]byte, len(phone))
	for i := range phone {
		if i < len(phone)-3 {
			masked[i] = '*'
		} else {
			masked[i] = phone[i]
		}
	}
	return string(masked)
}
