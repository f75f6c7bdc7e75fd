package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
	"strings"
)

const (
	codeBodyMin = 1000
	// codeBodyMax is exclusive.
	codeBodyMax = 9999
)

// GenerateCode returns prefix followed by a 4-digit number in [1000, 9999).
// Uses crypto/rand for randomness.
func GenerateCode(prefix string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeBodyMax-codeBodyMin))
	if err != nil {
		return "", err
	}
	return prefix + strconv.FormatInt(n.Int64()+codeBodyMin, 10), nil
}

// ValidCode reports whether code has the lexical form <prefix><4 digits>.
func ValidCode(prefix, code string) bool {
	body, ok := strings.CutPrefix(code, prefix)
	if !ok || len(body) != 4 {
		return false
	}
	for _, c := range body {
		if c < '0' || c > '9' {
			return false
		}
	}
	return body[0] != '0'
}

// CodeEqual performs constant-time comparison of the provided code with the stored code.
// An empty stored code never matches.
func CodeEqual(provided, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(stored)) == 1
}
