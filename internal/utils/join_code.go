package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/yukikurage/study-group-api/internal/constants"
)

// GenerateJoinCode returns an 8 character code drawn uniformly from [A-Z0-9].
func GenerateJoinCode() (string, error) {
	alphabet := constants.JoinCodeAlphabet
	max := big.NewInt(int64(len(alphabet)))

	code := make([]byte, constants.JoinCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}

	return string(code), nil
}

// IsValidJoinCode reports whether code has the join code shape.
func IsValidJoinCode(code string) bool {
	if len(code) != constants.JoinCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		ch := code[i]
		if !(ch >= 'A' && ch <= 'Z') && !(ch >= '0' && ch <= '9') {
			return false
		}
	}
	return true
}
