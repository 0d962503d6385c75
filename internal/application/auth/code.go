package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet avoids the ambiguous glyphs 0/O, 1/I/L, so codes survive
// being read aloud or retyped from a phone screen.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 5

func generateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
