package util

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// PartyCodeLength is the length of generated invite codes.
const PartyCodeLength = 8

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GeneratePartyCode returns a URL-safe random code for a party invite link.
// Codes are shared publicly, so a cryptographic source is used.
func GeneratePartyCode() string {
	var builder strings.Builder
	builder.Grow(PartyCodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < PartyCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// nothing sensible to do but give up.
			panic(err)
		}
		builder.WriteByte(codeAlphabet[n.Int64()])
	}
	return builder.String()
}
