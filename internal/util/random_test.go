package util

import (
	"strings"
	"testing"
)

func TestGeneratePartyCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GeneratePartyCode()
		if len(code) != PartyCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), PartyCodeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains unexpected character %q", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 95 {
		t.Errorf("expected ~100 distinct codes, got %d", len(seen))
	}
}
