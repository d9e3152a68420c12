package crypto

import (
	"encoding/base64"
	"testing"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("expected url-safe base64 token: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("expected 32 random bytes, got %d", len(raw))
	}

	other, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if other == token {
		t.Fatal("expected distinct tokens")
	}
}

func TestGenerateTokenRejectsNonPositiveLength(t *testing.T) {
	if _, err := GenerateToken(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
