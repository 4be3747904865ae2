package token

import "testing"

func TestGenerateRandomTokenIsUnique(t *testing.T) {
	a, err := GenerateRandomToken(48)
	if err != nil {
		t.Fatalf("GenerateRandomToken: %v", err)
	}
	b, err := GenerateRandomToken(48)
	if err != nil {
		t.Fatalf("GenerateRandomToken: %v", err)
	}
	if a == b {
		t.Fatal("two generated tokens are identical")
	}
	if a == "" {
		t.Fatal("generated token is empty")
	}
}

func TestHashSHA256IsDeterministic(t *testing.T) {
	h1 := HashSHA256("refresh-token")
	h2 := HashSHA256("refresh-token")
	if h1 != h2 {
		t.Errorf("hashes differ: %q vs %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
	if h1 == HashSHA256("other-token") {
		t.Error("distinct inputs hash to the same value")
	}
}
