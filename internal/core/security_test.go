package core

import (
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash = %q, want argon2id encoding", hash)
	}

	ok, err := VerifyPassword("hunter2hunter2", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("correct password rejected")
	}

	ok, err = VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	second, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password are identical")
	}
}

func TestGenerateSecureToken(t *testing.T) {
	first, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken() error = %v", err)
	}
	second, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken() error = %v", err)
	}

	if first == second {
		t.Error("two generated tokens are identical")
	}
	if len(first) < 32 {
		t.Errorf("token length = %d, want at least 32", len(first))
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("same input produced different hashes")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("different inputs produced the same hash")
	}
	if len(HashToken("abc")) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(HashToken("abc")))
	}
}

func TestCompareTokenHash(t *testing.T) {
	hash := HashToken("my-token")

	if !CompareTokenHash("my-token", hash) {
		t.Error("matching token rejected")
	}
	if CompareTokenHash("other-token", hash) {
		t.Error("non-matching token accepted")
	}
}
