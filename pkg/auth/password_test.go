package auth

import (
	"bytes"
	"context"
	"testing"
)

func TestDeriveAndVerify(t *testing.T) {
	salt, hash, err := Derive("hunter2")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if len(salt) != CredentialLength {
		t.Errorf("expected %d byte salt, got %d", CredentialLength, len(salt))
	}
	if len(hash) != CredentialLength {
		t.Errorf("expected %d byte hash, got %d", CredentialLength, len(hash))
	}

	if !Verify("hunter2", salt, hash) {
		t.Error("correct password failed verification")
	}
	if Verify("hunter3", salt, hash) {
		t.Error("wrong password passed verification")
	}
	if Verify("", salt, hash) {
		t.Error("empty password passed verification")
	}
}

func TestDeriveUsesFreshSalt(t *testing.T) {
	salt1, hash1, err := Derive("same password")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	salt2, hash2, err := Derive("same password")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if bytes.Equal(salt1, salt2) {
		t.Error("two derivations produced the same salt")
	}
	if bytes.Equal(hash1, hash2) {
		t.Error("two derivations with fresh salts produced the same hash")
	}

	// Hashes remain valid under their own salt only.
	if !Verify("same password", salt1, hash1) {
		t.Error("password failed against first pair")
	}
	if Verify("same password", salt1, hash2) {
		t.Error("hash verified against the wrong salt")
	}
}

func TestVerifyRejectsTruncatedHash(t *testing.T) {
	salt, hash, err := Derive("secret")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if Verify("secret", salt, hash[:32]) {
		t.Error("truncated stored hash passed verification")
	}
}

func TestVerifierBoundsConcurrency(t *testing.T) {
	v := NewVerifier(2)
	ctx := context.Background()

	salt, hash, err := v.Derive(ctx, "pw")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	ok, err := v.Verify(ctx, "pw", salt, hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("correct password failed verification")
	}

	t.Run("cancelled context refuses work", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := v.Verify(cancelled, "pw", salt, hash); err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}
