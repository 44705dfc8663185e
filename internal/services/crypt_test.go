package services

import (
	"strings"
	"testing"
)

func TestFieldCipherRoundTrip(t *testing.T) {
	c, err := NewFieldCipher("unit-test-secret")
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	for _, plain := range []string{"Ivanov Ivan Ivanovich", "+79001234567", "user@example.com"} {
		enc, err := c.Encrypt(plain)
		if err != nil {
			t.Fatalf("encrypt %q: %v", plain, err)
		}
		if enc == plain || strings.Contains(enc, plain) {
			t.Fatalf("ciphertext leaks plaintext: %q", enc)
		}
		dec, err := c.Decrypt(enc)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if dec != plain {
			t.Fatalf("round trip = %q, want %q", dec, plain)
		}
	}
}

func TestFieldCipherEmptyStaysEmpty(t *testing.T) {
	c, _ := NewFieldCipher("unit-test-secret")
	enc, err := c.Encrypt("")
	if err != nil || enc != "" {
		t.Fatalf("encrypt empty = %q, %v", enc, err)
	}
	dec, err := c.Decrypt("")
	if err != nil || dec != "" {
		t.Fatalf("decrypt empty = %q, %v", dec, err)
	}
}

func TestFieldCipherNonceUnique(t *testing.T) {
	c, _ := NewFieldCipher("unit-test-secret")
	a, _ := c.Encrypt("same input")
	b, _ := c.Encrypt("same input")
	if a == b {
		t.Fatalf("two encryptions produced identical ciphertext")
	}
}

func TestFieldCipherWrongKey(t *testing.T) {
	c1, _ := NewFieldCipher("secret-one")
	c2, _ := NewFieldCipher("secret-two")
	enc, _ := c1.Encrypt("hidden")
	if _, err := c2.Decrypt(enc); err == nil {
		t.Fatalf("decrypt with wrong key succeeded")
	}
}

func TestFieldCipherRejectsEmptySecret(t *testing.T) {
	if _, err := NewFieldCipher(""); err == nil {
		t.Fatalf("empty secret accepted")
	}
}

func TestFieldCipherRejectsGarbage(t *testing.T) {
	c, _ := NewFieldCipher("unit-test-secret")
	for _, bad := range []string{"not base64 !!!", "QUJD"} {
		if _, err := c.Decrypt(bad); err == nil {
			t.Fatalf("garbage %q decrypted", bad)
		}
	}
}
