package crypto

import (
	"errors"
	"strings"
	"testing"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestKeyFromHex(t *testing.T) {
	key, err := KeyFromHex(testKeyHex)
	if err != nil {
		t.Fatalf("KeyFromHex() error = %v", err)
	}
	if len(key) != 32 {
		t.Errorf("key length = %d, want 32", len(key))
	}

	if _, err := KeyFromHex("deadbeef"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("short key error = %v, want ErrInvalidKey", err)
	}
	if _, err := KeyFromHex("not-hex"); err == nil {
		t.Error("non-hex key expected error")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, _ := KeyFromHex(testKeyHex)

	plaintexts := []string{
		"",
		"short",
		strings.Repeat("long free text ", 200),
		"unicode: سلام دنیا",
	}

	for _, pt := range plaintexts {
		enc, err := Encrypt(key, pt)
		if err != nil {
			t.Fatalf("Encrypt(%q) error = %v", pt, err)
		}
		if enc == pt && pt != "" {
			t.Errorf("Encrypt(%q) returned plaintext", pt)
		}

		dec, err := Decrypt(key, enc)
		if err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if dec != pt {
			t.Errorf("round trip = %q, want %q", dec, pt)
		}
	}
}

func TestEncryptNonceIsRandom(t *testing.T) {
	key, _ := KeyFromHex(testKeyHex)

	a, err := Encrypt(key, "same input")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	b, err := Encrypt(key, "same input")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same input must differ")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	key, _ := KeyFromHex(testKeyHex)
	otherKey, _ := KeyFromHex("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	enc, err := Encrypt(key, "secret")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := Decrypt(otherKey, enc); err == nil {
		t.Error("Decrypt with wrong key expected error")
	}
}

func TestDecryptTooShort(t *testing.T) {
	key, _ := KeyFromHex(testKeyHex)

	if _, err := Decrypt(key, "YQ=="); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("Decrypt() error = %v, want ErrCiphertextTooShort", err)
	}
}

func TestInvalidKeyLength(t *testing.T) {
	if _, err := Encrypt([]byte("short"), "x"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Encrypt() error = %v, want ErrInvalidKey", err)
	}
	if _, err := Decrypt([]byte("short"), "x"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Decrypt() error = %v, want ErrInvalidKey", err)
	}
}
