package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(bytes.Repeat([]byte{1}, 32), bytes.Repeat([]byte{2}, 32))
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	return c
}

func TestEncryptDecrypt(t *testing.T) {
	c := testCipher(t)
	sealed, err := c.Encrypt("watch for his left-side uchi mata")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !strings.HasPrefix(sealed, sealedPrefix) {
		t.Fatalf("sealed value missing prefix: %q", sealed)
	}
	plain, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != "watch for his left-side uchi mata" {
		t.Fatalf("plain: got=%q", plain)
	}

	again, _ := c.Encrypt("watch for his left-side uchi mata")
	if again == sealed {
		t.Fatalf("expected a fresh nonce per encryption")
	}
}

func TestDecryptLegacyPlaintext(t *testing.T) {
	c := testCipher(t)
	got, err := c.Decrypt("legacy note")
	if err != nil || got != "legacy note" {
		t.Fatalf("Decrypt legacy: got=%q err=%v", got, err)
	}
	if got, _ := c.Encrypt(""); got != "" {
		t.Fatalf("Encrypt empty: got=%q", got)
	}
}

func TestDecryptTampered(t *testing.T) {
	c := testCipher(t)
	sealed, _ := c.Encrypt("secret")
	raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	raw[len(raw)-1] ^= 0xff
	if _, err := c.Decrypt(sealedPrefix + base64.StdEncoding.EncodeToString(raw)); err == nil {
		t.Fatalf("Decrypt: expected error for tampered ciphertext")
	}
}

func TestBlindIndexDeterministic(t *testing.T) {
	c := testCipher(t)
	if c.BlindIndex("a@b.c") != c.BlindIndex("a@b.c") {
		t.Fatalf("blind index must be deterministic")
	}
	if c.BlindIndex("a@b.c") == c.BlindIndex("a@b.d") {
		t.Fatalf("blind index must differ per input")
	}
}

func TestKeyValidation(t *testing.T) {
	if _, err := NewCipher([]byte("short"), bytes.Repeat([]byte{2}, 32)); !errors.Is(err, ErrKeySize) {
		t.Fatalf("NewCipher: want ErrKeySize got=%v", err)
	}
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	if k, err := DecodeKey(key); err != nil || len(k) != 32 {
		t.Fatalf("DecodeKey: len=%d err=%v", len(k), err)
	}
	if _, err := DecodeKey(base64.StdEncoding.EncodeToString([]byte("nope"))); !errors.Is(err, ErrKeySize) {
		t.Fatalf("DecodeKey short: want ErrKeySize got=%v", err)
	}
}
