package cryptox

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"testing"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	key1 := DeriveKey("secret-password")
	key2 := DeriveKey("secret-password")

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	if len(key1) != 32 {
		t.Fatalf("expected 32 byte key, got %d", len(key1))
	}

	// base64(sha256("")) begins with "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NM"
	if got := string(DeriveKey("")); got != "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NM" {
		t.Errorf("unexpected key layout: %s", got)
	}
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	if bytes.Equal(DeriveKey("secret-1"), DeriveKey("secret-2")) {
		t.Errorf("expected different keys for different secrets, got same")
	}
}

func TestGCM_RoundTrip(t *testing.T) {
	key := DeriveKey("k")
	ct, nonce, err := sealGCM([]byte("hello"), key)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	pt, err := openGCM(ct, nonce, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if string(pt) != "hello" {
		t.Errorf("expected hello, got %q", pt)
	}

	if _, err := openGCM(ct, nonce, DeriveKey("other")); err == nil {
		t.Errorf("expected error with wrong key")
	}
}

func TestGCM_BadKey(t *testing.T) {
	if _, _, err := sealGCM([]byte("x"), []byte("short")); err == nil {
		t.Errorf("expected error for invalid key length")
	}
	if _, err := openGCM([]byte("x"), make([]byte, 12), []byte("short")); err == nil {
		t.Errorf("expected error for invalid key length")
	}
}

func TestECB_PaddingAndBlocks(t *testing.T) {
	block, err := aes.NewCipher(DeriveKey("k"))
	if err != nil {
		t.Fatal(err)
	}

	for _, pt := range []string{"", "a", "0123456789abcdef", "0123456789abcdef0"} {
		ct := encryptECB(block, []byte(pt))
		if len(ct)%16 != 0 || len(ct) <= len(pt) {
			t.Errorf("bad ciphertext length %d for %q", len(ct), pt)
		}
		got, err := decryptECB(block, ct)
		if err != nil {
			t.Fatalf("decrypt %q: %v", pt, err)
		}
		if string(got) != pt {
			t.Errorf("expected %q, got %q", pt, got)
		}
	}

	if _, err := decryptECB(block, []byte("short")); err != errBlockSize {
		t.Errorf("expected errBlockSize, got %v", err)
	}
}

func TestPKCS7Unpad_Invalid(t *testing.T) {
	cases := map[string][]byte{
		"empty":     {},
		"zero":      append(bytes.Repeat([]byte{1}, 15), 0),
		"too large": append(bytes.Repeat([]byte{1}, 15), 17),
		"mismatch":  append(bytes.Repeat([]byte{1}, 14), 3, 2),
	}
	for name, in := range cases {
		if _, err := pkcs7Unpad(in, 16); err != errPadding {
			t.Errorf("%s: expected errPadding, got %v", name, err)
		}
	}
}

func TestECB_KnownVectorShape(t *testing.T) {
	block, _ := aes.NewCipher(DeriveKey("default_secret_key"))
	ct := hex.EncodeToString(encryptECB(block, []byte("00112233445566778899aabbccddeeff")))
	// 32 bytes of plaintext plus one full padding block
	if len(ct) != 96 {
		t.Errorf("expected 96 hex chars, got %d", len(ct))
	}
}
