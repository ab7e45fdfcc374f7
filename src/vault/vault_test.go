package vault

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	v := New("test-secret")

	testCases := []string{
		"uXvB9kQ2mono_tokenXYZ",
		"",
		"Special!@#$%^&*()",
		strings.Repeat("A", 1000),
		"багатобайтовий токен",
	}

	for _, plaintext := range testCases {
		blob, err := v.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("encrypt %q: %v", plaintext, err)
		}

		decrypted, err := v.Decrypt(blob)
		if err != nil {
			t.Fatalf("decrypt %q: %v", plaintext, err)
		}
		if decrypted != plaintext {
			t.Errorf("roundtrip mismatch: got %q, want %q", decrypted, plaintext)
		}
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	v := New("test-secret")

	blob1, err := v.Encrypt("same token")
	if err != nil {
		t.Fatal(err)
	}
	blob2, err := v.Encrypt("same token")
	if err != nil {
		t.Fatal(err)
	}
	if blob1 == blob2 {
		t.Error("identical plaintext should encrypt to different blobs")
	}
}

func TestBlobFormat(t *testing.T) {
	v := New("test-secret")

	blob, err := v.Encrypt("token")
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(blob, ":")
	if len(parts) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(parts))
	}
	if len(parts[0]) != saltLength*2 {
		t.Errorf("salt hex length = %d, want %d", len(parts[0]), saltLength*2)
	}
	if len(parts[1]) != ivLength*2 {
		t.Errorf("iv hex length = %d, want %d", len(parts[1]), ivLength*2)
	}
	if len(parts[3]) != tagLength*2 {
		t.Errorf("tag hex length = %d, want %d", len(parts[3]), tagLength*2)
	}
	for i, p := range parts {
		if _, err := hex.DecodeString(p); err != nil {
			t.Errorf("field %d is not valid hex: %v", i, err)
		}
	}
}

func TestDecryptWrongArity(t *testing.T) {
	v := New("test-secret")

	for _, blob := range []string{"", "abc", "a:b", "a:b:c", "a:b:c:d:e"} {
		if _, err := v.Decrypt(blob); !errors.Is(err, ErrFormat) {
			t.Errorf("Decrypt(%q) error = %v, want ErrFormat", blob, err)
		}
	}
}

func TestDecryptNonHexField(t *testing.T) {
	v := New("test-secret")

	if _, err := v.Decrypt("zz:zz:zz:zz"); !errors.Is(err, ErrFormat) {
		t.Errorf("error = %v, want ErrFormat", err)
	}
}

func flipBit(t *testing.T, hexField string) string {
	t.Helper()
	raw, err := hex.DecodeString(hexField)
	if err != nil {
		t.Fatal(err)
	}
	raw[0] ^= 0x01
	return hex.EncodeToString(raw)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	v := New("test-secret")

	blob, err := v.Encrypt("secret token")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(blob, ":")
	parts[2] = flipBit(t, parts[2])

	if _, err := v.Decrypt(strings.Join(parts, ":")); !errors.Is(err, ErrIntegrity) {
		t.Errorf("error = %v, want ErrIntegrity", err)
	}
}

func TestDecryptTamperedTag(t *testing.T) {
	v := New("test-secret")

	blob, err := v.Encrypt("secret token")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(blob, ":")
	parts[3] = flipBit(t, parts[3])

	if _, err := v.Decrypt(strings.Join(parts, ":")); !errors.Is(err, ErrIntegrity) {
		t.Errorf("error = %v, want ErrIntegrity", err)
	}
}

func TestDecryptWrongSecret(t *testing.T) {
	blob, err := New("secret-one").Encrypt("token")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New("secret-two").Decrypt(blob); !errors.Is(err, ErrIntegrity) {
		t.Errorf("error = %v, want ErrIntegrity", err)
	}
}
