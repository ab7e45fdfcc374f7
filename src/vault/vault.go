package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 64
	ivLength   = 16
	tagLength  = 16
	keyLength  = 32
	iterations = 100_000
)

var (
	// ErrFormat means the stored blob does not look like salt:iv:ciphertext:tag.
	ErrFormat = errors.New("invalid encrypted token format")
	// ErrIntegrity means the auth tag did not verify. The secret changed or
	// the blob was tampered with; the token cannot be recovered.
	ErrIntegrity = errors.New("encrypted token failed integrity check")
)

// Vault encrypts bank API tokens at rest with AES-256-GCM. The key is
// derived per blob from the process-wide secret and a random salt, so losing
// the secret makes every stored token permanently unrecoverable.
type Vault struct {
	secret []byte
}

func New(secret string) *Vault {
	return &Vault{secret: []byte(secret)}
}

func (v *Vault) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(v.secret, salt, iterations, keyLength, sha256.New)
}

// Encrypt returns the token as four colon-joined lowercase hex fields:
// salt, iv, ciphertext, tag. Salt and IV are fresh per call, so encrypting
// the same token twice never produces the same blob.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	gcm, err := v.newGCM(salt)
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	return strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(iv),
		hex.EncodeToString(ciphertext),
		hex.EncodeToString(tag),
	}, ":"), nil
}

// Decrypt reverses Encrypt. It fails with ErrFormat when the blob does not
// have exactly four hex fields and ErrIntegrity when authentication fails.
func (v *Vault) Decrypt(blob string) (string, error) {
	parts := strings.Split(blob, ":")
	if len(parts) != 4 {
		return "", ErrFormat
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", ErrFormat
	}
	iv, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", ErrFormat
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrFormat
	}
	tag, err := hex.DecodeString(parts[3])
	if err != nil {
		return "", ErrFormat
	}
	if len(iv) != ivLength || len(tag) != tagLength {
		return "", ErrFormat
	}

	gcm, err := v.newGCM(salt)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrIntegrity
	}
	return string(plaintext), nil
}

func (v *Vault) newGCM(salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	// 16-byte IVs, matching the stored blob layout.
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return gcm, nil
}
