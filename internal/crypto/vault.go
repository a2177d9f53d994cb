package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDecryption means the ciphertext failed authentication: tampered
	// data or a key mismatch. Callers must treat this as a hard failure,
	// never as an absent field.
	ErrDecryption = errors.New("pii decryption failed")

	// ErrCorruptHash means a stored password hash is not a valid bcrypt
	// hash at all, as opposed to a plain mismatch.
	ErrCorruptHash = errors.New("corrupt password hash")
)

// Vault performs password hashing and authenticated encryption of PII
// fields. The key is fixed at construction and shared read-only across
// requests.
type Vault struct {
	aead       cipher.AEAD
	bcryptCost int
}

// NewVault builds a vault from a 32-byte AES-256 key.
func NewVault(key []byte, bcryptCost int) (*Vault, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Vault{aead: aead, bcryptCost: bcryptCost}, nil
}

func (v *Vault) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), v.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword returns false on mismatch and ErrCorruptHash when the
// stored hash is malformed.
func (v *Vault) VerifyPassword(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrCorruptHash, err)
}

// Encrypt seals plaintext with AES-GCM. The random nonce is prepended to
// the ciphertext, so output differs between calls for the same input.
func (v *Vault) Encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return v.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

func (v *Vault) Decrypt(ciphertext []byte) (string, error) {
	if len(ciphertext) < v.aead.NonceSize() {
		return "", ErrDecryption
	}
	nonce, sealed := ciphertext[:v.aead.NonceSize()], ciphertext[v.aead.NonceSize():]
	plain, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plain), nil
}
