package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
)

const (
	// encryptedHeader marks an encrypted backup file.
	encryptedHeader = "DELVENC1"

	// Argon2id parameters (RFC 9106 second recommended option).
	defaultArgon2Time    = 1
	defaultArgon2Memory  = 64 * 1024 // KiB
	defaultArgon2Threads = 4
	argon2KeyLen         = 32 // AES-256

	saltLength = 32
	gcmTagSize = 16
)

// ErrWrongPassword is returned when a backup cannot be authenticated.
var ErrWrongPassword = errors.New("wrong password or corrupted backup")

// EncryptionConfig holds the passphrase and key derivation cost.
type EncryptionConfig struct {
	Password string

	Argon2Time    uint32
	Argon2Memory  uint32 // KiB
	Argon2Threads uint8
}

// DefaultEncryptionConfig returns the default Argon2id cost for password.
func DefaultEncryptionConfig(password string) *EncryptionConfig {
	return &EncryptionConfig{
		Password:      password,
		Argon2Time:    defaultArgon2Time,
		Argon2Memory:  defaultArgon2Memory,
		Argon2Threads: defaultArgon2Threads,
	}
}

func (c *EncryptionConfig) gcm(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(c.Password), salt, c.Argon2Time, c.Argon2Memory, c.Argon2Threads, argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// EncryptData seals plaintext with AES-256-GCM under an Argon2id key.
// Layout: salt || nonce || ciphertext+tag.
func EncryptData(plaintext []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, fmt.Errorf("encryption password required")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	gcm, err := config.gcm(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// DecryptData reverses EncryptData.
func DecryptData(encrypted []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, fmt.Errorf("encryption password required")
	}
	if len(encrypted) < saltLength+12+gcmTagSize {
		return nil, fmt.Errorf("encrypted data too short")
	}

	gcm, err := config.gcm(encrypted[:saltLength])
	if err != nil {
		return nil, err
	}
	rest := encrypted[saltLength:]
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}

// encryptFile writes the encrypted contents of src to dst with the header.
func encryptFile(src, dst string, config *EncryptionConfig) error {
	plaintext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	sealed, err := EncryptData(plaintext, config)
	if err != nil {
		return err
	}
	data := append([]byte(encryptedHeader), sealed...)
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// decryptFile writes the plaintext of the encrypted file src to dst.
func decryptFile(src, dst string, config *EncryptionConfig) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if !bytes.HasPrefix(data, []byte(encryptedHeader)) {
		return fmt.Errorf("%s is not an encrypted backup", src)
	}
	plaintext, err := DecryptData(data[len(encryptedHeader):], config)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, plaintext, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// IsEncrypted reports whether the file at path starts with the encrypted
// backup header.
func IsEncrypted(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, len(encryptedHeader))
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return n == len(encryptedHeader) && string(header) == encryptedHeader, nil
}
