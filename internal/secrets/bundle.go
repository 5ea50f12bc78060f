// SPDX-License-Identifier: MPL-2.0

package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

// bundleMagic identifies version 1 of the credential bundle format:
//
//	magic || 16-byte scrypt salt || 12-byte GCM nonce || AES-256-GCM ciphertext
var bundleMagic = []byte("SIGLAENC1")

// scrypt parameters for the passphrase KDF.
const (
	scryptN       = 1 << 15
	scryptR       = 8
	scryptP       = 1
	bundleSaltLen = 16
)

// Bundle format errors.
var (
	// ErrBundleFormat indicates data that is not a credential bundle.
	ErrBundleFormat = errors.New("not a siglaci credential bundle")
	// ErrBundleDecrypt indicates a wrong passphrase or tampered ciphertext.
	ErrBundleDecrypt = errors.New("bundle decryption failed (wrong passphrase or corrupted data)")
)

// EncryptBundle seals plaintext with a passphrase-derived AES-256-GCM key.
func EncryptBundle(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase must not be empty")
	}

	salt := make([]byte, bundleSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("rand salt: %w", err)
	}

	gcm, err := newBundleCipher(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("rand nonce: %w", err)
	}

	out := make([]byte, 0, len(bundleMagic)+len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, bundleMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// DecryptBundle opens a credential bundle with the given passphrase.
// Decryption is authenticated: a wrong passphrase or any tampering fails
// loudly instead of yielding garbage plaintext.
func DecryptBundle(data []byte, passphrase string) ([]byte, error) {
	if len(data) < len(bundleMagic)+bundleSaltLen {
		return nil, ErrBundleFormat
	}
	if !bytes.Equal(data[:len(bundleMagic)], bundleMagic) {
		return nil, ErrBundleFormat
	}
	rest := data[len(bundleMagic):]

	salt := rest[:bundleSaltLen]
	rest = rest[bundleSaltLen:]

	gcm, err := newBundleCipher(passphrase, salt)
	if err != nil {
		return nil, err
	}

	if len(rest) < gcm.NonceSize() {
		return nil, ErrBundleFormat
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrBundleDecrypt
	}
	return plaintext, nil
}

// DecryptBundleFile decrypts src into dst. The destination is written 0600,
// creating parent directories 0700: the decrypted artifact is a credential.
func DecryptBundleFile(src, dst, passphrase string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read bundle: %w", err)
	}

	plaintext, err := DecryptBundle(data, passphrase)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}
	if err := os.WriteFile(dst, plaintext, 0o600); err != nil {
		return fmt.Errorf("failed to write decrypted file: %w", err)
	}
	return nil
}

// newBundleCipher derives the AES-256 key from the passphrase and salt.
func newBundleCipher(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
