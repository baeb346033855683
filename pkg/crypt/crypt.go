// Package crypt seals small JSON values, such as CSRF claims, with
// AES-256-GCM under a key derived from APP_KEY. Tokens are
// base64url(nonce || sealed) and safe in headers and form fields.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/wellness360/config"
)

// ErrDecrypt covers every malformed, tampered or foreign token.
var ErrDecrypt = errors.New("crypt: decryption failed")

// label binds tokens to this application so a key shared with another
// service cannot replay them here.
var label = []byte("wellness360/v1")

func gcmFor(key string) (cipher.AEAD, error) {
	if key == "" {
		return nil, errors.New("crypt: APP_KEY not configured")
	}
	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("crypt: cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// EncryptJSON marshals v and seals it with a fresh random nonce.
func EncryptJSON(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("crypt: marshal: %w", err)
	}
	g, err := gcmFor(config.AppKey())
	if err != nil {
		return "", err
	}
	out := make([]byte, g.NonceSize(), g.NonceSize()+len(plain)+g.Overhead())
	if _, err := rand.Read(out); err != nil {
		return "", fmt.Errorf("crypt: nonce: %w", err)
	}
	out = g.Seal(out, out, plain, label)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// DecryptJSON opens token and unmarshals it into dest.
func DecryptJSON(token string, dest any) error {
	g, err := gcmFor(config.AppKey())
	if err != nil {
		return err
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < g.NonceSize() {
		return ErrDecrypt
	}
	nonce, sealed := raw[:g.NonceSize()], raw[g.NonceSize():]
	plain, err := g.Open(nil, nonce, sealed, label)
	if err != nil {
		return ErrDecrypt
	}
	if json.Unmarshal(plain, dest) != nil {
		return ErrDecrypt
	}
	return nil
}
