// Package notecrypt implements the RSA-OAEP envelope used to keep note
// content encrypted at rest with a patient's public key.
package notecrypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

const keyBits = 2048

var (
	// ErrBadKey indicates PEM key material that cannot be parsed.
	ErrBadKey = errors.New("invalid key material")

	// ErrBadCiphertext indicates ciphertext that cannot be opened.
	ErrBadCiphertext = errors.New("invalid ciphertext")
)

// GenerateKeyPair returns PEM-encoded private (PKCS #8) and public
// (PKIX) keys for a new account.
func GenerateKeyPair() (privatePEM, publicPEM string, err error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return "", "", fmt.Errorf("generating key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", "", fmt.Errorf("encoding private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("encoding public key: %w", err)
	}

	privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	return privatePEM, publicPEM, nil
}

// Encrypt seals message with the PEM public key and returns base64.
// OAEP with SHA-256 bounds one block at 190 bytes for a 2048-bit key,
// so longer notes span consecutive fixed-size blocks.
func Encrypt(publicPEM, message string) (string, error) {
	pub, err := parsePublicKey(publicPEM)
	if err != nil {
		return "", err
	}

	maxChunk := pub.Size() - 2*sha256.Size - 2
	plain := []byte(message)
	var sealed []byte
	for len(plain) > 0 {
		n := len(plain)
		if n > maxChunk {
			n = maxChunk
		}
		block, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plain[:n], nil)
		if err != nil {
			return "", fmt.Errorf("encrypting: %w", err)
		}
		sealed = append(sealed, block...)
		plain = plain[n:]
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a base64 ciphertext with the PEM private key.
func Decrypt(privatePEM, ciphertext string) (string, error) {
	key, err := parsePrivateKey(privatePEM)
	if err != nil {
		return "", err
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: not base64", ErrBadCiphertext)
	}
	blockSize := key.PublicKey.Size()
	if len(sealed) == 0 || len(sealed)%blockSize != 0 {
		return "", fmt.Errorf("%w: truncated", ErrBadCiphertext)
	}

	var plain []byte
	for off := 0; off < len(sealed); off += blockSize {
		block, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, key, sealed[off:off+blockSize], nil)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadCiphertext, err)
		}
		plain = append(plain, block...)
	}
	return string(plain), nil
}

func parsePublicKey(publicPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicPEM))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrBadKey)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrBadKey)
	}
	return pub, nil
}

func parsePrivateKey(privatePEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privatePEM))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrBadKey)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrBadKey)
	}
	return key, nil
}
