// Package token genera identificadores portadores no adivinables (tokens de firma, access hash).
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// size bytes aleatorios por token (256 bits).
const size = 32

// encodedLen longitud de un token en base64url sin padding.
var encodedLen = base64.RawURLEncoding.EncodedLen(size)

// Generate devuelve un token aleatorio en base64url.
func Generate() (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash devuelve el SHA-256 hex del token; es lo único que se persiste.
func Hash(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// GenerateWithHash genera un token y su hash.
func GenerateWithHash() (string, string, error) {
	tok, err := Generate()
	if err != nil {
		return "", "", err
	}
	return tok, Hash(tok), nil
}

// WellFormed valida longitud y alfabeto sin revelar nada del almacenamiento.
func WellFormed(tok string) bool {
	if len(tok) != encodedLen {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(tok)
	return err == nil
}
