package utils

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const defaultBCryptWorkFactor = 12

// Argon2id parameters are fixed constants of the stored-hash format.
// Verification reproduces them exactly; they are not configurable per key.
const (
	argonSaltLength  = 16
	argonKeyLength   = 32
	argonIterations  = 4
	argonMemoryKiB   = 64 * 1024
	argonParallelism = 8
)

var ErrMalformedSecretHash = errors.New("stored secret hash is malformed")

// BCrypt implements a BCrypt hasher for interactive login passwords.
type BCrypt struct {
	bCryptWorkFactor int
}

// NewBCrypt returns a new BCrypt instance.
func NewBCrypt() *BCrypt {
	return &BCrypt{
		defaultBCryptWorkFactor,
	}
}

func (b *BCrypt) Hash(ctx context.Context, data []byte) ([]byte, error) {
	cf := b.bCryptWorkFactor
	s, err := bcrypt.GenerateFromPassword(data, cf)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *BCrypt) Compare(ctx context.Context, hash, data []byte) error {
	if err := bcrypt.CompareHashAndPassword(hash, data); err != nil {
		return err
	}
	return nil
}

// HashStringSecret hashes a value down to exactly 32 bytes, hex encoded.
// Used for contact lookups so no raw contact value lands in storage or cache keys.
func HashStringSecret(secret string) string {
	hashedSecret := HashByteSecret([]byte(secret))
	return hex.EncodeToString(hashedSecret)
}

// HashByteSecret hashes the secret down to exactly 32 bytes.
func HashByteSecret(secret []byte) []byte {

	algorithm := sha256.New()
	algorithm.Write(secret)
	return algorithm.Sum(nil)
}

// HashSecret derives an argon2id digest of the supplied secret under a fresh
// random salt and returns base64(salt||digest), a 48 byte blob before encoding.
func HashSecret(secret string) (string, error) {
	salt, err := GenerateRandomBytes(argonSaltLength)
	if err != nil {
		return "", err
	}

	digest := argon2.IDKey([]byte(secret), salt, argonIterations, argonMemoryKiB, argonParallelism, argonKeyLength)

	blob := make([]byte, 0, argonSaltLength+argonKeyLength)
	blob = append(blob, salt...)
	blob = append(blob, digest...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// CompareSecret recomputes the argon2id digest of the candidate secret with
// the salt extracted from the stored blob and compares in constant time.
// A malformed or wrong-length blob returns ErrMalformedSecretHash so callers
// can fail closed without distinguishing it from a mismatch.
func CompareSecret(secret, storedHash string) (bool, error) {
	blob, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil {
		return false, ErrMalformedSecretHash
	}
	if len(blob) != argonSaltLength+argonKeyLength {
		return false, ErrMalformedSecretHash
	}

	salt := blob[:argonSaltLength]
	digest := blob[argonSaltLength:]

	computed := argon2.IDKey([]byte(secret), salt, argonIterations, argonMemoryKiB, argonParallelism, argonKeyLength)

	return subtle.ConstantTimeCompare(computed, digest) == 1, nil
}
