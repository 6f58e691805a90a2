package utils

import "crypto/rand"

const alphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateRandomBytes returns the requested number of bytes using crypto/rand
func GenerateRandomBytes(length int) ([]byte, error) {
	var randomBytes = make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, err
	}
	return randomBytes, nil
}

// GenerateRandomString returns a random string of the requested length drawn
// from the [A-Za-z0-9] alphabet. Bytes outside the unbiased range are
// rejected so every character is uniformly distributed.
func GenerateRandomString(length int) (string, error) {
	// Largest multiple of len(alphabet) that fits in a byte.
	maxUnbiased := byte(256 - (256 % len(alphanumericAlphabet)))

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= maxUnbiased {
				continue
			}
			out = append(out, alphanumericAlphabet[int(b)%len(alphanumericAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
