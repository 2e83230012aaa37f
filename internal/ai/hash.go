package ai

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashImage returns the hex SHA-256 of the raw image bytes
func HashImage(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsDuplicate reports whether hash is among the previously submitted hashes
func IsDuplicate(hash string, existing []string) bool {
	for _, h := range existing {
		if h == hash {
			return true
		}
	}
	return false
}
