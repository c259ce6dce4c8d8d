package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

const hashChunkSize = 1024 * 1024

// HashBytes returns the SHA-256 of data as lowercase hex, hashing in chunks
// to keep peak allocations bounded on large attachments.
func HashBytes(data []byte) string {
	hasher := sha256.New()
	for offset := 0; offset < len(data); offset += hashChunkSize {
		end := offset + hashChunkSize
		if end > len(data) {
			end = len(data)
		}
		hasher.Write(data[offset:end])
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashFile streams a file through SHA-256 and returns lowercase hex.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
