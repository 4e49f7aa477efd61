package utils

import (
	"crypto/sha256"
	"fmt"
)

// GenerateETag creates an ETag from content.
func GenerateETag(content string) string {
	h := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", h)
}
