package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateFindingID creates a deterministic hash for a finding from its file,
// check and position, so the same problem keeps its ID across runs.
func GenerateFindingID(filePath, check string, line, column int, subject string) string {
	input := fmt.Sprintf("%s:%s:%d:%d:%s", filePath, check, line, column, subject)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:8])
}
