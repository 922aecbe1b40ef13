package quiz

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"
)

const fingerprintLength = 8

// Fingerprint is a short stable hash of the question text, insensitive to
// case and whitespace.
func Fingerprint(text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}

// Dedup keeps the first item of every fingerprint, preserving order.
func Dedup[T any](items []T, text func(T) string, logger *zap.Logger) []T {
	if logger == nil {
		logger = zap.NewNop()
	}
	seen := make(map[string]struct{}, len(items))
	kept := make([]T, 0, len(items))
	for i, item := range items {
		fp := Fingerprint(text(item))
		if _, dup := seen[fp]; dup {
			logger.Warn("Duplicate question dropped",
				zap.Int("position", i+1),
				zap.String("fingerprint", fp))
			continue
		}
		seen[fp] = struct{}{}
		kept = append(kept, item)
	}
	return kept
}
