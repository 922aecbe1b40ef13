package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const KeyPrefix = "quizforge"

// Key joins parts under the service prefix: quizforge:<part>:<part>...
// Empty parts are skipped.
func Key(parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, KeyPrefix)
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return strings.Join(segments, ":")
}

// CatalogKey is the key of a provider's model catalog. The server URL is
// hashed so two local servers never share an entry.
func CatalogKey(provider, serverURL string) string {
	sum := sha1.Sum([]byte(strings.TrimRight(serverURL, "/")))
	return Key("catalog", provider, hex.EncodeToString(sum[:])[:12])
}
