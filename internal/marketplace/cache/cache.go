package cache

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Cache stores raw marketplace responses. ClearAll drops every entry at once.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
	ClearAll(ctx context.Context) error
}

// Key derives the cache key for a request made with licenseKey.
func Key(resource string, params map[string]string, licenseKey string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	h, _ := blake2b.New256(nil)
	writeField(h, strings.Trim(resource, "/"))
	for _, name := range names {
		writeField(h, name)
		writeField(h, params[name])
	}
	writeField(h, Fingerprint(licenseKey))
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a stable, non-reversible id for licenseKey. Empty keys map to "anonymous".
func Fingerprint(licenseKey string) string {
	licenseKey = strings.TrimSpace(licenseKey)
	if licenseKey == "" {
		return "anonymous"
	}
	sum := blake2b.Sum256([]byte(licenseKey))
	return hex.EncodeToString(sum[:])
}

// writeField writes a length-prefixed field so adjacent values cannot collide.
func writeField(w io.Writer, value string) {
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(value)))
	_, _ = w.Write(size[:])
	_, _ = io.WriteString(w, value)
}
