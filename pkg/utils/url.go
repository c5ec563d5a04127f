package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
// Only http and https targets are accepted. The fragment is kept, so the
// result is the link exactly as a browser resolves it.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	abs := base.ResolveReference(relURL)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", abs.Scheme, relative)
	}
	return abs.String(), nil
}
