// Package hasher computes the content fingerprint used to detect whether a
// page's Markdown body changed between scrapes.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const byteOrderMark = "﻿"

// canonicalize strips a leading UTF-8 byte order mark. No other
// normalization is applied: whitespace, casing, and line endings are
// treated as content, not noise.
func canonicalize(markdown string) string {
	return strings.TrimPrefix(markdown, byteOrderMark)
}

// Hash returns the hex-encoded SHA-256 digest of the canonicalized markdown.
func Hash(markdown string) string {
	sum := sha256.Sum256([]byte(canonicalize(markdown)))
	return hex.EncodeToString(sum[:])
}

// Changed computes the new hash for markdown and reports whether it differs
// from storedHash. An empty storedHash (no prior fingerprint) always counts
// as changed.
func Changed(markdown, storedHash string) (newHash string, changed bool) {
	newHash = Hash(markdown)
	return newHash, newHash != storedHash
}
