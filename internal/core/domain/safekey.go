package domain

import (
	"encoding/base64"
	"fmt"
)

// MakeSafeKey converts an original document identifier (a blob path or a
// drive item id) into a string that is legal as an index primary key.
//
// Identifiers made only of letters, digits, '_', '-' and '=' are returned
// unchanged. Anything else is encoded as unpadded URL-safe base64 of its
// UTF-8 bytes. The mapping is deterministic but callers must not decode it:
// the original identifier travels alongside in the originalId field.
func MakeSafeKey(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty document key", ErrInvalidInput)
	}
	if isSafeKey(raw) {
		return raw, nil
	}
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// isSafeKey reports whether every byte of s is in the key alphabet.
func isSafeKey(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '=':
		default:
			return false
		}
	}
	return true
}
