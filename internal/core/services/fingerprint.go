package services

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-crypt/x/blake2b"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// Fingerprint digests everything a write would send for doc, so identical
// documents produce identical fingerprints.
func Fingerprint(doc domain.RawDocument) string {
	h, _ := blake2b.New(32, nil)
	field := func(name, value string) {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(len(value))))
		h.Write([]byte{0})
		h.Write([]byte(value))
	}

	field(domain.FieldID, doc.ID)
	field(domain.FieldOriginalID, doc.OriginalID)
	field(domain.FieldName, doc.Name)
	field(domain.FieldSource, doc.Source.String())
	field(domain.FieldPath, doc.Path)
	field(domain.FieldContent, doc.Content)
	field(domain.FieldLastModified, doc.LastModified)
	if doc.Views != nil {
		field(domain.FieldViews, strconv.Itoa(*doc.Views))
	}

	keys := make([]string, 0, len(doc.Extra))
	for k := range doc.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field("extra."+k, fmt.Sprintf("%v", doc.Extra[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}
