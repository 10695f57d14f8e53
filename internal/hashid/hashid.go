// Package hashid derives stable content identifiers for uploaded media.
package hashid

import (
	"crypto/sha256"
	"encoding/base64"
)

// idBytes truncates the digest to 160 bits, short enough for permalinks
// while keeping accidental collisions out of the realm of possibility.
const idBytes = 20

// Length is the number of characters in every identifier.
const Length = 27

// FromBytes returns the content identifier for the given raw upload.
// Identical bytes always yield the same identifier. The base64url alphabet
// keeps identifiers safe in URLs and on the filesystem without escaping.
func FromBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(sum[:idBytes])
}
