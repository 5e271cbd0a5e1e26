package tracker

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives a short, stable identifier for a product image from its
// catalog id and URL. Any change to either yields a different fingerprint.
func Fingerprint(imageID, imageURL string) string {
	sum := sha256.Sum256([]byte(imageID + "|" + imageURL))
	return hex.EncodeToString(sum[:])[:16]
}
