package feed

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidAccount reports whether s is a well-formed account identifier: a
// base58-encoded 32-byte ed25519 point on the curve. Frames carrying
// malformed identifiers are dropped at the transport edge; the engine
// treats accounts as opaque strings.
func ValidAccount(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return isOnCurve(raw)
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
