// Package idhash computes deterministic identifiers for journal records.
package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeSettlementID computes a deterministic settlement_id using SHA256.
// Formula: SHA256(sender|source_contract|quantity|memo|timestamp_ms)
// Returns the base58-encoded hash.
func ComputeSettlementID(sender, sourceContract, quantity, memo string, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		sender,
		sourceContract,
		quantity,
		memo,
		timestampMs,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
