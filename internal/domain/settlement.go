package domain

// Settlement outcome constants.
const (
	SettlementOutcomeSettled = "settled"
	SettlementOutcomeAborted = "aborted"
)

// SettlementRecord is one journal row per handled inbound transfer,
// settled or aborted. The journal is append-only telemetry; it never
// feeds back into settlement decisions.
type SettlementRecord struct {
	SettlementID   string // deterministic hash, see internal/idhash
	Ref            string // matched offer ref, empty when no offer resolved
	MemoKey        uint64 // parsed memo key, zero when the memo did not parse
	Sender         string // account the inbound transfer came from
	SourceContract string // contract the notification originated from
	Quantity       string // canonical rendering of the transferred asset
	Memo           string // raw memo text as received
	Outcome        string // "settled" | "aborted"
	Reason         string // abort reason, empty on success
	Timestamp      int64  // Unix timestamp in milliseconds
}
