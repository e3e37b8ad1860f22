package domain

// TransferNotice is an inbound-transfer notification delivered by the host
// ledger runtime. SourceContract identifies the contract that issued or
// holds the transferred asset, which is distinct from the sending account.
type TransferNotice struct {
	From           string // sending account
	To             string // destination account
	Quantity       Asset  // transferred asset
	Memo           string // raw memo text, expected to carry a memo key
	SourceContract string // contract the notification originated from
}

// TransferCommand is a single outbound transfer effect handed to the
// ledger for execution. The host either executes it before the triggering
// operation commits or rolls the whole operation back.
type TransferCommand struct {
	Contract string // token contract to issue the transfer over
	From     string // paying account
	To       string // receiving account
	Quantity Asset
	Memo     string
}
