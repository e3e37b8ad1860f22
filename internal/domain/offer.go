package domain

// SwapOffer is a registered fixed-rate exchange term between two asset
// types. Corresponds to swap_offers table in PostgreSQL.
//
// Ref and MemoKey are unique across the registry and immutable after
// creation; Active is the only field ever mutated. Quantities are
// fixed-rate and never decrement on a fill, so an active offer can be
// matched an unbounded number of times.
type SwapOffer struct {
	Ref               string // PRIMARY KEY, creator-chosen identifier
	Owner             string // account that authorized creation; storage billed here
	ReceivingContract string // contract the inbound asset must originate from
	ReceivingAsset    Asset  // exact quantity an inbound transfer must carry
	SendingContract   string // contract the outbound transfer is issued over
	SendingAsset      Asset  // exact quantity paid out on a fill
	MemoKey           uint64 // UNIQUE, settlement lookup key carried in transfer memos
	Active            bool   // sole gate on whether the offer may be matched
	CreatedAt         int64  // record creation timestamp (ms)
}
