package settlement

import "errors"

// Settlement abort reasons. Every failed validation step aborts the whole
// operation; the host rolls back the triggering transfer along with it.
var (
	// ErrInvalidMemoFormat is returned when the memo text does not parse
	// as an unsigned 64-bit integer.
	ErrInvalidMemoFormat = errors.New("memo is not a valid memo key")

	// ErrMemoMismatch is returned when no offer is registered under the
	// parsed memo key, or when the memo text is a non-canonical spelling
	// of the key (leading zeros, whitespace).
	ErrMemoMismatch = errors.New("memo does not match any expected memo")

	// ErrOfferInactive is returned when the matched offer is not active.
	ErrOfferInactive = errors.New("offer is not active")

	// ErrWrongSourceContract is returned when the inbound asset was not
	// issued by the contract the offer expects. Guards against spoofed
	// transfers of a correctly-shaped asset from an untrusted contract.
	ErrWrongSourceContract = errors.New("tokens must come from the expected contract")

	// ErrWrongQuantity is returned when the transferred asset does not
	// exactly equal the offer's receiving asset.
	ErrWrongQuantity = errors.New("transferred quantity does not match the offer")
)
