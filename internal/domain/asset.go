package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxAssetAmount bounds amounts to 62 bits so int64 arithmetic on two
// amounts cannot overflow.
const MaxAssetAmount int64 = (1 << 62) - 1

// MaxSymbolPrecision is the largest number of decimal places a symbol
// may declare.
const MaxSymbolPrecision uint8 = 18

// ErrInvalidAssetQuantity is returned when an asset fails validity checks
// (negative or out-of-range amount, malformed symbol).
var ErrInvalidAssetQuantity = errors.New("invalid asset quantity")

// Symbol identifies a fungible token type: a ticker code plus the fixed
// number of decimal places its amounts are expressed in.
type Symbol struct {
	Code      string
	Precision uint8
}

// Validate checks the symbol shape: 1-7 uppercase A-Z characters and a
// precision within range.
func (s Symbol) Validate() error {
	if len(s.Code) < 1 || len(s.Code) > 7 {
		return fmt.Errorf("%w: symbol code %q must be 1-7 characters", ErrInvalidAssetQuantity, s.Code)
	}
	for i := 0; i < len(s.Code); i++ {
		if s.Code[i] < 'A' || s.Code[i] > 'Z' {
			return fmt.Errorf("%w: symbol code %q must be uppercase A-Z", ErrInvalidAssetQuantity, s.Code)
		}
	}
	if s.Precision > MaxSymbolPrecision {
		return fmt.Errorf("%w: precision %d exceeds %d", ErrInvalidAssetQuantity, s.Precision, MaxSymbolPrecision)
	}
	return nil
}

// Asset is a quantity of a specific fungible token type. Amount is an
// integer count of the symbol's smallest unit: 10.0000 TOKA with
// precision 4 is Amount=100000.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// Validate checks that the amount is a representable non-negative quantity
// under a well-formed symbol.
func (a Asset) Validate() error {
	if err := a.Symbol.Validate(); err != nil {
		return err
	}
	if a.Amount < 0 || a.Amount > MaxAssetAmount {
		return fmt.Errorf("%w: amount %d out of range", ErrInvalidAssetQuantity, a.Amount)
	}
	return nil
}

// Equal reports exact equality: same code, same precision, same amount.
func (a Asset) Equal(b Asset) bool {
	return a == b
}

// String renders the asset in canonical form, e.g. "10.0000 TOKA".
// The fractional part always carries exactly Precision digits.
func (a Asset) String() string {
	amount := a.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if a.Symbol.Precision == 0 {
		return fmt.Sprintf("%s%d %s", sign, amount, a.Symbol.Code)
	}
	scale := pow10(a.Symbol.Precision)
	return fmt.Sprintf("%s%d.%0*d %s", sign, amount/scale, int(a.Symbol.Precision), amount%scale, a.Symbol.Code)
}

// ParseAsset parses the canonical asset rendering produced by String.
// Precision is inferred from the number of fractional digits, so
// "10.0000 TOKA" yields precision 4 and "3 TOK" precision 0.
func ParseAsset(s string) (Asset, error) {
	amountStr, code, ok := strings.Cut(s, " ")
	if !ok || amountStr == "" || code == "" {
		return Asset{}, fmt.Errorf("%w: %q is not of the form \"<amount> <symbol>\"", ErrInvalidAssetQuantity, s)
	}

	intPart, fracPart, hasDot := strings.Cut(amountStr, ".")
	if intPart == "" || (hasDot && fracPart == "") {
		return Asset{}, fmt.Errorf("%w: malformed amount %q", ErrInvalidAssetQuantity, amountStr)
	}

	var precision uint8
	digits := intPart
	if hasDot {
		if len(fracPart) > int(MaxSymbolPrecision) {
			return Asset{}, fmt.Errorf("%w: %d fractional digits exceeds precision %d", ErrInvalidAssetQuantity, len(fracPart), MaxSymbolPrecision)
		}
		precision = uint8(len(fracPart))
		digits = intPart + fracPart
	}

	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: malformed amount %q", ErrInvalidAssetQuantity, amountStr)
	}

	asset := Asset{Amount: amount, Symbol: Symbol{Code: code, Precision: precision}}
	if err := asset.Validate(); err != nil {
		return Asset{}, err
	}
	return asset, nil
}

func pow10(n uint8) int64 {
	p := int64(1)
	for i := uint8(0); i < n; i++ {
		p *= 10
	}
	return p
}
