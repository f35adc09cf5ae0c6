package domain

import "github.com/shopspring/decimal"

// ScaleWithPrecisionLoss implements spec §4.B: it interprets amount as a
// value scaled by fromScale and produces the largest representable value
// at toScale, plus the leftover that could not be expressed. Both results
// are expressed in the source (fromScale) scale so they can be summed with
// a later incoming amount.
//
// Rounding is always truncation toward zero; banker's rounding would
// over-settle, which spec §4.B calls a correctness violation.
func ScaleWithPrecisionLoss(amount decimal.Decimal, fromScale, toScale int) (representable, leftover decimal.Decimal) {
	if toScale >= fromScale {
		return amount, decimal.Zero
	}

	dropped := fromScale - toScale

	// Shifting right by `dropped` places and truncating the fractional part
	// discards exactly the low-order digits that toScale cannot represent;
	// shifting back reconstructs the representable amount at fromScale.
	truncatedUnits := amount.Shift(int32(-dropped)).Truncate(0)

	representable = truncatedUnits.Shift(int32(dropped))
	leftover = amount.Sub(representable)

	return representable, leftover
}

// RescaleToInteger converts a representable amount (expressed at
// sourceScale) into the integer number of units at ledgerScale that the
// ledger adapter expects. Callers are expected to only invoke this on the
// "representable" half of ScaleWithPrecisionLoss's result, which is always
// exactly expressible at ledgerScale.
func RescaleToInteger(representable decimal.Decimal, sourceScale, ledgerScale int) decimal.Decimal {
	if ledgerScale >= sourceScale {
		return representable.Shift(int32(ledgerScale - sourceScale))
	}

	return representable.Shift(int32(-(sourceScale - ledgerScale)))
}
