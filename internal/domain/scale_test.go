package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleWithPrecisionLoss(t *testing.T) {
	cases := []struct {
		name                       string
		amount                     string
		fromScale, toScale         int
		wantRepresentable, wantLeftover string
	}{
		{"worked example from the spec", "99", 3, 2, "90", "9"},
		{"no precision loss when target scale is wider", "99", 2, 3, "99", "0"},
		{"equal scales pass through unchanged", "42.5", 2, 2, "42.5", "0"},
		{"exact multiple leaves no leftover", "100", 3, 2, "100", "0"},
		{"zero amount", "0", 3, 2, "0", "0"},
		{"single digit dropped", "7", 1, 0, "0", "7"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tc.amount)
			require.NoError(t, err)

			representable, leftover := ScaleWithPrecisionLoss(amount, tc.fromScale, tc.toScale)

			assert.True(t, representable.Equal(decimal.RequireFromString(tc.wantRepresentable)),
				"representable: got %s want %s", representable, tc.wantRepresentable)
			assert.True(t, leftover.Equal(decimal.RequireFromString(tc.wantLeftover)),
				"leftover: got %s want %s", leftover, tc.wantLeftover)

			assert.True(t, representable.Add(leftover).Equal(amount), "representable+leftover must reconstruct the original amount")
		})
	}
}

func TestScaleWithPrecisionLoss_NegativeTruncatesTowardZero(t *testing.T) {
	amount := decimal.RequireFromString("-99")

	representable, leftover := ScaleWithPrecisionLoss(amount, 3, 2)

	assert.True(t, representable.Equal(decimal.RequireFromString("-90")))
	assert.True(t, leftover.Equal(decimal.RequireFromString("-9")))
}

func TestRescaleToInteger(t *testing.T) {
	cases := []struct {
		name                          string
		representable                 string
		sourceScale, ledgerScale      int
		want                          string
	}{
		{"widen to ledger's larger scale", "90", 2, 3, "900"},
		{"narrow to ledger's smaller scale", "900", 3, 2, "90"},
		{"equal scales", "42", 2, 2, "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			representable := decimal.RequireFromString(tc.representable)

			got := RescaleToInteger(representable, tc.sourceScale, tc.ledgerScale)

			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}
