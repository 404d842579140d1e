package model

import "github.com/shopspring/decimal"

// VolumeEpsilon is the single tolerance used for every "is it zero / is it
// equal" volume decision. A container at or below it is empty.
var VolumeEpsilon = decimal.NewFromFloat(0.01)

// RoundLiters normalizes a volume to centiliter precision.
func RoundLiters(v decimal.Decimal) decimal.Decimal { return v.Round(2) }

// IsNegligible reports whether v is within VolumeEpsilon of zero.
func IsNegligible(v decimal.Decimal) bool {
	return v.Abs().LessThanOrEqual(VolumeEpsilon)
}

// NearlyEqual reports whether a and b differ by at most VolumeEpsilon.
func NearlyEqual(a, b decimal.Decimal) bool { return IsNegligible(a.Sub(b)) }
