package health

import "math"

// tickBase is the price step between adjacent ticks.
const tickBase = 1.0001

// impermanentLossPct returns the standard concentrated-liquidity IL
// approximation for a price ratio change since entry, as a percentage:
//
//	IL = 2*sqrt(r)/(1+r) - 1, r = priceNow/priceEntry = 1.0001^(tickNow-tickEntry)
//
// The result is zero at r=1 and negative whenever the LP is worse off than
// holding the original deposit.
func impermanentLossPct(currentTick, entryTick int32) float64 {
	ratio := math.Pow(tickBase, float64(currentTick-entryTick))
	if math.IsInf(ratio, 0) || ratio <= 0 {
		return -100
	}
	il := 2*math.Sqrt(ratio)/(1+ratio) - 1
	return il * 100
}

// entryTickFor picks the entry tick for IL: the recorded entry when the
// caller knows it, otherwise the range midpoint as the neutral estimate.
func entryTickFor(tickLower, tickUpper int32, recorded *int32) int32 {
	if recorded != nil {
		return *recorded
	}
	return tickLower + (tickUpper-tickLower)/2
}
