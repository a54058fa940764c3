package domain

// TallyCounts sums the head count of the non-draft lots per bidding mode.
func TallyCounts(lots []*Lot) map[BiddingMode]int {
	counts := make(map[BiddingMode]int)
	for _, lot := range lots {
		if lot.Draft {
			continue
		}
		counts[lot.Bidding] += lot.Count
	}
	return counts
}
