package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyCounts(t *testing.T) {
	lots := []*Lot{
		{Bidding: BiddingIncrement, Count: 3},
		{Bidding: BiddingIncrement, Count: 2},
		{Bidding: BiddingPerHead, Count: 40},
		{Bidding: BiddingPerHead, Count: 7, Draft: true},
	}

	counts := TallyCounts(lots)
	assert.Equal(t, map[BiddingMode]int{BiddingIncrement: 5, BiddingPerHead: 40}, counts)
	assert.Equal(t, counts, TallyCounts(lots), "recomputing yields the same mapping")
}

func TestTallyCounts_Empty(t *testing.T) {
	assert.Empty(t, TallyCounts(nil))
	assert.Empty(t, TallyCounts([]*Lot{{Bidding: BiddingLump, Count: 1, Draft: true}}))
}
