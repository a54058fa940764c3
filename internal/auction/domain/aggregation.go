package domain

import "github.com/google/uuid"

// ParticipantRow is one (auction, bidder) group of a lot's bids joined
// against the bid's auction. AuctionState is nil when the auction is gone.
type ParticipantRow struct {
	AuctionID    uuid.UUID
	Bidder       uuid.UUID
	AuctionState *LotState
}

// BidMaxRow is the highest bid of a user per (auction, lot).
type BidMaxRow struct {
	AuctionID    uuid.UUID
	LotID        uuid.UUID
	AuctionState *LotState
	MaxCents     int64
}

// AutoBidMaxRow is the highest auto-bid ceiling of a user per lot.
type AutoBidMaxRow struct {
	LotID        uuid.UUID
	LotState     *LotState
	AuctionState *LotState
	MaxCents     int64
}

func isOpen(state *LotState) bool {
	return state != nil && *state != StateClosed
}

// Participants returns the distinct bidders of rows whose auction still
// exists and is not closed, in first-seen order.
func Participants(rows []ParticipantRow) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(rows))
	out := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		if !isOpen(r.AuctionState) {
			continue
		}
		if _, ok := seen[r.Bidder]; ok {
			continue
		}
		seen[r.Bidder] = struct{}{}
		out = append(out, r.Bidder)
	}
	return out
}

// FoldAutoBids maps lot -> highest ceiling, skipping closed lots and auctions.
func FoldAutoBids(rows []AutoBidMaxRow) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64)
	for _, r := range rows {
		if !isOpen(r.LotState) || (r.AuctionState != nil && *r.AuctionState == StateClosed) {
			continue
		}
		if cur, ok := out[r.LotID]; !ok || r.MaxCents > cur {
			out[r.LotID] = r.MaxCents
		}
	}
	return out
}

// FoldBids maps auction -> lot -> highest bid, skipping closed or missing auctions.
func FoldBids(rows []BidMaxRow) map[uuid.UUID]map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]map[uuid.UUID]int64)
	for _, r := range rows {
		if !isOpen(r.AuctionState) {
			continue
		}
		lots, ok := out[r.AuctionID]
		if !ok {
			lots = make(map[uuid.UUID]int64)
			out[r.AuctionID] = lots
		}
		if cur, ok := lots[r.LotID]; !ok || r.MaxCents > cur {
			lots[r.LotID] = r.MaxCents
		}
	}
	return out
}
