package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/shared/validation"
	"github.com/google/uuid"
)

// AuctionKind constrains the lots an auction accepts.
type AuctionKind struct {
	ID              uuid.UUID
	Name            string
	BiddingModes    []BiddingMode
	RequiredDetails []string
}

type Auction struct {
	ID                uuid.UUID
	Title             string
	Kind              *AuctionKind
	State             LotState
	LiveAt            time.Time
	LotOpeningSeconds int
	LotMaxSeconds     int
	AuctionMaxSeconds int
	StandbyTimer      int
	Counts            map[BiddingMode]int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (a *Auction) IsClosed() bool {
	return a.State == StateClosed
}

// CheckLot validates the kind specific rules. Drafts skip the required
// details check. A nil kind accepts everything.
func (k *AuctionKind) CheckLot(lot *Lot) validation.Errors {
	if k == nil {
		return nil
	}
	errs := validation.Errors{}

	if lot.Bidding != "" && len(k.BiddingModes) > 0 && !slices.Contains(k.BiddingModes, lot.Bidding) {
		allowed := make([]string, len(k.BiddingModes))
		for i, m := range k.BiddingModes {
			allowed[i] = string(m)
		}
		errs.Add("lot.bidding", "must be one of: "+strings.Join(allowed, ", "))
	}

	if !lot.Draft {
		for _, key := range k.RequiredDetails {
			if v, ok := lot.Details[key]; !ok || v == nil {
				errs.Add("lot.details."+key, "is required")
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
