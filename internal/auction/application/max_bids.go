package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
)

type MaxBidsDTO struct {
	UserID    uuid.UUID
	LotID     uuid.UUID
	AuctionID uuid.UUID
	// OnlyLot and OnlyAuction narrow the aggregation to the ids above.
	OnlyLot     bool
	OnlyAuction bool
}

// MaxBidsResult holds the caller's standing maxima on open auctions.
type MaxBidsResult struct {
	Bids     map[uuid.UUID]map[uuid.UUID]int64 `json:"bids"`
	AutoBids map[uuid.UUID]int64               `json:"autobids"`
}

type MaxBidsUseCase struct {
	bidRepo     domain.BidRepository
	autoBidRepo domain.AutoBidRepository
}

func NewMaxBidsUseCase(bidRepo domain.BidRepository, autoBidRepo domain.AutoBidRepository) *MaxBidsUseCase {
	return &MaxBidsUseCase{bidRepo: bidRepo, autoBidRepo: autoBidRepo}
}

func (uc *MaxBidsUseCase) Execute(ctx context.Context, dto MaxBidsDTO) (*MaxBidsResult, error) {
	var lotID, auctionID *uuid.UUID
	if dto.OnlyLot {
		lotID = &dto.LotID
	}
	if dto.OnlyAuction {
		auctionID = &dto.AuctionID
	}

	autoRows, err := uc.autoBidRepo.MaxAutoBidRows(ctx, dto.UserID, lotID)
	if err != nil {
		return nil, fmt.Errorf("aggregate auto-bids: %w", err)
	}
	bidRows, err := uc.bidRepo.MaxBidRows(ctx, dto.UserID, lotID, auctionID)
	if err != nil {
		return nil, fmt.Errorf("aggregate bids: %w", err)
	}

	return &MaxBidsResult{
		Bids:     domain.FoldBids(bidRows),
		AutoBids: domain.FoldAutoBids(autoRows),
	}, nil
}
