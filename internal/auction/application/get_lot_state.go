package application

import (
	"context"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LotStateDTO is the public snapshot of a lot pushed to websocket clients.
type LotStateDTO struct {
	LotID           uuid.UUID  `json:"lotId"`
	AuctionID       uuid.UUID  `json:"auctionId"`
	Title           string     `json:"title"`
	State           string     `json:"state"`
	Draft           bool       `json:"draft"`
	Bidding         string     `json:"bidding"`
	Count           int        `json:"count"`
	StartPriceCents int64      `json:"startPriceCents"`
	FinishAt        *time.Time `json:"finishAt,omitempty"`
	ShouldClose     *time.Time `json:"shouldClose,omitempty"`
	LastBidCents    int64      `json:"lastBidCents,omitempty"`
	LastBidUserID   *uuid.UUID `json:"lastBidUserId,omitempty"`
	LastBidTime     *time.Time `json:"lastBidTime,omitempty"`
}

// GetLotStateUseCase retrieves the current state of a lot
type GetLotStateUseCase struct {
	lotRepo domain.LotRepository
	bidRepo domain.BidRepository
}

func NewGetLotStateUseCase(lotRepo domain.LotRepository, bidRepo domain.BidRepository) *GetLotStateUseCase {
	return &GetLotStateUseCase{
		lotRepo: lotRepo,
		bidRepo: bidRepo,
	}
}

func (uc *GetLotStateUseCase) Execute(ctx context.Context, lotID uuid.UUID) (*LotStateDTO, error) {
	lot, err := uc.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	dto := &LotStateDTO{
		LotID:           lot.ID,
		AuctionID:       lot.AuctionID,
		Title:           lot.Title,
		State:           string(lot.State),
		Draft:           lot.Draft,
		Bidding:         string(lot.Bidding),
		Count:           lot.Count,
		StartPriceCents: lot.StartPriceCents,
		FinishAt:        lot.FinishAt,
		ShouldClose:     lot.ShouldClose,
	}

	// the latest bid is optional
	bid, err := uc.bidRepo.GetLatestBidByLotID(ctx, lotID)
	if err != nil {
		log.Warn("Failed to load latest bid", zap.String("lotID", lotID.String()), zap.Error(err))
		return dto, nil
	}
	if bid != nil {
		dto.LastBidCents = bid.Cents
		dto.LastBidUserID = &bid.CreatedBy
		dto.LastBidTime = &bid.CreatedAt
	}
	return dto, nil
}
