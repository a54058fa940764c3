package application

import (
	"context"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
)

type GetLotUseCase struct {
	lotRepo domain.LotRepository
}

func NewGetLotUseCase(lotRepo domain.LotRepository) *GetLotUseCase {
	return &GetLotUseCase{lotRepo: lotRepo}
}

func (uc *GetLotUseCase) Execute(ctx context.Context, lotID uuid.UUID) (*domain.Lot, error) {
	return uc.lotRepo.GetByID(ctx, lotID)
}

type GetAuctionUseCase struct {
	auctionRepo domain.AuctionRepository
}

func NewGetAuctionUseCase(auctionRepo domain.AuctionRepository) *GetAuctionUseCase {
	return &GetAuctionUseCase{auctionRepo: auctionRepo}
}

func (uc *GetAuctionUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, error) {
	return uc.auctionRepo.GetByID(ctx, auctionID)
}
