package application

import (
	"context"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
)

type ListLotsDTO struct {
	Params domain.ListParams
	// Viewer is nil for anonymous callers.
	Viewer *domain.Actor
}

// LotPage is one page of a lot listing.
type LotPage struct {
	Lots       []*domain.Lot
	Total      int
	Page       int
	TotalPages int
}

type ListLotsUseCase struct {
	lotRepo domain.LotRepository
}

func NewListLotsUseCase(lotRepo domain.LotRepository) *ListLotsUseCase {
	return &ListLotsUseCase{lotRepo: lotRepo}
}

func (uc *ListLotsUseCase) Execute(ctx context.Context, dto ListLotsDTO) (*LotPage, error) {
	q := domain.BuildLotQuery(dto.Params, dto.Viewer)

	lots, err := uc.lotRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := uc.lotRepo.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	return &LotPage{
		Lots:       lots,
		Total:      total,
		Page:       q.Page,
		TotalPages: domain.TotalPages(total, q.Limit),
	}, nil
}

type ListAuctionLotsDTO struct {
	AuctionID uuid.UUID
	Params    domain.ListParams
	Viewer    *domain.Actor
	// Results lists the closed lots instead of the running ones.
	Results bool
}

// ListAuctionLotsUseCase lists every lot of an auction. Running lots carry
// their participants.
type ListAuctionLotsUseCase struct {
	lotRepo      domain.LotRepository
	participants *ParticipantsLoader
}

func NewListAuctionLotsUseCase(lotRepo domain.LotRepository, participants *ParticipantsLoader) *ListAuctionLotsUseCase {
	return &ListAuctionLotsUseCase{lotRepo: lotRepo, participants: participants}
}

func (uc *ListAuctionLotsUseCase) Execute(ctx context.Context, dto ListAuctionLotsDTO) ([]*domain.Lot, error) {
	q := domain.BuildLotQuery(dto.Params, dto.Viewer).ForAuction(dto.AuctionID)
	if dto.Results {
		q = q.Historical()
	}

	lots, err := uc.lotRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if !dto.Results {
		uc.participants.Attach(ctx, lots)
	}
	return lots, nil
}
