package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/db"
	"github.com/cristianortiz/lotsEngine/internal/shared/events"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UpdateLotDTO struct {
	LotID   uuid.UUID
	Actor   domain.Actor
	Changes domain.LotChanges
}

// UpdateLotUseCase edits a draft lot. Publishing a lot (draft=false) runs
// the auction kind rules.
type UpdateLotUseCase struct {
	lotRepo     domain.LotRepository
	auctionRepo domain.AuctionRepository
	counts      *CountsRecomputer
	txManager   db.TxManager
	publisher   events.Publisher
}

func NewUpdateLotUseCase(
	lotRepo domain.LotRepository,
	auctionRepo domain.AuctionRepository,
	counts *CountsRecomputer,
	txManager db.TxManager,
	publisher events.Publisher,
) *UpdateLotUseCase {
	return &UpdateLotUseCase{
		lotRepo:     lotRepo,
		auctionRepo: auctionRepo,
		counts:      counts,
		txManager:   txManager,
		publisher:   publisher,
	}
}

func (uc *UpdateLotUseCase) Execute(ctx context.Context, dto UpdateLotDTO) (*domain.Lot, error) {
	lot, err := uc.lotRepo.GetByID(ctx, dto.LotID)
	if err != nil {
		return nil, err
	}
	if err := lot.CheckEditable(&dto.Actor); err != nil {
		return nil, err
	}

	lot.Apply(dto.Changes)
	if !lot.Draft {
		auction, err := uc.auctionRepo.GetByID(ctx, lot.AuctionID)
		if err != nil {
			return nil, err
		}
		if errs := auction.Kind.CheckLot(lot); errs != nil {
			return nil, errs
		}
	}

	err = uc.txManager.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := uc.lotRepo.Update(ctx, tx, lot); err != nil {
			return fmt.Errorf("update lot: %w", err)
		}
		_, err := uc.counts.Recompute(ctx, tx, lot.AuctionID)
		return err
	})
	if err != nil {
		log.Error("Failed to update lot", zap.String("lotID", lot.ID.String()), zap.Error(err))
		return nil, err
	}

	log.Info("Lot updated",
		zap.String("lotID", lot.ID.String()),
		zap.String("userID", dto.Actor.ID.String()),
		zap.Bool("draft", lot.Draft),
	)
	events.Notify(ctx, uc.publisher, events.Event{
		Type:      events.LotEdited,
		LotID:     lot.ID.String(),
		AuctionID: lot.AuctionID.String(),
	})

	return reload(ctx, uc.lotRepo, lot), nil
}
