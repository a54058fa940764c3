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

type DeleteLotDTO struct {
	LotID uuid.UUID
	Actor domain.Actor
}

type DeleteLotUseCase struct {
	lotRepo   domain.LotRepository
	counts    *CountsRecomputer
	txManager db.TxManager
	publisher events.Publisher
}

func NewDeleteLotUseCase(lotRepo domain.LotRepository, counts *CountsRecomputer, txManager db.TxManager, publisher events.Publisher) *DeleteLotUseCase {
	return &DeleteLotUseCase{lotRepo: lotRepo, counts: counts, txManager: txManager, publisher: publisher}
}

func (uc *DeleteLotUseCase) Execute(ctx context.Context, dto DeleteLotDTO) error {
	lot, err := uc.lotRepo.GetByID(ctx, dto.LotID)
	if err != nil {
		return err
	}
	if err := lot.CheckDeletable(&dto.Actor); err != nil {
		return err
	}

	err = uc.txManager.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := uc.lotRepo.Delete(ctx, tx, lot.ID); err != nil {
			return fmt.Errorf("delete lot: %w", err)
		}
		_, err := uc.counts.Recompute(ctx, tx, lot.AuctionID)
		return err
	})
	if err != nil {
		return err
	}

	log.Info("Lot deleted",
		zap.String("lotID", lot.ID.String()),
		zap.String("userID", dto.Actor.ID.String()),
	)
	events.Notify(ctx, uc.publisher, events.Event{
		Type:      events.LotDeleted,
		LotID:     lot.ID.String(),
		AuctionID: lot.AuctionID.String(),
	})
	return nil
}
