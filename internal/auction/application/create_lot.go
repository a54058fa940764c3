package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/db"
	"github.com/cristianortiz/lotsEngine/internal/shared/events"
	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// CreateLotDTO is the input of CreateLotUseCase.
type CreateLotDTO struct {
	AuctionID uuid.UUID
	Actor     domain.Actor
	Changes   domain.LotChanges
}

// CreateLotUseCase adds a lot to an auction and refreshes the auction counts
// in the same transaction.
type CreateLotUseCase struct {
	lotRepo     domain.LotRepository
	auctionRepo domain.AuctionRepository
	counts      *CountsRecomputer
	txManager   db.TxManager
	publisher   events.Publisher
}

func NewCreateLotUseCase(
	lotRepo domain.LotRepository,
	auctionRepo domain.AuctionRepository,
	counts *CountsRecomputer,
	txManager db.TxManager,
	publisher events.Publisher,
) *CreateLotUseCase {
	return &CreateLotUseCase{
		lotRepo:     lotRepo,
		auctionRepo: auctionRepo,
		counts:      counts,
		txManager:   txManager,
		publisher:   publisher,
	}
}

func (uc *CreateLotUseCase) Execute(ctx context.Context, dto CreateLotDTO) (*domain.Lot, error) {
	auction, err := uc.auctionRepo.GetByID(ctx, dto.AuctionID)
	if err != nil {
		return nil, err
	}
	if auction.IsClosed() {
		log.Warn("Lot rejected: auction closed",
			zap.String("auctionID", auction.ID.String()),
			zap.String("userID", dto.Actor.ID.String()),
		)
		return nil, domain.ErrAuctionClosed
	}

	lot := domain.NewLot(dto.Actor.ID, dto.Changes)
	if errs := auction.Kind.CheckLot(lot); errs != nil {
		return nil, errs
	}
	lot.PlaceInAuction(auction)

	err = uc.txManager.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := uc.lotRepo.Insert(ctx, tx, lot); err != nil {
			return fmt.Errorf("insert lot: %w", err)
		}
		_, err := uc.counts.Recompute(ctx, tx, auction.ID)
		return err
	})
	if err != nil {
		log.Error("Failed to create lot",
			zap.String("auctionID", auction.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	log.Info("New lot created",
		zap.String("lotID", lot.ID.String()),
		zap.String("auctionID", auction.ID.String()),
		zap.String("userID", dto.Actor.ID.String()),
		zap.Bool("draft", lot.Draft),
	)
	events.Notify(ctx, uc.publisher, events.Event{
		Type:      events.LotEdited,
		LotID:     lot.ID.String(),
		AuctionID: auction.ID.String(),
	})

	return reload(ctx, uc.lotRepo, lot), nil
}

// reload fetches the stored lot with its projections, falling back to the
// in-memory copy when the read fails.
func reload(ctx context.Context, repo domain.LotRepository, lot *domain.Lot) *domain.Lot {
	stored, err := repo.GetByID(ctx, lot.ID)
	if err != nil {
		log.Warn("Failed to reload lot", zap.String("lotID", lot.ID.String()), zap.Error(err))
		return lot
	}
	return stored
}
