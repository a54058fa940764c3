package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CountsRecomputer rebuilds Auction.counts inside the caller's transaction.
type CountsRecomputer struct {
	lotRepo     domain.LotRepository
	auctionRepo domain.AuctionRepository
}

func NewCountsRecomputer(lotRepo domain.LotRepository, auctionRepo domain.AuctionRepository) *CountsRecomputer {
	return &CountsRecomputer{lotRepo: lotRepo, auctionRepo: auctionRepo}
}

// Recompute locks the auction row, tallies its lots and stores the result.
func (c *CountsRecomputer) Recompute(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (map[domain.BiddingMode]int, error) {
	if err := c.auctionRepo.LockForUpdate(ctx, tx, auctionID); err != nil {
		return nil, fmt.Errorf("lock auction: %w", err)
	}
	lots, err := c.lotRepo.ListForTally(ctx, tx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("load lots for counts: %w", err)
	}

	counts := domain.TallyCounts(lots)
	if err := c.auctionRepo.SaveCounts(ctx, tx, auctionID, counts); err != nil {
		return nil, fmt.Errorf("save auction counts: %w", err)
	}

	log.Debug("auction counts recomputed",
		zap.String("auctionID", auctionID.String()),
		zap.Any("counts", counts),
	)
	return counts, nil
}
