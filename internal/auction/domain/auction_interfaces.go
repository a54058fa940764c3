package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LotRepository interface {
	List(ctx context.Context, q LotQuery) ([]*Lot, error)
	Count(ctx context.Context, q LotQuery) (int, error)
	// GetByID returns ErrLotNotFound when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Lot, error)
	Insert(ctx context.Context, tx pgx.Tx, lot *Lot) error
	Update(ctx context.Context, tx pgx.Tx, lot *Lot) error
	// Delete returns ErrLotNotFound when nothing was removed.
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	// ListForTally loads draft, bidding and count of every lot of an auction.
	ListForTally(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) ([]*Lot, error)
	SaveAttachments(ctx context.Context, lot *Lot) error
}

type AuctionRepository interface {
	// GetByID returns ErrAuctionNotFound when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	// LockForUpdate serializes counts recomputes of one auction.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	SaveCounts(ctx context.Context, tx pgx.Tx, id uuid.UUID, counts map[BiddingMode]int) error
}

type BidRepository interface {
	ParticipantRows(ctx context.Context, lotID uuid.UUID) ([]ParticipantRow, error)
	// MaxBidRows groups the user's bids; lotID and auctionID narrow the rows when set.
	MaxBidRows(ctx context.Context, userID uuid.UUID, lotID, auctionID *uuid.UUID) ([]BidMaxRow, error)
	GetLatestBidByLotID(ctx context.Context, lotID uuid.UUID) (*Bid, error)
}

type AutoBidRepository interface {
	// MaxAutoBidRows groups the user's auto-bids; lotID narrows to one lot when set.
	MaxAutoBidRows(ctx context.Context, userID uuid.UUID, lotID *uuid.UUID) ([]AutoBidMaxRow, error)
}
