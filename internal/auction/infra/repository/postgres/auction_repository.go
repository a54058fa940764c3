package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuctionRepository implements domain.AuctionRepository
type AuctionRepository struct {
	pool *pgxpool.Pool
}

func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

// GetByID loads the auction together with its kind.
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `
        SELECT a.id, a.title, a.state, a.live_at, a.lot_opening_seconds, a.lot_max_seconds,
               a.auction_max_seconds, a.standby_timer, a.counts, a.created_at, a.updated_at,
               k.id, k.name, k.bidding_modes, k.required_details
        FROM auctions a
        LEFT JOIN auction_kinds k ON k.id = a.kind_id
        WHERE a.id = $1
    `
	a := &domain.Auction{}
	var (
		state        string
		counts       []byte
		kindID       *uuid.UUID
		kindName     *string
		biddingModes []string
		required     []string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.Title,
		&state,
		&a.LiveAt,
		&a.LotOpeningSeconds,
		&a.LotMaxSeconds,
		&a.AuctionMaxSeconds,
		&a.StandbyTimer,
		&counts,
		&a.CreatedAt,
		&a.UpdatedAt,
		&kindID,
		&kindName,
		&biddingModes,
		&required,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	a.State = domain.LotState(state)

	a.Counts = map[domain.BiddingMode]int{}
	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &a.Counts); err != nil {
			return nil, fmt.Errorf("decode auction counts: %w", err)
		}
	}

	if kindID != nil {
		kind := &domain.AuctionKind{ID: *kindID, RequiredDetails: required}
		if kindName != nil {
			kind.Name = *kindName
		}
		for _, m := range biddingModes {
			kind.BiddingModes = append(kind.BiddingModes, domain.BiddingMode(m))
		}
		a.Kind = kind
	}
	return a, nil
}

func (r *AuctionRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, "SELECT id FROM auctions WHERE id = $1 FOR UPDATE", id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAuctionNotFound
	}
	return err
}

func (r *AuctionRepository) SaveCounts(ctx context.Context, tx pgx.Tx, id uuid.UUID, counts map[domain.BiddingMode]int) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encode auction counts: %w", err)
	}
	tag, err := tx.Exec(ctx, "UPDATE auctions SET counts = $2, updated_at = NOW() WHERE id = $1", id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}
