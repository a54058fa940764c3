package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BidRepository implements domain.BidRepository interface
type BidRepository struct {
	pool *pgxpool.Pool
}

// NewBidRepository creates new instance of BidRepository.
func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

// ParticipantRows groups the lot's bids by auction and bidder, joined with
// the auction state. Closed auctions are filtered by the caller.
func (r *BidRepository) ParticipantRows(ctx context.Context, lotID uuid.UUID) ([]domain.ParticipantRow, error) {
	query := `
        SELECT b.auction_id, b.created_by, a.state
        FROM bids b
        LEFT JOIN auctions a ON a.id = b.auction_id
        WHERE b.lot_id = $1
        GROUP BY b.auction_id, b.created_by, a.state
        ORDER BY MIN(b.created_at) ASC
    `
	rows, err := r.pool.Query(ctx, query, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ParticipantRow
	for rows.Next() {
		var (
			row   domain.ParticipantRow
			state *string
		)
		if err := rows.Scan(&row.AuctionID, &row.Bidder, &state); err != nil {
			return nil, err
		}
		row.AuctionState = toState(state)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BidRepository) MaxBidRows(ctx context.Context, userID uuid.UUID, lotID, auctionID *uuid.UUID) ([]domain.BidMaxRow, error) {
	query := `
        SELECT b.auction_id, b.lot_id, a.state, MAX(b.cents)
        FROM bids b
        LEFT JOIN auctions a ON a.id = b.auction_id
        WHERE b.created_by = $1`
	args := []any{userID}
	if lotID != nil {
		args = append(args, *lotID)
		query += fmt.Sprintf(" AND b.lot_id = $%d", len(args))
	}
	if auctionID != nil {
		args = append(args, *auctionID)
		query += fmt.Sprintf(" AND b.auction_id = $%d", len(args))
	}
	query += " GROUP BY b.auction_id, b.lot_id, a.state"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BidMaxRow
	for rows.Next() {
		var (
			row   domain.BidMaxRow
			state *string
		)
		if err := rows.Scan(&row.AuctionID, &row.LotID, &state, &row.MaxCents); err != nil {
			return nil, err
		}
		row.AuctionState = toState(state)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BidRepository) GetLatestBidByLotID(ctx context.Context, lotID uuid.UUID) (*domain.Bid, error) {
	query := `
        SELECT id, lot_id, auction_id, created_by, cents, created_at
        FROM bids
        WHERE lot_id = $1
        ORDER BY created_at DESC
        LIMIT 1
    `
	bid := &domain.Bid{}
	err := r.pool.QueryRow(ctx, query, lotID).Scan(
		&bid.ID,
		&bid.LotID,
		&bid.AuctionID,
		&bid.CreatedBy,
		&bid.Cents,
		&bid.CreatedAt,
	)
	if err != nil {
		// no bids on this lot yet
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bid, nil
}

func toState(s *string) *domain.LotState {
	if s == nil {
		return nil
	}
	state := domain.LotState(*s)
	return &state
}
