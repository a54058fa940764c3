package postgres

import (
	"context"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AutoBidRepository implements domain.AutoBidRepository
type AutoBidRepository struct {
	pool *pgxpool.Pool
}

func NewAutoBidRepository(pool *pgxpool.Pool) *AutoBidRepository {
	return &AutoBidRepository{pool: pool}
}

func (r *AutoBidRepository) MaxAutoBidRows(ctx context.Context, userID uuid.UUID, lotID *uuid.UUID) ([]domain.AutoBidMaxRow, error) {
	query := `
        SELECT ab.lot_id, l.state, a.state, MAX(ab.cents)
        FROM auto_bids ab
        LEFT JOIN lots l ON l.id = ab.lot_id
        LEFT JOIN auctions a ON a.id = l.auction_id
        WHERE ab.created_by = $1`
	args := []any{userID}
	if lotID != nil {
		query += " AND ab.lot_id = $2"
		args = append(args, *lotID)
	}
	query += " GROUP BY ab.lot_id, l.state, a.state"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AutoBidMaxRow
	for rows.Next() {
		var (
			row                    domain.AutoBidMaxRow
			lotState, auctionState *string
		)
		if err := rows.Scan(&row.LotID, &lotState, &auctionState, &row.MaxCents); err != nil {
			return nil, err
		}
		row.LotState = toState(lotState)
		row.AuctionState = toState(auctionState)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
