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

const lotSelect = `
        SELECT l.id, l.auction_id, l.created_by, l.title, l.description, l.draft, l.state,
               l.bidding, l.lot_count, l.platform, l.start_price_cents, l.reserve_price_cents,
               l.increment_cents, l.location, l.details, l.media_keys, l.media, l.document_keys,
               l.documents, l.lot_max_seconds, l.finish_at, l.should_close, l.created_at,
               l.updated_at, u.numeric_id
        FROM lots l
        LEFT JOIN users u ON u.id = l.created_by`

// LotRepository implements domain.LotRepository
type LotRepository struct {
	pool *pgxpool.Pool
}

func NewLotRepository(pool *pgxpool.Pool) *LotRepository {
	return &LotRepository{pool: pool}
}

func (r *LotRepository) List(ctx context.Context, q domain.LotQuery) ([]*domain.Lot, error) {
	w := buildWhere(q)
	query := lotSelect + w.String() + orderBy(q)
	args := w.args
	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lots := []*domain.Lot{}
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *LotRepository) Count(ctx context.Context, q domain.LotQuery) (int, error) {
	w := buildWhere(q)
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM lots l"+w.String(), w.args...).Scan(&count)
	return count, err
}

func (r *LotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lot, error) {
	lot, err := scanLot(r.pool.QueryRow(ctx, lotSelect+" WHERE l.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLotNotFound
		}
		return nil, err
	}
	return lot, nil
}

func (r *LotRepository) Insert(ctx context.Context, tx pgx.Tx, lot *domain.Lot) error {
	cols, err := encodeLotJSON(lot)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO lots (id, auction_id, created_by, title, description, draft, state, bidding,
                          lot_count, platform, start_price_cents, reserve_price_cents, increment_cents,
                          location, details, media_keys, media, document_keys, documents,
                          lot_max_seconds, finish_at, should_close)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query,
		lot.ID,
		lot.AuctionID,
		lot.CreatedBy,
		lot.Title,
		lot.Description,
		lot.Draft,
		string(lot.State),
		string(lot.Bidding),
		lot.Count,
		string(lot.Platform),
		lot.StartPriceCents,
		lot.ReservePriceCents,
		lot.IncrementCents,
		cols.location,
		cols.details,
		cols.mediaKeys,
		cols.media,
		cols.documentKeys,
		cols.documents,
		lot.LotMaxSeconds,
		lot.FinishAt,
		lot.ShouldClose,
	).Scan(&lot.CreatedAt, &lot.UpdatedAt)
}

// Update writes the caller editable fields. Attachments go through SaveAttachments.
func (r *LotRepository) Update(ctx context.Context, tx pgx.Tx, lot *domain.Lot) error {
	cols, err := encodeLotJSON(lot)
	if err != nil {
		return err
	}
	query := `
        UPDATE lots
        SET title = $2, description = $3, draft = $4, bidding = $5, lot_count = $6, platform = $7,
            start_price_cents = $8, reserve_price_cents = $9, increment_cents = $10,
            location = $11, details = $12, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err = tx.QueryRow(ctx, query,
		lot.ID,
		lot.Title,
		lot.Description,
		lot.Draft,
		string(lot.Bidding),
		lot.Count,
		string(lot.Platform),
		lot.StartPriceCents,
		lot.ReservePriceCents,
		lot.IncrementCents,
		cols.location,
		cols.details,
	).Scan(&lot.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrLotNotFound
	}
	return err
}

func (r *LotRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, "DELETE FROM lots WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

func (r *LotRepository) ListForTally(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) ([]*domain.Lot, error) {
	rows, err := tx.Query(ctx, "SELECT id, draft, bidding, lot_count FROM lots WHERE auction_id = $1", auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*domain.Lot
	for rows.Next() {
		lot := &domain.Lot{AuctionID: auctionID}
		var bidding string
		if err := rows.Scan(&lot.ID, &lot.Draft, &bidding, &lot.Count); err != nil {
			return nil, err
		}
		lot.Bidding = domain.BiddingMode(bidding)
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

func (r *LotRepository) SaveAttachments(ctx context.Context, lot *domain.Lot) error {
	cols, err := encodeLotJSON(lot)
	if err != nil {
		return err
	}
	query := `
        UPDATE lots
        SET media_keys = $2, media = $3, document_keys = $4, documents = $5, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.pool.Exec(ctx, query, lot.ID, cols.mediaKeys, cols.media, cols.documentKeys, cols.documents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

type lotJSON struct {
	location     []byte
	details      []byte
	mediaKeys    []byte
	media        []byte
	documentKeys []byte
	documents    []byte
}

func encodeLotJSON(lot *domain.Lot) (*lotJSON, error) {
	var (
		out lotJSON
		err error
	)
	if lot.Location != nil {
		if out.location, err = json.Marshal(lot.Location); err != nil {
			return nil, fmt.Errorf("encode location: %w", err)
		}
	}
	if out.details, err = marshalOr(lot.Details, "{}"); err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}
	if out.mediaKeys, err = marshalOr(lot.MediaKeys, "[]"); err != nil {
		return nil, fmt.Errorf("encode media keys: %w", err)
	}
	if out.media, err = marshalOr(lot.Media, "[]"); err != nil {
		return nil, fmt.Errorf("encode media: %w", err)
	}
	if out.documentKeys, err = marshalOr(lot.DocumentKeys, "[]"); err != nil {
		return nil, fmt.Errorf("encode document keys: %w", err)
	}
	if out.documents, err = marshalOr(lot.Documents, "[]"); err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}
	return &out, nil
}

// marshalOr encodes v, using empty when v marshals to null.
func marshalOr(v any, empty string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte(empty), nil
	}
	return b, nil
}

func scanLot(row pgx.Row) (*domain.Lot, error) {
	lot := &domain.Lot{}
	var (
		state, bidding, platform                                string
		location, details, mediaKeys, media, docKeys, documents []byte
	)
	err := row.Scan(
		&lot.ID,
		&lot.AuctionID,
		&lot.CreatedBy,
		&lot.Title,
		&lot.Description,
		&lot.Draft,
		&state,
		&bidding,
		&lot.Count,
		&platform,
		&lot.StartPriceCents,
		&lot.ReservePriceCents,
		&lot.IncrementCents,
		&location,
		&details,
		&mediaKeys,
		&media,
		&docKeys,
		&documents,
		&lot.LotMaxSeconds,
		&lot.FinishAt,
		&lot.ShouldClose,
		&lot.CreatedAt,
		&lot.UpdatedAt,
		&lot.SellerNumericID,
	)
	if err != nil {
		return nil, err
	}
	lot.State = domain.LotState(state)
	lot.Bidding = domain.BiddingMode(bidding)
	lot.Platform = domain.Platform(platform)

	if len(location) > 0 {
		lot.Location = &domain.Location{}
		if err := json.Unmarshal(location, lot.Location); err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}
	}
	decoders := []struct {
		raw  []byte
		dest any
	}{
		{details, &lot.Details},
		{mediaKeys, &lot.MediaKeys},
		{media, &lot.Media},
		{docKeys, &lot.DocumentKeys},
		{documents, &lot.Documents},
	}
	for _, d := range decoders {
		if len(d.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(d.raw, d.dest); err != nil {
			return nil, fmt.Errorf("decode lot %s: %w", lot.ID, err)
		}
	}
	return lot, nil
}
