package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/user/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const userSelect = `
        SELECT id, numeric_id, name, first_name, last_name, email, website, password_hash,
               phone, secondary_phone, role, user_type, seller_type, agency_name, pic, abn,
               ss_permit_number, ss_permit_number_age, trading_name, sale_conditions,
               settings, watch_list, property_address, postal_address, api_key,
               reset_password_token, reset_password_expires, files, created_at, updated_at
        FROM users`

// UserRepository implements domain.UserRepository for PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

type userJSON struct {
	settings, watchList, property, postal, files []byte
}

func encodeUserJSON(u *domain.User) (*userJSON, error) {
	var (
		j   userJSON
		err error
	)
	if j.settings, err = marshalOr(u.Settings, "{}"); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	if j.watchList, err = marshalOr(u.WatchList, "{}"); err != nil {
		return nil, fmt.Errorf("encode watch list: %w", err)
	}
	if u.PropertyAddress != nil {
		if j.property, err = json.Marshal(u.PropertyAddress); err != nil {
			return nil, fmt.Errorf("encode property address: %w", err)
		}
	}
	if u.PostalAddress != nil {
		if j.postal, err = json.Marshal(u.PostalAddress); err != nil {
			return nil, fmt.Errorf("encode postal address: %w", err)
		}
	}
	if j.files, err = marshalOr(u.Files, "[]"); err != nil {
		return nil, fmt.Errorf("encode files: %w", err)
	}
	return &j, nil
}

// Create inserts user and fills the generated numeric id and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	j, err := encodeUserJSON(u)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO users (id, name, first_name, last_name, email, website, password_hash,
                           phone, secondary_phone, role, user_type, seller_type, agency_name,
                           pic, abn, ss_permit_number, ss_permit_number_age, trading_name,
                           sale_conditions, settings, watch_list, property_address,
                           postal_address, api_key, files)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
                $18, $19, $20, $21, $22, $23, $24, $25)
        RETURNING numeric_id, created_at, updated_at`

	err = r.pool.QueryRow(ctx, query,
		u.ID, u.Name, u.FirstName, u.LastName, u.Email, u.Website, u.PasswordHash,
		u.Phone, u.SecondaryPhone, u.Role, u.Type, u.SellerType, u.AgencyName,
		u.PIC, u.ABN, u.SSPermitNumber, u.SSPermitNumberAge, u.TradingName,
		u.SaleConditions, j.settings, j.watchList, j.property, j.postal, u.APIKey, j.files,
	).Scan(&u.NumericID, &u.CreatedAt, &u.UpdatedAt)
	return mapWriteError(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, " WHERE id = $1", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, " WHERE lower(email) = lower($1)", email)
}

func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.User, error) {
	return r.getOne(ctx, " WHERE api_key = $1", apiKey)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, userSelect+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Update stores the profile fields and the password hash.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	j, err := encodeUserJSON(u)
	if err != nil {
		return err
	}
	query := `
        UPDATE users SET name = $2, first_name = $3, last_name = $4, email = $5, website = $6,
               password_hash = $7, phone = $8, secondary_phone = $9, role = $10, user_type = $11,
               seller_type = $12, agency_name = $13, pic = $14, abn = $15,
               ss_permit_number = $16, ss_permit_number_age = $17, trading_name = $18,
               sale_conditions = $19, settings = $20, watch_list = $21,
               property_address = $22, postal_address = $23, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at`

	err = r.pool.QueryRow(ctx, query,
		u.ID, u.Name, u.FirstName, u.LastName, u.Email, u.Website,
		u.PasswordHash, u.Phone, u.SecondaryPhone, u.Role, u.Type,
		u.SellerType, u.AgencyName, u.PIC, u.ABN,
		u.SSPermitNumber, u.SSPermitNumberAge, u.TradingName,
		u.SaleConditions, j.settings, j.watchList, j.property, j.postal,
	).Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	return mapWriteError(err)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.exec(ctx, `
        UPDATE users SET password_hash = $2, reset_password_token = '', reset_password_expires = NULL,
               updated_at = NOW()
        WHERE id = $1`, id, hash)
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	return r.exec(ctx, `
        UPDATE users SET reset_password_token = $2, reset_password_expires = $3, updated_at = NOW()
        WHERE id = $1`, id, token, expires)
}

// AddFile appends file to the user's files in a single statement.
func (r *UserRepository) AddFile(ctx context.Context, id uuid.UUID, file domain.File) error {
	b, err := json.Marshal([]domain.File{file})
	if err != nil {
		return err
	}
	return r.exec(ctx, `
        UPDATE users SET files = files || $2::jsonb, updated_at = NOW()
        WHERE id = $1`, id, b)
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx, userSelect+" ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// mapWriteError turns a duplicate email into ErrEmailTaken.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "users_email_key" {
		return domain.ErrEmailTaken
	}
	return err
}

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

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	var settings, watchList, property, postal, files []byte

	err := row.Scan(
		&u.ID, &u.NumericID, &u.Name, &u.FirstName, &u.LastName, &u.Email, &u.Website,
		&u.PasswordHash, &u.Phone, &u.SecondaryPhone, &u.Role, &u.Type, &u.SellerType,
		&u.AgencyName, &u.PIC, &u.ABN, &u.SSPermitNumber, &u.SSPermitNumberAge,
		&u.TradingName, &u.SaleConditions, &settings, &watchList, &property, &postal,
		&u.APIKey, &u.ResetPasswordToken, &u.ResetPasswordExpires, &files,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(settings, &u.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := json.Unmarshal(watchList, &u.WatchList); err != nil {
		return nil, fmt.Errorf("decode watch list: %w", err)
	}
	if len(property) > 0 {
		if err := json.Unmarshal(property, &u.PropertyAddress); err != nil {
			return nil, fmt.Errorf("decode property address: %w", err)
		}
	}
	if len(postal) > 0 {
		if err := json.Unmarshal(postal, &u.PostalAddress); err != nil {
			return nil, fmt.Errorf("decode postal address: %w", err)
		}
	}
	if err := json.Unmarshal(files, &u.Files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	return u, nil
}
