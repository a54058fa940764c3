package postgres

import (
	"errors"
	"testing"

	"github.com/cristianortiz/lotsEngine/internal/user/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapWriteError(t *testing.T) {
	dup := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"}
	assert.ErrorIs(t, mapWriteError(dup), domain.ErrEmailTaken)

	other := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_api_key_key"}
	assert.Equal(t, other, mapWriteError(other))

	plain := errors.New("conn reset")
	assert.Equal(t, plain, mapWriteError(plain))
	assert.NoError(t, mapWriteError(nil))
}

func TestEncodeUserJSON(t *testing.T) {
	lot := uuid.New()
	auction := uuid.New()
	u := &domain.User{WatchList: map[uuid.UUID][]uuid.UUID{auction: {lot}}}

	j, err := encodeUserJSON(u)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(j.settings))
	assert.Equal(t, "[]", string(j.files))
	assert.Nil(t, j.property)
	assert.JSONEq(t, `{"`+auction.String()+`":["`+lot.String()+`"]}`, string(j.watchList))
}
