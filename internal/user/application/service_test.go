package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/shared/auth"
	"github.com/cristianortiz/lotsEngine/internal/shared/storage"
	"github.com/cristianortiz/lotsEngine/internal/user/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	next  int64
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[uuid.UUID]*domain.User{}, next: 400}
}

func (m *memRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	n := m.next
	m.next++
	user.NumericID = &n
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *memRepo) GetByAPIKey(_ context.Context, key string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.APIKey == key })
}

func (m *memRepo) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *memRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memRepo) SetResetToken(_ context.Context, id uuid.UUID, token string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetPasswordToken = token
	u.ResetPasswordExpires = &expires
	return nil
}

func (m *memRepo) AddFile(_ context.Context, id uuid.UUID, file domain.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Files = append(u.Files, file)
	return nil
}

func (m *memRepo) List(_ context.Context, limit, offset int) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.User
	for _, u := range m.users {
		out = append(out, u)
	}
	if offset >= len(out) {
		return nil, nil
	}
	return out[offset:min(len(out), offset+limit)], nil
}

func (m *memRepo) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

type fakeStore struct{ err error }

func (s fakeStore) Upload(_ context.Context, body io.Reader, contentType, prefix string) (*storage.Object, error) {
	if s.err != nil {
		return nil, s.err
	}
	_, _ = io.Copy(io.Discard, body)
	key := prefix + uuid.NewString()
	return &storage.Object{Key: key, ContentType: contentType, Location: "http://cdn.test/" + key}, nil
}

var secret = []byte("user-secret")

func str(s string) *string { return &s }

func register(t *testing.T, svc UserService, email string) *domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), domain.UserChanges{
		FirstName: str("Jo"),
		LastName:  str("Grazier"),
		Email:     str(email),
		Password:  str("s3cret!"),
	})
	require.NoError(t, err)
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMemRepo()
	svc := NewUserService(repo, fakeStore{}, secret, time.Hour)

	u := register(t, svc, "jo@example.com")
	assert.Equal(t, "000400", u.ShortID())
	assert.NotEqual(t, "s3cret!", u.PasswordHash)

	_, err := svc.Register(context.Background(), domain.UserChanges{Email: str("jo@example.com"), Password: str("another1")})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	res, err := svc.Login(context.Background(), "jo@example.com", "s3cret!")
	require.NoError(t, err)
	id, err := auth.GetUserIDFromToken(res.Token, secret)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), id)

	_, err = svc.Login(context.Background(), "jo@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "nobody@example.com", "s3cret!")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUpdateUser_Authorization(t *testing.T) {
	repo := newMemRepo()
	svc := NewUserService(repo, fakeStore{}, secret, time.Hour)
	ctx := context.Background()

	jo := register(t, svc, "jo@example.com")
	sam := register(t, svc, "sam@example.com")
	admin := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	_, err := svc.UpdateUser(ctx, sam, jo.ID, domain.UserChanges{Phone: str("0400")})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	updated, err := svc.UpdateUser(ctx, jo, jo.ID, domain.UserChanges{Phone: str("0400 111 222")})
	require.NoError(t, err)
	assert.Equal(t, "0400 111 222", updated.Phone)

	updated, err = svc.UpdateUser(ctx, admin, jo.ID, domain.UserChanges{Role: str(domain.RoleAdmin), Password: str("newpass1")})
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin())

	_, err = svc.Login(ctx, "jo@example.com", "newpass1")
	assert.NoError(t, err)

	_, err = svc.GetUser(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	repo := newMemRepo()
	svc := NewUserService(repo, fakeStore{}, secret, time.Hour)
	jo := register(t, svc, "jo@example.com")

	require.NoError(t, svc.ChangePassword(context.Background(), jo, "changed1"))
	_, err := svc.Login(context.Background(), "jo@example.com", "s3cret!")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "jo@example.com", "changed1")
	assert.NoError(t, err)
}

func TestForgotPassword(t *testing.T) {
	repo := newMemRepo()
	svc := NewUserService(repo, fakeStore{}, secret, time.Hour).(*userService)
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	jo := register(t, svc, "jo@example.com")
	require.NoError(t, svc.ForgotPassword(context.Background(), "jo@example.com"))
	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@example.com"))

	stored, err := repo.GetByID(context.Background(), jo.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ResetPasswordToken)
	assert.Equal(t, fixed.Add(time.Hour), *stored.ResetPasswordExpires)
}

func TestListUsers(t *testing.T) {
	repo := newMemRepo()
	svc := NewUserService(repo, fakeStore{}, secret, time.Hour)
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		register(t, svc, email)
	}

	page, err := svc.ListUsers(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Users, 1)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	page, err = svc.ListUsers(context.Background(), 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Users, 3)
}

func TestUploadFile(t *testing.T) {
	repo := newMemRepo()
	svc := NewUserService(repo, fakeStore{}, secret, time.Hour)
	jo := register(t, svc, "jo@example.com")

	file, err := svc.UploadFile(context.Background(), UploadFileDTO{Actor: jo, Kind: "ss-permit", Body: bytes.NewReader([]byte("pdf")), ContentType: "application/pdf"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(file.Key, "user-ss-permit-"))

	stored, _ := repo.GetByID(context.Background(), jo.ID)
	assert.Equal(t, []domain.File{*file}, stored.Files)

	_, err = svc.UploadFile(context.Background(), UploadFileDTO{Actor: jo, Kind: "selfie", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, domain.ErrUnknownFileKind)

	failing := NewUserService(repo, fakeStore{err: errors.New("s3 down")}, secret, time.Hour)
	_, err = failing.UploadFile(context.Background(), UploadFileDTO{Actor: jo, Kind: "other", Body: strings.NewReader("x")})
	assert.EqualError(t, err, "s3 down")
}

func TestResolver(t *testing.T) {
	repo := newMemRepo()
	svc := NewUserService(repo, fakeStore{}, secret, time.Hour)
	jo := register(t, svc, "jo@example.com")
	r := NewResolver(repo)

	p, err := r.PrincipalByAPIKey(context.Background(), jo.APIKey)
	require.NoError(t, err)
	assert.Equal(t, &auth.Principal{ID: jo.ID, Role: auth.RoleUser}, p)

	p, err = r.PrincipalByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, p)
}
