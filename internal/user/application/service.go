package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/shared/auth"
	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"github.com/cristianortiz/lotsEngine/internal/shared/storage"
	"github.com/cristianortiz/lotsEngine/internal/user/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var log = logger.GetLogger()

const (
	resetTokenTTL = time.Hour

	defaultLimit = 20
	maxLimit     = 100

	filePrefix = "user-"
)

type ObjectStore interface {
	Upload(ctx context.Context, body io.Reader, contentType, prefix string) (*storage.Object, error)
}

// UserService exposes the account use cases to the transport layer.
type UserService interface {
	Register(ctx context.Context, changes domain.UserChanges) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	GetUser(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.User, error)
	UpdateUser(ctx context.Context, actor *domain.User, id uuid.UUID, changes domain.UserChanges) (*domain.User, error)
	ChangePassword(ctx context.Context, actor *domain.User, password string) error
	ForgotPassword(ctx context.Context, email string) error
	ListUsers(ctx context.Context, page, limit int) (*UserPage, error)
	UploadFile(ctx context.Context, dto UploadFileDTO) (*domain.File, error)
}

type LoginResult struct {
	Token string
	User  *domain.User
}

type UserPage struct {
	Users      []*domain.User
	Total      int
	Page       int
	TotalPages int
}

type UploadFileDTO struct {
	Actor       *domain.User
	Kind        string
	Body        io.Reader
	ContentType string
}

type userService struct {
	repo     domain.UserRepository
	store    ObjectStore
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewUserService(repo domain.UserRepository, store ObjectStore, secret []byte, tokenTTL time.Duration) UserService {
	return &userService{repo: repo, store: store, secret: secret, tokenTTL: tokenTTL, now: time.Now}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *userService) Register(ctx context.Context, changes domain.UserChanges) (*domain.User, error) {
	if changes.Password == nil {
		return nil, errors.New("password is required")
	}
	user := domain.NewUser(changes)
	hash, err := hashPassword(*changes.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrEmailTaken) {
			log.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		}
		return nil, err
	}
	log.Info("User registered", zap.String("userID", user.ID.String()), zap.String("role", user.Role))
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Debug("Login rejected", zap.String("userID", user.ID.String()))
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID.String(), s.secret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResult{Token: token, User: user}, nil
}

func (s *userService) GetUser(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanManage(actor) {
		return nil, domain.ErrNotAuthorized
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor *domain.User, id uuid.UUID, changes domain.UserChanges) (*domain.User, error) {
	user, err := s.GetUser(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	user.Apply(changes)
	if changes.Password != nil {
		if user.PasswordHash, err = hashPassword(*changes.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	log.Info("User updated",
		zap.String("userID", user.ID.String()),
		zap.String("actorID", actor.ID.String()),
	)
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, actor *domain.User, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, actor.ID, hash)
}

// ForgotPassword stores a one hour reset token. Unknown emails succeed
// silently so the endpoint does not reveal registered addresses.
func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		log.Debug("Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	if err := s.repo.SetResetToken(ctx, user.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	log.Info("Password reset token issued", zap.String("userID", user.ID.String()))
	return nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	users, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		TotalPages: int(math.Ceil(float64(max(total, 1)) / float64(limit))),
	}, nil
}

func (s *userService) UploadFile(ctx context.Context, dto UploadFileDTO) (*domain.File, error) {
	if !slices.Contains(domain.FileKinds, dto.Kind) {
		return nil, domain.ErrUnknownFileKind
	}
	obj, err := s.store.Upload(ctx, dto.Body, dto.ContentType, filePrefix+dto.Kind+"-")
	if err != nil {
		return nil, err
	}

	file := domain.File{Key: obj.Key, Kind: dto.Kind, Location: obj.Location}
	if err := s.repo.AddFile(ctx, dto.Actor.ID, file); err != nil {
		return nil, fmt.Errorf("save user file: %w", err)
	}
	log.Info("User file uploaded",
		zap.String("userID", dto.Actor.ID.String()),
		zap.String("kind", dto.Kind),
		zap.String("key", obj.Key),
	)
	return &file, nil
}
