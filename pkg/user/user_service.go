package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	CreateUser(ctx context.Context, username, password string) (User, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	FindUser(ctx context.Context, id uuid.UUID) (*User, error)
	FindAllByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
	Authenticate(ctx context.Context, username, password string) (User, error)
}

type ServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) CreateUser(ctx context.Context, username, password string) (User, error) {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}
	if existing != nil {
		return User{}, ErrUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("could not hash password: %w", err)
	}
	u := User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *ServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, ErrUserNotFound
	}
	return *u, nil
}

func (s *ServiceImpl) FindUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ServiceImpl) FindAllByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	return s.repo.FindAllByIDs(ctx, ids)
}

// Authenticate checks a username/password pair against the stored bcrypt
// hash. Unknown usernames and wrong passwords fail the same way so callers
// cannot probe which usernames exist.
func (s *ServiceImpl) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return *u, nil
}
