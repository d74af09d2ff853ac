package user

import (
	"context"

	"github.com/google/uuid"
)

type StubUserRepository struct {
	data map[uuid.UUID]User
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{data: map[uuid.UUID]User{}}
}

func (s *StubUserRepository) CreateUser(ctx context.Context, user User) error {
	s.data[user.ID] = user
	return nil
}

func (s *StubUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := s.data[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *StubUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	for _, u := range s.data {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s *StubUserRepository) FindAllByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	var users []User
	for _, id := range ids {
		if u, ok := s.data[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}
