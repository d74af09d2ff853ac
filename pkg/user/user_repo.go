package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Repo interface {
	CreateUser(ctx context.Context, user User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindAllByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

func (r *RepoImpl) CreateUser(ctx context.Context, user User) error {
	query := "INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, user.ID.String(), user.Username, user.PasswordHash)
	if err != nil {
		err := fmt.Errorf("could not insert user: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := "SELECT id, username, password_hash FROM users WHERE id = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, query, id.String()))
}

func (r *RepoImpl) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := "SELECT id, username, password_hash FROM users WHERE username = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *RepoImpl) FindAllByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := "SELECT id, username, password_hash FROM users WHERE id IN (?" // one placeholder per id
	args := []any{ids[0].String()}
	for _, id := range ids[1:] {
		query += ", ?"
		args = append(args, id.String())
	}
	query += ")"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query users: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var id string
		if err := rows.Scan(&id, &u.Username, &u.PasswordHash); err != nil {
			err := fmt.Errorf("could not scan user row: %w", err)
			log.Error(err)
			return nil, err
		}
		u.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid user id in database: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *RepoImpl) scanOne(row *sql.Row) (*User, error) {
	var u User
	var id string
	err := row.Scan(&id, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err := fmt.Errorf("could not scan user row: %w", err)
		log.Error(err)
		return nil, err
	}
	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in database: %w", err)
	}
	return &u, nil
}
