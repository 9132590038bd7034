package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/cyclebill/cyclebill/internal/domain/user"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
)

type userRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Get(ctx context.Context, id string) (*user.User, error) {
	q := r.db.GetQuerier(ctx)

	var usr user.User
	err := q.GetContext(ctx, &usr, `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("user not found").
				WithHintf("no user with id %s", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("failed to get user").
			Mark(ierr.ErrDatabase)
	}
	return &usr, nil
}
