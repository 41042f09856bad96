package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	userdomain "casa360/internal/domain/user"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, u *userdomain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*userdomain.User, error) {
	var found userdomain.User
	if err := r.db.WithContext(ctx).First(&found, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &found, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	var found userdomain.User
	if err := r.db.WithContext(ctx).First(&found, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &found, nil
}
