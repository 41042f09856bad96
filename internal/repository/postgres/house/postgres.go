package house

import (
	"context"
	"errors"

	"gorm.io/gorm"

	housedomain "casa360/internal/domain/house"
)

// PostgresRepository stores houses and memberships in the shared user
// database.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(housedomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateHouse(ctx context.Context, house *housedomain.House) error {
	return r.db.WithContext(ctx).Create(house).Error
}

func (r *PostgresRepository) GetHouse(ctx context.Context, houseID int64) (*housedomain.House, error) {
	var house housedomain.House
	if err := r.db.WithContext(ctx).First(&house, "id = ?", houseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, housedomain.ErrHouseNotFound
		}
		return nil, err
	}
	return &house, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]housedomain.House, error) {
	var houses []housedomain.House
	err := r.db.WithContext(ctx).
		Table("houses").
		Joins("join house_users on house_users.house_id = houses.id").
		Where("house_users.user_id = ?", userID).
		Order("houses.created_at asc").
		Find(&houses).Error
	if err != nil {
		return nil, err
	}
	return houses, nil
}

func (r *PostgresRepository) DeleteHouse(ctx context.Context, houseID int64) error {
	return r.db.WithContext(ctx).Delete(&housedomain.House{}, "id = ?", houseID).Error
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *housedomain.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *PostgresRepository) GetMember(ctx context.Context, houseID, userID int64) (*housedomain.Member, error) {
	var member housedomain.Member
	err := r.db.WithContext(ctx).
		Where("house_id = ? AND user_id = ?", houseID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, housedomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, houseID int64) ([]housedomain.Member, error) {
	var members []housedomain.Member
	err := r.db.WithContext(ctx).
		Where("house_id = ?", houseID).
		Order("joined_at asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, houseID, userID int64) error {
	return r.db.WithContext(ctx).
		Delete(&housedomain.Member{}, "house_id = ? AND user_id = ?", houseID, userID).Error
}

func (r *PostgresRepository) DeleteMembersByHouse(ctx context.Context, houseID int64) error {
	return r.db.WithContext(ctx).
		Where("house_id = ?", houseID).
		Delete(&housedomain.Member{}).Error
}
