package house

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateHouse(ctx context.Context, house *House) error
	GetHouse(ctx context.Context, houseID int64) (*House, error)
	ListByUser(ctx context.Context, userID int64) ([]House, error)
	DeleteHouse(ctx context.Context, houseID int64) error
	AddMember(ctx context.Context, member *Member) error
	GetMember(ctx context.Context, houseID, userID int64) (*Member, error)
	ListMembers(ctx context.Context, houseID int64) ([]Member, error)
	DeleteMember(ctx context.Context, houseID, userID int64) error
	DeleteMembersByHouse(ctx context.Context, houseID int64) error
}
