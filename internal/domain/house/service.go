package house

import (
	"context"
	"fmt"
	"strings"

	"casa360/pkg/logger"
)

// Provisioner manages the physical per-house databases.
type Provisioner interface {
	CreateHouseDatabase(ctx context.Context, houseID int64) error
	DropHouseDatabase(ctx context.Context, houseID int64) error
}

// PoolEvictor drops a cached tenant pool after its database is gone.
type PoolEvictor interface {
	Evict(houseID int64)
}

type Service struct {
	repo        Repository
	provisioner Provisioner
	pools       PoolEvictor
	log         logger.Logger
}

func NewService(repo Repository, provisioner Provisioner, pools PoolEvictor, log logger.Logger) *Service {
	return &Service{repo: repo, provisioner: provisioner, pools: pools, log: log}
}

// CreateHouse runs the create-house saga: insert the house and owner
// membership rows, then provision the tenant database keyed by the generated
// id. If provisioning fails the rows are compensated away, so a failed
// create leaves neither an orphaned house row nor a half-built database.
func (s *Service) CreateHouse(ctx context.Context, userID int64, name, address string) (*House, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	var result House
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		newHouse := House{Name: name, OwnerID: userID}
		if address = strings.TrimSpace(address); address != "" {
			newHouse.Address = &address
		}
		if err := tx.CreateHouse(ctx, &newHouse); err != nil {
			return err
		}

		member := Member{HouseID: newHouse.ID, UserID: userID, Role: RoleOwner}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}

		result = newHouse
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.provisioner.CreateHouseDatabase(ctx, result.ID); err != nil {
		s.compensateRows(ctx, result.ID)
		return nil, fmt.Errorf("provision house %d: %w", result.ID, err)
	}

	return &result, nil
}

// DeleteHouse removes the house rows, drops the tenant database, and evicts
// its pool. Only the owner may delete a house.
func (s *Service) DeleteHouse(ctx context.Context, userID, houseID int64) error {
	member, err := s.repo.GetMember(ctx, houseID, userID)
	if err != nil {
		return err
	}
	if member.Role != RoleOwner {
		return ErrNotOwner
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.DeleteMembersByHouse(ctx, houseID); err != nil {
			return err
		}
		return tx.DeleteHouse(ctx, houseID)
	})
	if err != nil {
		return err
	}

	s.pools.Evict(houseID)
	if err := s.provisioner.DropHouseDatabase(ctx, houseID); err != nil {
		// rows are already gone, so the database is orphaned until an
		// operator re-runs the drop
		s.log.Error("house: dropping tenant database failed", "house_id", houseID, "err", err)
		return fmt.Errorf("drop house database %d: %w", houseID, err)
	}
	return nil
}

func (s *Service) GetHouse(ctx context.Context, userID, houseID int64) (*House, error) {
	if _, err := s.repo.GetMember(ctx, houseID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetHouse(ctx, houseID)
}

func (s *Service) ListHouses(ctx context.Context, userID int64) ([]House, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Membership is the house-access check used by the route middleware.
func (s *Service) Membership(ctx context.Context, userID, houseID int64) (*Member, error) {
	return s.repo.GetMember(ctx, houseID, userID)
}

func (s *Service) ListMembers(ctx context.Context, userID, houseID int64) ([]Member, error) {
	if _, err := s.repo.GetMember(ctx, houseID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, houseID)
}

// AddMember grants another user access to the house. Owner only.
func (s *Service) AddMember(ctx context.Context, actorID, houseID, userID int64) (*Member, error) {
	actor, err := s.repo.GetMember(ctx, houseID, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleOwner {
		return nil, ErrNotOwner
	}

	if _, err := s.repo.GetMember(ctx, houseID, userID); err == nil {
		return nil, ErrAlreadyMember
	}

	member := Member{HouseID: houseID, UserID: userID, Role: RoleMember}
	if err := s.repo.AddMember(ctx, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember revokes a user's access. Owner only; the owner row itself
// cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, actorID, houseID, userID int64) error {
	actor, err := s.repo.GetMember(ctx, houseID, actorID)
	if err != nil {
		return err
	}
	if actor.Role != RoleOwner {
		return ErrNotOwner
	}

	target, err := s.repo.GetMember(ctx, houseID, userID)
	if err != nil {
		return err
	}
	if target.Role == RoleOwner {
		return ErrCannotRemoveOwner
	}

	return s.repo.DeleteMember(ctx, houseID, userID)
}

// compensateRows undoes the row insertions of a create whose provisioning
// step failed. Best effort: a failure here is logged, the caller still
// reports the original provisioning error.
func (s *Service) compensateRows(ctx context.Context, houseID int64) {
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.DeleteMembersByHouse(ctx, houseID); err != nil {
			return err
		}
		return tx.DeleteHouse(ctx, houseID)
	})
	if err != nil {
		s.log.Error("house: compensating row delete failed, orphaned house row", "house_id", houseID, "err", err)
	}
}
