package house

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"casa360/pkg/logger"
)

type fakeHouseRepo struct {
	nextID  int64
	houses  map[int64]*House
	members map[int64]map[int64]*Member

	createHouseErr error
	addMemberErr   error
	deleteHouseErr error
}

func newFakeHouseRepo() *fakeHouseRepo {
	return &fakeHouseRepo{
		nextID:  1,
		houses:  make(map[int64]*House),
		members: make(map[int64]map[int64]*Member),
	}
}

func (r *fakeHouseRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeHouseRepo) CreateHouse(ctx context.Context, h *House) error {
	if r.createHouseErr != nil {
		return r.createHouseErr
	}
	h.ID = r.nextID
	r.nextID++
	r.houses[h.ID] = h
	return nil
}

func (r *fakeHouseRepo) GetHouse(ctx context.Context, houseID int64) (*House, error) {
	h, ok := r.houses[houseID]
	if !ok {
		return nil, ErrHouseNotFound
	}
	return h, nil
}

func (r *fakeHouseRepo) ListByUser(ctx context.Context, userID int64) ([]House, error) {
	var result []House
	for houseID, byUser := range r.members {
		if _, ok := byUser[userID]; ok {
			result = append(result, *r.houses[houseID])
		}
	}
	return result, nil
}

func (r *fakeHouseRepo) DeleteHouse(ctx context.Context, houseID int64) error {
	if r.deleteHouseErr != nil {
		return r.deleteHouseErr
	}
	delete(r.houses, houseID)
	return nil
}

func (r *fakeHouseRepo) AddMember(ctx context.Context, m *Member) error {
	if r.addMemberErr != nil {
		return r.addMemberErr
	}
	if r.members[m.HouseID] == nil {
		r.members[m.HouseID] = make(map[int64]*Member)
	}
	r.members[m.HouseID][m.UserID] = m
	return nil
}

func (r *fakeHouseRepo) GetMember(ctx context.Context, houseID, userID int64) (*Member, error) {
	m, ok := r.members[houseID][userID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

func (r *fakeHouseRepo) ListMembers(ctx context.Context, houseID int64) ([]Member, error) {
	var result []Member
	for _, m := range r.members[houseID] {
		result = append(result, *m)
	}
	return result, nil
}

func (r *fakeHouseRepo) DeleteMember(ctx context.Context, houseID, userID int64) error {
	delete(r.members[houseID], userID)
	return nil
}

func (r *fakeHouseRepo) DeleteMembersByHouse(ctx context.Context, houseID int64) error {
	delete(r.members, houseID)
	return nil
}

type fakeProvisioner struct {
	created   []int64
	dropped   []int64
	createErr error
	dropErr   error
}

func (p *fakeProvisioner) CreateHouseDatabase(ctx context.Context, houseID int64) error {
	if p.createErr != nil {
		return p.createErr
	}
	p.created = append(p.created, houseID)
	return nil
}

func (p *fakeProvisioner) DropHouseDatabase(ctx context.Context, houseID int64) error {
	if p.dropErr != nil {
		return p.dropErr
	}
	p.dropped = append(p.dropped, houseID)
	return nil
}

type fakeEvictor struct {
	evicted []int64
}

func (e *fakeEvictor) Evict(houseID int64) {
	e.evicted = append(e.evicted, houseID)
}

func newTestService() (*Service, *fakeHouseRepo, *fakeProvisioner, *fakeEvictor) {
	repo := newFakeHouseRepo()
	prov := &fakeProvisioner{}
	evictor := &fakeEvictor{}
	svc := NewService(repo, prov, evictor, logger.New(zap.NewNop()))
	return svc, repo, prov, evictor
}

func TestCreateHouseSuccess(t *testing.T) {
	svc, repo, prov, _ := newTestService()

	result, err := svc.CreateHouse(context.Background(), 7, "  Smith Household  ", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Name != "Smith Household" {
		t.Fatalf("expected name trimmed, got %q", result.Name)
	}
	if result.OwnerID != 7 {
		t.Fatalf("expected owner 7, got %d", result.OwnerID)
	}
	if len(prov.created) != 1 || prov.created[0] != result.ID {
		t.Fatalf("expected database provisioned for house %d, got %v", result.ID, prov.created)
	}
	member, err := repo.GetMember(context.Background(), result.ID, 7)
	if err != nil {
		t.Fatalf("expected owner membership, got %v", err)
	}
	if member.Role != RoleOwner {
		t.Fatalf("expected owner role, got %q", member.Role)
	}
}

func TestCreateHouseEmptyName(t *testing.T) {
	svc, _, prov, _ := newTestService()
	_, err := svc.CreateHouse(context.Background(), 7, "   ", "")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if len(prov.created) != 0 {
		t.Fatalf("no database should be provisioned on validation failure")
	}
}

func TestCreateHouseProvisionFailureCompensatesRows(t *testing.T) {
	svc, repo, prov, _ := newTestService()
	boom := errors.New("create database failed")
	prov.createErr = boom

	_, err := svc.CreateHouse(context.Background(), 7, "Smith Household", "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected provisioning error, got %v", err)
	}
	if len(repo.houses) != 0 {
		t.Fatalf("expected house row compensated away, got %d rows", len(repo.houses))
	}
	if len(repo.members) != 0 {
		t.Fatalf("expected membership rows compensated away")
	}
}

func TestCreateHouseProvisionFailureCompensationFailureStillSurfacesOriginal(t *testing.T) {
	svc, repo, prov, _ := newTestService()
	original := errors.New("create database failed")
	prov.createErr = original
	repo.deleteHouseErr = errors.New("delete row failed")

	_, err := svc.CreateHouse(context.Background(), 7, "Smith Household", "")
	if !errors.Is(err, original) {
		t.Fatalf("expected original provisioning error, got %v", err)
	}
}

func TestCreateHouseStoresAddress(t *testing.T) {
	svc, _, _, _ := newTestService()
	result, err := svc.CreateHouse(context.Background(), 7, "Smith Household", " 1 Main St ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Address == nil || *result.Address != "1 Main St" {
		t.Fatalf("expected trimmed address, got %v", result.Address)
	}
}

func TestDeleteHouseOwnerOnly(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.houses[1] = &House{ID: 1, Name: "H", OwnerID: 7}
	repo.members[1] = map[int64]*Member{
		7: {HouseID: 1, UserID: 7, Role: RoleOwner},
		8: {HouseID: 1, UserID: 8, Role: RoleMember},
	}

	err := svc.DeleteHouse(context.Background(), 8, 1)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestDeleteHouseDropsDatabaseAndEvictsPool(t *testing.T) {
	svc, repo, prov, evictor := newTestService()
	repo.houses[1] = &House{ID: 1, Name: "H", OwnerID: 7}
	repo.members[1] = map[int64]*Member{7: {HouseID: 1, UserID: 7, Role: RoleOwner}}

	if err := svc.DeleteHouse(context.Background(), 7, 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.houses) != 0 {
		t.Fatalf("expected house row deleted")
	}
	if len(prov.dropped) != 1 || prov.dropped[0] != 1 {
		t.Fatalf("expected database dropped, got %v", prov.dropped)
	}
	if len(evictor.evicted) != 1 || evictor.evicted[0] != 1 {
		t.Fatalf("expected pool evicted, got %v", evictor.evicted)
	}
}

func TestAddMemberOwnerOnly(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.houses[1] = &House{ID: 1, Name: "H", OwnerID: 7}
	repo.members[1] = map[int64]*Member{
		7: {HouseID: 1, UserID: 7, Role: RoleOwner},
		8: {HouseID: 1, UserID: 8, Role: RoleMember},
	}

	if _, err := svc.AddMember(context.Background(), 8, 1, 9); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	member, err := svc.AddMember(context.Background(), 7, 1, 9)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if member.Role != RoleMember {
		t.Fatalf("expected member role, got %q", member.Role)
	}

	if _, err := svc.AddMember(context.Background(), 7, 1, 9); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestRemoveMemberCannotRemoveOwner(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.houses[1] = &House{ID: 1, Name: "H", OwnerID: 7}
	repo.members[1] = map[int64]*Member{7: {HouseID: 1, UserID: 7, Role: RoleOwner}}

	err := svc.RemoveMember(context.Background(), 7, 1, 7)
	if !errors.Is(err, ErrCannotRemoveOwner) {
		t.Fatalf("expected ErrCannotRemoveOwner, got %v", err)
	}
}

func TestMembershipDeniedForNonMember(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.houses[1] = &House{ID: 1, Name: "H", OwnerID: 7}
	repo.members[1] = map[int64]*Member{7: {HouseID: 1, UserID: 7, Role: RoleOwner}}

	if _, err := svc.Membership(context.Background(), 8, 1); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}
