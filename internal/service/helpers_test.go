package service

import (
	"context"
	"testing"

	"Uni_Community/internal/model"
	redisrepo "Uni_Community/internal/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) *redisrepo.CommunityCache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisrepo.NewCommunityCache(client)
}

func permsCache(p *PermissionService) *redisrepo.CommunityCache {
	return p.cache
}

// fakeMaskStore 记录调用次数，便于断言缓存命中后不再回源
type fakeMaskStore struct {
	masks map[[2]uint64][]uint32 // (userID, communityID) -> 角色掩码
	err   error
	calls int
}

func (f *fakeMaskStore) UserPermissionMasks(ctx context.Context, userID, communityID uint64) ([]uint32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.masks[[2]uint64{userID, communityID}], nil
}

type fakeCommunityFinder struct {
	communities map[uint64]*model.Community
	err         error
}

func (f *fakeCommunityFinder) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.communities[id], nil
}

type fakeRoleStore struct {
	roles       map[uint64]*model.Role
	count       int64
	countErr    error
	listErr     error
	created     []*model.Role
	replaced    [][]uint64
	replacedFor [][2]uint64 // (userID, communityID)
	updated     []*model.Role
	deleted     []uint64
}

func (f *fakeRoleStore) Create(ctx context.Context, role *model.Role) error {
	role.ID = uint64(len(f.created) + 1)
	f.created = append(f.created, role)
	return nil
}

func (f *fakeRoleStore) Update(ctx context.Context, role *model.Role) error {
	f.updated = append(f.updated, role)
	return nil
}

func (f *fakeRoleStore) FindByID(ctx context.Context, id uint64) (*model.Role, error) {
	return f.roles[id], nil
}

func (f *fakeRoleStore) DeleteByID(ctx context.Context, id uint64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRoleStore) ListByCommunity(ctx context.Context, communityID uint64) ([]model.Role, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Role
	for _, r := range f.roles {
		if r.CommunityID == communityID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRoleStore) CountByCommunity(ctx context.Context, communityID uint64) (int64, error) {
	return f.count, f.countErr
}

func (f *fakeRoleStore) ReplaceUserRoles(ctx context.Context, userID, communityID uint64, roleIDs []uint64) error {
	f.replaced = append(f.replaced, roleIDs)
	f.replacedFor = append(f.replacedFor, [2]uint64{userID, communityID})
	return nil
}

type fakeCommunityStore struct {
	communities map[uint64]*model.Community
	infos       map[uint64]model.CommunityInfo
	recommend   []uint64

	findByIDsCalls [][]uint64
	updated        []*model.Community
	icons          map[uint64]string
	deletedID      uint64
}

func (f *fakeCommunityStore) Create(ctx context.Context, c *model.Community) (*model.Community, error) {
	c.ID = uint64(len(f.communities) + 1)
	if f.communities == nil {
		f.communities = map[uint64]*model.Community{}
	}
	f.communities[c.ID] = c
	return c, nil
}

func (f *fakeCommunityStore) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	return f.communities[id], nil
}

func (f *fakeCommunityStore) FindByIDs(ctx context.Context, ids []uint64) ([]model.CommunityInfo, error) {
	f.findByIDsCalls = append(f.findByIDsCalls, ids)
	var out []model.CommunityInfo
	for _, id := range ids {
		if info, ok := f.infos[id]; ok {
			out = append(out, info)
		}
	}
	return out, nil
}

func (f *fakeCommunityStore) Recommend(ctx context.Context, userID uint64, limit int) ([]uint64, error) {
	if len(f.recommend) > limit {
		return f.recommend[:limit], nil
	}
	return f.recommend, nil
}

func (f *fakeCommunityStore) Update(ctx context.Context, c *model.Community) error {
	f.updated = append(f.updated, c)
	return nil
}

func (f *fakeCommunityStore) UpdateIcon(ctx context.Context, id uint64, icon string) error {
	if f.icons == nil {
		f.icons = map[uint64]string{}
	}
	f.icons[id] = icon
	return nil
}

func (f *fakeCommunityStore) DeleteByID(ctx context.Context, id, ownerID uint64) (int64, error) {
	f.deletedID = id
	delete(f.communities, id)
	return 1, nil
}

type fakeMemberStore struct {
	memberIDs map[uint64][]uint64 // userID -> 社区 id 列表
	joins     []*model.CommunityMember
	leaves    [][2]uint64
	idCalls   int
}

func (f *fakeMemberStore) Join(ctx context.Context, member *model.CommunityMember) error {
	f.joins = append(f.joins, member)
	return nil
}

func (f *fakeMemberStore) Leave(ctx context.Context, communityID, userID uint64) error {
	f.leaves = append(f.leaves, [2]uint64{communityID, userID})
	return nil
}

func (f *fakeMemberStore) CommunityIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	f.idCalls++
	return f.memberIDs[userID], nil
}
