package service

import (
	"context"
	"testing"

	"Uni_Community/internal/model"
	"Uni_Community/internal/permission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRoleFixture 返回一个 community 7、owner 1 的 RoleService 测试环境
func newRoleFixture(t *testing.T, roles *fakeRoleStore) (*RoleService, *PermissionService) {
	t.Helper()
	finder := &fakeCommunityFinder{communities: map[uint64]*model.Community{
		7: {ID: 7, CreatorID: 1},
	}}
	perms := NewPermissionService(roles2masks(roles), finder, newTestCache(t))
	return NewRoleService(roles, perms), perms
}

// roles2masks 把 fakeRoleStore 里的角色按指派折算成掩码源；
// 简化：user 2 持有 store 里 ID 为 2 的角色，其余用户无角色
func roles2masks(roles *fakeRoleStore) RoleMaskStore {
	return &fakeMaskStore{masks: func() map[[2]uint64][]uint32 {
		out := map[[2]uint64][]uint32{}
		if r, ok := roles.roles[2]; ok {
			out[[2]uint64{2, r.CommunityID}] = []uint32{r.Permissions}
		}
		return out
	}()}
}

func TestCreateRoleValidation(t *testing.T) {
	svc, _ := newRoleFixture(t, &fakeRoleStore{})
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, 1, 7, "", "#FFAA00", permission.CreatePost)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateRole(ctx, 1, 7, "mods", "orange", permission.CreatePost)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateRole(ctx, 1, 7, "mods", "#GGGGGG", permission.CreatePost)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateRoleRequiresManageRoles(t *testing.T) {
	svc, _ := newRoleFixture(t, &fakeRoleStore{})

	// user 5 不是所有者也没有角色
	_, err := svc.CreateRole(context.Background(), 5, 7, "mods", "#FFAA00", permission.CreatePost)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateRoleOwnerSucceeds(t *testing.T) {
	store := &fakeRoleStore{}
	svc, _ := newRoleFixture(t, store)

	role, err := svc.CreateRole(context.Background(), 1, 7, "mods", "#ffaa00", permission.CreatePost|permission.DeletePost)
	require.NoError(t, err)
	assert.Equal(t, uint32(34), role.Permissions)
	assert.Len(t, store.created, 1)
}

func TestCreateRoleCap(t *testing.T) {
	store := &fakeRoleStore{count: MaxRolesPerCommunity}
	svc, _ := newRoleFixture(t, store)

	_, err := svc.CreateRole(context.Background(), 1, 7, "one-too-many", "#FFAA00", 0)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, store.created)
}

func TestUpdateRoleInvalidatesWholeCommunity(t *testing.T) {
	store := &fakeRoleStore{roles: map[uint64]*model.Role{
		2: {ID: 2, CommunityID: 7, Permissions: uint32(permission.CreatePost)},
	}}
	svc, perms := newRoleFixture(t, store)
	ctx := context.Background()

	// 先解析填充两个用户的权限缓存
	perms.GetUserCommunityPermissions(ctx, 1, 7)
	perms.GetUserCommunityPermissions(ctx, 2, 7)

	err := svc.UpdateRole(ctx, 1, 2, 7, "mods", "#00FF00", permission.DeletePost)
	require.NoError(t, err)
	require.Len(t, store.updated, 1)

	// 整社区失效：两个条目都要重新解析
	cache := permsCache(perms)
	_, ok := cache.GetPermissions(ctx, 7, 1)
	assert.False(t, ok)
	_, ok = cache.GetPermissions(ctx, 7, 2)
	assert.False(t, ok)
}

func TestDeleteRole(t *testing.T) {
	store := &fakeRoleStore{roles: map[uint64]*model.Role{
		2: {ID: 2, CommunityID: 7, Permissions: uint32(permission.CreatePost)},
	}}
	svc, _ := newRoleFixture(t, store)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteRole(ctx, 1, 999), ErrNotFound)

	require.NoError(t, svc.DeleteRole(ctx, 1, 2))
	assert.Equal(t, []uint64{2}, store.deleted)
}

func TestDeleteRoleRequiresManageRoles(t *testing.T) {
	store := &fakeRoleStore{roles: map[uint64]*model.Role{
		2: {ID: 2, CommunityID: 7, Permissions: uint32(permission.CreatePost)},
	}}
	svc, _ := newRoleFixture(t, store)

	// user 2 只有 CreatePost，不够删角色
	err := svc.DeleteRole(context.Background(), 2, 2)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, store.deleted)
}

func TestListRolesFailsClosed(t *testing.T) {
	store := &fakeRoleStore{roles: map[uint64]*model.Role{
		2: {ID: 2, CommunityID: 7, Permissions: uint32(permission.CreatePost)},
	}}
	svc, _ := newRoleFixture(t, store)
	ctx := context.Background()

	// 无权限：空列表而不是错误
	assert.Empty(t, svc.ListRoles(ctx, 5, 7))

	// 所有者能看到角色
	assert.Len(t, svc.ListRoles(ctx, 1, 7), 1)

	// 存储故障同样返回空列表
	store.listErr = assert.AnError
	assert.Empty(t, svc.ListRoles(ctx, 1, 7))
}

func TestUpdateMemberRolesInvalidatesOnlyTargetUser(t *testing.T) {
	store := &fakeRoleStore{roles: map[uint64]*model.Role{
		2: {ID: 2, CommunityID: 7, Permissions: uint32(permission.CreatePost)},
	}}
	svc, perms := newRoleFixture(t, store)
	ctx := context.Background()

	perms.GetUserCommunityPermissions(ctx, 2, 7)
	perms.GetUserCommunityPermissions(ctx, 3, 7)

	require.NoError(t, svc.UpdateMemberRoles(ctx, 1, 2, 7, []uint64{2}))
	require.Equal(t, [][2]uint64{{2, 7}}, store.replacedFor)

	cache := permsCache(perms)
	_, ok := cache.GetPermissions(ctx, 7, 2)
	assert.False(t, ok, "target user entry must be invalidated")
	_, ok = cache.GetPermissions(ctx, 7, 3)
	assert.True(t, ok, "other members keep their cached mask")
}

func TestUpdateMemberRolesRequiresManageMembers(t *testing.T) {
	store := &fakeRoleStore{}
	svc, _ := newRoleFixture(t, store)

	err := svc.UpdateMemberRoles(context.Background(), 5, 2, 7, []uint64{1})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, store.replaced)
}
