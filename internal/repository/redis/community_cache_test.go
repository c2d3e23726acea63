package redis

import (
	"context"
	"testing"
	"time"

	"Uni_Community/internal/model"
	"Uni_Community/internal/permission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCommunityIDs(t *testing.T) {
	client, mr := newTestRedis(t)
	c := NewCommunityCache(client)
	ctx := context.Background()

	_, ok := c.GetUserCommunityIDs(ctx, 1)
	assert.False(t, ok)

	require.True(t, c.SetUserCommunityIDs(ctx, 1, []uint64{10, 20}))
	ids, ok := c.GetUserCommunityIDs(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, []uint64{10, 20}, ids)

	// 列表不设过期
	ttl := mr.TTL("communities:user:1")
	assert.Equal(t, time.Duration(0), ttl)

	c.DeleteUserCommunityIDs(ctx, 1)
	_, ok = c.GetUserCommunityIDs(ctx, 1)
	assert.False(t, ok)
}

func TestAppendRemoveUserCommunityID(t *testing.T) {
	client, _ := newTestRedis(t)
	c := NewCommunityCache(client)
	ctx := context.Background()

	// 未缓存时追加是 no-op，等惰性填充
	c.AppendUserCommunityID(ctx, 1, 10)
	_, ok := c.GetUserCommunityIDs(ctx, 1)
	assert.False(t, ok)

	c.SetUserCommunityIDs(ctx, 1, []uint64{10})
	c.AppendUserCommunityID(ctx, 1, 20)
	c.AppendUserCommunityID(ctx, 1, 20) // 幂等
	ids, ok := c.GetUserCommunityIDs(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, []uint64{10, 20}, ids)

	c.RemoveUserCommunityID(ctx, 1, 10)
	ids, ok = c.GetUserCommunityIDs(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, []uint64{20}, ids)
}

func TestCommunityEntryTTL(t *testing.T) {
	client, mr := newTestRedis(t)
	c := NewCommunityCache(client)
	ctx := context.Background()

	info := model.CommunityInfo{
		Community:    model.Community{ID: 7, Name: "gophers", CreatorID: 3},
		MembersCount: 12,
	}
	require.True(t, c.SetCommunity(ctx, info))

	got, ok := c.GetCommunity(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, info, *got)

	mr.FastForward(2 * time.Hour)
	_, ok = c.GetCommunity(ctx, 7)
	assert.False(t, ok)
}

func TestGetCommunitiesPartialHit(t *testing.T) {
	client, _ := newTestRedis(t)
	c := NewCommunityCache(client)
	ctx := context.Background()

	c.SetCommunities(ctx, map[uint64]model.CommunityInfo{
		1: {Community: model.Community{ID: 1, Name: "a"}},
		3: {Community: model.Community{ID: 3, Name: "c"}},
	})

	out := c.GetCommunities(ctx, []uint64{1, 2, 3})
	require.Len(t, out, 3)
	require.NotNil(t, out[1])
	assert.Equal(t, "a", out[1].Name)
	assert.Nil(t, out[2])
	require.NotNil(t, out[3])
	assert.Equal(t, "c", out[3].Name)
}

func TestPatchCommunity(t *testing.T) {
	client, _ := newTestRedis(t)
	c := NewCommunityCache(client)
	ctx := context.Background()

	// 未缓存时不创建条目
	c.PatchCommunity(ctx, 5, func(info *model.CommunityInfo) { info.Icon = "x" })
	_, ok := c.GetCommunity(ctx, 5)
	assert.False(t, ok)

	c.SetCommunity(ctx, model.CommunityInfo{
		Community: model.Community{ID: 5, Name: "before"},
	})
	c.PatchCommunity(ctx, 5, func(info *model.CommunityInfo) {
		info.Name = "after"
		info.Icon = "http://cdn/icon.png"
	})

	got, ok := c.GetCommunity(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, "after", got.Name)
	assert.Equal(t, "http://cdn/icon.png", got.Icon)
}

func TestPermissionsRoundtrip(t *testing.T) {
	client, _ := newTestRedis(t)
	c := NewCommunityCache(client)
	ctx := context.Background()

	_, ok := c.GetPermissions(ctx, 7, 1)
	assert.False(t, ok)

	require.True(t, c.SetPermissions(ctx, 7, 1, permission.CreatePost|permission.DeletePost))
	mask, ok := c.GetPermissions(ctx, 7, 1)
	require.True(t, ok)
	assert.Equal(t, permission.CreatePost|permission.DeletePost, mask)

	// 零掩码也算命中，与空缓存可区分
	require.True(t, c.SetPermissions(ctx, 7, 2, 0))
	mask, ok = c.GetPermissions(ctx, 7, 2)
	require.True(t, ok)
	assert.Equal(t, permission.Permission(0), mask)
}

func TestDeleteCommunityPermissions(t *testing.T) {
	client, _ := newTestRedis(t)
	c := NewCommunityCache(client)
	ctx := context.Background()

	c.SetPermissions(ctx, 7, 1, permission.All)
	c.SetPermissions(ctx, 7, 2, permission.CreatePost)
	c.SetPermissions(ctx, 77, 1, permission.All) // 前缀相近的社区不受波及

	c.DeleteCommunityPermissions(ctx, 7)

	_, ok := c.GetPermissions(ctx, 7, 1)
	assert.False(t, ok)
	_, ok = c.GetPermissions(ctx, 7, 2)
	assert.False(t, ok)
	_, ok = c.GetPermissions(ctx, 77, 1)
	assert.True(t, ok)
}

func TestDeleteUserPermissions(t *testing.T) {
	client, _ := newTestRedis(t)
	c := NewCommunityCache(client)
	ctx := context.Background()

	c.SetPermissions(ctx, 7, 42, permission.All)
	c.SetPermissions(ctx, 8, 42, permission.CreatePost)
	c.SetPermissions(ctx, 8, 142, permission.All) // 后缀相近的用户不受波及

	c.DeleteUserPermissions(ctx, 42)

	_, ok := c.GetPermissions(ctx, 7, 42)
	assert.False(t, ok)
	_, ok = c.GetPermissions(ctx, 8, 42)
	assert.False(t, ok)
	_, ok = c.GetPermissions(ctx, 8, 142)
	assert.True(t, ok)
}
