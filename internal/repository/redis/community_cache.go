package redis

import (
	"context"
	"fmt"

	"Uni_Community/internal/model"
	"Uni_Community/internal/permission"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix        = "user"        // user:<userID> -> 已加入社区 id 列表
	recommendedKeyPrefix = "recommended" // recommended:<userID> -> 推荐社区 id 列表
	communityKeyPrefix   = "community"   // community:<communityID> -> CommunityInfo
	permissionKeyPrefix  = "permissions" // permissions:<communityID>:<userID> -> 权限掩码
)

// CommunityCache 社区子系统的全部键族。
// 写路径改库后由服务层调用对应失效方法，读路径旁路填充
type CommunityCache struct {
	cache *Cache
}

func NewCommunityCache(rdb *redis.Client) *CommunityCache {
	return &CommunityCache{
		cache: NewCache(rdb, CommunitiesPrefix, DefaultTTL),
	}
}

func (c *CommunityCache) userKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", userKeyPrefix, userID)
}

func (c *CommunityCache) recommendedKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", recommendedKeyPrefix, userID)
}

func (c *CommunityCache) communityKey(communityID uint64) string {
	return fmt.Sprintf("%s:%d", communityKeyPrefix, communityID)
}

func (c *CommunityCache) permissionKey(communityID, userID uint64) string {
	return fmt.Sprintf("%s:%d:%d", permissionKeyPrefix, communityID, userID)
}

/*
用户已加入社区 id 列表：不设过期，仅显式失效
*/

func (c *CommunityCache) GetUserCommunityIDs(ctx context.Context, userID uint64) ([]uint64, bool) {
	return GetValue[[]uint64](ctx, c.cache, c.userKey(userID))
}

func (c *CommunityCache) SetUserCommunityIDs(ctx context.Context, userID uint64, ids []uint64) bool {
	return c.cache.SetValue(ctx, c.userKey(userID), ids, NoExpiry)
}

func (c *CommunityCache) DeleteUserCommunityIDs(ctx context.Context, userID uint64) {
	c.cache.Delete(ctx, c.userKey(userID))
}

// AppendUserCommunityID 仅在列表已缓存时就地追加；无缓存则等下次读取惰性填充。
// 读改写之间没有锁，并发加入/退出可能互相覆盖，接受有界脏读（TTL 外靠显式失效兜底）
func (c *CommunityCache) AppendUserCommunityID(ctx context.Context, userID, communityID uint64) {
	ids, ok := GetValue[[]uint64](ctx, c.cache, c.userKey(userID))
	if !ok {
		return
	}
	for _, id := range ids {
		if id == communityID {
			return
		}
	}
	c.cache.SetValue(ctx, c.userKey(userID), append(ids, communityID), NoExpiry)
}

// RemoveUserCommunityID 同 Append，仅在已缓存时剔除
func (c *CommunityCache) RemoveUserCommunityID(ctx context.Context, userID, communityID uint64) {
	ids, ok := GetValue[[]uint64](ctx, c.cache, c.userKey(userID))
	if !ok {
		return
	}
	out := ids[:0]
	for _, id := range ids {
		if id != communityID {
			out = append(out, id)
		}
	}
	c.cache.SetValue(ctx, c.userKey(userID), out, NoExpiry)
}

/*
推荐社区 id 列表：成员关系一变就整体作废
*/

func (c *CommunityCache) GetRecommendedIDs(ctx context.Context, userID uint64) ([]uint64, bool) {
	return GetValue[[]uint64](ctx, c.cache, c.recommendedKey(userID))
}

func (c *CommunityCache) SetRecommendedIDs(ctx context.Context, userID uint64, ids []uint64) bool {
	return c.cache.SetValue(ctx, c.recommendedKey(userID), ids, NoExpiry)
}

func (c *CommunityCache) DeleteRecommended(ctx context.Context, userID uint64) {
	c.cache.Delete(ctx, c.recommendedKey(userID))
}

/*
社区元数据（含派生成员数）
*/

func (c *CommunityCache) GetCommunity(ctx context.Context, communityID uint64) (*model.CommunityInfo, bool) {
	info, ok := GetValue[model.CommunityInfo](ctx, c.cache, c.communityKey(communityID))
	if !ok {
		return nil, false
	}
	return &info, true
}

// GetCommunities 管道批量读；未命中的 id 映射为 nil，调用方据此回源
func (c *CommunityCache) GetCommunities(ctx context.Context, ids []uint64) map[uint64]*model.CommunityInfo {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.communityKey(id)
	}
	byKey := GetMultiple[model.CommunityInfo](ctx, c.cache, keys)

	out := make(map[uint64]*model.CommunityInfo, len(ids))
	for i, id := range ids {
		out[id] = byKey[keys[i]]
	}
	return out
}

func (c *CommunityCache) SetCommunity(ctx context.Context, info model.CommunityInfo) bool {
	return c.cache.SetValue(ctx, c.communityKey(info.ID), info, DefaultTTL)
}

func (c *CommunityCache) SetCommunities(ctx context.Context, infos map[uint64]model.CommunityInfo) bool {
	kv := make(map[string]model.CommunityInfo, len(infos))
	for id, info := range infos {
		kv[c.communityKey(id)] = info
	}
	return SetBulkValue(ctx, c.cache, kv, DefaultTTL, DefaultBulkBatch)
}

func (c *CommunityCache) DeleteCommunity(ctx context.Context, communityID uint64) {
	c.cache.Delete(ctx, c.communityKey(communityID))
}

// PatchCommunity 仅在条目已缓存时就地修补字段（图标、编辑路径）
func (c *CommunityCache) PatchCommunity(ctx context.Context, communityID uint64, patch func(*model.CommunityInfo)) {
	info, ok := GetValue[model.CommunityInfo](ctx, c.cache, c.communityKey(communityID))
	if !ok {
		return
	}
	patch(&info)
	c.cache.SetValue(ctx, c.communityKey(communityID), info, DefaultTTL)
}

/*
有效权限掩码：写路径按域失效
*/

func (c *CommunityCache) GetPermissions(ctx context.Context, communityID, userID uint64) (permission.Permission, bool) {
	mask, ok := GetValue[uint32](ctx, c.cache, c.permissionKey(communityID, userID))
	return permission.Permission(mask), ok
}

func (c *CommunityCache) SetPermissions(ctx context.Context, communityID, userID uint64, mask permission.Permission) bool {
	return c.cache.SetValue(ctx, c.permissionKey(communityID, userID), uint32(mask), DefaultTTL)
}

// DeletePermissions 精确失效单个 (社区, 用户) 条目
func (c *CommunityCache) DeletePermissions(ctx context.Context, communityID, userID uint64) {
	c.cache.Delete(ctx, c.permissionKey(communityID, userID))
}

// DeleteCommunityPermissions 失效整个社区的权限条目（角色位掩码变更后）
func (c *CommunityCache) DeleteCommunityPermissions(ctx context.Context, communityID uint64) {
	keys := c.cache.Keys(ctx, fmt.Sprintf("%s:%d:*", permissionKeyPrefix, communityID))
	c.cache.DeleteKeys(ctx, keys)
}

// DeleteUserPermissions 失效用户在所有社区的权限条目（全局身份变更，备用）
func (c *CommunityCache) DeleteUserPermissions(ctx context.Context, userID uint64) {
	keys := c.cache.Keys(ctx, fmt.Sprintf("%s:*:%d", permissionKeyPrefix, userID))
	c.cache.DeleteKeys(ctx, keys)
}
