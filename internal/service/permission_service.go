package service

import (
	"context"
	"log/slog"

	"Uni_Community/internal/model"
	"Uni_Community/internal/permission"
	redisrepo "Uni_Community/internal/repository/redis"
)

// RoleMaskStore 取用户在社区内全部角色的权限掩码
type RoleMaskStore interface {
	UserPermissionMasks(ctx context.Context, userID, communityID uint64) ([]uint32, error)
}

// CommunityFinder 未找到返回 (nil, nil)
type CommunityFinder interface {
	FindByID(ctx context.Context, id uint64) (*model.Community, error)
}

// PermissionService 有效权限解析：所有写操作动手前都先问它。
// 缓存命中直接返回；未命中从角色指派重算，所有者恒为全量权限
type PermissionService struct {
	masks       RoleMaskStore
	communities CommunityFinder
	cache       *redisrepo.CommunityCache
}

func NewPermissionService(masks RoleMaskStore, communities CommunityFinder, cache *redisrepo.CommunityCache) *PermissionService {
	return &PermissionService{
		masks:       masks,
		communities: communities,
		cache:       cache,
	}
}

// GetUserCommunityPermissions 解析 (用户, 社区) 的有效权限掩码。
// 存储失败时按零权限拒绝（fail closed），与真实的零权限分开记日志，
// 便于运维区分故障和正常拒绝；两种情况对调用方都是拒绝，语义安全
func (s *PermissionService) GetUserCommunityPermissions(ctx context.Context, userID, communityID uint64) permission.Permission {
	if mask, ok := s.cache.GetPermissions(ctx, communityID, userID); ok {
		return mask
	}

	masks, err := s.masks.UserPermissionMasks(ctx, userID, communityID)
	if err != nil {
		slog.Error("permission resolve failed, denying by zero mask",
			"user", userID, "community", communityID, "err", err)
		return 0
	}

	community, err := s.communities.FindByID(ctx, communityID)
	if err != nil {
		slog.Error("permission resolve failed, denying by zero mask",
			"user", userID, "community", communityID, "err", err)
		return 0
	}

	var mask permission.Permission
	if community != nil && community.CreatorID == userID {
		// 所有者无条件全量权限，与角色指派无关
		mask = permission.All
	} else {
		for _, m := range masks {
			mask |= permission.Permission(m)
		}
	}

	s.cache.SetPermissions(ctx, communityID, userID, mask)
	return mask
}

// CheckPermission 判断用户在社区内是否持有指定权限位
func (s *PermissionService) CheckPermission(ctx context.Context, userID, communityID uint64, p permission.Permission) bool {
	return permission.Has(s.GetUserCommunityPermissions(ctx, userID, communityID), p)
}

// InvalidateCommunityPermissions 角色位掩码变更后，失效该社区全部权限条目
func (s *PermissionService) InvalidateCommunityPermissions(ctx context.Context, communityID uint64) {
	s.cache.DeleteCommunityPermissions(ctx, communityID)
}

// InvalidateUserCommunityPermissions 单个用户的指派变更，只失效一个条目
func (s *PermissionService) InvalidateUserCommunityPermissions(ctx context.Context, userID, communityID uint64) {
	s.cache.DeletePermissions(ctx, communityID, userID)
}

// InvalidateUserPermissions 用户全局身份变更时使用（备用路径）
func (s *PermissionService) InvalidateUserPermissions(ctx context.Context, userID uint64) {
	s.cache.DeleteUserPermissions(ctx, userID)
}
