package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"Uni_Community/internal/model"
	"Uni_Community/internal/permission"
)

// MaxRolesPerCommunity 每个社区的角色数量上限
const MaxRolesPerCommunity = 15

var roleColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type RoleStore interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	FindByID(ctx context.Context, id uint64) (*model.Role, error)
	DeleteByID(ctx context.Context, id uint64) error
	ListByCommunity(ctx context.Context, communityID uint64) ([]model.Role, error)
	CountByCommunity(ctx context.Context, communityID uint64) (int64, error)
	ReplaceUserRoles(ctx context.Context, userID, communityID uint64, roleIDs []uint64) error
}

// RoleService 社区角色 CRUD 与成员角色指派。
// 角色位掩码一变，整个社区的权限缓存都可能过期，失效范围随之分级：
// 角色编辑/删除 -> 整社区；单人指派变更 -> 单条目
type RoleService struct {
	repo  RoleStore
	perms *PermissionService
}

func NewRoleService(repo RoleStore, perms *PermissionService) *RoleService {
	return &RoleService{repo: repo, perms: perms}
}

func validateRole(name, color string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > 20 {
		return fmt.Errorf("%w: role name must be 1-20 characters", ErrInvalidInput)
	}
	if !roleColorPattern.MatchString(color) {
		return fmt.Errorf("%w: role color must look like #RRGGBB", ErrInvalidInput)
	}
	return nil
}

// CreateRole 新角色还没有任何持有者，不需要失效缓存
func (s *RoleService) CreateRole(ctx context.Context, actorID, communityID uint64, name, color string, perms permission.Permission) (*model.Role, error) {
	if err := validateRole(name, color); err != nil {
		return nil, err
	}
	if !s.perms.CheckPermission(ctx, actorID, communityID, permission.ManageRoles) {
		return nil, ErrPermissionDenied
	}

	count, err := s.repo.CountByCommunity(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("count roles: %w", err)
	}
	if count >= MaxRolesPerCommunity {
		return nil, fmt.Errorf("%w: community already has %d roles", ErrPermissionDenied, MaxRolesPerCommunity)
	}

	role := &model.Role{
		CommunityID: communityID,
		Name:        name,
		Color:       color,
		Permissions: uint32(perms),
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	return role, nil
}

// UpdateRole 持有该角色的所有用户有效掩码都变了，必须整社区失效
func (s *RoleService) UpdateRole(ctx context.Context, actorID, roleID, communityID uint64, name, color string, perms permission.Permission) error {
	if err := validateRole(name, color); err != nil {
		return err
	}
	if !s.perms.CheckPermission(ctx, actorID, communityID, permission.ManageRoles) {
		return ErrPermissionDenied
	}

	if err := s.repo.Update(ctx, &model.Role{
		ID:          roleID,
		CommunityID: communityID,
		Name:        name,
		Color:       color,
		Permissions: uint32(perms),
	}); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	s.perms.InvalidateCommunityPermissions(ctx, communityID)
	return nil
}

// DeleteRole 先查角色归属的社区再鉴权；失效与更新同级（整社区）
func (s *RoleService) DeleteRole(ctx context.Context, actorID, roleID uint64) error {
	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("find role: %w", err)
	}
	if role == nil {
		return ErrNotFound
	}
	if !s.perms.CheckPermission(ctx, actorID, role.CommunityID, permission.ManageRoles) {
		return ErrPermissionDenied
	}

	if err := s.repo.DeleteByID(ctx, roleID); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	s.perms.InvalidateCommunityPermissions(ctx, role.CommunityID)
	return nil
}

// ListRoles 失败关闭：无权限或查询出错都返回空列表，不上抛
func (s *RoleService) ListRoles(ctx context.Context, actorID, communityID uint64) []model.Role {
	if !s.perms.CheckPermission(ctx, actorID, communityID, permission.ManageRoles) {
		return []model.Role{}
	}

	list, err := s.repo.ListByCommunity(ctx, communityID)
	if err != nil {
		slog.Error("list roles failed", "community", communityID, "err", err)
		return []model.Role{}
	}
	if list == nil {
		list = []model.Role{}
	}
	return list
}

// UpdateMemberRoles 整体替换指派（先删后插）；只动了一个用户，
// 失效也只打单个 (用户, 社区) 条目，不殃及其他成员
func (s *RoleService) UpdateMemberRoles(ctx context.Context, actorID, userID, communityID uint64, roleIDs []uint64) error {
	if !s.perms.CheckPermission(ctx, actorID, communityID, permission.ManageMembers) {
		return ErrPermissionDenied
	}

	if err := s.repo.ReplaceUserRoles(ctx, userID, communityID, roleIDs); err != nil {
		return fmt.Errorf("replace member roles: %w", err)
	}

	s.perms.InvalidateUserCommunityPermissions(ctx, userID, communityID)
	return nil
}
