package mysql

import (
	"context"
	"errors"

	"Uni_Community/internal/model"

	"gorm.io/gorm"
)

type RoleRepository struct {
	DB *gorm.DB
}

func (r *RoleRepository) Create(ctx context.Context, role *model.Role) error {
	return r.DB.WithContext(ctx).Create(role).Error
}

// Update 只更新可编辑字段，按 (id, community_id) 限定，防止跨社区改角色
func (r *RoleRepository) Update(ctx context.Context, role *model.Role) error {
	return r.DB.WithContext(ctx).Model(&model.Role{}).
		Where("id = ? AND community_id = ?", role.ID, role.CommunityID).
		Select("name", "color", "permissions").
		Updates(role).Error
}

// FindByID 未找到返回 (nil, nil)
func (r *RoleRepository) FindByID(ctx context.Context, id uint64) (*model.Role, error) {
	var role model.Role
	err := r.DB.WithContext(ctx).First(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// DeleteByID 删除角色及其全部指派（同事务）
func (r *RoleRepository) DeleteByID(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Role{}, id).Error
	})
}

// ListByCommunity 按创建时间升序
func (r *RoleRepository) ListByCommunity(ctx context.Context, communityID uint64) ([]model.Role, error) {
	var list []model.Role
	err := r.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *RoleRepository) CountByCommunity(ctx context.Context, communityID uint64) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Role{}).
		Where("community_id = ?", communityID).
		Count(&count).Error
	return count, err
}

// ReplaceUserRoles 整体替换用户在社区内的角色指派：先删后插，同事务
func (r *RoleRepository) ReplaceUserRoles(ctx context.Context, userID, communityID uint64, roleIDs []uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND community_id = ?", userID, communityID).
			Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		if len(roleIDs) == 0 {
			return nil
		}
		rows := make([]model.UserRole, 0, len(roleIDs))
		for _, roleID := range roleIDs {
			rows = append(rows, model.UserRole{
				UserID:      userID,
				CommunityID: communityID,
				RoleID:      roleID,
			})
		}
		return tx.Create(&rows).Error
	})
}

// UserPermissionMasks 取用户在社区内全部角色的权限掩码
func (r *RoleRepository) UserPermissionMasks(ctx context.Context, userID, communityID uint64) ([]uint32, error) {
	var masks []uint32
	err := r.DB.WithContext(ctx).Model(&model.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND user_roles.community_id = ?", userID, communityID).
		Pluck("roles.permissions", &masks).Error
	return masks, err
}
