package mysql

import (
	"context"
	"errors"

	"Uni_Community/internal/model"

	"gorm.io/gorm"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// Create 创建社区并幂等地让创建者加入（同事务）
func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) (*model.Community, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}

		mRepo := &CommunityMemberRepository{DB: tx}
		return mRepo.Join(ctx, &model.CommunityMember{
			CommunityID: c.ID,
			UserID:      c.CreatorID,
		})
	})
	return c, err
}

// FindByID 未找到返回 (nil, nil)，调用方不需要感知 gorm 错误
func (r *CommunityRepository) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).First(&community, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// FindByIDs 批量查询社区，成员数在查询时从关系表算出；结果顺序与入参无关
func (r *CommunityRepository) FindByIDs(ctx context.Context, ids []uint64) ([]model.CommunityInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.CommunityInfo
	err := r.DB.WithContext(ctx).Model(&model.Community{}).
		Select("communities.*, (SELECT COUNT(*) FROM community_members m WHERE m.community_id = communities.id) AS members_count").
		Where("communities.id IN ?", ids).
		Find(&list).Error
	return list, err
}

// Recommend 随机推荐用户尚未加入的可发现社区，返回 id 列表
func (r *CommunityRepository) Recommend(ctx context.Context, userID uint64, limit int) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.Community{}).
		Where("is_discoverable = ?", true).
		Where("NOT EXISTS (SELECT 1 FROM community_members m WHERE m.community_id = communities.id AND m.user_id = ?)", userID).
		Order("RAND()").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *CommunityRepository) Update(ctx context.Context, c *model.Community) error {
	return r.DB.WithContext(ctx).Model(&model.Community{ID: c.ID}).
		Select("name", "description", "university", "is_discoverable", "tags").
		Updates(c).Error
}

func (r *CommunityRepository) UpdateIcon(ctx context.Context, id uint64, icon string) error {
	return r.DB.WithContext(ctx).Model(&model.Community{}).
		Where("id = ?", id).
		Update("icon", icon).Error
}

// DeleteByID 仅所有者可删；返回受影响行数，已不存在时为 0（幂等）
func (r *CommunityRepository) DeleteByID(ctx context.Context, id, ownerID uint64) (int64, error) {
	tx := r.DB.WithContext(ctx).
		Where("id = ? AND creator_id = ?", id, ownerID).
		Delete(&model.Community{})
	return tx.RowsAffected, tx.Error
}
