package mysql

import (
	"context"
	"encoding/json"
	"time"

	"Uni_Community/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityMemberRepository struct {
	DB *gorm.DB
}

type OutboxRepository struct {
	DB *gorm.DB
}

// Join 幂等插入：若已存在 (community_id, user_id) 则不报错也不发事件
func (r *CommunityMemberRepository) Join(ctx context.Context, member *model.CommunityMember) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(member)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 已是成员，重复请求不再写 outbox
			return nil
		}
		return insertOutbox(tx, "join", member.CommunityID, member.UserID)
	})
}

// Leave 删除成员行并写 outbox（同事务）；已不在社区时幂等返回
func (r *CommunityMemberRepository) Leave(ctx context.Context, communityID, userID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			Delete(&model.CommunityMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return insertOutbox(tx, "leave", communityID, userID)
	})
}

// CommunityIDs 用户已加入社区的 id 列表
func (r *CommunityMemberRepository) CommunityIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("user_id = ?", userID).
		Pluck("community_id", &ids).Error
	return ids, err
}

// 插入成员变更事件，payload 带事件时间，供下游消费
func insertOutbox(tx *gorm.DB, event string, communityID, userID uint64) error {
	payload, _ := json.Marshal(map[string]any{
		"event_time":   time.Now().UTC().Format(time.RFC3339Nano),
		"community_id": communityID,
		"user_id":      userID,
	})
	return tx.Create(&model.MemberOutbox{
		EventType:   event,
		CommunityID: communityID,
		UserID:      userID,
		Payload:     string(payload),
	}).Error
}

// List 批量拉取待投递事件
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.MemberOutbox, error) {
	var list []model.MemberOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = 0").
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// MarkRetry 投递失败记录重试
func (r *OutboxRepository) MarkRetry(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.MemberOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": 2, "retry": gorm.Expr("retry + 1")}).Error
}

// MarkSent 投递成功更新状态
func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.MemberOutbox{}).Where("id = ?", id).
		Update("status", 1).Error
}
