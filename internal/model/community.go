package model

import "time"

type Community struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description    string    `gorm:"size:255" json:"description"`
	Icon           string    `gorm:"size:255" json:"icon"`
	University     string    `gorm:"size:64" json:"university"`
	IsDiscoverable bool      `gorm:"not null;default:1" json:"is_discoverable"`
	Tags           []string  `gorm:"serializer:json" json:"tags"`
	CreatorID      uint64    `gorm:"not null;index" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}

type CommunityMember struct {
	ID          uint64 `gorm:"primaryKey"`
	CommunityID uint64 `gorm:"not null;index;uniqueIndex:uk_community_user"`
	UserID      uint64 `gorm:"not null;index;uniqueIndex:uk_community_user"`
	CreatedAt   time.Time // 加入时间
	UpdatedAt   time.Time
}

// CommunityInfo 社区元数据 + 派生成员数；整体作为缓存值序列化。
// 成员数以 community_members 表为准，缓存值只是读取时的快照
type CommunityInfo struct {
	Community    `gorm:"embedded"`
	MembersCount int64 `json:"members_count"`
}

// UserCommunity 面向调用方的社区视图
type UserCommunity struct {
	CommunityInfo
	IsOwner  bool `json:"is_owner"`
	IsMember bool `json:"is_member"`
}

// MemberOutbox 成员变更事件表（join / leave），与成员行同事务写入
type MemberOutbox struct {
	ID          uint64 `gorm:"primaryKey"`
	EventType   string `gorm:"size:16;not null"` // join / leave
	CommunityID uint64 `gorm:"not null;index"`
	UserID      uint64 `gorm:"not null"`
	Payload     string `gorm:"type:json;not null"`
	Status      int8   `gorm:"not null;default:0"` // 0=pending,1=sent,2=failed
	Retry       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (MemberOutbox) TableName() string { return "member_outbox" }
