package model

import "time"

// Role 社区角色，Permissions 为权限位掩码；每个社区最多 15 个
type Role struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	CommunityID uint64    `gorm:"not null;index" json:"community_id"`
	Name        string    `gorm:"size:32;not null" json:"name"`
	Color       string    `gorm:"size:7;not null" json:"color"`
	Permissions uint32    `gorm:"not null;default:0" json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

// UserRole 用户-角色多对多；成员在一个社区可持有 0..n 个角色。
// 更新走整体替换（先删后插），不做增量修补
type UserRole struct {
	ID          uint64 `gorm:"primaryKey"`
	UserID      uint64 `gorm:"not null;index;uniqueIndex:uk_user_comm_role"`
	CommunityID uint64 `gorm:"not null;index;uniqueIndex:uk_user_comm_role"`
	RoleID      uint64 `gorm:"not null;uniqueIndex:uk_user_comm_role"`
	CreatedAt   time.Time
}

func (UserRole) TableName() string { return "user_roles" }
