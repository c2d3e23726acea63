package model

import "time"

// User 本子系统只关心 user_id，用户表保持最小字段集
type User struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Password  string `gorm:"size:255;not null" json:"-"`
	Email     string `gorm:"uniqueIndex;size:64;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
