package models

import (
	"time"
)

// BaseModel 基础模型（所有带代理主键的表共用）
// 注意：不使用 gorm.DeletedAt 软删除，战役和角色删除后
// 必须允许同名重建，软删除会占用唯一索引
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
