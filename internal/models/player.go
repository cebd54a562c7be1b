package models

import (
	"time"
)

// 玩家状态
const (
	PlayerStatusJoined = "joined" // 正在游戏中
	PlayerStatusCmd    = "cmd"    // 命令模式（暂停）
)

// Player 玩家表
// 主键为调用方提供的平台用户ID（如Discord用户ID），玩家记录一经创建不再物理删除
type Player struct {
	UserID             string    `gorm:"primaryKey;size:64" json:"user_id"`
	Username           string    `gorm:"size:100" json:"username"`
	PlayerStatus       string    `gorm:"size:20;default:'cmd'" json:"player_status"` // joined, cmd
	LastActiveCampaign *string   `gorm:"size:64" json:"last_active_campaign,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// 关联
	Characters []Character `gorm:"foreignKey:PlayerID" json:"characters,omitempty"`
}

// TableName 指定Player表名
func (Player) TableName() string {
	return "players"
}

// IsJoined 检查玩家是否处于游戏中
func (p *Player) IsJoined() bool {
	return p.PlayerStatus == PlayerStatusJoined
}

// Character 角色表
// 每个角色归属唯一玩家，同一玩家下角色名唯一
type Character struct {
	BaseModel
	PlayerID     string `gorm:"size:64;not null;uniqueIndex:idx_characters_player_name" json:"player_id"`
	Name         string `gorm:"size:32;not null;uniqueIndex:idx_characters_player_name" json:"name"`
	CharacterURL string `gorm:"size:255" json:"character_url,omitempty"`
}

// TableName 指定Character表名
func (Character) TableName() string {
	return "characters"
}
