package models

import (
	"fmt"
	"time"
)

// 服务器配置取值
const (
	DMRollPublic = "public"
	DMRollHidden = "hidden"

	RollModePhysical = "physical"
	RollModeDigital  = "digital"
	RollModeAuto     = "auto"
	RollModeHidden   = "hidden"

	SheetModeDigital  = "digital_sheet"
	SheetModePhysical = "physical_sheet"
)

// ServerConfig 服务器配置表
// APIKey 存储密封后的密文（base64），明文只在服务层出现
type ServerConfig struct {
	ServerID           string    `gorm:"primaryKey;size:64" json:"server_id"`
	APIKey             string    `gorm:"type:text" json:"-"`
	DMRollVisibility   string    `gorm:"size:20;default:'public'" json:"dm_roll_visibility"`     // public, hidden
	PlayerRollMode     string    `gorm:"size:20;default:'digital'" json:"player_roll_mode"`      // physical, digital, auto, hidden
	CharacterSheetMode string    `gorm:"size:20;default:'digital_sheet'" json:"character_sheet_mode"` // digital_sheet, physical_sheet
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName 指定ServerConfig表名
func (ServerConfig) TableName() string {
	return "server_configs"
}

// DefaultServerConfig 返回服务器的默认配置
func DefaultServerConfig(serverID string) *ServerConfig {
	return &ServerConfig{
		ServerID:           serverID,
		DMRollVisibility:   DMRollPublic,
		PlayerRollMode:     RollModeDigital,
		CharacterSheetMode: SheetModeDigital,
	}
}

// Validate 校验配置取值
func (c *ServerConfig) Validate() error {
	switch c.DMRollVisibility {
	case DMRollPublic, DMRollHidden:
	default:
		return fmt.Errorf("无效的DM掷骰可见性: %s", c.DMRollVisibility)
	}
	switch c.PlayerRollMode {
	case RollModePhysical, RollModeDigital, RollModeAuto, RollModeHidden:
	default:
		return fmt.Errorf("无效的玩家掷骰模式: %s", c.PlayerRollMode)
	}
	switch c.CharacterSheetMode {
	case SheetModeDigital, SheetModePhysical:
	default:
		return fmt.Errorf("无效的角色卡模式: %s", c.CharacterSheetMode)
	}
	return nil
}
