package models

import (
	"time"
)

// Campaign 战役表
// 自然键为 (server_id, campaign_name)，同一服务器内战役名唯一
type Campaign struct {
	BaseModel
	ServerID     string    `gorm:"size:64;not null;uniqueIndex:idx_campaigns_server_name" json:"server_id"`
	CampaignName string    `gorm:"size:64;not null;uniqueIndex:idx_campaigns_server_name" json:"campaign_name"`
	OwnerID      string    `gorm:"size:64;not null" json:"owner_id"`
	State        string    `gorm:"type:text" json:"state"`
	LastSave     time.Time `json:"last_save"`
}

// TableName 指定Campaign表名
func (Campaign) TableName() string {
	return "campaigns"
}

// CampaignPlayerLink 战役-玩家关联表
// (campaign_id, player_id) 唯一，一个玩家对一个战役至多一条关联
// CharacterID 是弱引用：角色删除时只置空，不级联删除关联行
type CampaignPlayerLink struct {
	BaseModel
	CampaignID   uint      `gorm:"not null;uniqueIndex:idx_campaign_players_pair" json:"campaign_id"`
	PlayerID     string    `gorm:"size:64;not null;uniqueIndex:idx_campaign_players_pair" json:"player_id"`
	CharacterID  *uint     `json:"character_id,omitempty"`
	PlayerStatus string    `gorm:"size:20;default:'joined'" json:"player_status"`
	JoinedAt     time.Time `json:"joined_at"`

	// 关联
	Campaign Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
}

// TableName 指定CampaignPlayerLink表名
func (CampaignPlayerLink) TableName() string {
	return "campaign_players"
}

// CampaignAutosave 战役自动存档表
// 仅追加，"继续游戏"时按时间戳取最新一条
type CampaignAutosave struct {
	BaseModel
	CampaignID   uint      `gorm:"not null;index" json:"campaign_id"`
	State        string    `gorm:"type:text" json:"state"`
	AutosaveTime time.Time `gorm:"index" json:"autosave_time"`
}

// TableName 指定CampaignAutosave表名
func (CampaignAutosave) TableName() string {
	return "campaign_autosaves"
}
