package service

import (
	"context"
	"time"

	"github.com/wfunc/campaign-bot/internal/models"
	"github.com/wfunc/campaign-bot/internal/repository"
)

// CampaignService 战役服务接口
type CampaignService interface {
	// 战役生命周期
	Create(ctx context.Context, req *CreateCampaignRequest) (*models.Campaign, error)
	Delete(ctx context.Context, req *DeleteCampaignRequest) error
	Get(ctx context.Context, serverID, name string) (*models.Campaign, error)
	List(ctx context.Context, serverID string, page, pageSize int) ([]*models.Campaign, *repository.Pagination, error)

	// 存档
	Save(ctx context.Context, serverID, name, state string) error
	Autosave(ctx context.Context, serverID, name, state string) error
	ResolveContinue(ctx context.Context, serverID, userID string) (*ContinueInfo, error)
}

// MembershipService 战役成员服务接口
type MembershipService interface {
	Join(ctx context.Context, req *JoinRequest) (*JoinResult, error)
	End(ctx context.Context, serverID, userID, campaignName string) error
	Leave(ctx context.Context, serverID, userID, campaignName string) error
	GetPlayerStatus(ctx context.Context, userID string) (*PlayerStatusReport, error)
}

// CharacterService 角色卡服务接口
type CharacterService interface {
	Create(ctx context.Context, playerID, name, url string) (*models.Character, error)
	Update(ctx context.Context, playerID, name string, newName, newURL *string) (*models.Character, error)
	List(ctx context.Context, playerID string) ([]*models.Character, error)
	Remove(ctx context.Context, playerID, name string) (bool, error)
}

// ServerConfigService 服务器配置服务接口
type ServerConfigService interface {
	Get(ctx context.Context, serverID string) (*models.ServerConfig, error)
	Update(ctx context.Context, req *UpdateServerConfigRequest) (*models.ServerConfig, error)
	SetAPIKey(ctx context.Context, serverID, apiKey string) error
	GetAPIKey(ctx context.Context, serverID string) (string, error)
}

// CreateCampaignRequest 创建战役请求
type CreateCampaignRequest struct {
	ServerID     string `json:"server_id" binding:"required"`
	CampaignName string `json:"campaign_name" binding:"required"`
	OwnerID      string `json:"owner_id" binding:"required"`
	OwnerName    string `json:"owner_name"`
	State        string `json:"state"`
}

// DeleteCampaignRequest 删除战役请求
type DeleteCampaignRequest struct {
	ServerID     string `json:"server_id" binding:"required"`
	CampaignName string `json:"campaign_name" binding:"required"`
	RequesterID  string `json:"requester_id" binding:"required"`
	IsAdmin      bool   `json:"is_admin"`
}

// JoinRequest 加入战役请求
type JoinRequest struct {
	ServerID      string `json:"server_id" binding:"required"`
	UserID        string `json:"user_id" binding:"required"`
	Username      string `json:"username"`
	CampaignName  string `json:"campaign_name"`
	CharacterName string `json:"character_name"`
	CharacterURL  string `json:"character_url"`
}

// JoinResult 加入战役结果
type JoinResult struct {
	Campaign  *models.Campaign  `json:"campaign"`
	Character *models.Character `json:"character"`
}

// ContinueInfo 继续游戏时选用的存档
type ContinueInfo struct {
	Campaign *models.Campaign `json:"campaign"`
	State    string           `json:"state"`
	Source   string           `json:"source"` // save 或 autosave
	SavedAt  time.Time        `json:"saved_at"`
}

// CampaignMembership 玩家视角的战役成员关系
type CampaignMembership struct {
	CampaignName string `json:"campaign_name"`
	Status       string `json:"status"`
}

// PlayerStatusReport 玩家状态汇总
type PlayerStatusReport struct {
	UserID             string                `json:"user_id"`
	Username           string                `json:"username"`
	PlayerStatus       string                `json:"player_status"`
	LastActiveCampaign *string               `json:"last_active_campaign"`
	Campaigns          []*CampaignMembership `json:"campaigns"`
	Characters         []*models.Character   `json:"characters"`
}

// UpdateServerConfigRequest 更新服务器配置请求
// ServerID 来自路径参数，不参与请求体校验
type UpdateServerConfigRequest struct {
	ServerID           string `json:"server_id"`
	DMRollVisibility   string `json:"dm_roll_visibility"`
	PlayerRollMode     string `json:"player_roll_mode"`
	CharacterSheetMode string `json:"character_sheet_mode"`
}
