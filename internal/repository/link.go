package repository

import (
	"context"

	"github.com/wfunc/campaign-bot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LinkRepository 战役成员关系仓储接口
type LinkRepository interface {
	BaseRepository
	Upsert(ctx context.Context, link *models.CampaignPlayerLink) error
	FindByPair(ctx context.Context, campaignID uint, playerID string) (*models.CampaignPlayerLink, error)
	ListByPlayer(ctx context.Context, playerID string) ([]*models.CampaignPlayerLink, error)
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.CampaignPlayerLink, error)
	UpdateStatusByPair(ctx context.Context, campaignID uint, playerID string, status string) error
	DemoteJoinedOnServer(ctx context.Context, playerID, serverID string, exceptCampaignID uint) error
	DeleteByPair(ctx context.Context, campaignID uint, playerID string) (int64, error)
	DeleteByCampaign(ctx context.Context, campaignID uint) error
	ClearCharacter(ctx context.Context, characterID uint) error
	WithTx(tx *gorm.DB) LinkRepository
}

// linkRepo 战役成员关系仓储实现
type linkRepo struct {
	*BaseRepo
}

// NewLinkRepository 创建成员关系仓储
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Upsert 写入成员关系，冲突时刷新角色卡与状态
func (r *linkRepo) Upsert(ctx context.Context, link *models.CampaignPlayerLink) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"character_id", "player_status", "joined_at", "updated_at"}),
		}).
		Create(link).Error
}

// FindByPair 查找指定战役和玩家的成员关系
func (r *linkRepo) FindByPair(ctx context.Context, campaignID uint, playerID string) (*models.CampaignPlayerLink, error) {
	var link models.CampaignPlayerLink
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND player_id = ?", campaignID, playerID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ListByPlayer 列出玩家的所有成员关系（附带战役）
func (r *linkRepo) ListByPlayer(ctx context.Context, playerID string) ([]*models.CampaignPlayerLink, error) {
	var links []*models.CampaignPlayerLink
	err := r.db.WithContext(ctx).
		Preload("Campaign").
		Where("player_id = ?", playerID).
		Order("joined_at ASC").
		Find(&links).Error
	return links, err
}

// ListByCampaign 列出战役的所有成员关系
func (r *linkRepo) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.CampaignPlayerLink, error) {
	var links []*models.CampaignPlayerLink
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("joined_at ASC").
		Find(&links).Error
	return links, err
}

// UpdateStatusByPair 更新成员关系状态
func (r *linkRepo) UpdateStatusByPair(ctx context.Context, campaignID uint, playerID string, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.CampaignPlayerLink{}).
		Where("campaign_id = ? AND player_id = ?", campaignID, playerID).
		Update("player_status", status).Error
}

// DemoteJoinedOnServer 把玩家在该服务器其他战役里的joined状态降回cmd
//
// 同一服务器同一时刻最多一条joined成员关系。
func (r *linkRepo) DemoteJoinedOnServer(ctx context.Context, playerID, serverID string, exceptCampaignID uint) error {
	campaignIDs := r.db.Model(&models.Campaign{}).
		Select("id").
		Where("server_id = ?", serverID)

	return r.db.WithContext(ctx).
		Model(&models.CampaignPlayerLink{}).
		Where("player_id = ? AND player_status = ? AND campaign_id <> ?",
			playerID, models.PlayerStatusJoined, exceptCampaignID).
		Where("campaign_id IN (?)", campaignIDs).
		Update("player_status", models.PlayerStatusCmd).Error
}

// DeleteByPair 删除成员关系，返回删除行数
func (r *linkRepo) DeleteByPair(ctx context.Context, campaignID uint, playerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("campaign_id = ? AND player_id = ?", campaignID, playerID).
		Delete(&models.CampaignPlayerLink{})
	return result.RowsAffected, result.Error
}

// DeleteByCampaign 删除战役的所有成员关系
func (r *linkRepo) DeleteByCampaign(ctx context.Context, campaignID uint) error {
	return r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Delete(&models.CampaignPlayerLink{}).Error
}

// ClearCharacter 角色卡删除后置空引用它的成员关系
func (r *linkRepo) ClearCharacter(ctx context.Context, characterID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.CampaignPlayerLink{}).
		Where("character_id = ?", characterID).
		Update("character_id", nil).Error
}

// WithTx 使用事务
func (r *linkRepo) WithTx(tx *gorm.DB) LinkRepository {
	return &linkRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
