package repository

import (
	"context"

	"github.com/wfunc/campaign-bot/internal/models"
	"gorm.io/gorm"
)

// AutosaveRepository 自动存档仓储接口
type AutosaveRepository interface {
	BaseRepository
	Append(ctx context.Context, autosave *models.CampaignAutosave) error
	Latest(ctx context.Context, campaignID uint) (*models.CampaignAutosave, error)
	CountByCampaign(ctx context.Context, campaignID uint) (int64, error)
	DeleteByCampaign(ctx context.Context, campaignID uint) error
	WithTx(tx *gorm.DB) AutosaveRepository
}

// autosaveRepo 自动存档仓储实现
type autosaveRepo struct {
	*BaseRepo
}

// NewAutosaveRepository 创建自动存档仓储
func NewAutosaveRepository(db *gorm.DB) AutosaveRepository {
	return &autosaveRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Append 追加一条自动存档
func (r *autosaveRepo) Append(ctx context.Context, autosave *models.CampaignAutosave) error {
	return r.db.WithContext(ctx).Create(autosave).Error
}

// Latest 查找战役最新的自动存档（同一时刻取后写入者）
func (r *autosaveRepo) Latest(ctx context.Context, campaignID uint) (*models.CampaignAutosave, error) {
	var autosave models.CampaignAutosave
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("autosave_time DESC, id DESC").
		First(&autosave).Error
	if err != nil {
		return nil, err
	}
	return &autosave, nil
}

// CountByCampaign 统计战役的自动存档数量
func (r *autosaveRepo) CountByCampaign(ctx context.Context, campaignID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CampaignAutosave{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}

// DeleteByCampaign 删除战役的所有自动存档
func (r *autosaveRepo) DeleteByCampaign(ctx context.Context, campaignID uint) error {
	return r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Delete(&models.CampaignAutosave{}).Error
}

// WithTx 使用事务
func (r *autosaveRepo) WithTx(tx *gorm.DB) AutosaveRepository {
	return &autosaveRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
