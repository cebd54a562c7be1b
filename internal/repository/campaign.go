package repository

import (
	"context"
	"time"

	"github.com/wfunc/campaign-bot/internal/models"
	"gorm.io/gorm"
)

// CampaignRepository 战役仓储接口
type CampaignRepository interface {
	BaseRepository
	Create(ctx context.Context, campaign *models.Campaign) error
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Campaign, error)
	FindByServerAndName(ctx context.Context, serverID, name string) (*models.Campaign, error)
	ListByServer(ctx context.Context, serverID string, p *Pagination) ([]*models.Campaign, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Campaign, error)
	SaveState(ctx context.Context, id uint, state string, savedAt time.Time) error
	WithTx(tx *gorm.DB) CampaignRepository
}

// campaignRepo 战役仓储实现
type campaignRepo struct {
	*BaseRepo
}

// NewCampaignRepository 创建战役仓储
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建战役
func (r *campaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	return r.db.WithContext(ctx).Create(campaign).Error
}

// Update 更新战役
func (r *campaignRepo) Update(ctx context.Context, campaign *models.Campaign) error {
	return r.db.WithContext(ctx).Save(campaign).Error
}

// Delete 删除战役
func (r *campaignRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Campaign{}, id).Error
}

// FindByID 根据ID查找战役
func (r *campaignRepo) FindByID(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).First(&campaign, id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// FindByServerAndName 根据服务器和名字查找战役
func (r *campaignRepo) FindByServerAndName(ctx context.Context, serverID, name string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Where("server_id = ? AND campaign_name = ?", serverID, name).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListByServer 列出服务器下的战役，p非空时分页并回填总数
func (r *campaignRepo) ListByServer(ctx context.Context, serverID string, p *Pagination) ([]*models.Campaign, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("server_id = ?", serverID)

	if p != nil {
		if err := query.Count(&p.Total).Error; err != nil {
			return nil, err
		}
		query = query.Scopes(Paginate(p))
	}

	var campaigns []*models.Campaign
	err := query.Order("created_at ASC").Find(&campaigns).Error
	return campaigns, err
}

// ListByOwner 列出玩家拥有的所有战役
func (r *campaignRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&campaigns).Error
	return campaigns, err
}

// SaveState 保存战役状态并刷新存档时间
func (r *campaignRepo) SaveState(ctx context.Context, id uint, state string, savedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":     state,
			"last_save": savedAt,
		}).Error
}

// WithTx 使用事务
func (r *campaignRepo) WithTx(tx *gorm.DB) CampaignRepository {
	return &campaignRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
