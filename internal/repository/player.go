package repository

import (
	"context"
	"time"

	"github.com/wfunc/campaign-bot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlayerRepository 玩家仓储接口
type PlayerRepository interface {
	BaseRepository
	Create(ctx context.Context, player *models.Player) error
	Update(ctx context.Context, player *models.Player) error
	FindByID(ctx context.Context, userID string) (*models.Player, error)
	Upsert(ctx context.Context, player *models.Player) error
	UpdateStatus(ctx context.Context, userID string, status string) error
	SetLastActiveCampaign(ctx context.Context, userID string, campaignName *string) error
	SetActive(ctx context.Context, userID string, campaignName string) error
	WithTx(tx *gorm.DB) PlayerRepository
}

// playerRepo 玩家仓储实现
type playerRepo struct {
	*BaseRepo
}

// NewPlayerRepository 创建玩家仓储
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建玩家
func (r *playerRepo) Create(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).Create(player).Error
}

// Update 更新玩家
func (r *playerRepo) Update(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).Save(player).Error
}

// FindByID 根据用户ID查找玩家
func (r *playerRepo) FindByID(ctx context.Context, userID string) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&player).Error
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// Upsert 注册玩家，已存在时仅刷新用户名
func (r *playerRepo) Upsert(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
		}).
		Create(player).Error
}

// UpdateStatus 更新玩家状态
func (r *playerRepo) UpdateStatus(ctx context.Context, userID string, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("user_id = ?", userID).
		Update("player_status", status).Error
}

// SetLastActiveCampaign 设置最近活跃战役指针（nil 表示清空）
func (r *playerRepo) SetLastActiveCampaign(ctx context.Context, userID string, campaignName *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("user_id = ?", userID).
		Update("last_active_campaign", campaignName).Error
}

// SetActive 进入战役：状态置为已加入并更新活跃指针
func (r *playerRepo) SetActive(ctx context.Context, userID string, campaignName string) error {
	return r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"player_status":        models.PlayerStatusJoined,
			"last_active_campaign": campaignName,
			"updated_at":           time.Now(),
		}).Error
}

// WithTx 使用事务
func (r *playerRepo) WithTx(tx *gorm.DB) PlayerRepository {
	return &playerRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
