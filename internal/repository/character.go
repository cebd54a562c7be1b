package repository

import (
	"context"

	"github.com/wfunc/campaign-bot/internal/models"
	"gorm.io/gorm"
)

// CharacterRepository 角色卡仓储接口
type CharacterRepository interface {
	BaseRepository
	Create(ctx context.Context, character *models.Character) error
	Update(ctx context.Context, character *models.Character) error
	FindByID(ctx context.Context, id uint) (*models.Character, error)
	FindByPlayerAndName(ctx context.Context, playerID, name string) (*models.Character, error)
	ListByPlayer(ctx context.Context, playerID string) ([]*models.Character, error)
	CountByPlayer(ctx context.Context, playerID string) (int64, error)
	DeleteByPlayerAndName(ctx context.Context, playerID, name string) (int64, error)
	WithTx(tx *gorm.DB) CharacterRepository
}

// characterRepo 角色卡仓储实现
type characterRepo struct {
	*BaseRepo
}

// NewCharacterRepository 创建角色卡仓储
func NewCharacterRepository(db *gorm.DB) CharacterRepository {
	return &characterRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建角色卡
func (r *characterRepo) Create(ctx context.Context, character *models.Character) error {
	return r.db.WithContext(ctx).Create(character).Error
}

// Update 更新角色卡
func (r *characterRepo) Update(ctx context.Context, character *models.Character) error {
	return r.db.WithContext(ctx).Save(character).Error
}

// FindByID 根据ID查找角色卡
func (r *characterRepo) FindByID(ctx context.Context, id uint) (*models.Character, error) {
	var character models.Character
	err := r.db.WithContext(ctx).First(&character, id).Error
	if err != nil {
		return nil, err
	}
	return &character, nil
}

// FindByPlayerAndName 根据玩家和名字查找角色卡
func (r *characterRepo) FindByPlayerAndName(ctx context.Context, playerID, name string) (*models.Character, error) {
	var character models.Character
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND name = ?", playerID, name).
		First(&character).Error
	if err != nil {
		return nil, err
	}
	return &character, nil
}

// ListByPlayer 列出玩家的所有角色卡
func (r *characterRepo) ListByPlayer(ctx context.Context, playerID string) ([]*models.Character, error) {
	var characters []*models.Character
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("created_at ASC").
		Find(&characters).Error
	return characters, err
}

// CountByPlayer 统计玩家的角色卡数量
func (r *characterRepo) CountByPlayer(ctx context.Context, playerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Character{}).
		Where("player_id = ?", playerID).
		Count(&count).Error
	return count, err
}

// DeleteByPlayerAndName 删除角色卡，返回删除行数
func (r *characterRepo) DeleteByPlayerAndName(ctx context.Context, playerID, name string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("player_id = ? AND name = ?", playerID, name).
		Delete(&models.Character{})
	return result.RowsAffected, result.Error
}

// WithTx 使用事务
func (r *characterRepo) WithTx(tx *gorm.DB) CharacterRepository {
	return &characterRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
