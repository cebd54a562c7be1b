package repository

import (
	"context"

	"github.com/wfunc/campaign-bot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ServerConfigRepository 服务器配置仓储接口
type ServerConfigRepository interface {
	BaseRepository
	Upsert(ctx context.Context, config *models.ServerConfig) error
	FindByID(ctx context.Context, serverID string) (*models.ServerConfig, error)
	UpdateAPIKey(ctx context.Context, serverID string, sealed string) error
	WithTx(tx *gorm.DB) ServerConfigRepository
}

// serverConfigRepo 服务器配置仓储实现
type serverConfigRepo struct {
	*BaseRepo
}

// NewServerConfigRepository 创建服务器配置仓储
func NewServerConfigRepository(db *gorm.DB) ServerConfigRepository {
	return &serverConfigRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Upsert 写入服务器配置，已存在时整体刷新
func (r *serverConfigRepo) Upsert(ctx context.Context, config *models.ServerConfig) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "server_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"dm_roll_visibility", "player_roll_mode", "character_sheet_mode", "updated_at"}),
		}).
		Create(config).Error
}

// FindByID 根据服务器ID查找配置
func (r *serverConfigRepo) FindByID(ctx context.Context, serverID string) (*models.ServerConfig, error) {
	var config models.ServerConfig
	err := r.db.WithContext(ctx).
		Where("server_id = ?", serverID).
		First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// UpdateAPIKey 更新加密后的API密钥
func (r *serverConfigRepo) UpdateAPIKey(ctx context.Context, serverID string, sealed string) error {
	return r.db.WithContext(ctx).
		Model(&models.ServerConfig{}).
		Where("server_id = ?", serverID).
		Update("api_key", sealed).Error
}

// WithTx 使用事务
func (r *serverConfigRepo) WithTx(tx *gorm.DB) ServerConfigRepository {
	return &serverConfigRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
