package database

import (
	"fmt"

	"github.com/wfunc/campaign-bot/internal/logger"
	"github.com/wfunc/campaign-bot/internal/models"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 定义需要迁移的模型
	migrationModels := []interface{}{
		// 服务器与玩家
		&models.ServerConfig{},
		&models.Player{},
		&models.Character{},

		// 战役与成员
		&models.Campaign{},
		&models.CampaignPlayerLink{},
		&models.CampaignAutosave{},
	}

	logger.Info("开始数据库迁移...")

	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	// 创建索引
	if err := createIndexes(); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建数据库索引
func createIndexes() error {
	// 成员关联表索引（按玩家查关联用）
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_campaign_players_player_id ON campaign_players(player_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_campaign_players_player_id"), zap.Error(err))
	}

	// 自动存档表索引（按战役取最新存档用）
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_campaign_autosaves_campaign_time ON campaign_autosaves(campaign_id, autosave_time)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_campaign_autosaves_campaign_time"), zap.Error(err))
	}

	logger.Info("数据库索引创建完成")
	return nil
}
