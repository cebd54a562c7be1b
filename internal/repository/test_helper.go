package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/campaign-bot/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试套件设置内存数据库
func SetupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	err = db.AutoMigrate(
		&models.ServerConfig{},
		&models.Player{},
		&models.Character{},
		&models.Campaign{},
		&models.CampaignPlayerLink{},
		&models.CampaignAutosave{},
	)
	if err != nil {
		panic(err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SeedPlayer 创建测试玩家
func SeedPlayer(t *testing.T, db *gorm.DB, userID, username string) *models.Player {
	player := &models.Player{
		UserID:       userID,
		Username:     username,
		PlayerStatus: models.PlayerStatusCmd,
	}
	require.NoError(t, db.Create(player).Error)
	return player
}

// SeedCampaign 创建测试战役
func SeedCampaign(t *testing.T, db *gorm.DB, serverID, name, ownerID string) *models.Campaign {
	campaign := &models.Campaign{
		ServerID:     serverID,
		CampaignName: name,
		OwnerID:      ownerID,
		State:        `{"scene":"start"}`,
		LastSave:     time.Now(),
	}
	require.NoError(t, db.Create(campaign).Error)
	return campaign
}

// SeedCharacter 创建测试角色卡
func SeedCharacter(t *testing.T, db *gorm.DB, playerID, name string) *models.Character {
	character := &models.Character{
		PlayerID: playerID,
		Name:     name,
	}
	require.NoError(t, db.Create(character).Error)
	return character
}
