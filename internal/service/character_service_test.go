package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/campaign-bot/internal/errors"
	"github.com/wfunc/campaign-bot/internal/models"
	"github.com/wfunc/campaign-bot/internal/repository"
)

// CharacterServiceTestSuite 角色卡服务测试套件
type CharacterServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	db         *gorm.DB
	characters CharacterService
}

func (suite *CharacterServiceTestSuite) SetupSuite() {
	suite.ctx = context.Background()
}

func (suite *CharacterServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.NoError(err)

	err = db.AutoMigrate(
		&models.Player{},
		&models.Character{},
		&models.Campaign{},
		&models.CampaignPlayerLink{},
	)
	suite.NoError(err)
	suite.db = db

	playerRepo := repository.NewPlayerRepository(db)
	characterRepo := repository.NewCharacterRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	suite.characters = NewCharacterService(db, playerRepo, characterRepo, linkRepo, zap.NewNop())
}

func (suite *CharacterServiceTestSuite) TearDownTest() {
	sqlDB, _ := suite.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

func strPtr(s string) *string { return &s }

// seedPlayer 预注册一名玩家
func (suite *CharacterServiceTestSuite) seedPlayer(userID string) {
	suite.NoError(suite.db.Create(&models.Player{
		UserID:       userID,
		Username:     userID,
		PlayerStatus: models.PlayerStatusCmd,
	}).Error)
}

// TestCreate 测试创建角色卡
func (suite *CharacterServiceTestSuite) TestCreate() {
	suite.seedPlayer("player-1")

	character, err := suite.characters.Create(suite.ctx, "player-1", "Hero", "https://sheet.example/hero")
	suite.NoError(err)
	suite.Equal("Hero", character.Name)
	suite.Equal("https://sheet.example/hero", character.CharacterURL)
}

// TestCreate_UnknownPlayer 测试未注册玩家不能创建角色卡
func (suite *CharacterServiceTestSuite) TestCreate_UnknownPlayer() {
	_, err := suite.characters.Create(suite.ctx, "ghost-player", "Hero", "")
	suite.Error(err)
	suite.True(errors.IsNotFound(err))

	// 不会顺带注册玩家
	var count int64
	suite.NoError(suite.db.Model(&models.Player{}).Where("user_id = ?", "ghost-player").Count(&count).Error)
	suite.Zero(count)
}

// TestCreate_Duplicate 测试重名角色卡
func (suite *CharacterServiceTestSuite) TestCreate_Duplicate() {
	suite.seedPlayer("player-1")
	suite.seedPlayer("player-2")

	_, err := suite.characters.Create(suite.ctx, "player-1", "Hero", "")
	suite.NoError(err)

	_, err = suite.characters.Create(suite.ctx, "player-1", "Hero", "")
	suite.Error(err)
	suite.True(errors.IsValidation(err))

	// 另一个玩家可以用相同的名字
	_, err = suite.characters.Create(suite.ctx, "player-2", "Hero", "")
	suite.NoError(err)
}

// TestUpdate_Rename 测试角色卡改名
func (suite *CharacterServiceTestSuite) TestUpdate_Rename() {
	suite.seedPlayer("player-1")

	_, err := suite.characters.Create(suite.ctx, "player-1", "Hero", "https://sheet.example/hero")
	suite.NoError(err)

	character, err := suite.characters.Update(suite.ctx, "player-1", "Hero", strPtr("Paladin"), nil)
	suite.NoError(err)
	suite.Equal("Paladin", character.Name)
	suite.Equal("https://sheet.example/hero", character.CharacterURL)

	// 旧名字查不到了
	_, err = suite.characters.Update(suite.ctx, "player-1", "Hero", nil, strPtr("x"))
	suite.Error(err)
	suite.True(errors.IsNotFound(err))
}

// TestUpdate_RenameCollision 测试改名撞到已有角色
func (suite *CharacterServiceTestSuite) TestUpdate_RenameCollision() {
	suite.seedPlayer("player-1")

	_, err := suite.characters.Create(suite.ctx, "player-1", "Hero", "")
	suite.NoError(err)
	_, err = suite.characters.Create(suite.ctx, "player-1", "Rogue", "")
	suite.NoError(err)

	_, err = suite.characters.Update(suite.ctx, "player-1", "Hero", strPtr("Rogue"), nil)
	suite.Error(err)
	suite.True(errors.IsValidation(err))
}

// TestUpdate_SelfRename 测试改成自己原本的名字
func (suite *CharacterServiceTestSuite) TestUpdate_SelfRename() {
	suite.seedPlayer("player-1")

	_, err := suite.characters.Create(suite.ctx, "player-1", "Hero", "")
	suite.NoError(err)

	character, err := suite.characters.Update(suite.ctx, "player-1", "Hero", strPtr("Hero"), strPtr("https://new.example"))
	suite.NoError(err)
	suite.Equal("Hero", character.Name)
	suite.Equal("https://new.example", character.CharacterURL)
}

// TestUpdate_NoFields 测试没有提供任何修改字段
func (suite *CharacterServiceTestSuite) TestUpdate_NoFields() {
	_, err := suite.characters.Update(suite.ctx, "player-1", "Hero", nil, nil)
	suite.Error(err)
	suite.True(errors.IsValidation(err))
}

// TestUpdate_ClearURL 测试清空链接
func (suite *CharacterServiceTestSuite) TestUpdate_ClearURL() {
	suite.seedPlayer("player-1")

	_, err := suite.characters.Create(suite.ctx, "player-1", "Hero", "https://sheet.example/hero")
	suite.NoError(err)

	character, err := suite.characters.Update(suite.ctx, "player-1", "Hero", nil, strPtr(""))
	suite.NoError(err)
	suite.Empty(character.CharacterURL)
}

// TestRemove_Absent 测试删除不存在的角色卡
func (suite *CharacterServiceTestSuite) TestRemove_Absent() {
	removed, err := suite.characters.Remove(suite.ctx, "player-1", "Nope")
	suite.NoError(err)
	suite.False(removed)
}

// TestList_Empty 测试空列表
func (suite *CharacterServiceTestSuite) TestList_Empty() {
	characters, err := suite.characters.List(suite.ctx, "player-1")
	suite.NoError(err)
	suite.Empty(characters)
}

func TestCharacterServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CharacterServiceTestSuite))
}
