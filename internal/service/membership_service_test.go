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

// MembershipServiceTestSuite 成员服务测试套件
type MembershipServiceTestSuite struct {
	suite.Suite
	ctx           context.Context
	db            *gorm.DB
	membership    MembershipService
	campaigns     CampaignService
	characters    CharacterService
	playerRepo    repository.PlayerRepository
	characterRepo repository.CharacterRepository
	linkRepo      repository.LinkRepository
}

func (suite *MembershipServiceTestSuite) SetupSuite() {
	suite.ctx = context.Background()
}

func (suite *MembershipServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.NoError(err)

	err = db.AutoMigrate(
		&models.ServerConfig{},
		&models.Player{},
		&models.Character{},
		&models.Campaign{},
		&models.CampaignPlayerLink{},
		&models.CampaignAutosave{},
	)
	suite.NoError(err)
	suite.db = db

	log := zap.NewNop()
	suite.playerRepo = repository.NewPlayerRepository(db)
	suite.characterRepo = repository.NewCharacterRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	suite.linkRepo = repository.NewLinkRepository(db)
	autosaveRepo := repository.NewAutosaveRepository(db)

	suite.membership = NewMembershipService(db, suite.playerRepo, suite.characterRepo, campaignRepo, suite.linkRepo, autosaveRepo, log)
	suite.campaigns = NewCampaignService(db, campaignRepo, suite.playerRepo, suite.linkRepo, autosaveRepo, log)
	suite.characters = NewCharacterService(db, suite.playerRepo, suite.characterRepo, suite.linkRepo, log)
}

func (suite *MembershipServiceTestSuite) TearDownTest() {
	sqlDB, _ := suite.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

func (suite *MembershipServiceTestSuite) registerPlayer(userID string) {
	suite.NoError(suite.playerRepo.Upsert(suite.ctx, &models.Player{
		UserID:       userID,
		Username:     userID,
		PlayerStatus: models.PlayerStatusCmd,
	}))
}

func (suite *MembershipServiceTestSuite) createCampaign(name string) *models.Campaign {
	campaign, err := suite.campaigns.Create(suite.ctx, &CreateCampaignRequest{
		ServerID:     "guild-1",
		CampaignName: name,
		OwnerID:      "owner-1",
		State:        `{"scene":"start"}`,
	})
	suite.NoError(err)
	return campaign
}

// TestJoin_ImplicitRegistration 测试加入时隐式注册玩家
func (suite *MembershipServiceTestSuite) TestJoin_ImplicitRegistration() {
	suite.createCampaign("Quest")

	result, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		Username:      "alice",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)
	suite.Equal("Quest", result.Campaign.CampaignName)
	suite.Equal("Hero", result.Character.Name)

	player, err := suite.playerRepo.FindByID(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.True(player.IsJoined())
	suite.Equal("Quest", *player.LastActiveCampaign)
}

// TestJoin_CampaignNotFound 测试加入不存在的战役
func (suite *MembershipServiceTestSuite) TestJoin_CampaignNotFound() {
	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Nope",
		CharacterName: "Hero",
	})
	suite.Error(err)
	suite.True(errors.IsNotFound(err))
	suite.True(errors.Is(err, errors.ErrCampaignNotFound))
}

// TestJoin_NoTargetCampaign 测试没有指定也没有活跃战役
func (suite *MembershipServiceTestSuite) TestJoin_NoTargetCampaign() {
	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID: "guild-1",
		UserID:   "discord-1",
	})
	suite.Error(err)
	suite.True(errors.IsValidation(err))
	suite.True(errors.Is(err, errors.ErrNoActiveCampaign))
}

// TestJoin_FallbackToLastActive 测试回退到最近活跃战役
func (suite *MembershipServiceTestSuite) TestJoin_FallbackToLastActive() {
	suite.createCampaign("Quest")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)

	// 暂停后不带名字重新加入，应回到 Quest
	suite.NoError(suite.membership.End(suite.ctx, "guild-1", "discord-1", ""))

	result, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID: "guild-1",
		UserID:   "discord-1",
	})
	suite.NoError(err)
	suite.Equal("Quest", result.Campaign.CampaignName)
}

// TestJoin_AlreadyJoined 测试重复加入当前活跃战役
func (suite *MembershipServiceTestSuite) TestJoin_AlreadyJoined() {
	suite.createCampaign("Quest")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)

	_, err = suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:     "guild-1",
		UserID:       "discord-1",
		CampaignName: "Quest",
	})
	suite.Error(err)
	suite.True(errors.IsValidation(err))
	suite.True(errors.Is(err, errors.ErrAlreadyJoined))
}

// TestJoin_SwitchCampaign 测试在局中切换到另一个战役
func (suite *MembershipServiceTestSuite) TestJoin_SwitchCampaign() {
	suite.createCampaign("Quest")
	suite.createCampaign("Side")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)

	// 已在 Quest 局中，但切换到 Side 是允许的
	result, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:     "guild-1",
		UserID:       "discord-1",
		CampaignName: "Side",
	})
	suite.NoError(err)
	suite.Equal("Side", result.Campaign.CampaignName)

	player, err := suite.playerRepo.FindByID(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.Equal("Side", *player.LastActiveCampaign)

	// 两条成员关系都还在，但只有新战役是joined
	status, err := suite.membership.GetPlayerStatus(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.Len(status.Campaigns, 2)
	for _, membership := range status.Campaigns {
		if membership.CampaignName == "Side" {
			suite.Equal(models.PlayerStatusJoined, membership.Status)
		} else {
			suite.Equal(models.PlayerStatusCmd, membership.Status)
		}
	}

	var joined int64
	suite.NoError(suite.db.Model(&models.CampaignPlayerLink{}).
		Where("player_id = ? AND player_status = ?", "discord-1", models.PlayerStatusJoined).
		Count(&joined).Error)
	suite.Equal(int64(1), joined)
}

// TestJoin_CharacterAutoPick 测试唯一角色卡自动选用
func (suite *MembershipServiceTestSuite) TestJoin_CharacterAutoPick() {
	suite.createCampaign("Quest")
	suite.registerPlayer("discord-1")
	_, err := suite.characters.Create(suite.ctx, "discord-1", "Hero", "")
	suite.NoError(err)

	result, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:     "guild-1",
		UserID:       "discord-1",
		CampaignName: "Quest",
	})
	suite.NoError(err)
	suite.Equal("Hero", result.Character.Name)
}

// TestJoin_NoCharacter 测试没有角色卡时报错
func (suite *MembershipServiceTestSuite) TestJoin_NoCharacter() {
	suite.createCampaign("Quest")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:     "guild-1",
		UserID:       "discord-1",
		CampaignName: "Quest",
	})
	suite.Error(err)
	suite.True(errors.Is(err, errors.ErrNoCharacter))
}

// TestJoin_AmbiguousCharacter 测试多张角色卡必须指名
func (suite *MembershipServiceTestSuite) TestJoin_AmbiguousCharacter() {
	suite.createCampaign("Quest")
	suite.registerPlayer("discord-1")
	_, err := suite.characters.Create(suite.ctx, "discord-1", "Hero", "")
	suite.NoError(err)
	_, err = suite.characters.Create(suite.ctx, "discord-1", "Rogue", "")
	suite.NoError(err)

	_, err = suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:     "guild-1",
		UserID:       "discord-1",
		CampaignName: "Quest",
	})
	suite.Error(err)
	suite.True(errors.Is(err, errors.ErrAmbiguousCharacter))
}

// TestJoin_ExistingCharacterKeepsURL 测试已有角色卡不被请求URL覆盖
func (suite *MembershipServiceTestSuite) TestJoin_ExistingCharacterKeepsURL() {
	suite.createCampaign("Quest")
	suite.registerPlayer("discord-1")
	_, err := suite.characters.Create(suite.ctx, "discord-1", "Hero", "https://sheets.example.com/hero")
	suite.NoError(err)

	result, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
		CharacterURL:  "https://other.example.com/ignored",
	})
	suite.NoError(err)
	suite.Equal("https://sheets.example.com/hero", result.Character.CharacterURL)
}

// TestEnd_AutosaveOnPause 测试暂停时写自动存档
func (suite *MembershipServiceTestSuite) TestEnd_AutosaveOnPause() {
	campaign := suite.createCampaign("Quest")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)

	suite.NoError(suite.membership.End(suite.ctx, "guild-1", "discord-1", ""))

	var count int64
	suite.NoError(suite.db.Model(&models.CampaignAutosave{}).
		Where("campaign_id = ?", campaign.ID).Count(&count).Error)
	suite.Equal(int64(1), count)

	player, err := suite.playerRepo.FindByID(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.False(player.IsJoined())
	// 暂停保留活跃指针
	suite.Equal("Quest", *player.LastActiveCampaign)

	link, err := suite.linkRepo.FindByPair(suite.ctx, campaign.ID, "discord-1")
	suite.NoError(err)
	suite.Equal(models.PlayerStatusCmd, link.PlayerStatus)
}

// TestEnd_AlreadyPaused 测试重复暂停
func (suite *MembershipServiceTestSuite) TestEnd_AlreadyPaused() {
	suite.createCampaign("Quest")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)

	suite.NoError(suite.membership.End(suite.ctx, "guild-1", "discord-1", ""))

	err = suite.membership.End(suite.ctx, "guild-1", "discord-1", "")
	suite.Error(err)
	suite.True(errors.IsValidation(err))
	suite.True(errors.Is(err, errors.ErrAlreadyPaused))
}

// TestEnd_MissingLinkSilentSuccess 测试成员关系缺失时静默成功
func (suite *MembershipServiceTestSuite) TestEnd_MissingLinkSilentSuccess() {
	campaign := suite.createCampaign("Quest")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)

	// 直接抹掉成员关系，模拟数据异常
	_, err = suite.linkRepo.DeleteByPair(suite.ctx, campaign.ID, "discord-1")
	suite.NoError(err)

	suite.NoError(suite.membership.End(suite.ctx, "guild-1", "discord-1", ""))

	player, err := suite.playerRepo.FindByID(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.False(player.IsJoined())
}

// TestEnd_ExplicitCampaign 测试指名暂停某个战役
func (suite *MembershipServiceTestSuite) TestEnd_ExplicitCampaign() {
	campaign := suite.createCampaign("Quest")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)

	suite.NoError(suite.membership.End(suite.ctx, "guild-1", "discord-1", "Quest"))

	player, err := suite.playerRepo.FindByID(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.False(player.IsJoined())

	// 指名的战役也写了自动存档
	var count int64
	suite.NoError(suite.db.Model(&models.CampaignAutosave{}).
		Where("campaign_id = ?", campaign.ID).Count(&count).Error)
	suite.Equal(int64(1), count)

	// 指名不存在的战役报错
	_, err = suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:     "guild-1",
		UserID:       "discord-1",
		CampaignName: "Quest",
	})
	suite.NoError(err)
	err = suite.membership.End(suite.ctx, "guild-1", "discord-1", "Nope")
	suite.Error(err)
	suite.True(errors.Is(err, errors.ErrCampaignNotFound))
}

// TestLeave_DefaultsToActiveCampaign 测试名字缺省时退出最近活跃的战役
func (suite *MembershipServiceTestSuite) TestLeave_DefaultsToActiveCampaign() {
	campaign := suite.createCampaign("Quest")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)

	suite.NoError(suite.membership.Leave(suite.ctx, "guild-1", "discord-1", ""))

	player, err := suite.playerRepo.FindByID(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.Nil(player.LastActiveCampaign)
	suite.False(player.IsJoined())

	_, err = suite.linkRepo.FindByPair(suite.ctx, campaign.ID, "discord-1")
	suite.Error(err)
}

// TestLeave_NoTarget 测试名字缺省且没有活跃战役时报错
func (suite *MembershipServiceTestSuite) TestLeave_NoTarget() {
	err := suite.membership.Leave(suite.ctx, "guild-1", "discord-1", "")
	suite.Error(err)
	suite.True(errors.Is(err, errors.ErrNoActiveCampaign))
}

// TestLeave_Idempotent 测试退出的幂等性
func (suite *MembershipServiceTestSuite) TestLeave_Idempotent() {
	suite.createCampaign("Quest")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)

	suite.NoError(suite.membership.Leave(suite.ctx, "guild-1", "discord-1", "Quest"))
	// 再退一次也成功
	suite.NoError(suite.membership.Leave(suite.ctx, "guild-1", "discord-1", "Quest"))

	player, err := suite.playerRepo.FindByID(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.Nil(player.LastActiveCampaign)
	suite.False(player.IsJoined())
}

// TestLeave_CampaignNotFound 测试退出不存在的战役
func (suite *MembershipServiceTestSuite) TestLeave_CampaignNotFound() {
	err := suite.membership.Leave(suite.ctx, "guild-1", "discord-1", "Nope")
	suite.Error(err)
	suite.True(errors.IsNotFound(err))
}

// TestLeave_KeepsPointerToOtherCampaign 测试退出不影响指向其他战役的指针
func (suite *MembershipServiceTestSuite) TestLeave_KeepsPointerToOtherCampaign() {
	suite.createCampaign("Quest")
	suite.createCampaign("Side")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)
	_, err = suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:     "guild-1",
		UserID:       "discord-1",
		CampaignName: "Side",
	})
	suite.NoError(err)

	// 退出 Quest，活跃指针仍指向 Side
	suite.NoError(suite.membership.Leave(suite.ctx, "guild-1", "discord-1", "Quest"))

	player, err := suite.playerRepo.FindByID(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.Equal("Side", *player.LastActiveCampaign)
	suite.True(player.IsJoined())
}

// TestGetPlayerStatus 测试玩家状态汇总
func (suite *MembershipServiceTestSuite) TestGetPlayerStatus() {
	suite.createCampaign("Quest")
	suite.createCampaign("Side")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		Username:      "alice",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)
	_, err = suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:     "guild-1",
		UserID:       "discord-1",
		CampaignName: "Side",
	})
	suite.NoError(err)
	suite.NoError(suite.membership.End(suite.ctx, "guild-1", "discord-1", ""))

	status, err := suite.membership.GetPlayerStatus(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.Equal("alice", status.Username)
	suite.Len(status.Campaigns, 2)
	suite.Len(status.Characters, 1)

	byName := map[string]string{}
	for _, m := range status.Campaigns {
		byName[m.CampaignName] = m.Status
	}
	suite.Equal(models.PlayerStatusJoined, byName["Quest"])
	suite.Equal(models.PlayerStatusCmd, byName["Side"])
}

// TestGetPlayerStatus_NotFound 测试未注册玩家
func (suite *MembershipServiceTestSuite) TestGetPlayerStatus_NotFound() {
	_, err := suite.membership.GetPlayerStatus(suite.ctx, "ghost")
	suite.Error(err)
	suite.True(errors.IsNotFound(err))
	suite.True(errors.Is(err, errors.ErrPlayerNotFound))
}

// TestCharacterRemoval_DecouplesMembership 测试删角色卡不影响成员关系
func (suite *MembershipServiceTestSuite) TestCharacterRemoval_DecouplesMembership() {
	campaign := suite.createCampaign("Quest")

	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		CampaignName:  "Quest",
		CharacterName: "Hero",
	})
	suite.NoError(err)

	removed, err := suite.characters.Remove(suite.ctx, "discord-1", "Hero")
	suite.NoError(err)
	suite.True(removed)

	link, err := suite.linkRepo.FindByPair(suite.ctx, campaign.ID, "discord-1")
	suite.NoError(err)
	suite.Nil(link.CharacterID)
	suite.Equal(models.PlayerStatusJoined, link.PlayerStatus)

	// 不存在的角色卡返回 false 而不是错误
	removed, err = suite.characters.Remove(suite.ctx, "discord-1", "Hero")
	suite.NoError(err)
	suite.False(removed)
}

// TestScenario_PauseSwitchResume 测试完整的暂停切换恢复剧本
func (suite *MembershipServiceTestSuite) TestScenario_PauseSwitchResume() {
	suite.createCampaign("Quest")
	suite.createCampaign("Side")

	// 第一次进 Quest
	_, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:      "guild-1",
		UserID:        "discord-1",
		Username:      "alice",
		CampaignName:  "Quest",
		CharacterName: "Hero",
		CharacterURL:  "https://sheets.example.com/hero",
	})
	suite.NoError(err)

	// 暂停 Quest
	suite.NoError(suite.membership.End(suite.ctx, "guild-1", "discord-1", ""))

	// 改玩 Side
	_, err = suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID:     "guild-1",
		UserID:       "discord-1",
		CampaignName: "Side",
	})
	suite.NoError(err)

	// 暂停 Side 再无参数加入，应回到 Side
	suite.NoError(suite.membership.End(suite.ctx, "guild-1", "discord-1", ""))
	result, err := suite.membership.Join(suite.ctx, &JoinRequest{
		ServerID: "guild-1",
		UserID:   "discord-1",
	})
	suite.NoError(err)
	suite.Equal("Side", result.Campaign.CampaignName)

	// Quest 的成员关系还保留着
	status, err := suite.membership.GetPlayerStatus(suite.ctx, "discord-1")
	suite.NoError(err)
	suite.Len(status.Campaigns, 2)
}

func TestMembershipServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MembershipServiceTestSuite))
}
