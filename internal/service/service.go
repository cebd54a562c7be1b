package service

import (
	"github.com/wfunc/campaign-bot/internal/repository"
	"github.com/wfunc/campaign-bot/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	// EncryptionKey 用于封存服务器API密钥，必须是32字节
	EncryptionKey []byte
}

// Services 服务集合
type Services struct {
	Campaign     CampaignService
	Membership   MembershipService
	Character    CharacterService
	ServerConfig ServerConfigService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, config *Config, log *zap.Logger) (*Services, error) {
	// 初始化仓储
	playerRepo := repository.NewPlayerRepository(db)
	characterRepo := repository.NewCharacterRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	autosaveRepo := repository.NewAutosaveRepository(db)
	serverConfigRepo := repository.NewServerConfigRepository(db)

	// 初始化密钥封存器
	secretBox, err := utils.NewSecretBox(config.EncryptionKey)
	if err != nil {
		return nil, err
	}

	campaignService := NewCampaignService(
		db,
		campaignRepo,
		playerRepo,
		linkRepo,
		autosaveRepo,
		log,
	)

	membershipService := NewMembershipService(
		db,
		playerRepo,
		characterRepo,
		campaignRepo,
		linkRepo,
		autosaveRepo,
		log,
	)

	characterService := NewCharacterService(
		db,
		playerRepo,
		characterRepo,
		linkRepo,
		log,
	)

	serverConfigService := NewServerConfigService(
		serverConfigRepo,
		secretBox,
		log,
	)

	return &Services{
		Campaign:     campaignService,
		Membership:   membershipService,
		Character:    characterService,
		ServerConfig: serverConfigService,
	}, nil
}
