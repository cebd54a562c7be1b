package service

import (
	"context"
	stderrors "errors"

	"github.com/wfunc/campaign-bot/internal/errors"
	"github.com/wfunc/campaign-bot/internal/models"
	"github.com/wfunc/campaign-bot/internal/repository"
	"github.com/wfunc/campaign-bot/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// serverConfigService 服务器配置服务实现
type serverConfigService struct {
	repo      repository.ServerConfigRepository
	secretBox *utils.SecretBox
	log       *zap.Logger
}

// NewServerConfigService 创建服务器配置服务
func NewServerConfigService(
	repo repository.ServerConfigRepository,
	secretBox *utils.SecretBox,
	log *zap.Logger,
) ServerConfigService {
	return &serverConfigService{
		repo:      repo,
		secretBox: secretBox,
		log:       log,
	}
}

// Get 获取服务器配置，不存在时返回默认值
func (s *serverConfigService) Get(ctx context.Context, serverID string) (*models.ServerConfig, error) {
	config, err := s.repo.FindByID(ctx, serverID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return models.DefaultServerConfig(serverID), nil
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return config, nil
}

// Update 更新服务器配置，缺省字段保留原值
func (s *serverConfigService) Update(ctx context.Context, req *UpdateServerConfigRequest) (*models.ServerConfig, error) {
	config, err := s.Get(ctx, req.ServerID)
	if err != nil {
		return nil, err
	}

	if req.DMRollVisibility != "" {
		config.DMRollVisibility = req.DMRollVisibility
	}
	if req.PlayerRollMode != "" {
		config.PlayerRollMode = req.PlayerRollMode
	}
	if req.CharacterSheetMode != "" {
		config.CharacterSheetMode = req.CharacterSheetMode
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidParam)
	}

	if err := s.repo.Upsert(ctx, config); err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseUpdate)
	}

	s.log.Info("Server config updated", zap.String("serverID", req.ServerID))
	return config, nil
}

// SetAPIKey 封存并保存服务器的API密钥
func (s *serverConfigService) SetAPIKey(ctx context.Context, serverID, apiKey string) error {
	sealed, err := s.secretBox.Seal(apiKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrEncryption)
	}

	config, err := s.Get(ctx, serverID)
	if err != nil {
		return err
	}
	config.APIKey = sealed
	if err := s.repo.Upsert(ctx, config); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate)
	}
	if err := s.repo.UpdateAPIKey(ctx, serverID, sealed); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate)
	}

	s.log.Info("Server API key updated", zap.String("serverID", serverID))
	return nil
}

// GetAPIKey 取出并解封服务器的API密钥
func (s *serverConfigService) GetAPIKey(ctx context.Context, serverID string) (string, error) {
	config, err := s.repo.FindByID(ctx, serverID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.New(errors.ErrConfigMissing, serverID)
		}
		return "", errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	if config.APIKey == "" {
		return "", errors.New(errors.ErrConfigMissing, serverID)
	}

	apiKey, err := s.secretBox.Open(config.APIKey)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrDecryption)
	}
	return apiKey, nil
}
