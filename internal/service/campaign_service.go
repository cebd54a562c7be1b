package service

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/wfunc/campaign-bot/internal/errors"
	"github.com/wfunc/campaign-bot/internal/models"
	"github.com/wfunc/campaign-bot/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 继续游戏时的存档来源
const (
	ContinueSourceSave     = "save"
	ContinueSourceAutosave = "autosave"
)

// campaignService 战役服务实现
type campaignService struct {
	db           *gorm.DB
	campaignRepo repository.CampaignRepository
	playerRepo   repository.PlayerRepository
	linkRepo     repository.LinkRepository
	autosaveRepo repository.AutosaveRepository
	log          *zap.Logger
}

// NewCampaignService 创建战役服务
func NewCampaignService(
	db *gorm.DB,
	campaignRepo repository.CampaignRepository,
	playerRepo repository.PlayerRepository,
	linkRepo repository.LinkRepository,
	autosaveRepo repository.AutosaveRepository,
	log *zap.Logger,
) CampaignService {
	return &campaignService{
		db:           db,
		campaignRepo: campaignRepo,
		playerRepo:   playerRepo,
		linkRepo:     linkRepo,
		autosaveRepo: autosaveRepo,
		log:          log,
	}
}

// Create 创建战役，创建者同时被隐式注册为玩家
func (s *campaignService) Create(ctx context.Context, req *CreateCampaignRequest) (*models.Campaign, error) {
	var campaign *models.Campaign

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		playerRepo := s.playerRepo.WithTx(tx)
		campaignRepo := s.campaignRepo.WithTx(tx)

		ownerName := req.OwnerName
		if ownerName == "" {
			ownerName = req.OwnerID
		}
		if err := playerRepo.Upsert(ctx, &models.Player{
			UserID:       req.OwnerID,
			Username:     ownerName,
			PlayerStatus: models.PlayerStatusCmd,
		}); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseInsert)
		}

		if _, err := campaignRepo.FindByServerAndName(ctx, req.ServerID, req.CampaignName); err == nil {
			return errors.New(errors.ErrCampaignExists, req.CampaignName)
		} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		state := req.State
		if state == "" {
			state = "{}"
		}
		campaign = &models.Campaign{
			ServerID:     req.ServerID,
			CampaignName: req.CampaignName,
			OwnerID:      req.OwnerID,
			State:        state,
			LastSave:     time.Now(),
		}
		if err := campaignRepo.Create(ctx, campaign); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseInsert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Campaign created",
		zap.String("serverID", req.ServerID),
		zap.String("campaign", req.CampaignName),
		zap.String("ownerID", req.OwnerID))
	return campaign, nil
}

// Delete 删除战役及其全部附属数据
//
// 只有拥有者或管理员可以删除。自动存档、成员关系和战役本体在一个事务
// 里清掉，之后同名战役可以重建。
func (s *campaignService) Delete(ctx context.Context, req *DeleteCampaignRequest) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		campaignRepo := s.campaignRepo.WithTx(tx)
		linkRepo := s.linkRepo.WithTx(tx)
		autosaveRepo := s.autosaveRepo.WithTx(tx)

		campaign, err := campaignRepo.FindByServerAndName(ctx, req.ServerID, req.CampaignName)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.ErrCampaignNotFound, req.CampaignName)
			}
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		if campaign.OwnerID != req.RequesterID && !req.IsAdmin {
			return errors.New(errors.ErrNotCampaignOwner)
		}

		if err := autosaveRepo.DeleteByCampaign(ctx, campaign.ID); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseDelete)
		}
		if err := linkRepo.DeleteByCampaign(ctx, campaign.ID); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseDelete)
		}
		if err := campaignRepo.Delete(ctx, campaign.ID); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseDelete)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Campaign deleted",
		zap.String("serverID", req.ServerID),
		zap.String("campaign", req.CampaignName),
		zap.String("requesterID", req.RequesterID))
	return nil
}

// Get 查找战役
func (s *campaignService) Get(ctx context.Context, serverID, name string) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.FindByServerAndName(ctx, serverID, name)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrCampaignNotFound, name)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return campaign, nil
}

// List 列出服务器下的战役
func (s *campaignService) List(ctx context.Context, serverID string, page, pageSize int) ([]*models.Campaign, *repository.Pagination, error) {
	pagination := repository.NewPagination(page, pageSize)
	campaigns, err := s.campaignRepo.ListByServer(ctx, serverID, pagination)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return campaigns, pagination, nil
}

// Save 显式保存战役状态
func (s *campaignService) Save(ctx context.Context, serverID, name, state string) error {
	campaign, err := s.Get(ctx, serverID, name)
	if err != nil {
		return err
	}
	if err := s.campaignRepo.SaveState(ctx, campaign.ID, state, time.Now()); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate)
	}
	s.log.Info("Campaign saved", zap.String("campaign", name))
	return nil
}

// Autosave 追加一条自动存档，不触碰主存档
func (s *campaignService) Autosave(ctx context.Context, serverID, name, state string) error {
	campaign, err := s.Get(ctx, serverID, name)
	if err != nil {
		return err
	}
	if err := s.autosaveRepo.Append(ctx, &models.CampaignAutosave{
		CampaignID:   campaign.ID,
		State:        state,
		AutosaveTime: time.Now(),
	}); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert)
	}
	return nil
}

// ResolveContinue 决定继续游戏时加载哪份存档
//
// 没有活跃指针时返回 nil。自动存档只有严格比主存档新才会胜出，
// 同一时刻视为主存档。
func (s *campaignService) ResolveContinue(ctx context.Context, serverID, userID string) (*ContinueInfo, error) {
	player, err := s.playerRepo.FindByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrPlayerNotFound, userID)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	if player.LastActiveCampaign == nil || *player.LastActiveCampaign == "" {
		return nil, nil
	}

	campaign, err := s.campaignRepo.FindByServerAndName(ctx, serverID, *player.LastActiveCampaign)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrCampaignNotFound, *player.LastActiveCampaign)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	info := &ContinueInfo{
		Campaign: campaign,
		State:    campaign.State,
		Source:   ContinueSourceSave,
		SavedAt:  campaign.LastSave,
	}

	autosave, err := s.autosaveRepo.Latest(ctx, campaign.ID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return info, nil
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	if autosave.AutosaveTime.After(campaign.LastSave) {
		info.State = autosave.State
		info.Source = ContinueSourceAutosave
		info.SavedAt = autosave.AutosaveTime
	}
	return info, nil
}
