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

// membershipService 战役成员服务实现
type membershipService struct {
	db            *gorm.DB
	playerRepo    repository.PlayerRepository
	characterRepo repository.CharacterRepository
	campaignRepo  repository.CampaignRepository
	linkRepo      repository.LinkRepository
	autosaveRepo  repository.AutosaveRepository
	log           *zap.Logger
}

// NewMembershipService 创建战役成员服务
func NewMembershipService(
	db *gorm.DB,
	playerRepo repository.PlayerRepository,
	characterRepo repository.CharacterRepository,
	campaignRepo repository.CampaignRepository,
	linkRepo repository.LinkRepository,
	autosaveRepo repository.AutosaveRepository,
	log *zap.Logger,
) MembershipService {
	return &membershipService{
		db:            db,
		playerRepo:    playerRepo,
		characterRepo: characterRepo,
		campaignRepo:  campaignRepo,
		linkRepo:      linkRepo,
		autosaveRepo:  autosaveRepo,
		log:           log,
	}
}

// Join 加入战役
//
// 玩家首次出现时隐式注册。目标战役取请求里的名字，缺省时回退到玩家的
// 最近活跃战役。整个流程在一个事务里完成，成员关系通过唯一键冲突更新
// 写入，重复加入不会产生第二条记录。
func (s *membershipService) Join(ctx context.Context, req *JoinRequest) (*JoinResult, error) {
	var result JoinResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		playerRepo := s.playerRepo.WithTx(tx)
		characterRepo := s.characterRepo.WithTx(tx)
		campaignRepo := s.campaignRepo.WithTx(tx)
		linkRepo := s.linkRepo.WithTx(tx)

		// 隐式注册玩家
		username := req.Username
		if username == "" {
			username = req.UserID
		}
		if err := playerRepo.Upsert(ctx, &models.Player{
			UserID:       req.UserID,
			Username:     username,
			PlayerStatus: models.PlayerStatusCmd,
		}); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseInsert)
		}

		player, err := playerRepo.FindByID(ctx, req.UserID)
		if err != nil {
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		// 确定目标战役：请求指定的名字优先，否则回退到最近活跃战役
		targetName := req.CampaignName
		if targetName == "" {
			if player.LastActiveCampaign == nil || *player.LastActiveCampaign == "" {
				return errors.New(errors.ErrNoActiveCampaign)
			}
			targetName = *player.LastActiveCampaign
		}

		campaign, err := campaignRepo.FindByServerAndName(ctx, req.ServerID, targetName)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.ErrCampaignNotFound, targetName)
			}
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		// 只有目标就是当前活跃战役且玩家已在局中时才算重复加入，
		// 切换到另一个战役是允许的
		if player.IsJoined() &&
			player.LastActiveCampaign != nil &&
			*player.LastActiveCampaign == campaign.CampaignName {
			return errors.New(errors.ErrAlreadyJoined)
		}

		character, err := s.resolveCharacter(ctx, characterRepo, req)
		if err != nil {
			return err
		}

		// 切换战役时先把同服务器其他战役的joined状态降回cmd，
		// 每个服务器同一时刻只有一场活跃战役
		if err := linkRepo.DemoteJoinedOnServer(ctx, req.UserID, req.ServerID, campaign.ID); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseUpdate)
		}

		link := &models.CampaignPlayerLink{
			CampaignID:   campaign.ID,
			PlayerID:     req.UserID,
			PlayerStatus: models.PlayerStatusJoined,
			JoinedAt:     time.Now(),
		}
		if character != nil {
			link.CharacterID = &character.ID
		}
		if err := linkRepo.Upsert(ctx, link); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseInsert)
		}

		if err := playerRepo.SetActive(ctx, req.UserID, campaign.CampaignName); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseUpdate)
		}

		result.Campaign = campaign
		result.Character = character
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Player joined campaign",
		zap.String("userID", req.UserID),
		zap.String("campaign", result.Campaign.CampaignName))
	return &result, nil
}

// resolveCharacter 解析本次加入使用的角色卡
//
// 指定了名字时按名字取或建；没指定时只有唯一一张角色卡才会自动选用。
func (s *membershipService) resolveCharacter(
	ctx context.Context,
	characterRepo repository.CharacterRepository,
	req *JoinRequest,
) (*models.Character, error) {
	if req.CharacterName != "" {
		character, err := characterRepo.FindByPlayerAndName(ctx, req.UserID, req.CharacterName)
		if err == nil {
			// 已有角色卡时忽略请求里的URL
			return character, nil
		}
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		character = &models.Character{
			PlayerID:     req.UserID,
			Name:         req.CharacterName,
			CharacterURL: req.CharacterURL,
		}
		if err := characterRepo.Create(ctx, character); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseInsert)
		}
		return character, nil
	}

	characters, err := characterRepo.ListByPlayer(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	switch len(characters) {
	case 0:
		return nil, errors.New(errors.ErrNoCharacter)
	case 1:
		return characters[0], nil
	default:
		return nil, errors.New(errors.ErrAmbiguousCharacter)
	}
}

// End 暂停战役
//
// 目标战役和加入时一样解析：指定的名字优先，缺省回退到最近活跃战役。
// 翻转状态前先把战役当前状态写进自动存档。成员关系缺失时仍然静默翻转
// 玩家状态，保证命令幂等可恢复。
func (s *membershipService) End(ctx context.Context, serverID, userID, campaignName string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		playerRepo := s.playerRepo.WithTx(tx)
		campaignRepo := s.campaignRepo.WithTx(tx)
		linkRepo := s.linkRepo.WithTx(tx)
		autosaveRepo := s.autosaveRepo.WithTx(tx)

		player, err := playerRepo.FindByID(ctx, userID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.ErrPlayerNotFound, userID)
			}
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		if !player.IsJoined() {
			return errors.New(errors.ErrAlreadyPaused)
		}

		targetName := campaignName
		if targetName == "" {
			if player.LastActiveCampaign == nil || *player.LastActiveCampaign == "" {
				return errors.New(errors.ErrNoActiveCampaign)
			}
			targetName = *player.LastActiveCampaign
		}

		campaign, err := campaignRepo.FindByServerAndName(ctx, serverID, targetName)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.ErrCampaignNotFound, targetName)
			}
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		_, err = linkRepo.FindByPair(ctx, campaign.ID, userID)
		switch {
		case err == nil:
			// 暂停即存档
			if err := autosaveRepo.Append(ctx, &models.CampaignAutosave{
				CampaignID:   campaign.ID,
				State:        campaign.State,
				AutosaveTime: time.Now(),
			}); err != nil {
				return errors.Wrap(err, errors.ErrDatabaseInsert)
			}
			if err := linkRepo.UpdateStatusByPair(ctx, campaign.ID, userID, models.PlayerStatusCmd); err != nil {
				return errors.Wrap(err, errors.ErrDatabaseUpdate)
			}
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			// 成员关系已不存在，静默翻转玩家状态即可
		default:
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		// 保留活跃指针，玩家之后还能继续这场战役
		return playerRepo.UpdateStatus(ctx, userID, models.PlayerStatusCmd)
	})
	if err != nil {
		return err
	}

	s.log.Info("Player paused campaign", zap.String("userID", userID))
	return nil
}

// Leave 退出战役
//
// 名字缺省时退出最近活跃的战役。幂等操作：不在战役里也算成功。
// 只有活跃指针指向被退出的战役时才清空它。
func (s *membershipService) Leave(ctx context.Context, serverID, userID, campaignName string) error {
	targetName := campaignName

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		playerRepo := s.playerRepo.WithTx(tx)
		campaignRepo := s.campaignRepo.WithTx(tx)
		linkRepo := s.linkRepo.WithTx(tx)

		player, playerErr := playerRepo.FindByID(ctx, userID)
		if playerErr != nil && !stderrors.Is(playerErr, gorm.ErrRecordNotFound) {
			return errors.Wrap(playerErr, errors.ErrDatabaseQuery)
		}

		if targetName == "" {
			if player == nil || player.LastActiveCampaign == nil || *player.LastActiveCampaign == "" {
				return errors.New(errors.ErrNoActiveCampaign)
			}
			targetName = *player.LastActiveCampaign
		}

		campaign, err := campaignRepo.FindByServerAndName(ctx, serverID, targetName)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.ErrCampaignNotFound, targetName)
			}
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		if _, err := linkRepo.DeleteByPair(ctx, campaign.ID, userID); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseDelete)
		}

		if player == nil {
			return nil
		}
		if player.LastActiveCampaign != nil && *player.LastActiveCampaign == targetName {
			if err := playerRepo.SetLastActiveCampaign(ctx, userID, nil); err != nil {
				return errors.Wrap(err, errors.ErrDatabaseUpdate)
			}
			if err := playerRepo.UpdateStatus(ctx, userID, models.PlayerStatusCmd); err != nil {
				return errors.Wrap(err, errors.ErrDatabaseUpdate)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Player left campaign",
		zap.String("userID", userID),
		zap.String("campaign", targetName))
	return nil
}

// GetPlayerStatus 获取玩家状态汇总
func (s *membershipService) GetPlayerStatus(ctx context.Context, userID string) (*PlayerStatusReport, error) {
	player, err := s.playerRepo.FindByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrPlayerNotFound, userID)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	links, err := s.linkRepo.ListByPlayer(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	characters, err := s.characterRepo.ListByPlayer(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	memberships := make([]*CampaignMembership, 0, len(links))
	for _, link := range links {
		memberships = append(memberships, &CampaignMembership{
			CampaignName: link.Campaign.CampaignName,
			Status:       link.PlayerStatus,
		})
	}

	return &PlayerStatusReport{
		UserID:             player.UserID,
		Username:           player.Username,
		PlayerStatus:       player.PlayerStatus,
		LastActiveCampaign: player.LastActiveCampaign,
		Campaigns:          memberships,
		Characters:         characters,
	}, nil
}
