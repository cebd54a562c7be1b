package service

import (
	"context"
	stderrors "errors"

	"github.com/wfunc/campaign-bot/internal/errors"
	"github.com/wfunc/campaign-bot/internal/models"
	"github.com/wfunc/campaign-bot/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// characterService 角色卡服务实现
type characterService struct {
	db            *gorm.DB
	playerRepo    repository.PlayerRepository
	characterRepo repository.CharacterRepository
	linkRepo      repository.LinkRepository
	log           *zap.Logger
}

// NewCharacterService 创建角色卡服务
func NewCharacterService(
	db *gorm.DB,
	playerRepo repository.PlayerRepository,
	characterRepo repository.CharacterRepository,
	linkRepo repository.LinkRepository,
	log *zap.Logger,
) CharacterService {
	return &characterService{
		db:            db,
		playerRepo:    playerRepo,
		characterRepo: characterRepo,
		linkRepo:      linkRepo,
		log:           log,
	}
}

// Create 创建角色卡
//
// 玩家必须已经注册过，注册只发生在加入战役的路径上。
func (s *characterService) Create(ctx context.Context, playerID, name, url string) (*models.Character, error) {
	var character *models.Character

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		playerRepo := s.playerRepo.WithTx(tx)
		characterRepo := s.characterRepo.WithTx(tx)

		if _, err := playerRepo.FindByID(ctx, playerID); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.ErrPlayerNotFound, playerID)
			}
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		if _, err := characterRepo.FindByPlayerAndName(ctx, playerID, name); err == nil {
			return errors.New(errors.ErrCharacterExists, name)
		} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		character = &models.Character{
			PlayerID:     playerID,
			Name:         name,
			CharacterURL: url,
		}
		if err := characterRepo.Create(ctx, character); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseInsert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Character created",
		zap.String("playerID", playerID),
		zap.String("name", name))
	return character, nil
}

// Update 更新角色卡的名字或链接
func (s *characterService) Update(ctx context.Context, playerID, name string, newName, newURL *string) (*models.Character, error) {
	if newName == nil && newURL == nil {
		return nil, errors.New(errors.ErrInvalidParam, "未提供任何修改字段")
	}

	var character *models.Character
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		characterRepo := s.characterRepo.WithTx(tx)

		found, err := characterRepo.FindByPlayerAndName(ctx, playerID, name)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.ErrCharacterNotFound, name)
			}
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		if newName != nil && *newName != found.Name {
			if _, err := characterRepo.FindByPlayerAndName(ctx, playerID, *newName); err == nil {
				return errors.New(errors.ErrCharacterExists, *newName)
			} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrap(err, errors.ErrDatabaseQuery)
			}
			found.Name = *newName
		}
		if newURL != nil {
			found.CharacterURL = *newURL
		}

		if err := characterRepo.Update(ctx, found); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseUpdate)
		}
		character = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Character updated",
		zap.String("playerID", playerID),
		zap.String("name", character.Name))
	return character, nil
}

// List 列出玩家的角色卡
func (s *characterService) List(ctx context.Context, playerID string) ([]*models.Character, error) {
	characters, err := s.characterRepo.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return characters, nil
}

// Remove 删除角色卡
//
// 不存在时返回 false 而不是错误。删除后引用它的成员关系被置空，
// 玩家在战役里的身份不受影响。
func (s *characterService) Remove(ctx context.Context, playerID, name string) (bool, error) {
	var removed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		characterRepo := s.characterRepo.WithTx(tx)
		linkRepo := s.linkRepo.WithTx(tx)

		character, err := characterRepo.FindByPlayerAndName(ctx, playerID, name)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return errors.Wrap(err, errors.ErrDatabaseQuery)
		}

		if err := linkRepo.ClearCharacter(ctx, character.ID); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseUpdate)
		}

		rows, err := characterRepo.DeleteByPlayerAndName(ctx, playerID, name)
		if err != nil {
			return errors.Wrap(err, errors.ErrDatabaseDelete)
		}
		removed = rows > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	if removed {
		s.log.Info("Character removed",
			zap.String("playerID", playerID),
			zap.String("name", name))
	}
	return removed, nil
}
