package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-bot/internal/service"
)

// CharacterHandler 角色卡处理器
type CharacterHandler struct {
	characters service.CharacterService
}

// NewCharacterHandler 创建角色卡处理器
func NewCharacterHandler(characters service.CharacterService) *CharacterHandler {
	return &CharacterHandler{characters: characters}
}

// CreateCharacterRequest 创建角色卡请求
type CreateCharacterRequest struct {
	PlayerID     string `json:"player_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	CharacterURL string `json:"character_url"`
}

// Create 创建角色卡
// @Summary 创建角色卡
// @Tags Character
// @Router /api/v1/characters [post]
func (h *CharacterHandler) Create(c *gin.Context) {
	var req CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	character, err := h.characters.Create(c.Request.Context(), req.PlayerID, req.Name, req.CharacterURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, character)
}

// UpdateCharacterRequest 更新角色卡请求
type UpdateCharacterRequest struct {
	PlayerID     string  `json:"player_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	NewName      *string `json:"new_name"`
	CharacterURL *string `json:"character_url"`
}

// Update 更新角色卡
// @Summary 更新角色卡
// @Tags Character
// @Router /api/v1/characters [put]
func (h *CharacterHandler) Update(c *gin.Context) {
	var req UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	character, err := h.characters.Update(c.Request.Context(), req.PlayerID, req.Name, req.NewName, req.CharacterURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}

// List 列出玩家的角色卡
// @Summary 列出玩家的角色卡
// @Tags Character
// @Router /api/v1/characters [get]
func (h *CharacterHandler) List(c *gin.Context) {
	characters, err := h.characters.List(c.Request.Context(), c.Query("player_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": characters})
}

// Remove 删除角色卡
// @Summary 删除角色卡
// @Tags Character
// @Router /api/v1/characters [delete]
func (h *CharacterHandler) Remove(c *gin.Context) {
	playerID := c.Query("player_id")
	name := c.Query("name")
	if playerID == "" || name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "缺少玩家ID或角色名",
		})
		return
	}

	removed, err := h.characters.Remove(c.Request.Context(), playerID, name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
