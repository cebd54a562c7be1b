package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-bot/internal/service"
)

// ServerConfigHandler 服务器配置处理器
type ServerConfigHandler struct {
	configs service.ServerConfigService
}

// NewServerConfigHandler 创建服务器配置处理器
func NewServerConfigHandler(configs service.ServerConfigService) *ServerConfigHandler {
	return &ServerConfigHandler{configs: configs}
}

// Get 获取服务器配置
// @Summary 获取服务器配置
// @Tags ServerConfig
// @Router /api/v1/servers/{id}/config [get]
func (h *ServerConfigHandler) Get(c *gin.Context) {
	config, err := h.configs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// Update 更新服务器配置
// @Summary 更新服务器配置
// @Tags ServerConfig
// @Router /api/v1/servers/{id}/config [put]
func (h *ServerConfigHandler) Update(c *gin.Context) {
	var req service.UpdateServerConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	req.ServerID = c.Param("id")

	config, err := h.configs.Update(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// APIKeyRequest API密钥请求
type APIKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// SetAPIKey 设置服务器的API密钥
// @Summary 设置服务器的API密钥
// @Tags ServerConfig
// @Router /api/v1/servers/{id}/config/api-key [put]
func (h *ServerConfigHandler) SetAPIKey(c *gin.Context) {
	var req APIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.configs.SetAPIKey(c.Request.Context(), c.Param("id"), req.APIKey); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "API密钥已更新"})
}
