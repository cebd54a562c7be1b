package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-bot/internal/service"
	"github.com/wfunc/campaign-bot/internal/transcript"
)

// CampaignHandler 战役处理器
type CampaignHandler struct {
	campaigns  service.CampaignService
	transcript *transcript.Logger
}

// NewCampaignHandler 创建战役处理器
func NewCampaignHandler(campaigns service.CampaignService, transcriptLogger *transcript.Logger) *CampaignHandler {
	return &CampaignHandler{
		campaigns:  campaigns,
		transcript: transcriptLogger,
	}
}

// Create 创建战役
// @Summary 创建战役
// @Tags Campaign
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req service.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	campaign, err := h.campaigns.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

// List 列出服务器战役
// @Summary 列出服务器下的战役
// @Tags Campaign
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	serverID := c.Query("server_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	campaigns, pagination, err := h.campaigns.List(c.Request.Context(), serverID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"campaigns":  campaigns,
		"pagination": pagination,
	})
}

// Get 查询战役
// @Summary 查询战役
// @Tags Campaign
// @Router /api/v1/campaigns/{name} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, err := h.campaigns.Get(c.Request.Context(), c.Query("server_id"), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// Delete 删除战役
// @Summary 删除战役及其全部数据
// @Tags Campaign
// @Router /api/v1/campaigns/{name} [delete]
func (h *CampaignHandler) Delete(c *gin.Context) {
	req := service.DeleteCampaignRequest{
		ServerID:     c.Query("server_id"),
		CampaignName: c.Param("name"),
		RequesterID:  c.Query("requester_id"),
	}
	// 管理员身份来自令牌，不信任请求参数
	req.IsAdmin = isAdminRequest(c)

	if err := h.campaigns.Delete(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "战役已删除"})
}

// SaveRequest 存档请求
type SaveRequest struct {
	ServerID string `json:"server_id" binding:"required"`
	State    string `json:"state" binding:"required"`
}

// Save 显式存档
// @Summary 保存战役状态
// @Tags Campaign
// @Router /api/v1/campaigns/{name}/save [post]
func (h *CampaignHandler) Save(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.campaigns.Save(c.Request.Context(), req.ServerID, c.Param("name"), req.State); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "存档成功"})
}

// Autosave 自动存档
// @Summary 追加自动存档
// @Tags Campaign
// @Router /api/v1/campaigns/{name}/autosave [post]
func (h *CampaignHandler) Autosave(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.campaigns.Autosave(c.Request.Context(), req.ServerID, c.Param("name"), req.State); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "自动存档成功"})
}

// Continue 决定继续游戏时加载的存档
// @Summary 继续游戏
// @Tags Campaign
// @Router /api/v1/campaigns/continue [get]
func (h *CampaignHandler) Continue(c *gin.Context) {
	info, err := h.campaigns.ResolveContinue(c.Request.Context(), c.Query("server_id"), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if info == nil {
		c.JSON(http.StatusOK, gin.H{"continue": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"continue": info})
}

// TranscriptRequest 会话记录请求
type TranscriptRequest struct {
	ServerID string `json:"server_id" binding:"required"`
	Author   string `json:"author" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

// AppendTranscript 追加一条会话记录
// @Summary 追加战役会话记录
// @Tags Campaign
// @Router /api/v1/campaigns/{name}/transcript [post]
func (h *CampaignHandler) AppendTranscript(c *gin.Context) {
	var req TranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	campaign, err := h.campaigns.Get(c.Request.Context(), req.ServerID, c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	// 记录是尽力而为的，此处不等待写盘
	h.transcript.Log(campaign.CampaignName, req.Author, req.Message)
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "已记录"})
}
