package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-bot/internal/service"
)

// MembershipHandler 战役成员处理器
type MembershipHandler struct {
	membership service.MembershipService
}

// NewMembershipHandler 创建成员处理器
func NewMembershipHandler(membership service.MembershipService) *MembershipHandler {
	return &MembershipHandler{membership: membership}
}

// Join 加入战役
// @Summary 加入战役
// @Tags Membership
// @Router /api/v1/campaigns/join [post]
func (h *MembershipHandler) Join(c *gin.Context) {
	var req service.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.membership.Join(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MembershipRequest 暂停或退出请求
type MembershipRequest struct {
	ServerID     string `json:"server_id" binding:"required"`
	UserID       string `json:"user_id" binding:"required"`
	CampaignName string `json:"campaign_name"`
}

// End 暂停当前战役
// @Summary 暂停当前战役
// @Tags Membership
// @Router /api/v1/campaigns/end [post]
func (h *MembershipHandler) End(c *gin.Context) {
	var req MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.membership.End(c.Request.Context(), req.ServerID, req.UserID, req.CampaignName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "战役已暂停"})
}

// Leave 退出战役
// @Summary 退出战役
// @Tags Membership
// @Router /api/v1/campaigns/leave [post]
func (h *MembershipHandler) Leave(c *gin.Context) {
	var req MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	// 名字缺省时服务层回退到最近活跃的战役
	if err := h.membership.Leave(c.Request.Context(), req.ServerID, req.UserID, req.CampaignName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "已退出战役"})
}

// PlayerStatus 玩家状态汇总
// @Summary 玩家状态汇总
// @Tags Membership
// @Router /api/v1/players/{id}/status [get]
func (h *MembershipHandler) PlayerStatus(c *gin.Context) {
	status, err := h.membership.GetPlayerStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
