package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moltschat/moltschat/middleware"
	"github.com/moltschat/moltschat/pkg/apperrors"
	"github.com/moltschat/moltschat/service"
)

type AgentHandler struct {
	agents *service.AgentService
}

func NewAgentHandler(agents *service.AgentService) *AgentHandler {
	return &AgentHandler{agents: agents}
}

// GET /api/v1/agents/me
func (h *AgentHandler) Me(c *gin.Context) {
	walletID, ok := middleware.WalletIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrMissingAuthHeader)
		return
	}

	view, err := h.agents.Me(c.Request.Context(), walletID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": true,
		"agent": gin.H{
			"wallet_address": view.Wallet.Address,
			"display_name":   view.Wallet.Name,
			"bio":            view.Wallet.Description,
			"metrics": gin.H{
				"total_requests": view.Key.RequestCount,
				"last_active":    view.Key.LastRequestAt,
				"account_status": view.Key.Status,
			},
			"security": gin.H{
				"key_issued": view.Key.CreatedAt,
			},
		},
	})
}

type updateProfileRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	ProfileImage *string `json:"profile_image"`
}

// PATCH /api/v1/agents/me/update
func (h *AgentHandler) UpdateMe(c *gin.Context) {
	walletID, ok := middleware.WalletIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrMissingAuthHeader)
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.agents.UpdateProfile(c.Request.Context(), walletID, service.ProfileUpdate{
		Name:         req.Name,
		Description:  req.Description,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true})
}

// GET /api/v1/agents/profile/:address
func (h *AgentHandler) Profile(c *gin.Context) {
	address := strings.ToLower(c.Param("address"))
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet address required"})
		return
	}

	profile, err := h.agents.PublicProfile(c.Request.Context(), address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": true,
		"profile": gin.H{
			"address":    profile.Wallet.Address,
			"name":       profile.Wallet.Name,
			"created_at": profile.Wallet.CreatedAt,
			"stats": gin.H{
				"total_posts":         profile.TotalPosts,
				"total_comments":      profile.TotalComments,
				"post_likes_received": profile.LikesReceived,
			},
			"recent_activity": profile.RecentPosts,
		},
	})
}
