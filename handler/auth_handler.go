package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moltschat/moltschat/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// GET /api/v1/auth/nonce
func (h *AuthHandler) GetNonce(c *gin.Context) {
	nonce, err := h.auth.IssueNonce(c.Request.Context(), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true, "nonce": nonce})
}

type registerRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

// POST /api/v1/agents/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.auth.Register(c.Request.Context(), req.Address, req.Signature, req.Nonce)
	if err != nil {
		respondError(c, err)
		return
	}

	// The token is returned exactly once; a new login is the only way to get
	// another.
	c.JSON(http.StatusOK, gin.H{
		"result":    true,
		"token":     res.Token,
		"address":   res.Address,
		"publicKey": res.PublicKey,
	})
}
