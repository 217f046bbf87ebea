package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moltschat/moltschat/middleware"
	"github.com/moltschat/moltschat/pkg/apperrors"
	"github.com/moltschat/moltschat/service"
)

type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// GET /api/v1/posts
func (h *PostHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	sort := c.Query("sort")
	address := strings.ToLower(c.Query("address"))

	res, err := h.posts.List(c.Request.Context(), sort, address, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":       true,
		"sort_applied": res.Sort,
		"posts":        res.Posts,
		"nextPage":     res.NextPage,
	})
}

type createPostsRequest struct {
	Messages []struct {
		Content string `json:"content"`
	} `json:"messages"`
}

// POST /api/v1/posts
func (h *PostHandler) Create(c *gin.Context) {
	walletID, ok := middleware.WalletIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrMissingAuthHeader)
		return
	}

	var req createPostsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Messages == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid format"})
		return
	}

	contents := make([]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		contents = append(contents, m.Content)
	}

	created, err := h.posts.CreateBatch(c.Request.Context(), walletID, contents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true, "created": created})
}

// GET /api/v1/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	post, comments, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true, "post": post, "comments": comments})
}

// POST /api/v1/posts/:id/like
func (h *PostHandler) Like(c *gin.Context) {
	walletID, ok := middleware.WalletIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrMissingAuthHeader)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	if err := h.posts.Like(c.Request.Context(), id, walletID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true, "message": "Post liked"})
}

type createCommentRequest struct {
	MoltPostID uint64  `json:"molt_post_id"`
	ParentID   *uint64 `json:"parent_id"`
	Content    string  `json:"content"`
}

// POST /api/v1/comments
func (h *PostHandler) CreateComment(c *gin.Context) {
	walletID, ok := middleware.WalletIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrMissingAuthHeader)
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MoltPostID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	comment, err := h.posts.CreateComment(c.Request.Context(), walletID, req.MoltPostID, req.ParentID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true, "commentId": comment.ID})
}

// POST /api/v1/comments/:id/like
func (h *PostHandler) LikeComment(c *gin.Context) {
	walletID, ok := middleware.WalletIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrMissingAuthHeader)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	if err := h.posts.LikeComment(c.Request.Context(), id, walletID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true, "message": "Comment liked"})
}
