package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"lennonwall/backend/internal/engagement"
	"lennonwall/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type createMessageRequest struct {
	Content    string `json:"content" binding:"required"`
	AuthorName string `json:"authorName"`
	Location   string `json:"location"`
}

type likeRequest struct {
	IdentityToken string `json:"identityToken" binding:"max=256"`
}

type reportRequest struct {
	Reason        string `json:"reason" binding:"required,oneof=spam inappropriate harassment other"`
	Details       string `json:"details" binding:"max=500"`
	IdentityToken string `json:"identityToken" binding:"max=256"`
}

// ListMessages returns a page of visible messages, newest first.
// Unparseable limit and offset values fall back to the defaults.
func (h *Handler) ListMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	c.JSON(http.StatusOK, h.Feed.Page(limit, offset))
}

func (h *Handler) CreateMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.Store.Create(engagement.NewMessage{
		Content:    req.Content,
		AuthorName: req.AuthorName,
		Location:   req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetMessage returns a single visible message. Hidden messages are reported
// as missing.
func (h *Handler) GetMessage(c *gin.Context) {
	msg, ok := h.Store.Get(c.Param("id"))
	if !ok || msg.Hidden {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *Handler) GetLikeStatus(c *gin.Context) {
	token := h.identity(c, c.Query("identityToken"))
	c.JSON(http.StatusOK, gin.H{"liked": h.Store.HasLiked(c.Param("id"), token)})
}

func (h *Handler) ToggleLike(c *gin.Context) {
	var req likeRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.Store.ToggleLike(c.Param("id"), h.identity(c, req.IdentityToken))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RecordView always succeeds for unknown ids so stale clients are not
// punished for racing a deletion.
func (h *Handler) RecordView(c *gin.Context) {
	if err := h.Store.IncrementView(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ReportMessage(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := h.Store.Report(
		c.Param("id"),
		models.ReportReason(req.Reason),
		h.identity(c, req.IdentityToken),
		req.Details,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// bindOptionalJSON binds the body if there is one.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
