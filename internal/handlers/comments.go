package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/engine"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/models"
)

type CommentHandler struct {
	db     *gorm.DB
	engine *engine.Engine
}

func NewCommentHandler(db *gorm.DB, eng *engine.Engine) *CommentHandler {
	return &CommentHandler{db: db, engine: eng}
}

// GetComments returns all comments for an answer
func (h *CommentHandler) GetComments(c *gin.Context) {
	answerID := c.Param("id")

	var answer models.Answer
	if err := h.db.First(&answer, answerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	var comments []models.Comment
	if err := h.db.Where("answer_id = ?", answerID).Preload("Author").
		Order("created_at asc").Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}

	c.JSON(http.StatusOK, comments)
}

// CreateComment creates a new comment on an answer (PROTECTED)
func (h *CommentHandler) CreateComment(c *gin.Context) {
	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	answerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer ID"})
		return
	}

	var input struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.engine.CreateComment(c.Request.Context(), authorID, answerID, input.Content)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// DeleteComment deletes a comment (owner or admin only, PROTECTED)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	actorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	commentID, err := strconv.Atoi(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	if err := h.engine.DeleteComment(c.Request.Context(), actorID, commentID); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
