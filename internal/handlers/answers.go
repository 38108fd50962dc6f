package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/engine"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/models"
)

type AnswerHandler struct {
	db     *gorm.DB
	engine *engine.Engine
}

func NewAnswerHandler(db *gorm.DB, eng *engine.Engine) *AnswerHandler {
	return &AnswerHandler{db: db, engine: eng}
}

// GetAnswers returns all answers for a question, accepted and best first
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID := c.Param("id")

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var answers []models.Answer
	if err := h.db.Where("question_id = ?", questionID).Preload("Author").
		Order("is_accepted desc, vote_score desc, created_at asc").
		Find(&answers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	if answers == nil {
		answers = []models.Answer{}
	}

	c.JSON(http.StatusOK, answers)
}

// CreateAnswer posts an answer under a question (PROTECTED)
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	questionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question ID"})
		return
	}

	var input struct {
		Content string `json:"content" binding:"required,min=20"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.engine.CreateAnswer(c.Request.Context(), authorID, questionID, input.Content)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, answer)
}

// DeleteAnswer deletes an answer and its votes and comments (PROTECTED)
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	actorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	answerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer ID"})
		return
	}

	if err := h.engine.DeleteAnswer(c.Request.Context(), actorID, answerID); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}

// AcceptAnswer accepts or unaccepts an answer (PROTECTED, question author
// only)
func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	actorID, ok := extractUserID(c)
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
		Accepted *bool `json:"accepted" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accepted field is required"})
		return
	}

	if *input.Accepted {
		err = h.engine.AcceptAnswer(c.Request.Context(), actorID, answerID)
	} else {
		err = h.engine.UnacceptAnswer(c.Request.Context(), actorID, answerID)
	}
	if err != nil {
		respondEngineError(c, err)
		return
	}

	message := "Answer accepted successfully"
	if !*input.Accepted {
		message = "Answer unaccepted successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "answer_id": answerID, "is_accepted": *input.Accepted})
}
