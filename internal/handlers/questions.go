package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/engine"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/models"
)

type QuestionHandler struct {
	db     *gorm.DB
	engine *engine.Engine
}

func NewQuestionHandler(db *gorm.DB, eng *engine.Engine) *QuestionHandler {
	return &QuestionHandler{db: db, engine: eng}
}

func (h *QuestionHandler) questionTags(questionID int) []models.Tag {
	var links []models.QuestionTag
	h.db.Where("question_id = ?", questionID).Preload("Tag").Find(&links)

	tags := []models.Tag{}
	for _, link := range links {
		tags = append(tags, link.Tag)
	}
	return tags
}

func questionResponse(question *models.Question, tags []models.Tag) gin.H {
	return gin.H{
		"id":                  question.ID,
		"title":               question.Title,
		"description":         question.Description,
		"author_id":           question.AuthorID,
		"author":              question.Author,
		"view_count":          question.ViewCount,
		"vote_score":          question.VoteScore,
		"answer_count":        question.AnswerCount,
		"is_closed":           question.IsClosed,
		"has_accepted_answer": question.HasAcceptedAnswer,
		"accepted_answer_id":  question.AcceptedAnswerID,
		"tags":                tags,
		"created_at":          question.CreatedAt,
		"updated_at":          question.UpdatedAt,
	}
}

// GetQuestions returns questions, newest first, with basic pagination
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if perPage < 1 || perPage > 50 {
		perPage = 10
	}

	var total int64
	h.db.Model(&models.Question{}).Count(&total)

	var questions []models.Question
	if err := h.db.Preload("Author").Order("created_at desc").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	responses := []gin.H{}
	for i := range questions {
		responses = append(responses, questionResponse(&questions[i], h.questionTags(questions[i].ID)))
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": responses,
		"total":     total,
		"page":      page,
		"per_page":  perPage,
		"has_next":  int64(page*perPage) < total,
		"has_prev":  page > 1,
	})
}

// GetQuestion returns a single question and bumps its view count
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID := c.Param("id")

	var question models.Question
	if err := h.db.Preload("Author").First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	// View counting is best effort, not part of the scoring core
	h.db.Model(&question).UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	question.ViewCount++

	c.JSON(http.StatusOK, questionResponse(&question, h.questionTags(question.ID)))
}

// CreateQuestion creates a question with tags (PROTECTED)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title       string   `json:"title" binding:"required,min=10,max=200"`
		Description string   `json:"description" binding:"required,min=20"`
		TagNames    []string `json:"tag_names" binding:"required,min=1,max=5"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.engine.CreateQuestion(c.Request.Context(), authorID, input.Title, input.Description, input.TagNames)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, questionResponse(question, h.questionTags(question.ID)))
}

// UpdateQuestion updates a question, including its tag set (PROTECTED)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	actorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	questionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question ID"})
		return
	}

	var input models.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.engine.UpdateQuestion(c.Request.Context(), actorID, questionID, input)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, questionResponse(question, h.questionTags(question.ID)))
}

// DeleteQuestion deletes a question and everything under it (PROTECTED)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	actorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	questionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question ID"})
		return
	}

	if err := h.engine.DeleteQuestion(c.Request.Context(), actorID, questionID); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}
