package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/engine"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/notify"
)

// Handler combines all handler types
type Handler struct {
	Auth         *AuthHandler
	Question     *QuestionHandler
	Answer       *AnswerHandler
	Comment      *CommentHandler
	Vote         *VoteHandler
	Tag          *TagHandler
	User         *UserHandler
	Notification *NotificationHandler
}

// NewHandler creates a unified handler with all sub-handlers sharing one
// engine instance
func NewHandler(db *gorm.DB) *Handler {
	eng := engine.New(db, notify.NewDBSink(db))

	return &Handler{
		Auth:         NewAuthHandler(db),
		Question:     NewQuestionHandler(db, eng),
		Answer:       NewAnswerHandler(db, eng),
		Comment:      NewCommentHandler(db, eng),
		Vote:         NewVoteHandler(eng),
		Tag:          NewTagHandler(db),
		User:         NewUserHandler(db),
		Notification: NewNotificationHandler(db),
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// respondEngineError translates the engine error taxonomy into HTTP
// statuses. Self-votes come back as 400 to match the API contract clients
// already rely on.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrSelfVote):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot vote on your own answer"})
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, engine.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily unavailable, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
