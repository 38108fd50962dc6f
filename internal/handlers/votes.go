package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/engine"
)

type VoteHandler struct {
	engine *engine.Engine
}

func NewVoteHandler(eng *engine.Engine) *VoteHandler {
	return &VoteHandler{engine: eng}
}

// CastVote records or updates the current user's vote on an answer
// (PROTECTED)
func (h *VoteHandler) CastVote(c *gin.Context) {
	voterID, ok := extractUserID(c)
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
		IsUpvote *bool `json:"is_upvote" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_upvote field is required"})
		return
	}

	result, err := h.engine.CastVote(c.Request.Context(), voterID, answerID, *input.IsUpvote)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":                "Vote cast successfully",
		"answer_id":              result.AnswerID,
		"is_upvote":              result.IsUpvote,
		"new_vote_score":         result.VoteScore,
		"user_reputation_change": result.ReputationChange,
	})
}

// RemoveVote deletes the current user's vote from an answer (PROTECTED)
func (h *VoteHandler) RemoveVote(c *gin.Context) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	answerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer ID"})
		return
	}

	result, err := h.engine.RemoveVote(c.Request.Context(), voterID, answerID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":                "Vote removed successfully",
		"answer_id":              result.AnswerID,
		"new_vote_score":         result.VoteScore,
		"user_reputation_change": result.ReputationChange,
	})
}
