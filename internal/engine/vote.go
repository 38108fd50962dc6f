package engine

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/models"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/notify"
)

// Reputation deltas for the answer author. A direction change is worth the
// removal of the old vote plus the new vote.
const (
	repNewUpvote      = 10
	repNewDownvote    = -2
	repFlipToUpvote   = 20
	repFlipToDownvote = -20
	repRemoveUpvote   = -10
	repRemoveDownvote = 2
	repAccepted       = 15
)

// VoteResult reports the state after a vote operation.
type VoteResult struct {
	AnswerID         int  `json:"answer_id"`
	IsUpvote         bool `json:"is_upvote"`
	VoteScore        int  `json:"new_vote_score"`
	ReputationChange int  `json:"user_reputation_change"`
}

// CastVote records or updates voterID's vote on an answer. A repeated vote
// in the same direction is an idempotent no-op; an opposite vote flips the
// existing row in place. The vote row, the answer's score, the parent
// question's aggregate score and the author's reputation move together or
// not at all.
func (e *Engine) CastVote(ctx context.Context, voterID, answerID int, isUpvote bool) (*VoteResult, error) {
	var result VoteResult
	var events []notify.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answer, err := lockAnswer(tx, answerID)
		if err != nil {
			return err
		}
		if answer.AuthorID == voterID {
			return ErrSelfVote
		}

		question, err := lockQuestion(tx, answer.QuestionID)
		if err != nil {
			return err
		}
		author, err := lockUser(tx, answer.AuthorID)
		if err != nil {
			return err
		}

		var existing models.Vote
		err = forUpdate(tx).
			Where("user_id = ? AND answer_id = ?", voterID, answerID).
			First(&existing).Error

		var scoreDelta, repDelta int
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{UserID: voterID, AnswerID: answerID, IsUpvote: isUpvote}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if isUpvote {
				scoreDelta, repDelta = 1, repNewUpvote
			} else {
				scoreDelta, repDelta = -1, repNewDownvote
			}
			events = append(events, voteReceivedEvent(voterID, answer, isUpvote))
		case err != nil:
			return err
		case existing.IsUpvote == isUpvote:
			// Same direction again: leave everything as it is.
		default:
			existing.IsUpvote = isUpvote
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			if isUpvote {
				scoreDelta, repDelta = 2, repFlipToUpvote
			} else {
				scoreDelta, repDelta = -2, repFlipToDownvote
			}
		}

		if scoreDelta != 0 {
			if err := applyScoreDelta(tx, answer, question, scoreDelta); err != nil {
				return err
			}
			if err := applyReputation(tx, author, repDelta); err != nil {
				return err
			}
		}

		result = VoteResult{
			AnswerID:         answerID,
			IsUpvote:         isUpvote,
			VoteScore:        answer.VoteScore,
			ReputationChange: repDelta,
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	e.publish(events)
	return &result, nil
}

// RemoveVote deletes voterID's vote on an answer and reverses its score and
// reputation effects.
func (e *Engine) RemoveVote(ctx context.Context, voterID, answerID int) (*VoteResult, error) {
	var result VoteResult

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answer, err := lockAnswer(tx, answerID)
		if err != nil {
			return err
		}
		question, err := lockQuestion(tx, answer.QuestionID)
		if err != nil {
			return err
		}
		author, err := lockUser(tx, answer.AuthorID)
		if err != nil {
			return err
		}

		var vote models.Vote
		if err := forUpdate(tx).
			Where("user_id = ? AND answer_id = ?", voterID, answerID).
			First(&vote).Error; err != nil {
			return err
		}

		var scoreDelta, repDelta int
		if vote.IsUpvote {
			scoreDelta, repDelta = -1, repRemoveUpvote
		} else {
			scoreDelta, repDelta = 1, repRemoveDownvote
		}

		if err := tx.Delete(&vote).Error; err != nil {
			return err
		}
		if err := applyScoreDelta(tx, answer, question, scoreDelta); err != nil {
			return err
		}
		if err := applyReputation(tx, author, repDelta); err != nil {
			return err
		}

		result = VoteResult{
			AnswerID:         answerID,
			IsUpvote:         vote.IsUpvote,
			VoteScore:        answer.VoteScore,
			ReputationChange: repDelta,
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	return &result, nil
}

// applyScoreDelta moves the answer score and the parent question's
// aggregate score by the same amount. Both rows are already locked.
func applyScoreDelta(tx *gorm.DB, answer *models.Answer, question *models.Question, delta int) error {
	answer.VoteScore += delta
	if err := tx.Model(answer).Update("vote_score", answer.VoteScore).Error; err != nil {
		return err
	}
	question.VoteScore += delta
	return tx.Model(question).Update("vote_score", question.VoteScore).Error
}

func voteReceivedEvent(voterID int, answer *models.Answer, isUpvote bool) notify.Event {
	direction := "upvoted"
	if !isUpvote {
		direction = "downvoted"
	}
	answerID := answer.ID
	questionID := answer.QuestionID
	return notify.Event{
		Type:        models.NotificationVoteReceived,
		RecipientID: answer.AuthorID,
		TriggeredBy: voterID,
		Title:       "Your answer received a vote",
		Message:     fmt.Sprintf("Someone %s your answer", direction),
		QuestionID:  &questionID,
		AnswerID:    &answerID,
	}
}
