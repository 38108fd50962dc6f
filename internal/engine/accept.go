package engine

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/models"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/notify"
)

// AcceptAnswer marks answerID as the accepted answer of its question. Only
// the question author (or an admin) may accept, and not on a closed
// question. If a different answer was accepted before, it is demoted in the
// same transaction: its flag cleared and its author's reputation reduced by
// 15 before the new answer gains the flag and its author gains 15.
// Accepting the already-accepted answer is a no-op.
func (e *Engine) AcceptAnswer(ctx context.Context, actorID, answerID int) error {
	var events []notify.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answer, err := lockAnswer(tx, answerID)
		if err != nil {
			return err
		}
		question, err := lockQuestion(tx, answer.QuestionID)
		if err != nil {
			return err
		}

		actor, err := loadActor(tx, actorID)
		if err != nil {
			return ErrForbidden
		}
		if !canModerate(actor, question.AuthorID) {
			return fmt.Errorf("%w: only the question author can accept answers", ErrForbidden)
		}
		if question.IsClosed {
			return fmt.Errorf("%w: cannot accept answers for a closed question", ErrConflict)
		}

		if answer.IsAccepted && question.AcceptedAnswerID != nil && *question.AcceptedAnswerID == answer.ID {
			return nil // already accepted
		}

		// Demote the previously accepted answer first.
		if question.HasAcceptedAnswer && question.AcceptedAnswerID != nil && *question.AcceptedAnswerID != answer.ID {
			previous, err := lockAnswer(tx, *question.AcceptedAnswerID)
			if err == nil {
				if err := demoteAnswer(tx, previous); err != nil {
					return err
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		// With the previous holder demoted, no other answer under this
		// question may still carry the flag.
		var accepted int64
		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND is_accepted = ? AND id <> ?", question.ID, true, answer.ID).
			Count(&accepted).Error; err != nil {
			return err
		}
		if accepted > 0 {
			return fmt.Errorf("%w: question %d has %d other accepted answers", ErrConsistency, question.ID, accepted)
		}

		answer.IsAccepted = true
		if err := tx.Model(answer).Update("is_accepted", true).Error; err != nil {
			return err
		}
		if err := tx.Model(question).Updates(map[string]interface{}{
			"has_accepted_answer": true,
			"accepted_answer_id":  answer.ID,
		}).Error; err != nil {
			return err
		}

		author, err := lockUser(tx, answer.AuthorID)
		if err != nil {
			return err
		}
		if err := applyReputation(tx, author, repAccepted); err != nil {
			return err
		}

		events = append(events, acceptedEvent(actorID, answer))
		return nil
	})
	if err != nil {
		return translate(err)
	}

	e.publish(events)
	return nil
}

// UnacceptAnswer reverses an acceptance: flags cleared, accepted_answer_id
// set back to null, and the former author's reputation reduced by 15.
// Unaccepting an answer that is not the accepted one is a Conflict.
func (e *Engine) UnacceptAnswer(ctx context.Context, actorID, answerID int) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answer, err := lockAnswer(tx, answerID)
		if err != nil {
			return err
		}
		question, err := lockQuestion(tx, answer.QuestionID)
		if err != nil {
			return err
		}

		actor, err := loadActor(tx, actorID)
		if err != nil {
			return ErrForbidden
		}
		if !canModerate(actor, question.AuthorID) {
			return fmt.Errorf("%w: only the question author can unaccept answers", ErrForbidden)
		}

		if !answer.IsAccepted || question.AcceptedAnswerID == nil || *question.AcceptedAnswerID != answer.ID {
			return fmt.Errorf("%w: answer is not the accepted answer", ErrConflict)
		}

		if err := demoteAnswer(tx, answer); err != nil {
			return err
		}
		return tx.Model(question).Updates(map[string]interface{}{
			"has_accepted_answer": false,
			"accepted_answer_id":  nil,
		}).Error
	})
	return translate(err)
}

// demoteAnswer clears a locked answer's accepted flag and charges its
// author the acceptance reputation back.
func demoteAnswer(tx *gorm.DB, answer *models.Answer) error {
	answer.IsAccepted = false
	if err := tx.Model(answer).Update("is_accepted", false).Error; err != nil {
		return err
	}
	author, err := lockUser(tx, answer.AuthorID)
	if err != nil {
		return err
	}
	return applyReputation(tx, author, -repAccepted)
}

func acceptedEvent(actorID int, answer *models.Answer) notify.Event {
	answerID := answer.ID
	questionID := answer.QuestionID
	return notify.Event{
		Type:        models.NotificationAnswerAccepted,
		RecipientID: answer.AuthorID,
		TriggeredBy: actorID,
		Title:       "Your answer was accepted",
		Message:     "The question author accepted your answer",
		QuestionID:  &questionID,
		AnswerID:    &answerID,
	}
}
