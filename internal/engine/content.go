package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/models"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/notify"
)

// CreateAnswer posts an answer under an open question and moves the
// answer_count and answers_count counters with it.
func (e *Engine) CreateAnswer(ctx context.Context, authorID, questionID int, content string) (*models.Answer, error) {
	var answer models.Answer
	var events []notify.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		question, err := lockQuestion(tx, questionID)
		if err != nil {
			return err
		}
		if question.IsClosed {
			return fmt.Errorf("%w: cannot answer a closed question", ErrConflict)
		}
		author, err := lockUser(tx, authorID)
		if err != nil {
			return err
		}

		answer = models.Answer{
			Content:    content,
			QuestionID: questionID,
			AuthorID:   authorID,
		}
		if err := tx.Create(&answer).Error; err != nil {
			return err
		}

		question.AnswerCount++
		if err := tx.Model(question).Update("answer_count", question.AnswerCount).Error; err != nil {
			return err
		}
		author.AnswersCount++
		if err := tx.Model(author).Update("answers_count", author.AnswersCount).Error; err != nil {
			return err
		}

		answerID := answer.ID
		events = append(events, notify.Event{
			Type:        models.NotificationAnswerToQuestion,
			RecipientID: question.AuthorID,
			TriggeredBy: authorID,
			Title:       "New answer to your question",
			Message:     fmt.Sprintf("Your question %q received a new answer", question.Title),
			QuestionID:  &questionID,
			AnswerID:    &answerID,
		})
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	e.publish(events)
	e.db.WithContext(ctx).Preload("Author").First(&answer, answer.ID)
	return &answer, nil
}

// DeleteAnswer removes an answer with its votes and comments. If the answer
// was accepted, the acceptance is unwound first (flags cleared, reputation
// charged back) in the same transaction, and the answer's contribution to
// the question's aggregate score leaves with it.
func (e *Engine) DeleteAnswer(ctx context.Context, actorID, answerID int) error {
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
		if !canModerate(actor, answer.AuthorID) {
			return fmt.Errorf("%w: only the answer author can delete this answer", ErrForbidden)
		}

		if answer.IsAccepted {
			if err := demoteAnswer(tx, answer); err != nil {
				return err
			}
			if err := tx.Model(question).Updates(map[string]interface{}{
				"has_accepted_answer": false,
				"accepted_answer_id":  nil,
			}).Error; err != nil {
				return err
			}
		}

		question.AnswerCount = clampCount("question.answer_count", question.ID, question.AnswerCount-1)
		if err := tx.Model(question).Update("answer_count", question.AnswerCount).Error; err != nil {
			return err
		}
		if answer.VoteScore != 0 {
			question.VoteScore -= answer.VoteScore
			if err := tx.Model(question).Update("vote_score", question.VoteScore).Error; err != nil {
				return err
			}
		}

		author, err := lockUser(tx, answer.AuthorID)
		if err != nil {
			return err
		}
		author.AnswersCount = clampCount("user.answers_count", author.ID, author.AnswersCount-1)
		if err := tx.Model(author).Update("answers_count", author.AnswersCount).Error; err != nil {
			return err
		}

		// Votes on a deleted answer leave the ledger with it; the author's
		// reputation from those votes is not revisited.
		if err := tx.Where("answer_id = ?", answer.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("answer_id = ?", answer.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(answer).Error
	})
	return translate(err)
}

// CreateComment adds a comment under an answer and bumps its comment_count.
func (e *Engine) CreateComment(ctx context.Context, authorID, answerID int, content string) (*models.Comment, error) {
	var comment models.Comment
	var events []notify.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answer, err := lockAnswer(tx, answerID)
		if err != nil {
			return err
		}

		comment = models.Comment{
			Content:  content,
			AnswerID: answerID,
			AuthorID: authorID,
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		answer.CommentCount++
		if err := tx.Model(answer).Update("comment_count", answer.CommentCount).Error; err != nil {
			return err
		}

		commentID := comment.ID
		questionID := answer.QuestionID
		events = append(events, notify.Event{
			Type:        models.NotificationCommentOnAnswer,
			RecipientID: answer.AuthorID,
			TriggeredBy: authorID,
			Title:       "New comment on your answer",
			Message:     "Someone commented on your answer",
			QuestionID:  &questionID,
			AnswerID:    &answerID,
			CommentID:   &commentID,
		})
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	e.publish(events)
	e.db.WithContext(ctx).Preload("Author").First(&comment, comment.ID)
	return &comment, nil
}

// DeleteComment removes a comment and decrements its answer's
// comment_count.
func (e *Engine) DeleteComment(ctx context.Context, actorID, commentID int) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return err
		}

		actor, err := loadActor(tx, actorID)
		if err != nil {
			return ErrForbidden
		}
		if !canModerate(actor, comment.AuthorID) {
			return fmt.Errorf("%w: only the comment author can delete this comment", ErrForbidden)
		}

		answer, err := lockAnswer(tx, comment.AnswerID)
		if err != nil {
			return err
		}
		answer.CommentCount = clampCount("answer.comment_count", answer.ID, answer.CommentCount-1)
		if err := tx.Model(answer).Update("comment_count", answer.CommentCount).Error; err != nil {
			return err
		}

		return tx.Delete(&comment).Error
	})
	return translate(err)
}

// CreateQuestion creates a question with its tag set. Tags are created on
// first use; every assignment increments the tag's usage_count.
func (e *Engine) CreateQuestion(ctx context.Context, authorID int, title, description string, tagNames []string) (*models.Question, error) {
	var question models.Question

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author, err := lockUser(tx, authorID)
		if err != nil {
			return err
		}

		question = models.Question{
			Title:       title,
			Description: description,
			AuthorID:    authorID,
		}
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		if err := assignTags(tx, question.ID, tagNames); err != nil {
			return err
		}

		author.QuestionsCount++
		return tx.Model(author).Update("questions_count", author.QuestionsCount).Error
	})
	if err != nil {
		return nil, translate(err)
	}

	e.publish(e.mentionEvents(ctx, authorID, description, question.ID))
	e.db.WithContext(ctx).Preload("Author").First(&question, question.ID)
	return &question, nil
}

// UpdateQuestion applies a partial update. When a new tag set is given, the
// old associations are removed with their usage_count decrements before the
// new set is assigned.
func (e *Engine) UpdateQuestion(ctx context.Context, actorID, questionID int, req models.UpdateQuestionRequest) (*models.Question, error) {
	var question *models.Question

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		question, err = lockQuestion(tx, questionID)
		if err != nil {
			return err
		}

		actor, err := loadActor(tx, actorID)
		if err != nil {
			return ErrForbidden
		}
		if !canModerate(actor, question.AuthorID) {
			return fmt.Errorf("%w: only the question author can edit this question", ErrForbidden)
		}

		if req.Title != nil {
			question.Title = *req.Title
		}
		if req.Description != nil {
			question.Description = *req.Description
		}
		if req.IsClosed != nil {
			question.IsClosed = *req.IsClosed
		}
		if err := tx.Save(question).Error; err != nil {
			return err
		}

		if req.TagNames != nil {
			if err := removeTags(tx, question.ID); err != nil {
				return err
			}
			if err := assignTags(tx, question.ID, *req.TagNames); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	e.db.WithContext(ctx).Preload("Author").First(question, question.ID)
	return question, nil
}

// DeleteQuestion removes a question with its answers, votes, comments and
// tag associations, unwinding every counter they held.
func (e *Engine) DeleteQuestion(ctx context.Context, actorID, questionID int) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		question, err := lockQuestion(tx, questionID)
		if err != nil {
			return err
		}

		actor, err := loadActor(tx, actorID)
		if err != nil {
			return ErrForbidden
		}
		if !canModerate(actor, question.AuthorID) {
			return fmt.Errorf("%w: only the question author can delete this question", ErrForbidden)
		}

		if err := removeTags(tx, question.ID); err != nil {
			return err
		}

		// Cascade the answers, keeping each author's answers_count honest.
		var answers []models.Answer
		if err := tx.Where("question_id = ?", question.ID).Find(&answers).Error; err != nil {
			return err
		}
		for _, answer := range answers {
			author, err := lockUser(tx, answer.AuthorID)
			if err != nil {
				return err
			}
			author.AnswersCount = clampCount("user.answers_count", author.ID, author.AnswersCount-1)
			if err := tx.Model(author).Update("answers_count", author.AnswersCount).Error; err != nil {
				return err
			}
			// An acceptance does not survive its question
			if answer.IsAccepted {
				if err := applyReputation(tx, author, -repAccepted); err != nil {
					return err
				}
			}
			if err := tx.Where("answer_id = ?", answer.ID).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("answer_id = ?", answer.ID).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}

		author, err := lockUser(tx, question.AuthorID)
		if err != nil {
			return err
		}
		author.QuestionsCount = clampCount("user.questions_count", author.ID, author.QuestionsCount-1)
		if err := tx.Model(author).Update("questions_count", author.QuestionsCount).Error; err != nil {
			return err
		}

		return tx.Delete(question).Error
	})
	return translate(err)
}

// assignTags resolves each name to a tag, creating missing ones, and links
// it to the question with a usage_count increment. Names are lowercased,
// trimmed and deduplicated.
func assignTags(tx *gorm.DB, questionID int, tagNames []string) error {
	seen := make(map[string]bool)
	for _, name := range tagNames {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		err := forUpdate(tx).Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{Name: name}
			if err := tx.SavePoint("create_tag").Error; err != nil {
				return err
			}
			if err := tx.Create(&tag).Error; err != nil {
				var pgErr *pgconn.PgError
				if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
					return err
				}
				// Lost the create race; lock the winner's row
				if err := tx.RollbackTo("create_tag").Error; err != nil {
					return err
				}
				if err := forUpdate(tx).Where("name = ?", name).First(&tag).Error; err != nil {
					return err
				}
			}
		} else if err != nil {
			return err
		}

		if err := tx.Create(&models.QuestionTag{QuestionID: questionID, TagID: tag.ID}).Error; err != nil {
			return err
		}
		tag.UsageCount++
		if err := tx.Model(&tag).Update("usage_count", tag.UsageCount).Error; err != nil {
			return err
		}
	}
	return nil
}

// removeTags deletes a question's tag associations, decrementing each tag's
// usage_count for every removed row so the aggregate stays equal to the
// number of live associations.
func removeTags(tx *gorm.DB, questionID int) error {
	var links []models.QuestionTag
	if err := tx.Where("question_id = ?", questionID).Find(&links).Error; err != nil {
		return err
	}
	for _, link := range links {
		var tag models.Tag
		if err := forUpdate(tx).First(&tag, link.TagID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		tag.UsageCount = clampCount("tag.usage_count", tag.ID, tag.UsageCount-1)
		if err := tx.Model(&tag).Update("usage_count", tag.UsageCount).Error; err != nil {
			return err
		}
	}
	return tx.Where("question_id = ?", questionID).Delete(&models.QuestionTag{}).Error
}

// mentionEvents builds mention notifications for @username tokens in
// content. Lookups run outside the core transaction; a missing username is
// simply skipped.
func (e *Engine) mentionEvents(ctx context.Context, authorID int, content string, questionID int) []notify.Event {
	var events []notify.Event
	for _, username := range notify.ExtractMentions(content) {
		var mentioned models.User
		if err := e.db.WithContext(ctx).Where("username = ?", username).First(&mentioned).Error; err != nil {
			continue
		}
		qid := questionID
		events = append(events, notify.Event{
			Type:        models.NotificationMention,
			RecipientID: mentioned.ID,
			TriggeredBy: authorID,
			Title:       "You were mentioned",
			Message:     "You were mentioned in a question",
			QuestionID:  &qid,
		})
	}
	return events
}
