package engine_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/engine"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/models"
)

func lookupTag(t *testing.T, name string) *models.Tag {
	t.Helper()
	var tag models.Tag
	require.NoError(t, testDB.Where("name = ?", name).First(&tag).Error)
	return &tag
}

func TestAnswerCounters(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	question := createQuestion(t, eng, asker.ID, "How many answers does this have now?")

	answer := createAnswer(t, eng, author.ID, question.ID)
	assert.Equal(t, 1, reloadQuestion(t, db, question.ID).AnswerCount)
	assert.Equal(t, 1, reloadUser(t, db, author.ID).AnswersCount)

	require.NoError(t, eng.DeleteAnswer(ctx, author.ID, answer.ID))
	assert.Equal(t, 0, reloadQuestion(t, db, question.ID).AnswerCount)
	assert.Equal(t, 0, reloadUser(t, db, author.ID).AnswersCount)
}

func TestCreateAnswerOnClosedQuestionConflicts(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	question := createQuestion(t, eng, asker.ID, "Is this question closed for answers?")
	require.NoError(t, db.Model(&models.Question{}).Where("id = ?", question.ID).
		Update("is_closed", true).Error)

	_, err := eng.CreateAnswer(ctx, author.ID, question.ID, "A long enough answer for a closed question.")
	require.ErrorIs(t, err, engine.ErrConflict)
	assert.Equal(t, 0, reloadQuestion(t, db, question.ID).AnswerCount)
	assert.Equal(t, 0, reloadUser(t, db, author.ID).AnswersCount)
}

func TestDeleteAcceptedAnswerUnwindsAcceptance(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	question := createQuestion(t, eng, asker.ID, "What if the accepted answer goes away?")
	answer := createAnswer(t, eng, author.ID, question.ID)

	require.NoError(t, eng.AcceptAnswer(ctx, asker.ID, answer.ID))
	assert.Equal(t, 15, reloadUser(t, db, author.ID).ReputationScore)

	require.NoError(t, eng.DeleteAnswer(ctx, author.ID, answer.ID))

	q := reloadQuestion(t, db, question.ID)
	assert.False(t, q.HasAcceptedAnswer)
	assert.Nil(t, q.AcceptedAnswerID)
	assert.Equal(t, 0, reloadUser(t, db, author.ID).ReputationScore)
	assert.Equal(t, 0, q.AnswerCount)
}

func TestDeleteAnswerRemovesItsScoreFromQuestion(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	other := createUser(t, db, "other")
	voter := createUser(t, db, "voter")
	question := createQuestion(t, eng, asker.ID, "Does the aggregate follow deleted answers?")
	answer := createAnswer(t, eng, author.ID, question.ID)
	kept := createAnswer(t, eng, other.ID, question.ID)

	_, err := eng.CastVote(ctx, voter.ID, answer.ID, true)
	require.NoError(t, err)
	_, err = eng.CastVote(ctx, voter.ID, kept.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, reloadQuestion(t, db, question.ID).VoteScore)

	// Only the surviving answer's downvote remains in the aggregate
	require.NoError(t, eng.DeleteAnswer(ctx, author.ID, answer.ID))
	assert.Equal(t, -1, reloadQuestion(t, db, question.ID).VoteScore)
	assert.Equal(t, -1, reloadAnswer(t, db, kept.ID).VoteScore)
}

func TestDeleteAnswerForbiddenForOthers(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	bystander := createUser(t, db, "bystander")
	question := createQuestion(t, eng, asker.ID, "Who may delete somebody's answer here?")
	answer := createAnswer(t, eng, author.ID, question.ID)

	err := eng.DeleteAnswer(ctx, bystander.ID, answer.ID)
	require.ErrorIs(t, err, engine.ErrForbidden)
	assert.Equal(t, 1, reloadQuestion(t, db, question.ID).AnswerCount)
}

func TestCommentCounters(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	commenter := createUser(t, db, "commenter")
	question := createQuestion(t, eng, asker.ID, "How do comment counters stay honest?")
	answer := createAnswer(t, eng, author.ID, question.ID)

	comment, err := eng.CreateComment(ctx, commenter.ID, answer.ID, "Nice answer!")
	require.NoError(t, err)
	assert.Equal(t, 1, reloadAnswer(t, db, answer.ID).CommentCount)

	require.NoError(t, eng.DeleteComment(ctx, commenter.ID, comment.ID))
	assert.Equal(t, 0, reloadAnswer(t, db, answer.ID).CommentCount)
}

func TestCommentCountClampsAtZero(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	commenter := createUser(t, db, "commenter")
	question := createQuestion(t, eng, asker.ID, "Can a counter ever drop below zero?")
	answer := createAnswer(t, eng, author.ID, question.ID)

	comment, err := eng.CreateComment(ctx, commenter.ID, answer.ID, "First!")
	require.NoError(t, err)

	// Simulate pre-existing drift; the delete must clamp, not go negative
	require.NoError(t, db.Model(&models.Answer{}).Where("id = ?", answer.ID).
		Update("comment_count", 0).Error)

	require.NoError(t, eng.DeleteComment(ctx, commenter.ID, comment.ID))
	assert.Equal(t, 0, reloadAnswer(t, db, answer.ID).CommentCount)
}

func TestQuestionCountersAndTags(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	author := createUser(t, db, "author")

	question, err := eng.CreateQuestion(ctx, author.ID,
		"How should tags be counted exactly?",
		"A long enough description for the tag counting question.",
		[]string{"Go", "  gorm ", "go"}) // normalized and deduplicated
	require.NoError(t, err)

	assert.Equal(t, 1, reloadUser(t, db, author.ID).QuestionsCount)
	assert.Equal(t, 1, lookupTag(t, "go").UsageCount)
	assert.Equal(t, 1, lookupTag(t, "gorm").UsageCount)

	var links int64
	db.Model(&models.QuestionTag{}).Where("question_id = ?", question.ID).Count(&links)
	assert.EqualValues(t, 2, links)

	// A second question reuses the tag
	_, err = eng.CreateQuestion(ctx, author.ID,
		"Another question about the same topic?",
		"A long enough description for the second tag question.",
		[]string{"go"})
	require.NoError(t, err)
	assert.Equal(t, 2, lookupTag(t, "go").UsageCount)
}

func TestTagUsageDecrementsOnTagSetReplacement(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	author := createUser(t, db, "author")
	question, err := eng.CreateQuestion(ctx, author.ID,
		"Which tags describe this question best?",
		"A long enough description for the tag replacement question.",
		[]string{"go", "gorm"})
	require.NoError(t, err)

	newTags := []string{"go", "postgres"}
	_, err = eng.UpdateQuestion(ctx, author.ID, question.ID, models.UpdateQuestionRequest{
		TagNames: &newTags,
	})
	require.NoError(t, err)

	// gorm was dropped from the set, so its count falls back to zero
	assert.Equal(t, 0, lookupTag(t, "gorm").UsageCount)
	assert.Equal(t, 1, lookupTag(t, "go").UsageCount)
	assert.Equal(t, 1, lookupTag(t, "postgres").UsageCount)

	var links int64
	db.Model(&models.QuestionTag{}).Where("question_id = ?", question.ID).Count(&links)
	assert.EqualValues(t, 2, links)
}

func TestDeleteQuestionUnwindsEverything(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	voter := createUser(t, db, "voter")

	question := createQuestion(t, eng, asker.ID, "What happens when a question dies?")
	answer := createAnswer(t, eng, author.ID, question.ID)
	_, err := eng.CastVote(ctx, voter.ID, answer.ID, true)
	require.NoError(t, err)
	_, err = eng.CreateComment(ctx, voter.ID, answer.ID, "Interesting.")
	require.NoError(t, err)

	require.NoError(t, eng.DeleteQuestion(ctx, asker.ID, question.ID))

	assert.Equal(t, 0, reloadUser(t, db, asker.ID).QuestionsCount)
	assert.Equal(t, 0, reloadUser(t, db, author.ID).AnswersCount)
	assert.Equal(t, 0, lookupTag(t, "go").UsageCount)

	var answers, votes, comments, links int64
	db.Model(&models.Answer{}).Where("question_id = ?", question.ID).Count(&answers)
	db.Model(&models.Vote{}).Where("answer_id = ?", answer.ID).Count(&votes)
	db.Model(&models.Comment{}).Where("answer_id = ?", answer.ID).Count(&comments)
	db.Model(&models.QuestionTag{}).Where("question_id = ?", question.ID).Count(&links)
	assert.Zero(t, answers)
	assert.Zero(t, votes)
	assert.Zero(t, comments)
	assert.Zero(t, links)
}

func TestDeleteQuestionRevokesAcceptanceReputation(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	question := createQuestion(t, eng, asker.ID, "Does acceptance outlive its question?")
	answer := createAnswer(t, eng, author.ID, question.ID)

	require.NoError(t, eng.AcceptAnswer(ctx, asker.ID, answer.ID))
	require.Equal(t, 15, reloadUser(t, db, author.ID).ReputationScore)

	require.NoError(t, eng.DeleteQuestion(ctx, asker.ID, question.ID))
	assert.Equal(t, 0, reloadUser(t, db, author.ID).ReputationScore)
	assert.Equal(t, 0, reloadUser(t, db, author.ID).AnswersCount)
}

func TestConcurrentQuestionCreatesShareNewTag(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	const writers = 6
	authors := make([]*models.User, writers)
	for i := range authors {
		authors[i] = createUser(t, db, fmt.Sprintf("author%d", i))
	}

	var wg sync.WaitGroup
	for _, author := range authors {
		wg.Add(1)
		go func(authorID int) {
			defer wg.Done()
			_, err := eng.CreateQuestion(ctx, authorID,
				"Who creates the shared tag first?",
				"A long enough description for the tag race question.",
				[]string{"freshtag"})
			assert.NoError(t, err)
		}(author.ID)
	}
	wg.Wait()

	var tags int64
	db.Model(&models.Tag{}).Where("name = ?", "freshtag").Count(&tags)
	assert.EqualValues(t, 1, tags)
	assert.Equal(t, writers, lookupTag(t, "freshtag").UsageCount)
}

func TestAnswerNotificationStored(t *testing.T) {
	eng, db := newEngine(t)

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	question := createQuestion(t, eng, asker.ID, "Will I hear about new answers here?")
	createAnswer(t, eng, author.ID, question.ID)

	var count int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", asker.ID, models.NotificationAnswerToQuestion).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestMentionNotificationOnQuestionCreate(t *testing.T) {
	eng, db := newEngine(t)
	ctx := context.Background()

	author := createUser(t, db, "author")
	mentioned := createUser(t, db, "gopher")

	_, err := eng.CreateQuestion(ctx, author.ID,
		"Does anyone know about this topic?",
		"Maybe @gopher can help with this one, it is their specialty.",
		[]string{"go"})
	require.NoError(t, err)

	var count int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", mentioned.ID, models.NotificationMention).Count(&count)
	assert.EqualValues(t, 1, count)
}
