// Package engine is the community scoring and state-consistency core: it
// owns every write to vote records, vote scores, reputation, acceptance
// flags and the denormalized counters on users, questions, answers and
// tags. Nothing outside this package mutates those fields.
//
// Each public operation runs in one transaction and locks the rows it will
// mutate before reading them, always in the same order: answer, question,
// user. Commit or roll back as a unit; there are no partial effects.
package engine

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/models"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/notify"
)

type Engine struct {
	db   *gorm.DB
	sink notify.Sink
}

// New creates an engine over db. sink may be nil, which drops events.
func New(db *gorm.DB, sink notify.Sink) *Engine {
	return &Engine{db: db, sink: sink}
}

func (e *Engine) publish(events []notify.Event) {
	if e.sink == nil {
		return
	}
	for _, event := range events {
		e.sink.Publish(event)
	}
}

// canModerate is the single capability predicate shared by every entry
// point: the resource owner or an admin.
func canModerate(actor *models.User, ownerID int) bool {
	return actor.ID == ownerID || actor.IsAdmin()
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func lockAnswer(tx *gorm.DB, id int) (*models.Answer, error) {
	var answer models.Answer
	if err := forUpdate(tx).First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func lockQuestion(tx *gorm.DB, id int) (*models.Question, error) {
	var question models.Question
	if err := forUpdate(tx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func lockUser(tx *gorm.DB, id int) (*models.User, error) {
	var user models.User
	if err := forUpdate(tx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// loadActor fetches the acting user without a lock; actors are read-only
// unless they also own the mutated rows, in which case they were locked
// already.
func loadActor(tx *gorm.DB, id int) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// applyReputation adjusts a locked user's reputation by delta, never below
// zero.
func applyReputation(tx *gorm.DB, user *models.User, delta int) error {
	score := user.ReputationScore + delta
	if score < 0 {
		score = 0
	}
	user.ReputationScore = score
	return tx.Model(user).Update("reputation_score", score).Error
}

// clampCount floors a counter at zero. A clamp firing means the counter had
// drifted from its ledger, so it is logged as an anomaly rather than failed.
func clampCount(field string, id, value int) int {
	if value < 0 {
		log.Printf("Consistency anomaly: %s would go negative for id %d, clamping to 0", field, id)
		return 0
	}
	return value
}
