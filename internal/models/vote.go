package models

import "time"

// Vote model - one row per (user, answer) pair, updated in place on a
// direction change and deleted on removal.
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"not null;uniqueIndex:uq_user_answer_vote" json:"user_id"`
	AnswerID  int       `gorm:"not null;uniqueIndex:uq_user_answer_vote" json:"answer_id"`
	IsUpvote  bool      `gorm:"not null" json:"is_upvote"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
