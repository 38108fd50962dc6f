package models

import "time"

const (
	NotificationAnswerToQuestion = "answer_to_question"
	NotificationCommentOnAnswer  = "comment_on_answer"
	NotificationMention          = "mention"
	NotificationAnswerAccepted   = "answer_accepted"
	NotificationVoteReceived     = "vote_received"
)

type Notification struct {
	ID      int    `gorm:"primaryKey" json:"id"`
	UserID  int    `gorm:"index" json:"user_id"`
	Type    string `gorm:"not null" json:"type"`
	Title   string `gorm:"not null" json:"title"`
	Message string `gorm:"not null" json:"message"`
	IsRead  bool   `gorm:"default:false" json:"is_read"`

	TriggeredByUserID *int `json:"triggered_by_user_id,omitempty"`
	RelatedQuestionID *int `json:"related_question_id,omitempty"`
	RelatedAnswerID   *int `json:"related_answer_id,omitempty"`
	RelatedCommentID  *int `json:"related_comment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
