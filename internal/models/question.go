package models

import "time"

type Question struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	AuthorID    int    `json:"author_id"`
	Author      User   `gorm:"foreignKey:AuthorID" json:"author"`

	ViewCount int `gorm:"default:0" json:"view_count"`
	// Net score across this question's answers. The engine's vote path is
	// the sole writer; there is no database trigger behind it.
	VoteScore   int `gorm:"default:0" json:"vote_score"`
	AnswerCount int `gorm:"default:0" json:"answer_count"`

	IsClosed          bool `gorm:"default:false" json:"is_closed"`
	HasAcceptedAnswer bool `gorm:"default:false" json:"has_accepted_answer"`
	AcceptedAnswerID  *int `json:"accepted_answer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateQuestionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TagNames    []string `json:"tag_names"`
}

type UpdateQuestionRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	TagNames    *[]string `json:"tag_names,omitempty"`
	IsClosed    *bool     `json:"is_closed,omitempty"`
}
