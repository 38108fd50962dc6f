package models

import "time"

type Answer struct {
	ID         int      `gorm:"primaryKey" json:"id"`
	Content    string   `gorm:"not null" json:"content"`
	QuestionID int      `gorm:"index" json:"question_id"`
	Question   Question `gorm:"foreignKey:QuestionID" json:"-"`
	AuthorID   int      `gorm:"index" json:"author_id"`
	Author     User     `gorm:"foreignKey:AuthorID" json:"author"`

	// Net vote score (upvotes - downvotes). May go negative.
	VoteScore    int  `gorm:"default:0" json:"vote_score"`
	CommentCount int  `gorm:"default:0" json:"comment_count"`
	IsAccepted   bool `gorm:"default:false" json:"is_accepted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateAnswerRequest struct {
	Content string `json:"content"`
}
