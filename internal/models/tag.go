package models

import "time"

type Tag struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"unique;not null" json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"` // hex color for display, e.g. "#FF5733"

	// Number of live question associations. Kept in step with question_tags
	// rows by the engine package.
	UsageCount int `gorm:"default:0" json:"usage_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionTag is the join row between questions and tags, unique per pair.
type QuestionTag struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	QuestionID int       `gorm:"not null;uniqueIndex:uq_question_tag" json:"question_id"`
	TagID      int       `gorm:"not null;uniqueIndex:uq_question_tag" json:"tag_id"`
	Tag        Tag       `gorm:"foreignKey:TagID" json:"tag"`
	CreatedAt  time.Time `json:"created_at"`
}
