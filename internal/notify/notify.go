// Package notify is the notification sink the scoring engine hands events
// to after its transaction commits. Delivery is fire-and-forget: a failed
// insert is logged and never propagated back to the caller.
package notify

import (
	"log"
	"regexp"

	"gorm.io/gorm"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/models"
)

// Event describes something that happened in the core that a user should
// hear about.
type Event struct {
	Type        string
	RecipientID int
	TriggeredBy int
	Title       string
	Message     string
	QuestionID  *int
	AnswerID    *int
	CommentID   *int
}

// Sink accepts events produced by the engine.
type Sink interface {
	Publish(event Event)
}

// DBSink stores notifications as rows, outside the engine's transaction.
type DBSink struct {
	db  *gorm.DB
	sms *SMSForwarder // nil unless Twilio is configured
}

func NewDBSink(db *gorm.DB) *DBSink {
	return &DBSink{db: db, sms: NewSMSForwarderFromEnv()}
}

func (s *DBSink) Publish(event Event) {
	// Never notify users about their own activity
	if event.RecipientID == event.TriggeredBy {
		return
	}

	notification := models.Notification{
		UserID:            event.RecipientID,
		Type:              event.Type,
		Title:             event.Title,
		Message:           event.Message,
		RelatedQuestionID: event.QuestionID,
		RelatedAnswerID:   event.AnswerID,
		RelatedCommentID:  event.CommentID,
	}
	if event.TriggeredBy != 0 {
		triggeredBy := event.TriggeredBy
		notification.TriggeredByUserID = &triggeredBy
	}

	if err := s.db.Create(&notification).Error; err != nil {
		log.Printf("Failed to store %s notification for user %d: %v", event.Type, event.RecipientID, err)
		return
	}

	if s.sms != nil && event.Type == models.NotificationMention {
		var recipient models.User
		if err := s.db.First(&recipient, event.RecipientID).Error; err == nil && recipient.Phone != "" {
			s.sms.Send(recipient.Phone, event.Message)
		}
	}
}

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ExtractMentions returns the usernames mentioned with @username in content.
func ExtractMentions(content string) []string {
	var usernames []string
	for _, match := range mentionPattern.FindAllStringSubmatch(content, -1) {
		usernames = append(usernames, match[1])
	}
	return usernames
}
