package engine_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/database"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/engine"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/models"
	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/notify"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stackoverflow_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		log.Fatalf("Failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Failed to get connection string: %v", err)
	}

	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := database.Migrate(testDB); err != nil {
		log.Fatalf("Failed to migrate test database: %v", err)
	}

	code := m.Run()

	if err := testcontainers.TerminateContainer(container); err != nil {
		log.Printf("Failed to terminate container: %v", err)
	}
	os.Exit(code)
}

// newEngine truncates all tables and returns a fresh engine with the
// DB-backed notification sink.
func newEngine(t *testing.T) (*engine.Engine, *gorm.DB) {
	t.Helper()
	err := testDB.Exec(
		"TRUNCATE users, questions, answers, votes, tags, question_tags, comments, notifications RESTART IDENTITY CASCADE",
	).Error
	require.NoError(t, err)
	return engine.New(testDB, notify.NewDBSink(testDB)), testDB
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Role:     models.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createAdmin(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	admin := createUser(t, db, username)
	require.NoError(t, db.Model(admin).Update("role", models.RoleAdmin).Error)
	admin.Role = models.RoleAdmin
	return admin
}

func createQuestion(t *testing.T, eng *engine.Engine, authorID int, title string) *models.Question {
	t.Helper()
	question, err := eng.CreateQuestion(context.Background(), authorID,
		title, "A description long enough to be a real question body.", []string{"go"})
	require.NoError(t, err)
	return question
}

func createAnswer(t *testing.T, eng *engine.Engine, authorID, questionID int) *models.Answer {
	t.Helper()
	answer, err := eng.CreateAnswer(context.Background(), authorID, questionID,
		"An answer body that is long enough to pass validation.")
	require.NoError(t, err)
	return answer
}

func reloadUser(t *testing.T, db *gorm.DB, id int) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, id).Error)
	return &user
}

func reloadAnswer(t *testing.T, db *gorm.DB, id int) *models.Answer {
	t.Helper()
	var answer models.Answer
	require.NoError(t, db.First(&answer, id).Error)
	return &answer
}

func reloadQuestion(t *testing.T, db *gorm.DB, id int) *models.Question {
	t.Helper()
	var question models.Question
	require.NoError(t, db.First(&question, id).Error)
	return &question
}

// ledgerScore recomputes an answer's vote score from its live vote rows.
func ledgerScore(t *testing.T, db *gorm.DB, answerID int) int {
	t.Helper()
	var up, down int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("answer_id = ? AND is_upvote = ?", answerID, true).Count(&up).Error)
	require.NoError(t, db.Model(&models.Vote{}).
		Where("answer_id = ? AND is_upvote = ?", answerID, false).Count(&down).Error)
	return int(up - down)
}
