package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"schoolhub/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
	))
	return db
}

// seedQuiz creates a 3-question quiz with answer key [1, 0, 2] and one
// student to attempt it.
func seedQuiz(t *testing.T, db *gorm.DB) (quizID, studentID uint) {
	t.Helper()

	student := models.Student{
		FullName:     "Ayesha Khan",
		RollNumber:   "12",
		GRNumber:     "GR-481",
		AdmissionFor: "5",
		Email:        "ayesha@example.com",
	}
	require.NoError(t, db.Create(&student).Error)

	qz := models.Quiz{
		Title:         "Science Mid Term",
		Subject:       "Science",
		TargetType:    models.TargetClass,
		ClassName:     "5",
		QuestionLimit: 3,
		Questions: []models.QuizQuestion{
			{Question: "Q1", Options: datatypes.JSONSlice[string]{"a", "b", "c"}, CorrectIndex: 1},
			{Question: "Q2", Options: datatypes.JSONSlice[string]{"a", "b", "c"}, CorrectIndex: 0},
			{Question: "Q3", Options: datatypes.JSONSlice[string]{"a", "b", "c"}, CorrectIndex: 2},
		},
	}
	require.NoError(t, db.Create(&qz).Error)
	return qz.ID, student.ID
}

func TestInitializeCreatesAttemptWithSnapshot(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	result, err := svc.Initialize(quizID, studentID, []int{2, 0, 1})
	require.NoError(t, err)
	assert.False(t, result.Resumed)
	assert.NotZero(t, result.AttemptID)
	assert.Empty(t, result.Answers)
	assert.Equal(t, []int{2, 0, 1}, result.QuestionOrder)

	var attempt models.QuizAttempt
	require.NoError(t, db.First(&attempt, result.AttemptID).Error)
	assert.Equal(t, models.AttemptInProgress, attempt.Status)
	assert.Equal(t, "Ayesha Khan", attempt.StudentName)
	assert.Equal(t, "GR-481", attempt.StudentGRNumber)
	assert.Equal(t, "5", attempt.ClassName)
}

func TestInitializeResumesWithStoredOrder(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	first, err := svc.Initialize(quizID, studentID, []int{2, 0, 1})
	require.NoError(t, err)
	require.NoError(t, svc.SaveProgress(first.AttemptID, []int{2, -1, -1}))

	// A different proposed order on resume must not win; the original
	// assignment is authoritative.
	second, err := svc.Initialize(quizID, studentID, []int{0, 1, 2})
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.AttemptID, second.AttemptID)
	assert.Equal(t, []int{2, 0, 1}, second.QuestionOrder)
	assert.Equal(t, []int{2, -1, -1}, second.Answers)
}

func TestInitializeAfterCompletionConflicts(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	_, err := svc.Finalize(quizID, studentID, []int{1, 0, 2}, nil)
	require.NoError(t, err)

	_, err = svc.Initialize(quizID, studentID, nil)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestInitializeUnknownQuiz(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	_, studentID := seedQuiz(t, db)

	_, err := svc.Initialize(9999, studentID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveProgressOverwrites(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	result, err := svc.Initialize(quizID, studentID, nil)
	require.NoError(t, err)

	require.NoError(t, svc.SaveProgress(result.AttemptID, []int{1, -1, -1}))
	require.NoError(t, svc.SaveProgress(result.AttemptID, []int{1, 0, -1}))

	var attempt models.QuizAttempt
	require.NoError(t, db.First(&attempt, result.AttemptID).Error)
	assert.Equal(t, []int{1, 0, -1}, []int(attempt.Answers))
	assert.Equal(t, models.AttemptInProgress, attempt.Status)
}

func TestSaveProgressUnknownAttempt(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	err := svc.SaveProgress(12345, []int{0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveProgressOnCompletedAttempt(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	result, err := svc.Initialize(quizID, studentID, nil)
	require.NoError(t, err)
	_, err = svc.Finalize(quizID, studentID, []int{1, 0, 2}, nil)
	require.NoError(t, err)

	err = svc.SaveProgress(result.AttemptID, []int{0, 0, 0})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestFinalizeScoresWithStoredOrder(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	_, err := svc.Initialize(quizID, studentID, []int{2, 0, 1})
	require.NoError(t, err)

	// key [1,0,2] through order [2,0,1]: answers [2,1,0] are all correct.
	result, err := svc.Finalize(quizID, studentID, []int{2, 1, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Score)
	assert.Equal(t, 3, result.Answered)

	var attempt models.QuizAttempt
	require.NoError(t, db.First(&attempt, result.AttemptID).Error)
	assert.Equal(t, models.AttemptCompleted, attempt.Status)
	assert.Equal(t, 3, attempt.Score)
	require.NotNil(t, attempt.SubmittedAt)
}

func TestFinalizeIgnoresCallerOrderAfterIdentityInit(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	// Initialized with identity presentation: empty stored order.
	_, err := svc.Initialize(quizID, studentID, nil)
	require.NoError(t, err)

	// Against key [1,0,2] these answers are all wrong in identity order,
	// but all correct if the submitted permutation were honored.
	result, err := svc.Finalize(quizID, studentID, []int{2, 1, 0}, []int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 3, result.Answered)

	var attempt models.QuizAttempt
	require.NoError(t, db.First(&attempt, result.AttemptID).Error)
	assert.Empty(t, []int(attempt.QuestionOrder))
}

func TestFinalizeIgnoresCallerOrderAfterShuffledInit(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	_, err := svc.Initialize(quizID, studentID, []int{2, 0, 1})
	require.NoError(t, err)

	// Correct under the stored order, regardless of the order the
	// caller claims at submit time.
	result, err := svc.Finalize(quizID, studentID, []int{2, 1, 0}, []int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Score)

	var attempt models.QuizAttempt
	require.NoError(t, db.First(&attempt, result.AttemptID).Error)
	assert.Equal(t, []int{2, 0, 1}, []int(attempt.QuestionOrder))
}

func TestFinalizeTwiceConflictsAndKeepsScore(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	first, err := svc.Finalize(quizID, studentID, []int{1, 0, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Score)

	_, err = svc.Finalize(quizID, studentID, []int{0, 1, 0}, nil)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	var attempt models.QuizAttempt
	require.NoError(t, db.First(&attempt, first.AttemptID).Error)
	assert.Equal(t, 3, attempt.Score, "a rejected re-submission must not change the stored score")
}

func TestFinalizeDirectSubmitWithoutInit(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	result, err := svc.Finalize(quizID, studentID, []int{2, 1, 0}, []int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Score)

	var attempt models.QuizAttempt
	require.NoError(t, db.First(&attempt, result.AttemptID).Error)
	assert.Equal(t, models.AttemptCompleted, attempt.Status)
	assert.Equal(t, "Ayesha Khan", attempt.StudentName)
	assert.Equal(t, []int{2, 0, 1}, []int(attempt.QuestionOrder))
}

func TestFinalizeUnansweredPositions(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	_, err := svc.Initialize(quizID, studentID, []int{2, 0, 1})
	require.NoError(t, err)

	result, err := svc.Finalize(quizID, studentID, []int{2, -1, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 2, result.Answered)
}

func TestDeleteQuizCascadesAttempts(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	other := models.Student{FullName: "Bilal Ahmed", AdmissionFor: "5"}
	require.NoError(t, db.Create(&other).Error)

	_, err := svc.Initialize(quizID, studentID, nil)
	require.NoError(t, err)
	_, err = svc.Finalize(quizID, other.ID, []int{1, 0, 2}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteQuiz(quizID))

	var attempts, quizzes int64
	require.NoError(t, db.Model(&models.QuizAttempt{}).Where("quiz_id = ?", quizID).Count(&attempts).Error)
	require.NoError(t, db.Model(&models.Quiz{}).Where("id = ?", quizID).Count(&quizzes).Error)
	assert.Zero(t, attempts)
	assert.Zero(t, quizzes)
}

func TestDeleteQuizUnknown(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	assert.ErrorIs(t, svc.DeleteQuiz(404), ErrNotFound)
}

func TestDeleteAttemptsForQuizLeavesQuiz(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	quizID, studentID := seedQuiz(t, db)

	_, err := svc.Finalize(quizID, studentID, []int{1, 0, 2}, nil)
	require.NoError(t, err)

	count, err := svc.DeleteAttemptsForQuiz(quizID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	var quizzes int64
	require.NoError(t, db.Model(&models.Quiz{}).Where("id = ?", quizID).Count(&quizzes).Error)
	assert.EqualValues(t, 1, quizzes)
}
