package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AttemptInProgress = "in-progress"
	AttemptCompleted  = "completed"
)

type Quiz struct {
	gorm.Model
	Title            string `gorm:"not null"`
	Subject          string `gorm:"not null"`
	TargetType       string `gorm:"not null"` // all, class, student
	ClassName        string
	StudentID        *uint
	Student          *Student
	ResultsAnnounced bool `gorm:"default:false"`
	DurationMinutes  *int
	// QuestionLimit is the declared number of questions presented per
	// attempt; the bank in Questions may be larger.
	QuestionLimit int            `gorm:"not null"`
	Questions     []QuizQuestion `gorm:"constraint:OnDelete:CASCADE"`

	Session *string `gorm:"index"`
}

type QuizQuestion struct {
	gorm.Model
	QuizID       uint                          `gorm:"index;not null"`
	Question     string                        `gorm:"not null"`
	Options      datatypes.JSONSlice[string]
	CorrectIndex int    // zero-based index into Options
	Difficulty   string `gorm:"default:easy"` // easy, medium, hard
}

// QuizAttempt is one student's engagement with one quiz. The student
// fields are snapshotted at attempt start so the record stays meaningful
// if the student document changes or is deleted later.
//
// The composite unique index makes a second create for the same
// (quiz, student) pair fail at the database, closing the window between
// the existence check and the insert.
type QuizAttempt struct {
	gorm.Model
	QuizID    uint `gorm:"not null;uniqueIndex:idx_attempt_quiz_student"`
	Quiz      Quiz
	StudentID uint `gorm:"not null;uniqueIndex:idx_attempt_quiz_student"`

	Status string `gorm:"default:in-progress"` // in-progress, completed

	// Answers holds the selected option index per presented position;
	// -1 marks an unanswered position.
	Answers datatypes.JSONSlice[int]
	// QuestionOrder maps presented position to original question index.
	// Fixed when the attempt is created; empty means identity order.
	QuestionOrder datatypes.JSONSlice[int]

	Score       int
	SubmittedAt *time.Time
	LastUpdated time.Time

	// denormalized student snapshot
	StudentName       string
	StudentGRNumber   string
	StudentRollNumber string
	ClassName         string
	StudentEmail      string

	Session *string `gorm:"index"`
}
